package services_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/services"
	test "github.com/jaycherian/gcp-go-video-source-finder/internal/testutil"
)

func TestZZDebug(t *testing.T) {
	tr := test.GetTestTranscript()
	chunks := commands.ChunkTranscript(tr, 100)
	emb := test.NewFakeEmbedder("fake-embedder-001")
	q, _ := emb.EmbedText(context.Background(), verbatimSnippet)
	for _, c := range chunks {
		e, _ := emb.EmbedText(context.Background(), c.Text)
		fmt.Printf("chunk id=%q start=%v end=%v sim=%.3f text=%q\n", c.Id, c.Start, c.End, services.CosineSimilarity(q, e), c.Text)
	}
}
