// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package commands_test contains the test suite for the commands package.
// This file verifies the transcript chunking invariants: chunks are
// contiguous, never split a line, never lose text, and carry honest
// timestamp spans.
package commands_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/model"
	test "github.com/jaycherian/gcp-go-video-source-finder/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestChunkTranscriptCoversEveryLineOnce(t *testing.T) {
	transcript := test.GetTestTranscript()
	chunks := commands.ChunkTranscript(transcript, 100)

	assert.NotEmpty(t, chunks)

	// Joining all chunk texts reproduces the transcript exactly: no
	// dropped words, no duplicated words.
	var wantWords, gotWords []string
	for _, line := range transcript.Lines {
		wantWords = append(wantWords, strings.Fields(line.Text)...)
	}
	for _, chunk := range chunks {
		gotWords = append(gotWords, strings.Fields(chunk.Text)...)
	}
	assert.Equal(t, wantWords, gotWords)
}

func TestChunkTranscriptSpansAreContiguous(t *testing.T) {
	transcript := test.GetTestTranscript()
	chunks := commands.ChunkTranscript(transcript, 100)

	assert.Equal(t, transcript.Lines[0].Start, chunks[0].Start)
	assert.Equal(t, transcript.Duration(), chunks[len(chunks)-1].End)

	for i, chunk := range chunks {
		assert.Less(t, chunk.Start, chunk.End, "chunk %d has an empty span", i)
		if i > 0 {
			// Each chunk starts where a line starts; consecutive chunks
			// never overlap in time.
			assert.GreaterOrEqual(t, chunk.Start, chunks[i-1].End)
		}
	}
}

func TestChunkTranscriptRespectsTargetSize(t *testing.T) {
	transcript := test.GetTestTranscript()
	chunks := commands.ChunkTranscript(transcript, 100)

	// The test transcript is ~240 characters, so a 100-character target
	// must produce more than one chunk, and no chunk may grow beyond the
	// target by more than one whole line.
	assert.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Text), 100+60)
	}
}

func TestChunkTranscriptSingleChunkWhenSmall(t *testing.T) {
	transcript := test.GetTestTranscript()
	chunks := commands.ChunkTranscript(transcript, 10000)

	assert.Len(t, chunks, 1)
	assert.Equal(t, transcript.Lines[0].Start, chunks[0].Start)
	assert.Equal(t, transcript.Duration(), chunks[0].End)
}

func TestChunkTranscriptSkipsBlankLines(t *testing.T) {
	transcript := &model.Transcript{
		VideoID: "blankLines01",
		Lines: []*model.TranscriptLine{
			{Text: "   ", Start: 0, End: 2},
			{Text: "actual words here", Start: 2, End: 5},
			{Text: "", Start: 5, End: 6},
		},
	}
	chunks := commands.ChunkTranscript(transcript, 500)

	assert.Len(t, chunks, 1)
	assert.Equal(t, "actual words here", chunks[0].Text)
	assert.Equal(t, 2.0, chunks[0].Start)
}

func TestChunkTranscriptIdsAreStable(t *testing.T) {
	transcript := test.GetTestTranscript()
	first := commands.ChunkTranscript(transcript, 100)
	second := commands.ChunkTranscript(transcript, 100)

	assert.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Id, second[i].Id, fmt.Sprintf("chunk %d id changed between runs", i))
	}
}
