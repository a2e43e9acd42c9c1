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

// Package services_test contains the test suite for the services package.
// This file tests the full matching policy of the SearchService against
// the in-memory store, a deterministic embedder, and fake discovery and
// transcript sources: direct hits, the discovery fallback, candidate
// skipping, and the embedding version guard.
package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jaycherian/gcp-go-video-source-finder/internal/cloud"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/model"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/services"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-video-source-finder/internal/testutil"
	"github.com/zeebo/assert"
)

// verbatimSnippet is the exact text of the 15s-20s line of the canonical
// test transcript.
const verbatimSnippet = "never gonna give you up never gonna let you down"

// testStack bundles the collaborators of a SearchService wired against
// in-process fakes.
type testStack struct {
	search   *services.SearchService
	store    *services.MemoryStore
	embedder *test.FakeEmbedder
	acquirer *test.FakeAcquirer
	provider *test.FakeProvider
	indexer  *workflow.VideoIndexWorkflow
}

// newTestStack builds a search service over the in-memory store with the
// production thresholds and a 100-character chunk target, which slices
// the canonical test transcript into multiple chunks.
func newTestStack() *testStack {
	config := cloud.NewConfig()
	config.Chunking.TargetSize = 100
	config.Search = cloud.SearchTuning{
		TopK:                5,
		AcceptanceThreshold: 0.6,
		AdjacencyThreshold:  0.4,
		TieEpsilon:          0.02,
		MaxCandidates:       5,
		MergeMaxGapSeconds:  2.0,
	}

	store := services.NewMemoryStore()
	embedder := test.NewFakeEmbedder("fake-embedder-001")
	acquirer := test.NewFakeAcquirer()
	provider := &test.FakeProvider{ProviderName: "serper"}
	indexer := workflow.NewVideoIndexWorkflow(config, acquirer, embedder, store)
	discoverer := services.NewDiscoveryService(
		[]services.VideoSearchProvider{provider}, config.Search.MaxCandidates)

	return &testStack{
		search:   services.NewSearchService(store, embedder, discoverer, indexer, &config.Search),
		store:    store,
		embedder: embedder,
		acquirer: acquirer,
		provider: provider,
		indexer:  indexer,
	}
}

func TestFindSourceRejectsEmptySnippet(t *testing.T) {
	stack := newTestStack()

	for _, snippet := range []string{"", "   ", "\n\t"} {
		_, err := stack.search.FindSource(context.Background(), snippet)
		assert.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrInvalidInput))
	}
}

func TestFindSourceDirectHit(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack()

	stack.acquirer.Add(test.GetTestTranscript())
	count, err := stack.indexer.IndexVideo(ctx, test.TestVideoId)
	assert.NoError(t, err)
	assert.True(t, count > 1)

	result, err := stack.search.FindSource(ctx, verbatimSnippet)
	assert.NoError(t, err)
	assert.NotNil(t, result)

	assert.Equal(t, test.TestVideoId, result.VideoId)
	assert.Equal(t, "00:00:15", result.TimestampStart)
	assert.True(t, result.Confidence >= 0.6)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", result.Url)

	// The reported span covers at least the line the snippet came from
	// and never runs past the end of the transcript.
	endSeconds, err := model.ParseTimestamp(result.TimestampEnd)
	assert.NoError(t, err)
	assert.True(t, endSeconds >= 20)
	assert.True(t, endSeconds <= 30)

	// A hit in the store must not trigger discovery.
	assert.Equal(t, 0, stack.provider.Calls)
}

func TestFindSourceNotFoundReturnsNilNil(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack()

	stack.acquirer.Add(test.GetTestTranscript())
	_, err := stack.indexer.IndexVideo(ctx, test.TestVideoId)
	assert.NoError(t, err)

	// Nothing in the store resembles this, and discovery has no candidates.
	result, err := stack.search.FindSource(ctx, "quantum chromodynamics lattice simulation seminar")
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 1, stack.provider.Calls)
}

func TestFindSourceDiscoversAndIndexes(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack()

	// Store starts empty; the provider proposes the right video and the
	// acquirer can produce its transcript.
	stack.acquirer.Add(test.GetTestTranscript())
	stack.provider.Candidates = []*model.CandidateVideo{
		test.Candidate(test.TestVideoId, "serper"),
	}

	result, err := stack.search.FindSource(ctx, verbatimSnippet)
	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, test.TestVideoId, result.VideoId)
	assert.Equal(t, "00:00:15", result.TimestampStart)
	assert.Equal(t, 1, stack.acquirer.Calls[test.TestVideoId])

	// A second identical query is now served entirely from the store.
	result, err = stack.search.FindSource(ctx, verbatimSnippet)
	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, 1, stack.acquirer.Calls[test.TestVideoId])
	assert.Equal(t, 1, stack.provider.Calls)
}

func TestFindSourceSkipsCandidatesWithoutTranscripts(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack()

	stack.acquirer.Add(test.GetTestTranscript())
	stack.acquirer.Errs["restrictedVid"] = model.NewAcquisitionError(
		"restrictedVid", model.AcquisitionRestricted, nil)
	stack.provider.Candidates = []*model.CandidateVideo{
		test.Candidate("restrictedVid", "serper"),
		test.Candidate(test.TestVideoId, "serper"),
	}

	result, err := stack.search.FindSource(ctx, verbatimSnippet)
	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, test.TestVideoId, result.VideoId)
	assert.Equal(t, 1, stack.acquirer.Calls["restrictedVid"])
}

func TestFindSourceSkipsAlreadyIndexedCandidates(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack()

	// Index an unrelated video, then make discovery propose it again. The
	// matcher must not re-acquire it, and with no other candidate the
	// search comes up empty.
	stack.acquirer.Add(test.GetWelcomeTranscript("welcomeVid01"))
	_, err := stack.indexer.IndexVideo(ctx, "welcomeVid01")
	assert.NoError(t, err)
	assert.Equal(t, 1, stack.acquirer.Calls["welcomeVid01"])

	stack.provider.Candidates = []*model.CandidateVideo{
		test.Candidate("welcomeVid01", "serper"),
	}

	result, err := stack.search.FindSource(ctx, verbatimSnippet)
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 1, stack.acquirer.Calls["welcomeVid01"])
}

func TestFindSourceProviderFallback(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack()

	// First provider fails outright; the fallback provider still gets the
	// answer found.
	failing := &test.FakeProvider{
		ProviderName: "serper",
		Err:          &model.ProviderError{Provider: "serper", Err: errors.New("quota exhausted")},
	}
	fallback := &test.FakeProvider{
		ProviderName: "tavily",
		Candidates: []*model.CandidateVideo{
			test.Candidate(test.TestVideoId, "tavily"),
		},
	}
	stack.acquirer.Add(test.GetTestTranscript())
	stack.search.Discoverer = services.NewDiscoveryService(
		[]services.VideoSearchProvider{failing, fallback}, 5)

	result, err := stack.search.FindSource(ctx, verbatimSnippet)
	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, test.TestVideoId, result.VideoId)
	assert.Equal(t, 1, failing.Calls)
	assert.Equal(t, 1, fallback.Calls)
}

func TestFindSourceDiscoveryFailureIsNotFound(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack()

	// Every provider down is the same as no candidates: the caller sees a
	// clean not-found, not a provider error.
	stack.search.Discoverer = services.NewDiscoveryService(
		[]services.VideoSearchProvider{
			&test.FakeProvider{
				ProviderName: "serper",
				Err:          &model.ProviderError{Provider: "serper", Err: errors.New("quota exhausted")},
			},
		}, 5)

	result, err := stack.search.FindSource(ctx, verbatimSnippet)
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestFindSourceEmbeddingVersionGuard(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack()

	// Seed the store with a chunk produced by an older embedder version.
	oldEmbedder := test.NewFakeEmbedder("fake-embedder-000")
	embedding, err := oldEmbedder.EmbedText(ctx, verbatimSnippet)
	assert.NoError(t, err)
	chunk := model.NewTranscriptChunk(test.TestVideoId, verbatimSnippet, 15, 20, "fake-embedder-000")
	chunk.Embedding = embedding
	chunk.EmbeddingModel = "fake-embedder-000"
	assert.NoError(t, stack.store.Upsert(ctx, []*model.TranscriptChunk{chunk}))

	_, err = stack.search.FindSource(ctx, verbatimSnippet)
	assert.Error(t, err)
	var mismatch *model.EmbeddingVersionMismatchError
	assert.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "fake-embedder-001", mismatch.Want)
	assert.Equal(t, "fake-embedder-000", mismatch.Got)
}

func TestStatsReflectIndexedVideos(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack()

	stats, err := stack.search.Stats(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), stats.VideoCount)

	stack.acquirer.Add(test.GetTestTranscript())
	stack.acquirer.Add(test.GetWelcomeTranscript("welcomeVid01"))
	_, err = stack.indexer.IndexVideo(ctx, test.TestVideoId)
	assert.NoError(t, err)
	_, err = stack.indexer.IndexVideo(ctx, "welcomeVid01")
	assert.NoError(t, err)

	stats, err = stack.search.Stats(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), stats.VideoCount)
	assert.True(t, stats.ChunkCount >= int64(2))
}
