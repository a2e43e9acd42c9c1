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

// Package workflow_test contains the test suite for the workflow package.
// This file exercises the video indexing pipeline end to end against
// in-process fakes: acquisition, chunking, embedding, and persistence.
package workflow_test

import (
	"context"
	"testing"

	"github.com/jaycherian/gcp-go-video-source-finder/internal/cloud"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/model"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/services"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-video-source-finder/internal/testutil"
	"github.com/zeebo/assert"
)

func newTestWorkflow() (*workflow.VideoIndexWorkflow, *services.MemoryStore, *test.FakeAcquirer, *cloud.Config) {
	config := cloud.NewConfig()
	config.Chunking.TargetSize = 100

	store := services.NewMemoryStore()
	acquirer := test.NewFakeAcquirer()
	embedder := test.NewFakeEmbedder("fake-embedder-001")
	return workflow.NewVideoIndexWorkflow(config, acquirer, embedder, store), store, acquirer, config
}

func TestIndexVideoWritesEmbeddedChunks(t *testing.T) {
	ctx := context.Background()
	indexer, store, acquirer, config := newTestWorkflow()

	transcript := test.GetTestTranscript()
	acquirer.Add(transcript)

	count, err := indexer.IndexVideo(ctx, test.TestVideoId)
	assert.NoError(t, err)

	// The chunk count matches what the chunker produces for this
	// transcript and target size.
	expected := commands.ChunkTranscript(transcript, config.Chunking.TargetSize)
	assert.Equal(t, len(expected), count)

	chunks, err := store.VideoChunks(ctx, test.TestVideoId)
	assert.NoError(t, err)
	assert.Equal(t, len(expected), len(chunks))
	for _, chunk := range chunks {
		assert.Equal(t, "fake-embedder-001", chunk.EmbeddingModel)
		assert.True(t, len(chunk.Embedding) > 0)
	}
}

func TestIndexVideoIsIdempotent(t *testing.T) {
	ctx := context.Background()
	indexer, store, acquirer, _ := newTestWorkflow()
	acquirer.Add(test.GetTestTranscript())

	first, err := indexer.IndexVideo(ctx, test.TestVideoId)
	assert.NoError(t, err)
	second, err := indexer.IndexVideo(ctx, test.TestVideoId)
	assert.NoError(t, err)
	assert.Equal(t, first, second)

	stats, err := store.Stats(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(first), stats.ChunkCount)
	assert.Equal(t, int64(1), stats.VideoCount)
}

func TestIndexVideoSurfacesAcquisitionErrors(t *testing.T) {
	ctx := context.Background()
	indexer, store, acquirer, _ := newTestWorkflow()
	acquirer.Errs["privateVid1"] = model.NewAcquisitionError(
		"privateVid1", model.AcquisitionRestricted, nil)

	_, err := indexer.IndexVideo(ctx, "privateVid1")
	assert.Error(t, err)
	assert.True(t, model.IsAcquisitionError(err))

	exists, err := store.HasVideo(ctx, "privateVid1")
	assert.NoError(t, err)
	assert.False(t, exists)
}

// The workflow doubles as a chain command so a Pub/Sub listener can drive
// it straight from an index-request message.
func TestWorkflowExecutesFromIndexRequestMessage(t *testing.T) {
	ctx := context.Background()
	indexer, store, acquirer, _ := newTestWorkflow()
	acquirer.Add(test.GetTestTranscript())

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	chainCtx.Add(cor.CtxIn, test.GetTestIndexRequestText())

	indexer.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	exists, err := store.HasVideo(ctx, test.TestVideoId)
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestWorkflowRecordsErrorsInChainContext(t *testing.T) {
	ctx := context.Background()
	indexer, _, _, _ := newTestWorkflow()

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	chainCtx.Add(cor.CtxIn, `{"video_id": "missingVideo"}`)

	indexer.Execute(chainCtx)

	// The fake acquirer knows nothing about this video, so the chain must
	// stop with an error and never reach persistence.
	assert.True(t, chainCtx.HasErrors())
}
