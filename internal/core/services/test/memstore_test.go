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
// This file covers the in-memory transcript store: upsert idempotency,
// nearest-neighbor ordering, and stats.
package services_test

import (
	"context"
	"testing"

	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/model"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/services"
	"github.com/zeebo/assert"
)

func chunkWithEmbedding(videoId string, start float64, embedding []float64) *model.TranscriptChunk {
	chunk := model.NewTranscriptChunk(videoId, "text", start, start+5, "test-model")
	chunk.Embedding = embedding
	return chunk
}

func TestMemoryStoreUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := services.NewMemoryStore()

	chunks := []*model.TranscriptChunk{
		chunkWithEmbedding("videoA", 0, []float64{1, 0}),
		chunkWithEmbedding("videoA", 5, []float64{0, 1}),
	}
	assert.NoError(t, store.Upsert(ctx, chunks))
	assert.NoError(t, store.Upsert(ctx, chunks))

	stats, err := store.Stats(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), stats.ChunkCount)
	assert.Equal(t, int64(1), stats.VideoCount)
	assert.Equal(t, "memory", stats.Backend)
}

func TestMemoryStoreQueryTopKOrdering(t *testing.T) {
	ctx := context.Background()
	store := services.NewMemoryStore()

	assert.NoError(t, store.Upsert(ctx, []*model.TranscriptChunk{
		chunkWithEmbedding("videoA", 0, []float64{1, 0}),
		chunkWithEmbedding("videoA", 5, []float64{0.9, 0.1}),
		chunkWithEmbedding("videoB", 0, []float64{0, 1}),
	}))

	matches, err := store.QueryTopK(ctx, []float64{1, 0}, 2)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(matches))
	// Exact match first, near match second, orthogonal chunk cut off.
	assert.Equal(t, "videoA", matches[0].Chunk.VideoId)
	assert.Equal(t, 0.0, matches[0].Chunk.Start)
	assert.True(t, matches[0].Similarity > matches[1].Similarity)
	assert.Equal(t, 5.0, matches[1].Chunk.Start)
}

func TestMemoryStoreVideoChunksOrderedByStart(t *testing.T) {
	ctx := context.Background()
	store := services.NewMemoryStore()

	assert.NoError(t, store.Upsert(ctx, []*model.TranscriptChunk{
		chunkWithEmbedding("videoA", 10, []float64{1, 0}),
		chunkWithEmbedding("videoA", 0, []float64{1, 0}),
		chunkWithEmbedding("videoB", 5, []float64{1, 0}),
	}))

	chunks, err := store.VideoChunks(ctx, "videoA")
	assert.NoError(t, err)
	assert.Equal(t, 2, len(chunks))
	assert.Equal(t, 0.0, chunks[0].Start)
	assert.Equal(t, 10.0, chunks[1].Start)
}

func TestMemoryStoreHasVideo(t *testing.T) {
	ctx := context.Background()
	store := services.NewMemoryStore()

	exists, err := store.HasVideo(ctx, "videoA")
	assert.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, store.Upsert(ctx, []*model.TranscriptChunk{
		chunkWithEmbedding("videoA", 0, []float64{1, 0}),
	}))

	exists, err = store.HasVideo(ctx, "videoA")
	assert.NoError(t, err)
	assert.True(t, exists)
}

// The store only ever grows: upserting existing ids rewrites rows and
// new ids add rows, so chunk counts never go down.
func TestMemoryStoreGrowthIsMonotonic(t *testing.T) {
	ctx := context.Background()
	store := services.NewMemoryStore()

	var prev int64
	for i := 0; i < 5; i++ {
		assert.NoError(t, store.Upsert(ctx, []*model.TranscriptChunk{
			chunkWithEmbedding("videoA", float64(i*5), []float64{1, 0}),
			chunkWithEmbedding("videoA", 0, []float64{1, 0}),
		}))
		stats, err := store.Stats(ctx)
		assert.NoError(t, err)
		assert.True(t, stats.ChunkCount >= prev)
		prev = stats.ChunkCount
	}
	assert.Equal(t, int64(5), prev)
}
