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

// Package services contains the business logic of the video source finder:
// the transcript store, the matching policy, video discovery, and
// transcript acquisition. This file defines the small interfaces the
// SearchService is assembled from, so each collaborator can be swapped for
// a fake in tests and so the indexing pipeline (which lives in the
// workflow package) can be injected without an import cycle.
package services

import (
	"context"

	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/model"
)

// Embedder converts text into a vector embedding. The production
// implementation is the quota-aware Vertex AI wrapper in the cloud
// package.
type Embedder interface {
	// EmbedText returns the embedding vector for the given text.
	EmbedText(ctx context.Context, text string) ([]float64, error)
	// ModelVersion identifies the model that produces the vectors. Vectors
	// from different versions are never comparable.
	ModelVersion() string
}

// ChunkMatch is one nearest-neighbor hit from the transcript store:
// a stored chunk together with its similarity to the query vector.
// Similarity is cosine similarity, so higher means closer.
type ChunkMatch struct {
	Chunk      *model.TranscriptChunk
	Similarity float64
}

// StoreStats summarizes the contents of the transcript store.
type StoreStats struct {
	Backend    string `json:"backend"`
	VideoCount int64  `json:"video_count"`
	ChunkCount int64  `json:"chunk_count"`
}

// Store is the persistence boundary for transcript chunks. Two
// implementations exist: BigQueryStore for production and MemoryStore for
// tests and single-process deployments. All methods are safe for
// concurrent use.
type Store interface {
	// Upsert writes chunks keyed by their deterministic ids. Writing the
	// same chunks twice leaves the store unchanged.
	Upsert(ctx context.Context, chunks []*model.TranscriptChunk) error
	// QueryTopK returns the topK chunks nearest to the given embedding,
	// ordered by descending similarity.
	QueryTopK(ctx context.Context, embedding []float64, topK int) ([]*ChunkMatch, error)
	// VideoChunks returns all stored chunks for a video ordered by start
	// time. A video with no chunks yields an empty slice, not an error.
	VideoChunks(ctx context.Context, videoId string) ([]*model.TranscriptChunk, error)
	// HasVideo reports whether any chunk for the video is stored.
	HasVideo(ctx context.Context, videoId string) (bool, error)
	// Stats returns chunk and video counts.
	Stats(ctx context.Context) (*StoreStats, error)
	// Close releases backend resources.
	Close() error
}

// Acquirer fetches the full timed transcript of a video from an external
// caption source. Failures that describe the video rather than the
// transport (no captions, restricted, unsupported language) are returned
// as *model.AcquisitionError.
type Acquirer interface {
	GetTranscript(ctx context.Context, videoId string) (*model.Transcript, error)
}

// Discoverer proposes candidate videos that may contain the queried text.
type Discoverer interface {
	FindCandidates(ctx context.Context, query string) ([]*model.CandidateVideo, error)
}

// VideoIndexer runs the full acquisition-to-persistence pipeline for one
// video. It returns the number of chunks written. The production
// implementation is the chain-of-command workflow in the workflow package.
type VideoIndexer interface {
	IndexVideo(ctx context.Context, videoId string) (int, error)
}
