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

// Package services contains the business logic for the video source
// finder. This file implements the in-memory transcript store, used for
// tests and for single-process deployments where BigQuery would be
// overkill. It keeps every chunk in a map keyed by id and answers
// similarity queries with a linear cosine scan, which is fine at the scale
// of a few thousand chunks.
package services

import (
	"context"
	"sort"
	"sync"

	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/model"
)

// MemoryStore is a Store kept entirely in process memory. A mutex guards
// all access; chunks are copied on write so callers cannot mutate stored
// state through retained pointers.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks map[string]*model.TranscriptChunk
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chunks: make(map[string]*model.TranscriptChunk)}
}

// Upsert stores the chunks keyed by id, replacing any existing chunk with
// the same id.
func (s *MemoryStore) Upsert(_ context.Context, chunks []*model.TranscriptChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		cp := *c
		s.chunks[c.Id] = &cp
	}
	return nil
}

// QueryTopK scans every stored chunk, scores it against the query vector,
// and returns the topK best by descending similarity. Ties break on chunk
// id so results are deterministic.
func (s *MemoryStore) QueryTopK(_ context.Context, embedding []float64, topK int) ([]*ChunkMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*ChunkMatch, 0, len(s.chunks))
	for _, c := range s.chunks {
		cp := *c
		out = append(out, &ChunkMatch{
			Chunk:      &cp,
			Similarity: CosineSimilarity(embedding, c.Embedding),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Chunk.Id < out[j].Chunk.Id
	})
	if topK < len(out) {
		out = out[:topK]
	}
	return out, nil
}

// VideoChunks returns the chunks for a video ordered by start time.
func (s *MemoryStore) VideoChunks(_ context.Context, videoId string) ([]*model.TranscriptChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.TranscriptChunk, 0)
	for _, c := range s.chunks {
		if c.VideoId == videoId {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

// HasVideo reports whether any chunk for the video is stored.
func (s *MemoryStore) HasVideo(_ context.Context, videoId string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.chunks {
		if c.VideoId == videoId {
			return true, nil
		}
	}
	return false, nil
}

// Stats returns chunk and distinct video counts.
func (s *MemoryStore) Stats(_ context.Context) (*StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	videos := make(map[string]struct{})
	for _, c := range s.chunks {
		videos[c.VideoId] = struct{}{}
	}
	return &StoreStats{
		Backend:    "memory",
		VideoCount: int64(len(videos)),
		ChunkCount: int64(len(s.chunks)),
	}, nil
}

// Close is a no-op for the in-memory backend.
func (s *MemoryStore) Close() error {
	return nil
}
