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
// finder. This file, `search.go`, defines the SearchService, which
// implements the matching policy: embed the snippet, look for an
// acceptable hit among the stored chunks, and only when that fails fall
// back to discovering, indexing, and re-querying candidate videos from
// the external search providers.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jaycherian/gcp-go-video-source-finder/internal/cloud"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/model"
)

// SearchService encapsulates the collaborators and tuning needed to answer
// a find-source query. The Store, Embedder, Discoverer, and VideoIndexer
// are all injected so the matching policy can be tested against fakes.
type SearchService struct {
	Store      Store               // The transcript chunk store (BigQuery or in-memory).
	Embedder   Embedder            // Converts the query snippet into a vector.
	Discoverer Discoverer          // Proposes candidate videos when the store has no acceptable hit.
	Indexer    VideoIndexer        // Runs the acquisition pipeline for one candidate.
	Tuning     *cloud.SearchTuning // Thresholds and limits of the matching policy.
}

// NewSearchService wires a SearchService from its collaborators.
func NewSearchService(store Store, embedder Embedder, discoverer Discoverer, indexer VideoIndexer, tuning *cloud.SearchTuning) *SearchService {
	return &SearchService{
		Store:      store,
		Embedder:   embedder,
		Discoverer: discoverer,
		Indexer:    indexer,
		Tuning:     tuning,
	}
}

// FindSource locates the video and timestamp range a transcript snippet
// came from.
//
// The happy path embeds the snippet, asks the store for the nearest
// chunks, and returns the best hit when its confidence clears the
// acceptance threshold. Otherwise the service runs one discovery round:
// candidates from the search providers are indexed sequentially, the
// store is re-queried after each, and the first acceptable hit
// short-circuits the loop.
//
// A (nil, nil) return means the snippet could not be located anywhere.
// Errors are reserved for invalid input, infrastructure failures, and the
// embedding version guard.
func (s *SearchService) FindSource(ctx context.Context, snippet string) (*model.SearchResult, error) {
	snippet = strings.TrimSpace(snippet)
	if snippet == "" {
		return nil, fmt.Errorf("%w: empty snippet", model.ErrInvalidInput)
	}

	embedding, err := s.Embedder.EmbedText(ctx, snippet)
	if err != nil {
		return nil, fmt.Errorf("failed to embed snippet: %w", err)
	}

	result, err := s.queryBest(ctx, embedding)
	if err != nil {
		return nil, err
	}
	if result != nil {
		return result, nil
	}

	return s.discoverAndIndex(ctx, snippet, embedding)
}

// Stats exposes the store's contents for the stats endpoint.
func (s *SearchService) Stats(ctx context.Context) (*StoreStats, error) {
	return s.Store.Stats(ctx)
}

// queryBest runs one similarity query and returns a result when the best
// hit clears the acceptance threshold, or nil when it does not. Hits
// whose confidence is within TieEpsilon of the best are considered tied;
// among the tied, the chunk covering the longer span wins, then the
// earliest start, so repeated queries are deterministic.
func (s *SearchService) queryBest(ctx context.Context, embedding []float64) (*model.SearchResult, error) {
	matches, err := s.Store.QueryTopK(ctx, embedding, s.Tuning.TopK)
	if err != nil {
		return nil, fmt.Errorf("similarity query failed: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	// Vectors from different embedding models are not comparable; a stale
	// chunk in the result set poisons the whole ranking.
	want := s.Embedder.ModelVersion()
	for _, m := range matches {
		if m.Chunk.EmbeddingModel != want {
			return nil, &model.EmbeddingVersionMismatchError{Want: want, Got: m.Chunk.EmbeddingModel}
		}
	}

	best := matches[0]
	if Confidence(best.Similarity) < s.Tuning.AcceptanceThreshold {
		return nil, nil
	}
	for _, m := range matches[1:] {
		if Confidence(best.Similarity)-Confidence(m.Similarity) > s.Tuning.TieEpsilon {
			break
		}
		bestSpan := best.Chunk.End - best.Chunk.Start
		span := m.Chunk.End - m.Chunk.Start
		if span > bestSpan || (span == bestSpan && m.Chunk.Start < best.Chunk.Start) {
			best = m
		}
	}

	return s.buildResult(ctx, best, embedding)
}

// buildResult turns an accepted chunk match into a SearchResult, widening
// the answer span across adjacent chunks of the same video. A neighbor is
// merged when it is close in time (gap at most MergeMaxGapSeconds) and
// still plausibly about the snippet (similarity at least
// AdjacencyThreshold); that way a snippet straddling a chunk boundary
// reports the full span it actually covers.
func (s *SearchService) buildResult(ctx context.Context, best *ChunkMatch, embedding []float64) (*model.SearchResult, error) {
	start := best.Chunk.Start
	end := best.Chunk.End
	texts := []string{best.Chunk.Text}

	siblings, err := s.Store.VideoChunks(ctx, best.Chunk.VideoId)
	if err != nil {
		return nil, fmt.Errorf("failed to load video chunks: %w", err)
	}

	idx := -1
	for i, c := range siblings {
		if c.Id == best.Chunk.Id {
			idx = i
			break
		}
	}
	if idx >= 0 {
		for i := idx - 1; i >= 0; i-- {
			c := siblings[i]
			if start-c.End > s.Tuning.MergeMaxGapSeconds ||
				CosineSimilarity(embedding, c.Embedding) < s.Tuning.AdjacencyThreshold {
				break
			}
			start = c.Start
			texts = append([]string{c.Text}, texts...)
		}
		for i := idx + 1; i < len(siblings); i++ {
			c := siblings[i]
			if c.Start-end > s.Tuning.MergeMaxGapSeconds ||
				CosineSimilarity(embedding, c.Embedding) < s.Tuning.AdjacencyThreshold {
				break
			}
			end = c.End
			texts = append(texts, c.Text)
		}
	}

	return model.NewSearchResult(
		best.Chunk.VideoId,
		start,
		end,
		Confidence(best.Similarity),
		strings.Join(texts, " "),
	), nil
}

// discoverAndIndex runs one discovery round: fetch candidates, index them
// sequentially (skipping videos already in the store), and re-query after
// each successful index. Acquisition failures disqualify only their own
// candidate, and a discovery failure just means no candidates: only store
// and embedding problems abort the search.
func (s *SearchService) discoverAndIndex(ctx context.Context, snippet string, embedding []float64) (*model.SearchResult, error) {
	candidates, err := s.Discoverer.FindCandidates(ctx, snippet)
	if err != nil {
		slog.Warn("video discovery failed", slog.String("error", err.Error()))
		return nil, nil
	}

	for _, candidate := range candidates {
		exists, err := s.Store.HasVideo(ctx, candidate.VideoId)
		if err != nil {
			return nil, fmt.Errorf("failed to check store for video %s: %w", candidate.VideoId, err)
		}
		if exists {
			// Already indexed and the earlier query did not accept it, so
			// indexing it again cannot change the answer.
			continue
		}

		count, err := s.Indexer.IndexVideo(ctx, candidate.VideoId)
		if err != nil {
			if model.IsAcquisitionError(err) {
				slog.Info("skipping candidate without usable transcript",
					slog.String("video_id", candidate.VideoId),
					slog.String("provider", candidate.SourceProvider),
					slog.String("error", err.Error()))
				continue
			}
			return nil, fmt.Errorf("failed to index candidate %s: %w", candidate.VideoId, err)
		}
		if count == 0 {
			continue
		}

		result, err := s.queryBest(ctx, embedding)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}
	}

	// Every candidate is indexed (or skipped) and nothing cleared the
	// threshold: the snippet cannot be located.
	return nil, nil
}
