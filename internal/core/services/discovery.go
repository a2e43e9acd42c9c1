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
// finder. This file implements the DiscoveryService, which fans a query
// out to the configured search providers in priority order and merges
// their answers into a single ranked, deduplicated candidate list.
package services

import (
	"context"
	"log/slog"

	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/model"
)

// DiscoveryService implements Discoverer over an ordered slice of
// providers forming a fallback chain: a later provider is only consulted
// when every earlier one errored or produced no usable candidate.
type DiscoveryService struct {
	Providers     []VideoSearchProvider // Consulted in slice order.
	MaxCandidates int                   // Cap on the returned candidate list.
}

// NewDiscoveryService creates a discoverer over the given providers.
func NewDiscoveryService(providers []VideoSearchProvider, maxCandidates int) *DiscoveryService {
	return &DiscoveryService{Providers: providers, MaxCandidates: maxCandidates}
}

// FindCandidates reduces the snippet to a keyword query and walks the
// provider chain: the first provider yielding at least one usable
// candidate wins and later providers are not consulted. Candidates are
// deduplicated by video id with first appearance winning and the list is
// capped at MaxCandidates. A failing provider is logged and treated as
// zero candidates; its error only surfaces to the caller when every
// provider fails and nothing was found at all.
func (d *DiscoveryService) FindCandidates(ctx context.Context, snippet string) ([]*model.CandidateVideo, error) {
	query := SearchQuery(snippet)
	var lastErr error

	for _, p := range d.Providers {
		candidates, err := p.Search(ctx, query)
		if err != nil {
			slog.Warn("video search provider failed",
				slog.String("provider", p.Name()),
				slog.String("error", err.Error()))
			lastErr = err
			continue
		}

		out := make([]*model.CandidateVideo, 0, d.MaxCandidates)
		seen := make(map[string]struct{})
		for _, c := range candidates {
			if _, ok := seen[c.VideoId]; ok {
				continue
			}
			seen[c.VideoId] = struct{}{}
			c.Rank = len(out)
			out = append(out, c)
			if len(out) >= d.MaxCandidates {
				break
			}
		}
		if len(out) > 0 {
			return out, nil
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return []*model.CandidateVideo{}, nil
}
