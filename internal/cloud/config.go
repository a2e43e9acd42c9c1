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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files, along with the clients for the Google Cloud
// services the finder depends on.
//
// Structs:
//   - SearchTuning: thresholds and limits for the matching policy.
//   - ChunkingConfig: transcript chunking parameters.
//   - StoreConfig: transcript store backend selection.
//   - BigQueryDataSource: BigQuery dataset and chunk table names.
//   - Storage: GCS bucket for the transcript cache.
//   - TranscriptSource: SearchAPI.io transcript endpoint settings.
//   - SearchProvider: a single video discovery provider (Serper, Tavily).
//   - VertexAiEmbeddingModel: a Vertex AI embedding model.
//   - TopicSubscription: a Pub/Sub subscription for async index requests.
//   - Config: the top-level aggregate, populated by LoadConfig.
package cloud

import (
	"sort"
	"time"
)

// SearchTuning holds the fixed thresholds and limits of the matching
// policy. These are heuristics, not learned values; the defaults live in
// configs/.env.toml.
type SearchTuning struct {
	TopK                int     `toml:"top_k"`                 // Number of nearest chunks fetched per similarity query.
	AcceptanceThreshold float64 `toml:"acceptance_threshold"`  // Minimum confidence for a hit to be returned without discovery.
	AdjacencyThreshold  float64 `toml:"adjacency_threshold"`   // Minimum neighbor similarity when widening the answer span.
	TieEpsilon          float64 `toml:"tie_epsilon"`           // Confidence window within which two hits are considered tied.
	MaxCandidates       int     `toml:"max_candidates"`        // Cap on discovery candidates indexed per query.
	MergeMaxGapSeconds  float64 `toml:"merge_max_gap_seconds"` // Maximum time gap between chunks merged into one span.
}

// ChunkingConfig controls how a transcript is sliced into chunks.
type ChunkingConfig struct {
	TargetSize int `toml:"target_size"` // Target chunk size in characters; chunks never split a transcript line.
}

// StoreConfig selects the transcript store backend.
type StoreConfig struct {
	Backend string `toml:"backend"` // "bigquery" or "memory".
}

// BigQueryDataSource represents the configuration for the BigQuery-backed
// transcript store.
type BigQueryDataSource struct {
	DatasetName string `toml:"dataset"`     // The name of the BigQuery dataset.
	ChunkTable  string `toml:"chunk_table"` // The table holding transcript chunks and their embeddings.
}

// Storage represents the configuration for GCS buckets. An empty bucket
// name disables the transcript cache.
type Storage struct {
	TranscriptCacheBucket string `toml:"transcript_cache_bucket"`
}

// TranscriptSource configures the SearchAPI.io transcript endpoint used by
// the acquirer.
type TranscriptSource struct {
	ApiKey               string   `toml:"api_key"`
	Endpoint             string   `toml:"endpoint"`
	TimeoutInSeconds     int      `toml:"timeout_in_seconds"`
	Languages            []string `toml:"languages"`                // Preferred caption languages, in order.
	MaxRequestsPerMinute int      `toml:"max_requests_per_minute"`
}

// SearchProvider configures one external video search provider. Providers
// are consulted in ascending Priority order; a provider with an empty API
// key is skipped.
type SearchProvider struct {
	ApiKey           string `toml:"api_key"`
	Endpoint         string `toml:"endpoint"`
	TimeoutInSeconds int    `toml:"timeout_in_seconds"`
	Priority         int    `toml:"priority"`
}

// Timeout returns the provider's per-request timeout, defaulting to 10
// seconds when unset.
func (p SearchProvider) Timeout() time.Duration {
	if p.TimeoutInSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(p.TimeoutInSeconds) * time.Second
}

// ProviderKeysByPriority returns the configured provider keys sorted by
// ascending Priority, ties broken by key name for determinism.
func ProviderKeysByPriority(providers map[string]SearchProvider) []string {
	keys := make([]string, 0, len(providers))
	for k := range providers {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := providers[keys[i]], providers[keys[j]]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return keys[i] < keys[j]
	})
	return keys
}

// VertexAiEmbeddingModel represents the configuration for a Vertex AI
// embedding model.
type VertexAiEmbeddingModel struct {
	Model                string `toml:"model"`
	MaxRequestsPerMinute int    `toml:"max_requests_per_minute"`
}

// TopicSubscription represents the configuration for a Pub/Sub topic
// subscription delivering asynchronous index requests.
type TopicSubscription struct {
	Name             string `toml:"name"`
	TimeoutInSeconds int    `toml:"timeout_in_seconds"`
}

// Config represents the overall configuration for the application, loaded
// from TOML files. It acts as the root container for all other
// configuration structs.
type Config struct {
	Application struct {
		Name            string `toml:"name"`
		GoogleProjectId string `toml:"google_project_id"`
		GoogleLocation  string `toml:"location"`
	} `toml:"application"`
	Search             SearchTuning                      `toml:"search"`
	Chunking           ChunkingConfig                    `toml:"chunking"`
	Store              StoreConfig                       `toml:"store"`
	BigQueryDataSource BigQueryDataSource                `toml:"big_query_data_source"`
	Storage            Storage                           `toml:"storage"`
	Transcripts        TranscriptSource                  `toml:"transcripts"`
	SearchProviders    map[string]SearchProvider         `toml:"search_providers"`
	EmbeddingModels    map[string]VertexAiEmbeddingModel `toml:"embedding_models"`
	TopicSubscriptions map[string]TopicSubscription      `toml:"topic_subscriptions"`
}

// NewConfig creates a Config with its map fields initialized so the TOML
// decoder can populate them without nil checks.
func NewConfig() *Config {
	return &Config{
		SearchProviders:    make(map[string]SearchProvider),
		EmbeddingModels:    make(map[string]VertexAiEmbeddingModel),
		TopicSubscriptions: make(map[string]TopicSubscription),
	}
}
