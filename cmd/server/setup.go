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

package main

import (
	"context"
	"log"
	"os"

	"github.com/jaycherian/gcp-go-video-source-finder/internal/cloud"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/services"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/workflow"
)

// StateManager holds the shared components for the application.
type StateManager struct {
	config        *cloud.Config
	cloud         *cloud.ServiceClients
	searchService *services.SearchService
	indexer       *workflow.VideoIndexWorkflow
}

var state = &StateManager{}

// SetupOS points the config loader at the local configs directory for the
// "local" runtime. Deployed environments override both variables.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "local")
	return err
}

// GetConfig loads the application configuration on first use.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup os environment: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// newStore selects the transcript store backend. BigQuery is the
// production default; the in-memory store serves tests and single-process
// setups that have nothing durable behind them.
func newStore(config *cloud.Config, clients *cloud.ServiceClients) services.Store {
	if config.Store.Backend == "memory" {
		return services.NewMemoryStore()
	}
	return services.NewBigQueryStore(
		clients.BigQueryClient,
		config.BigQueryDataSource.DatasetName,
		config.BigQueryDataSource.ChunkTable)
}

// newDiscoverer assembles the provider chain in ascending priority order,
// skipping providers without an API key.
func newDiscoverer(config *cloud.Config) *services.DiscoveryService {
	providers := make([]services.VideoSearchProvider, 0, len(config.SearchProviders))
	for _, key := range cloud.ProviderKeysByPriority(config.SearchProviders) {
		p := config.SearchProviders[key]
		if p.ApiKey == "" {
			continue
		}
		switch key {
		case "serper":
			providers = append(providers, services.NewSerperProvider(p.ApiKey, p.Endpoint, p.Timeout()))
		case "tavily":
			providers = append(providers, services.NewTavilyProvider(p.ApiKey, p.Endpoint, p.Timeout()))
		default:
			log.Printf("unknown search provider %q in config, skipping\n", key)
		}
	}
	return services.NewDiscoveryService(providers, config.Search.MaxCandidates)
}

// InitState initializes the application state and dependencies: cloud
// clients, the transcript store, the indexing workflow, and the search
// service, then attaches the Pub/Sub listeners.
func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}
	state.cloud = cloudClients

	store := newStore(config, cloudClients)
	cache := cloud.NewTranscriptCache(cloudClients.StorageClient, config.Storage.TranscriptCacheBucket)
	acquirer := services.NewTranscriptService(&config.Transcripts, cache)
	embedder := cloudClients.EmbeddingModels["default"]

	state.indexer = workflow.NewVideoIndexWorkflow(config, acquirer, embedder, store)
	state.searchService = services.NewSearchService(store, embedder, newDiscoverer(config), state.indexer, &config.Search)

	SetupListeners(ctx, cloudClients)
}

// SetupListeners attaches the indexing workflow to the index-request
// subscription and starts receiving.
func SetupListeners(ctx context.Context, cloudClients *cloud.ServiceClients) {
	if listener, ok := cloudClients.PubSubListeners["IndexRequests"]; ok {
		listener.SetCommand(state.indexer)
		listener.Listen(ctx)
	}
}
