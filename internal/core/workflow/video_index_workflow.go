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

// Package workflow defines the high-level business logic orchestrations,
// combining various commands into coherent pipelines. This file implements
// the video indexing workflow: acquire a video's transcript, slice it into
// chunks, embed each chunk, and persist the result to the transcript
// store.
package workflow

import (
	goctx "context"
	"errors"
	"fmt"

	"github.com/jaycherian/gcp-go-video-source-finder/internal/cloud"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/model"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/services"
	"go.opentelemetry.io/otel/codes"
)

// chunkCountParamName is the context key under which the persistence
// step reports how many chunks it wrote.
const chunkCountParamName = "__chunk_count__"

// VideoIndexWorkflow orchestrates the full indexing of one video. It is
// structured as a Chain of Responsibility (cor.Chain) so each step carries
// its own tracing and counters, and it implements the cor.Command
// interface so a Pub/Sub listener can drive it directly from an index
// request message.
//
// The same workflow also implements the services.VideoIndexer interface:
// the matcher calls IndexVideo during a discovery round, and the REST API
// calls it for manual add-video requests.
type VideoIndexWorkflow struct {
	cor.BaseCommand
	chain cor.Chain // The underlying chain of commands to be executed.
}

// NewVideoIndexWorkflow assembles the indexing pipeline from its four
// steps plus the trigger normalizer.
//
// Inputs:
//   - config: The application's overall configuration object.
//   - acquirer: The transcript source (with its cache) to fetch from.
//   - embedder: The embedding model wrapper.
//   - store: The transcript store to persist into.
//
// Returns:
//   - A pointer to a newly created and configured VideoIndexWorkflow.
func NewVideoIndexWorkflow(
	config *cloud.Config,
	acquirer services.Acquirer,
	embedder services.Embedder,
	store services.Store,
) *VideoIndexWorkflow {
	out := &VideoIndexWorkflow{BaseCommand: *cor.NewBaseCommand("video-index-workflow")}
	out.initializeChain(config, acquirer, embedder, store)
	return out
}

// initializeChain builds the sequence of commands that make up this
// workflow. The output of each command is the input of the next.
func (w *VideoIndexWorkflow) initializeChain(
	config *cloud.Config,
	acquirer services.Acquirer,
	embedder services.Embedder,
	store services.Store,
) {
	chain := cor.NewBaseChain(w.GetName())

	// Step 1: Normalize the trigger (bare video id or Pub/Sub JSON payload)
	// into a plain video id string.
	chain.AddCommand(commands.NewIndexRequestReader("parse-index-request"))

	// Step 2: Fetch the full timed transcript, via the cache when possible.
	chain.AddCommand(commands.NewTranscriptAcquire("acquire-transcript", acquirer))

	// Step 3: Slice the transcript lines into contiguous chunks of roughly
	// the configured character size.
	chain.AddCommand(commands.NewTranscriptChunker("chunk-transcript", config.Chunking.TargetSize))

	// Step 4: Attach an embedding vector and model version to every chunk.
	chain.AddCommand(commands.NewChunkEmbedder("embed-chunks", embedder))

	// Step 5: Upsert the embedded chunks into the transcript store. The
	// written count lands under a named key because the chain recycles the
	// general-purpose output slot between commands.
	persist := commands.NewChunkPersist("persist-chunks", store)
	persist.OutputParamName = chunkCountParamName
	chain.AddCommand(persist)

	w.chain = chain
}

// Execute runs the indexing chain. It satisfies cor.Command so the
// workflow can be attached to a Pub/Sub listener.
func (w *VideoIndexWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// IndexVideo runs the pipeline for one video id and returns the number of
// chunks written. It satisfies services.VideoIndexer for the matcher and
// the REST API.
//
// When the chain failed because the transcript could not be acquired, the
// underlying *model.AcquisitionError is returned unwrapped so the caller
// can recognize it and skip the video rather than failing the request.
func (w *VideoIndexWorkflow) IndexVideo(ctx goctx.Context, videoId string) (int, error) {
	traceCtx, span := w.GetTracer().Start(ctx, "index-video")
	defer span.End()

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(traceCtx)
	chainCtx.Add(cor.CtxIn, videoId)

	w.chain.Execute(chainCtx)

	if chainCtx.HasErrors() {
		span.SetStatus(codes.Error, "failed to index video")
		errs := make([]error, 0, len(chainCtx.GetErrors()))
		for _, err := range chainCtx.GetErrors() {
			if model.IsAcquisitionError(err) {
				return 0, err
			}
			errs = append(errs, err)
		}
		return 0, fmt.Errorf("failed to index video %s: %w", videoId, errors.Join(errs...))
	}

	span.SetStatus(codes.Ok, "indexed video")
	count, ok := chainCtx.Get(chunkCountParamName).(int)
	if !ok {
		return 0, fmt.Errorf("indexing video %s produced no chunk count", videoId)
	}
	return count, nil
}
