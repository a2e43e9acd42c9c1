// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// embedding step of the video indexing pipeline.
//
// Logic Flow:
// This command follows `TranscriptChunker` in the chain. It runs each
// chunk's text through the embedding model and stamps the chunk with both
// the vector and the model version that produced it. The version stamp is
// what lets the matcher detect stale vectors after a model upgrade. The
// chunks are embedded one at a time because the model wrapper already
// paces requests against the Vertex AI quota.
package commands

import (
	"fmt"

	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/model"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/services"
)

// ChunkEmbedder is a command that attaches embedding vectors to transcript
// chunks.
type ChunkEmbedder struct {
	cor.BaseCommand // Embeds the BaseCommand for common functionality.
	embedder        services.Embedder
}

// NewChunkEmbedder is the constructor for the ChunkEmbedder command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - embedder: The embedding model wrapper to run chunks through.
//
// Outputs:
//   - *ChunkEmbedder: A pointer to the newly instantiated command.
func NewChunkEmbedder(name string, embedder services.Embedder) *ChunkEmbedder {
	return &ChunkEmbedder{BaseCommand: *cor.NewBaseCommand(name), embedder: embedder}
}

// Execute embeds every chunk and pipes the enriched slice to the next
// command. A single embedding failure aborts the whole batch: persisting a
// partially embedded video would leave the store unable to answer for the
// missing spans.
func (s *ChunkEmbedder) Execute(context cor.Context) {
	chunks, ok := context.Get(s.GetInputParam()).([]*model.TranscriptChunk)
	if !ok {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), fmt.Errorf("expected a chunk slice as input"))
		return
	}

	version := s.embedder.ModelVersion()
	for _, chunk := range chunks {
		embedding, err := s.embedder.EmbedText(context.GetContext(), chunk.Text)
		if err != nil {
			s.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(s.GetName(), fmt.Errorf("failed to embed chunk %s: %w", chunk.Id, err))
			return
		}
		chunk.Embedding = embedding
		chunk.EmbeddingModel = version
	}

	s.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(s.GetOutputParam(), chunks)
	context.Add(cor.CtxOut, chunks)
}
