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
// final step of the video indexing pipeline.
//
// Logic Flow:
// This command follows `ChunkEmbedder` in the chain. It writes the
// embedded chunks to the transcript store in one upsert. Chunk ids are a
// deterministic hash of (video_id, start), so an interrupted run that is
// retried simply rewrites the same rows; indexing a video twice never
// duplicates it. The command's output is the number of chunks written,
// which the workflow reports back to its caller.
package commands

import (
	"fmt"

	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/model"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/services"
)

// ChunkPersist is a command that upserts embedded chunks into the
// transcript store.
type ChunkPersist struct {
	cor.BaseCommand // Embeds the BaseCommand for common functionality.
	store           services.Store
}

// NewChunkPersist is the constructor for the ChunkPersist command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - store: The transcript store to write to.
//
// Outputs:
//   - *ChunkPersist: A pointer to the newly instantiated command.
func NewChunkPersist(name string, store services.Store) *ChunkPersist {
	return &ChunkPersist{BaseCommand: *cor.NewBaseCommand(name), store: store}
}

// Execute upserts the chunks and pipes the written count to the caller.
func (s *ChunkPersist) Execute(context cor.Context) {
	chunks, ok := context.Get(s.GetInputParam()).([]*model.TranscriptChunk)
	if !ok {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), fmt.Errorf("expected a chunk slice as input"))
		return
	}

	if err := s.store.Upsert(context.GetContext(), chunks); err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), fmt.Errorf("failed to persist chunks: %w", err))
		return
	}

	s.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(s.GetOutputParam(), len(chunks))
	context.Add(cor.CtxOut, len(chunks))
}
