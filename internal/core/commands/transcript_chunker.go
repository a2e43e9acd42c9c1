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
// chunking step of the video indexing pipeline.
//
// Logic Flow:
// This command follows `TranscriptAcquire` in the chain. It slices the
// transcript's timed lines into contiguous chunks of roughly the target
// character size. Chunks never split a transcript line, never overlap,
// and together cover every line exactly once, so a chunk's [start, end]
// span is always an honest claim about where its text occurs in the
// video.
package commands

import (
	"fmt"
	"strings"

	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/model"
)

// TranscriptChunker is a command that slices a transcript into
// TranscriptChunk records ready for embedding.
type TranscriptChunker struct {
	cor.BaseCommand // Embeds the BaseCommand for common functionality.
	targetSize      int
}

// NewTranscriptChunker is the constructor for the TranscriptChunker command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - targetSize: The target chunk size in characters.
//
// Outputs:
//   - *TranscriptChunker: A pointer to the newly instantiated command.
func NewTranscriptChunker(name string, targetSize int) *TranscriptChunker {
	return &TranscriptChunker{BaseCommand: *cor.NewBaseCommand(name), targetSize: targetSize}
}

// Execute slices the transcript and pipes the chunk slice to the next
// command.
func (s *TranscriptChunker) Execute(context cor.Context) {
	transcript, ok := context.Get(s.GetInputParam()).(*model.Transcript)
	if !ok {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), fmt.Errorf("expected a transcript as input"))
		return
	}

	chunks := ChunkTranscript(transcript, s.targetSize)
	if len(chunks) == 0 {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), fmt.Errorf("transcript for video %s produced no chunks", transcript.VideoID))
		return
	}

	s.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(s.GetOutputParam(), chunks)
	context.Add(cor.CtxOut, chunks)
}

// ChunkTranscript groups consecutive transcript lines into chunks of
// roughly targetSize characters. A line that would push the current chunk
// past the target starts a new chunk instead, so lines are never split and
// every line lands in exactly one chunk. Each chunk's span runs from its
// first line's start to its last line's end.
func ChunkTranscript(transcript *model.Transcript, targetSize int) []*model.TranscriptChunk {
	if targetSize <= 0 {
		targetSize = 500
	}

	out := make([]*model.TranscriptChunk, 0)
	var texts []string
	var size int
	var start, end float64

	flush := func() {
		if len(texts) == 0 {
			return
		}
		out = append(out, model.NewTranscriptChunk(
			transcript.VideoID, strings.Join(texts, " "), start, end, ""))
		texts = nil
		size = 0
	}

	for _, line := range transcript.Lines {
		text := strings.TrimSpace(line.Text)
		if text == "" {
			continue
		}
		if size > 0 && size+len(text)+1 > targetSize {
			flush()
		}
		if len(texts) == 0 {
			start = line.Start
		}
		texts = append(texts, text)
		size += len(text) + 1
		end = line.End
	}
	flush()
	return out
}
