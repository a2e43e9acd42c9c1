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
// first step of the video indexing pipeline.
//
// Logic Flow:
//  1. It receives the video id string from the context (the pipeline's
//     initial input, whether it arrived via the REST API or a Pub/Sub
//     index request).
//  2. It asks the acquirer for the video's full timed transcript. The
//     acquirer consults its cache first and classifies provider failures
//     (no captions, restricted video, unsupported language) into
//     acquisition errors that the caller uses to skip the video.
//  3. It places the resulting `model.Transcript` into the context for the
//     chunker that follows.
package commands

import (
	"fmt"

	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/services"
)

// TranscriptAcquire is a command that fetches the timed transcript for a
// video id.
type TranscriptAcquire struct {
	cor.BaseCommand // Embeds the BaseCommand for common functionality.
	acquirer        services.Acquirer
}

// NewTranscriptAcquire is the constructor for the TranscriptAcquire command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - acquirer: The transcript source to fetch from.
//
// Outputs:
//   - *TranscriptAcquire: A pointer to the newly instantiated command.
func NewTranscriptAcquire(name string, acquirer services.Acquirer) *TranscriptAcquire {
	return &TranscriptAcquire{BaseCommand: *cor.NewBaseCommand(name), acquirer: acquirer}
}

// IsExecutable verifies the input is a non-empty video id string.
func (s *TranscriptAcquire) IsExecutable(context cor.Context) bool {
	if !s.BaseCommand.IsExecutable(context) {
		return false
	}
	videoId, ok := context.Get(s.GetInputParam()).(string)
	return ok && len(videoId) > 0
}

// Execute fetches the transcript and pipes it to the next command.
func (s *TranscriptAcquire) Execute(context cor.Context) {
	videoId := context.Get(s.GetInputParam()).(string)

	transcript, err := s.acquirer.GetTranscript(context.GetContext(), videoId)
	if err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), err)
		return
	}
	if len(transcript.Lines) == 0 {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), fmt.Errorf("transcript for video %s has no lines", videoId))
		return
	}

	s.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(s.GetOutputParam(), transcript)
	context.Add(cor.CtxOut, transcript)
}
