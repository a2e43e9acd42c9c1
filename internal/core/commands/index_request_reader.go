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
// entry step of the video indexing pipeline, which normalizes the two
// trigger shapes the pipeline accepts.
//
// Logic Flow:
// The pipeline is started either by the REST API, which supplies a bare
// video id, or by a Pub/Sub index request, whose payload is a JSON
// document like `{"video_id": "dQw4w9WgXcQ"}`. This command inspects the
// input and emits a plain video id string either way, so the rest of the
// chain never cares where the request came from.
package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jaycherian/gcp-go-video-source-finder/internal/cloud"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/cor"
)

// IndexRequestReader is a command that extracts the video id from an
// indexing trigger.
type IndexRequestReader struct {
	cor.BaseCommand // Embeds the BaseCommand for common functionality.
}

// NewIndexRequestReader is the constructor for the IndexRequestReader
// command.
func NewIndexRequestReader(name string) *IndexRequestReader {
	return &IndexRequestReader{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute normalizes the trigger input into a video id and pipes it to
// the next command.
func (s *IndexRequestReader) Execute(context cor.Context) {
	in, ok := context.Get(s.GetInputParam()).(string)
	if !ok {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), fmt.Errorf("expected a string trigger as input"))
		return
	}

	videoId := strings.TrimSpace(in)
	if strings.HasPrefix(videoId, "{") {
		request := &cloud.IndexRequest{}
		if err := json.Unmarshal([]byte(videoId), request); err != nil {
			s.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(s.GetName(), fmt.Errorf("failed to unmarshal index request: %w", err))
			return
		}
		videoId = strings.TrimSpace(request.VideoId)
	}
	if videoId == "" {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), fmt.Errorf("index request has no video id"))
		return
	}

	s.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(s.GetOutputParam(), videoId)
	context.Add(cor.CtxOut, videoId)
}
