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

// Package commands_test contains the test suite for the commands package.
// This file verifies that the index-request reader accepts both trigger
// shapes the pipeline is started with.
package commands_test

import (
	"context"
	"testing"

	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/cor"
	test "github.com/jaycherian/gcp-go-video-source-finder/internal/testutil"
	"github.com/zeebo/assert"
)

func newChainContext(input string) cor.Context {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, input)
	return chainCtx
}

func TestIndexRequestReaderWithJsonPayload(t *testing.T) {
	cmd := commands.NewIndexRequestReader("parse-index-request")
	chainCtx := newChainContext(test.GetTestIndexRequestText())

	cmd.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, test.TestVideoId, chainCtx.Get(cor.CtxOut).(string))
}

func TestIndexRequestReaderWithBareVideoId(t *testing.T) {
	cmd := commands.NewIndexRequestReader("parse-index-request")
	chainCtx := newChainContext("  dQw4w9WgXcQ  ")

	cmd.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, "dQw4w9WgXcQ", chainCtx.Get(cor.CtxOut).(string))
}

func TestIndexRequestReaderRejectsMalformedJson(t *testing.T) {
	cmd := commands.NewIndexRequestReader("parse-index-request")
	chainCtx := newChainContext(`{"video_id": `)

	cmd.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
}

func TestIndexRequestReaderRejectsEmptyVideoId(t *testing.T) {
	cmd := commands.NewIndexRequestReader("parse-index-request")
	chainCtx := newChainContext(`{"video_id": ""}`)

	cmd.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
}
