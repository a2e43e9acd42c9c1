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

// Package model_test contains the test suite for the model package:
// timestamp formatting, chunk identity, and result assembly.
package model_test

import (
	"testing"

	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/model"
	"github.com/stretchr/testify/assert"
)

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "00:00:00", model.FormatTimestamp(0))
	assert.Equal(t, "00:00:15", model.FormatTimestamp(15))
	assert.Equal(t, "00:00:15", model.FormatTimestamp(15.9))
	assert.Equal(t, "00:02:05", model.FormatTimestamp(125))
	assert.Equal(t, "01:30:00", model.FormatTimestamp(5400))
	assert.Equal(t, "00:00:00", model.FormatTimestamp(-3))
}

func TestParseTimestamp(t *testing.T) {
	for _, seconds := range []float64{0, 15, 125, 3599, 5400, 86399} {
		parsed, err := model.ParseTimestamp(model.FormatTimestamp(seconds))
		assert.NoError(t, err)
		assert.Equal(t, seconds, parsed)
	}

	parsed, err := model.ParseTimestamp("02:05")
	assert.NoError(t, err)
	assert.Equal(t, 125.0, parsed)

	_, err = model.ParseTimestamp("not-a-timestamp")
	assert.Error(t, err)
	_, err = model.ParseTimestamp("15")
	assert.Error(t, err)
}

// Chunk identity is a pure function of (video id, start), which is what
// makes re-indexing idempotent.
func TestChunkIdentityIsDeterministic(t *testing.T) {
	a := model.NewTranscriptChunk("dQw4w9WgXcQ", "some text", 15, 25, "model-a")
	b := model.NewTranscriptChunk("dQw4w9WgXcQ", "different text", 15, 25, "model-b")
	c := model.NewTranscriptChunk("dQw4w9WgXcQ", "some text", 20, 25, "model-a")
	d := model.NewTranscriptChunk("otherVideo0", "some text", 15, 25, "model-a")

	assert.Equal(t, a.Id, b.Id)
	assert.NotEqual(t, a.Id, c.Id)
	assert.NotEqual(t, a.Id, d.Id)
}

func TestNewSearchResult(t *testing.T) {
	result := model.NewSearchResult("dQw4w9WgXcQ", 15, 25, 0.87, "never gonna give you up")

	assert.Equal(t, "dQw4w9WgXcQ", result.VideoId)
	assert.Equal(t, "00:00:15", result.TimestampStart)
	assert.Equal(t, "00:00:25", result.TimestampEnd)
	assert.Equal(t, 0.87, result.Confidence)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", result.Url)
}

func TestTranscriptDuration(t *testing.T) {
	empty := &model.Transcript{VideoID: "x"}
	assert.Equal(t, 0.0, empty.Duration())

	transcript := &model.Transcript{
		VideoID: "x",
		Lines: []*model.TranscriptLine{
			{Text: "a", Start: 0, End: 4},
			{Text: "b", Start: 4, End: 9.5},
		},
	}
	assert.Equal(t, 9.5, transcript.Duration())
}
