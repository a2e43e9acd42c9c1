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

// Package model defines the core data structures for the video source
// finder. A video's transcript is represented as an ordered list of timed
// lines; the indexer slices those lines into TranscriptChunk records, which
// are the unit of storage and of similarity search. CandidateVideo and
// SearchResult are transient objects: candidates flow from the discovery
// providers into the matcher for a single discovery round, and a
// SearchResult is assembled fresh for every query and never persisted.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TranscriptLine is a single timed caption line as returned by the
// transcript acquirer. Start and End are offsets from the beginning of the
// video in seconds.
type TranscriptLine struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Transcript is the full timed transcript of a single video, ordered by
// line start time.
type Transcript struct {
	VideoID  string            `json:"video_id"`
	Language string            `json:"language,omitempty"`
	Lines    []*TranscriptLine `json:"lines"`
}

// Duration returns the end offset of the last transcript line in seconds,
// or zero for an empty transcript.
func (t *Transcript) Duration() float64 {
	if len(t.Lines) == 0 {
		return 0
	}
	return t.Lines[len(t.Lines)-1].End
}

// TranscriptChunk is a time-bounded slice of a video's transcript together
// with its vector embedding. Chunks are created by the indexer, owned by
// the transcript store, and immutable once stored: re-indexing a video
// replaces chunks by id rather than mutating them.
//
// The identity of a chunk is derived from (video_id, start), so upserting
// the same span of the same video twice is a no-op. EmbeddingModel records
// the model identifier that produced the vector; the matcher refuses to
// compare vectors produced by different models.
type TranscriptChunk struct {
	Id             string    `json:"id" bigquery:"id"`
	VideoId        string    `json:"video_id" bigquery:"video_id"`
	Text           string    `json:"text" bigquery:"text"`
	Start          float64   `json:"start" bigquery:"start"`
	End            float64   `json:"end" bigquery:"end"`
	EmbeddingModel string    `json:"embedding_model" bigquery:"embedding_model"`
	Embedding      []float64 `json:"embedding" bigquery:"embedding"`
	CreateDate     time.Time `json:"create_date" bigquery:"create_date"`
}

// NewTranscriptChunk creates a chunk for the given span of a video. The id
// is a UUIDv5 hash of "videoId:startMillis", which makes chunk identity a
// pure function of its storage key and keeps upserts idempotent.
func NewTranscriptChunk(videoId string, text string, start float64, end float64, embeddingModel string) *TranscriptChunk {
	key := fmt.Sprintf("%s:%d", videoId, int64(start*1000))
	return &TranscriptChunk{
		Id:             uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String(),
		VideoId:        videoId,
		Text:           text,
		Start:          start,
		End:            end,
		EmbeddingModel: embeddingModel,
		Embedding:      make([]float64, 0),
		CreateDate:     time.Now(),
	}
}

// CandidateVideo is a video identifier proposed by an external search
// provider as possibly containing the queried text. Candidates are ranked
// in provider order and consumed once by the matcher during a single
// discovery round.
type CandidateVideo struct {
	VideoId        string `json:"video_id"`
	Title          string `json:"title,omitempty"`
	SourceProvider string `json:"source_provider"`
	Rank           int    `json:"rank"`
}

// SearchResult is the answer to a find-source query. Timestamps are
// rendered as "HH:MM:SS" strings and confidence is a normalized [0,1]
// score derived from vector similarity. A SearchResult always corresponds
// to at least one stored chunk.
type SearchResult struct {
	VideoId           string  `json:"video_id"`
	TimestampStart    string  `json:"timestamp_start"`
	TimestampEnd      string  `json:"timestamp_end"`
	Confidence        float64 `json:"confidence"`
	TranscriptSnippet string  `json:"transcript_snippet"`
	Url               string  `json:"url,omitempty"`
}

// NewSearchResult assembles a result from a matched time span. The
// YouTube watch URL is derived from the video id.
func NewSearchResult(videoId string, start float64, end float64, confidence float64, snippet string) *SearchResult {
	return &SearchResult{
		VideoId:           videoId,
		TimestampStart:    FormatTimestamp(start),
		TimestampEnd:      FormatTimestamp(end),
		Confidence:        confidence,
		TranscriptSnippet: snippet,
		Url:               fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoId),
	}
}

// FormatTimestamp converts an offset in seconds to the "HH:MM:SS" form
// used in API responses. Fractional seconds are truncated.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	s := int64(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

// ParseTimestamp converts a "HH:MM:SS" or "MM:SS" string back to an offset
// in seconds. It is the inverse of FormatTimestamp for well-formed input.
func ParseTimestamp(timestamp string) (float64, error) {
	parts := strings.Split(timestamp, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", timestamp)
	}
	var total float64
	for _, p := range parts {
		var v int
		if _, err := fmt.Sscanf(p, "%d", &v); err != nil || v < 0 {
			return 0, fmt.Errorf("invalid timestamp %q", timestamp)
		}
		total = total*60 + float64(v)
	}
	return total, nil
}
