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

// Package cloud provides components for interacting with Google Cloud
// services. This file implements the GCS-backed transcript cache. Fetching
// captions from the transcript provider is the slowest and most
// rate-limited part of indexing, and transcripts for a given video almost
// never change, so acquired transcripts are written to a bucket as JSON
// objects and served from there on subsequent requests.
package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/model"
)

// TranscriptCache is a read-through cache of full timed transcripts,
// keyed by video id, stored as one JSON object per video.
type TranscriptCache struct {
	client *storage.Client
	bucket string
}

// NewTranscriptCache creates a cache over the given bucket. An empty
// bucket name yields a nil cache, which callers treat as "cache disabled".
func NewTranscriptCache(client *storage.Client, bucket string) *TranscriptCache {
	if bucket == "" {
		return nil
	}
	return &TranscriptCache{client: client, bucket: bucket}
}

// objectName maps a video id to its cache object.
func objectName(videoId string) string {
	return fmt.Sprintf("%s.json", videoId)
}

// Get returns the cached transcript for a video, or (nil, nil) on a cache
// miss. Only genuine storage failures are returned as errors.
func (c *TranscriptCache) Get(ctx context.Context, videoId string) (*model.Transcript, error) {
	rc, err := c.client.Bucket(c.bucket).Object(objectName(videoId)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("transcript cache read for %s: %w", videoId, err)
	}
	defer func() { _ = rc.Close() }()

	transcript := &model.Transcript{}
	if err := json.NewDecoder(rc).Decode(transcript); err != nil {
		return nil, fmt.Errorf("transcript cache decode for %s: %w", videoId, err)
	}
	return transcript, nil
}

// Put stores a transcript in the cache, overwriting any previous object
// for the same video.
func (c *TranscriptCache) Put(ctx context.Context, transcript *model.Transcript) error {
	wc := c.client.Bucket(c.bucket).Object(objectName(transcript.VideoID)).NewWriter(ctx)
	wc.ContentType = "application/json"
	if err := json.NewEncoder(wc).Encode(transcript); err != nil {
		_ = wc.Close()
		return fmt.Errorf("transcript cache encode for %s: %w", transcript.VideoID, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("transcript cache write for %s: %w", transcript.VideoID, err)
	}
	return nil
}
