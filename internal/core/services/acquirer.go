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

// Package services contains the business logic for the video source
// finder. This file implements the TranscriptService, the production
// Acquirer. It fetches timed captions from SearchAPI.io's YouTube
// transcripts engine, trying the configured languages in preference
// order, and classifies failures into the acquisition error kinds the
// matcher uses to decide whether a candidate is worth retrying.
//
// Acquisition is the slowest and most rate-limited step of indexing, so
// the service reads through an optional GCS-backed cache: a cached
// transcript is returned without touching the provider, and every fresh
// transcript is written back on the way out.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jaycherian/gcp-go-video-source-finder/internal/cloud"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/model"
	"golang.org/x/time/rate"
)

// TranscriptService fetches transcripts from SearchAPI.io. A nil Cache
// disables caching; the rate limiter spaces provider calls to stay under
// the configured per-minute quota.
type TranscriptService struct {
	ApiKey    string
	Endpoint  string
	Languages []string // Preferred caption languages, in order.
	Client    *http.Client
	Cache     *cloud.TranscriptCache
	RateLimit *rate.Limiter
}

// NewTranscriptService creates an acquirer from the transcript source
// configuration. The cache may be nil.
func NewTranscriptService(cfg *cloud.TranscriptSource, cache *cloud.TranscriptCache) *TranscriptService {
	rpm := cfg.MaxRequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	languages := cfg.Languages
	if len(languages) == 0 {
		languages = []string{"en"}
	}
	return &TranscriptService{
		ApiKey:    cfg.ApiKey,
		Endpoint:  cfg.Endpoint,
		Languages: languages,
		Client:    &http.Client{Timeout: time.Duration(cfg.TimeoutInSeconds) * time.Second},
		Cache:     cache,
		RateLimit: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm),
	}
}

// transcriptResponse mirrors the subset of the SearchAPI.io response the
// acquirer needs. The provider reports failures as a 200 with an error
// string rather than a non-2xx status.
type transcriptResponse struct {
	Transcripts []struct {
		Text     string  `json:"text"`
		Start    float64 `json:"start"`
		Duration float64 `json:"duration"`
	} `json:"transcripts"`
	Error string `json:"error"`
}

// GetTranscript returns the full timed transcript for a video, from cache
// when possible. Each configured language is tried in order; the first
// one with captions wins. Failures that describe the video itself come
// back as *model.AcquisitionError so the caller can skip the candidate
// instead of failing the whole search.
func (s *TranscriptService) GetTranscript(ctx context.Context, videoId string) (*model.Transcript, error) {
	if s.Cache != nil {
		cached, err := s.Cache.Get(ctx, videoId)
		if err != nil {
			slog.Warn("transcript cache read failed",
				slog.String("video_id", videoId),
				slog.String("error", err.Error()))
		} else if cached != nil {
			return cached, nil
		}
	}

	var lastErr error
	for _, lang := range s.Languages {
		transcript, err := s.fetch(ctx, videoId, lang)
		if err == nil {
			if s.Cache != nil {
				if cacheErr := s.Cache.Put(ctx, transcript); cacheErr != nil {
					slog.Warn("transcript cache write failed",
						slog.String("video_id", videoId),
						slog.String("error", cacheErr.Error()))
				}
			}
			return transcript, nil
		}
		lastErr = err
		// A language miss is worth retrying in the next language; anything
		// else applies to the video as a whole.
		var acqErr *model.AcquisitionError
		if !errors.As(err, &acqErr) || acqErr.Kind != model.AcquisitionUnsupportedLanguage {
			return nil, err
		}
	}
	return nil, lastErr
}

// fetch retrieves the transcript in one specific language.
func (s *TranscriptService) fetch(ctx context.Context, videoId string, lang string) (*model.Transcript, error) {
	if err := s.RateLimit.Wait(ctx); err != nil {
		return nil, model.NewAcquisitionError(videoId, model.AcquisitionTransport, err)
	}

	q := url.Values{}
	q.Set("engine", "youtube_transcripts")
	q.Set("video_id", videoId)
	q.Set("lang", lang)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, model.NewAcquisitionError(videoId, model.AcquisitionTransport, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.ApiKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, model.NewAcquisitionError(videoId, model.AcquisitionTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, model.NewAcquisitionError(videoId, model.AcquisitionTransport,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(b)))
	}

	var payload transcriptResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, model.NewAcquisitionError(videoId, model.AcquisitionTransport, err)
	}
	if payload.Error != "" {
		return nil, classifyProviderError(videoId, payload.Error)
	}
	if len(payload.Transcripts) == 0 {
		return nil, model.NewAcquisitionError(videoId, model.AcquisitionNoCaptions,
			fmt.Errorf("provider returned no transcript lines"))
	}

	lines := make([]*model.TranscriptLine, 0, len(payload.Transcripts))
	for _, t := range payload.Transcripts {
		lines = append(lines, &model.TranscriptLine{
			Text:  t.Text,
			Start: t.Start,
			End:   t.Start + t.Duration,
		})
	}
	return &model.Transcript{VideoID: videoId, Language: lang, Lines: lines}, nil
}

// classifyProviderError maps the provider's error strings onto the
// acquisition error kinds.
func classifyProviderError(videoId string, message string) error {
	lower := strings.ToLower(message)
	kind := model.AcquisitionNoCaptions
	switch {
	case strings.Contains(lower, "language"):
		kind = model.AcquisitionUnsupportedLanguage
	case strings.Contains(lower, "private"),
		strings.Contains(lower, "unavailable"),
		strings.Contains(lower, "restricted"),
		strings.Contains(lower, "age"):
		kind = model.AcquisitionRestricted
	}
	return model.NewAcquisitionError(videoId, kind, fmt.Errorf("%s", message))
}
