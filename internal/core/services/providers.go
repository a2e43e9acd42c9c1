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
// finder. This file implements the external video search providers used by
// the discoverer: Serper's dedicated YouTube endpoint and Tavily's general
// web search. Both speak simple JSON-over-HTTPS, authenticated with an API
// key header, so they share one small HTTP helper rather than pulling in a
// per-vendor SDK.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/model"
)

// VideoSearchProvider is one external search backend. Providers return
// raw candidate lists; ranking, deduplication, and capping happen in the
// DiscoveryService.
type VideoSearchProvider interface {
	// Name identifies the provider in logs and in CandidateVideo records.
	Name() string
	// Search returns candidate videos for the query. An empty result is not
	// an error.
	Search(ctx context.Context, query string) ([]*model.CandidateVideo, error)
}

// postJSON issues a JSON POST and decodes the JSON response into out. The
// caller supplies headers, typically the provider's API key.
func postJSON(ctx context.Context, client *http.Client, endpoint string, headers map[string]string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ExtractYouTubeId pulls the 11-character video id out of the URL shapes
// YouTube uses: watch?v=, youtu.be/, /shorts/, and /embed/. The second
// return value is false for anything that is not a YouTube video link.
func ExtractYouTubeId(rawUrl string) (string, bool) {
	u, err := url.Parse(rawUrl)
	if err != nil {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtu.be":
		id := strings.Trim(u.Path, "/")
		return id, id != ""
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if v := u.Query().Get("v"); v != "" {
			return v, true
		}
		for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
			if strings.HasPrefix(u.Path, prefix) {
				id := strings.Trim(strings.TrimPrefix(u.Path, prefix), "/")
				return id, id != ""
			}
		}
	}
	return "", false
}

// SerperProvider searches Serper's YouTube endpoint, which returns video
// ids directly and is therefore consulted first.
type SerperProvider struct {
	ApiKey   string
	Endpoint string
	Client   *http.Client
}

// NewSerperProvider creates a Serper provider with a per-request timeout.
func NewSerperProvider(apiKey string, endpoint string, timeout time.Duration) *SerperProvider {
	return &SerperProvider{
		ApiKey:   apiKey,
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: timeout},
	}
}

func (p *SerperProvider) Name() string { return "serper" }

// serperYouTubeResponse mirrors the subset of Serper's /youtube response
// the discoverer needs. Organic results carry the video id directly; the
// link is kept as a fallback for results that omit it.
type serperYouTubeResponse struct {
	Organic []struct {
		VideoId string `json:"videoId"`
		Title   string `json:"title"`
		Link    string `json:"link"`
	} `json:"organic"`
}

// Search posts the query to Serper and converts each organic result into a
// candidate. Results without a recognizable YouTube id are dropped.
func (p *SerperProvider) Search(ctx context.Context, query string) ([]*model.CandidateVideo, error) {
	var resp serperYouTubeResponse
	err := postJSON(ctx, p.Client, p.Endpoint,
		map[string]string{"X-API-KEY": p.ApiKey},
		map[string]any{"q": query},
		&resp)
	if err != nil {
		return nil, &model.ProviderError{Provider: p.Name(), Err: err}
	}
	out := make([]*model.CandidateVideo, 0, len(resp.Organic))
	for _, v := range resp.Organic {
		id := v.VideoId
		if id == "" {
			var ok bool
			if id, ok = ExtractYouTubeId(v.Link); !ok {
				continue
			}
		}
		out = append(out, &model.CandidateVideo{
			VideoId:        id,
			Title:          v.Title,
			SourceProvider: p.Name(),
		})
	}
	return out, nil
}

// TavilyProvider searches Tavily's general web search and keeps only the
// results that resolve to YouTube videos. It acts as the fallback when
// Serper is unavailable or returns nothing usable.
type TavilyProvider struct {
	ApiKey   string
	Endpoint string
	Client   *http.Client
}

// NewTavilyProvider creates a Tavily provider with a per-request timeout.
func NewTavilyProvider(apiKey string, endpoint string, timeout time.Duration) *TavilyProvider {
	return &TavilyProvider{
		ApiKey:   apiKey,
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: timeout},
	}
}

func (p *TavilyProvider) Name() string { return "tavily" }

// tavilySearchResponse mirrors the subset of Tavily's response the
// discoverer needs.
type tavilySearchResponse struct {
	Results []struct {
		Title string `json:"title"`
		Url   string `json:"url"`
	} `json:"results"`
}

// Search posts the query to Tavily, scoping it to youtube.com, and keeps
// the results that carry a video id.
func (p *TavilyProvider) Search(ctx context.Context, query string) ([]*model.CandidateVideo, error) {
	var resp tavilySearchResponse
	err := postJSON(ctx, p.Client, p.Endpoint,
		map[string]string{"Authorization": "Bearer " + p.ApiKey},
		map[string]any{
			"query":           query,
			"include_domains": []string{"youtube.com"},
		},
		&resp)
	if err != nil {
		return nil, &model.ProviderError{Provider: p.Name(), Err: err}
	}
	out := make([]*model.CandidateVideo, 0, len(resp.Results))
	for _, r := range resp.Results {
		id, ok := ExtractYouTubeId(r.Url)
		if !ok {
			continue
		}
		out = append(out, &model.CandidateVideo{
			VideoId:        id,
			Title:          r.Title,
			SourceProvider: p.Name(),
		})
	}
	return out, nil
}
