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
// services. This file wraps the Vertex AI embedding model with rate
// limiting and bounded retries. Vertex enforces per-minute quotas, and
// indexing a long transcript embeds dozens of chunks back to back, so the
// wrapper keeps the pipeline inside quota instead of surfacing quota
// errors to every caller.
package cloud

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// MaxEmbedRetries is the number of times a failed embedding call is
// retried before the error is returned to the caller.
const MaxEmbedRetries = 3

// QuotaAwareEmbeddingModel decorates a genai embedding model with a
// token-bucket rate limiter and retry logic. The model name doubles as
// the embedding version stamped on every stored chunk, which is what lets
// the matcher detect index/query version mismatches.
type QuotaAwareEmbeddingModel struct {
	ModelName   string
	ModelHandle *genai.Models
	RateLimit   *rate.Limiter
}

// NewQuotaAwareEmbeddingModel wraps the given model handle. The limiter
// is provisioned from a requests-per-minute quota with a burst of one
// minute's worth of requests.
func NewQuotaAwareEmbeddingModel(handle *genai.Models, name string, requestsPerMinute int) *QuotaAwareEmbeddingModel {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return &QuotaAwareEmbeddingModel{
		ModelName:   name,
		ModelHandle: handle,
		RateLimit:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute),
	}
}

// ModelVersion returns the identifier of the embedding model. Vectors are
// only comparable when this value matches the one stamped on the stored
// chunk.
func (q *QuotaAwareEmbeddingModel) ModelVersion() string {
	return q.ModelName
}

// EmbedText converts a text into a dense vector. The call blocks on the
// rate limiter, honors context cancellation, and retries transient
// failures up to MaxEmbedRetries times with a short backoff.
func (q *QuotaAwareEmbeddingModel) EmbedText(ctx context.Context, text string) ([]float64, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}

	var lastErr error
	for attempt := 0; attempt <= MaxEmbedRetries; attempt++ {
		if err := q.RateLimit.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := q.ModelHandle.EmbedContent(ctx, q.ModelName, contents, nil)
		if err != nil {
			lastErr = err
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt+1) * time.Second):
			}
			continue
		}
		if len(resp.Embeddings) == 0 {
			return nil, fmt.Errorf("embedding model %s returned no vectors", q.ModelName)
		}
		out := make([]float64, 0, len(resp.Embeddings[0].Values))
		for _, v := range resp.Embeddings[0].Values {
			out = append(out, float64(v))
		}
		return out, nil
	}
	return nil, fmt.Errorf("embedding failed after %d retries: %w", MaxEmbedRetries, lastErr)
}
