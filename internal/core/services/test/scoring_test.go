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

// Package services_test contains the test suite for the services package.
// This file covers the scoring math: cosine similarity and the confidence
// transform.
package services_test

import (
	"math"
	"testing"

	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/services"
	"github.com/zeebo/assert"
)

func TestCosineSimilarity(t *testing.T) {
	a := []float64{1, 0, 0}
	b := []float64{0, 1, 0}
	c := []float64{2, 0, 0}
	d := []float64{-1, 0, 0}

	assert.True(t, math.Abs(services.CosineSimilarity(a, a)-1) < 1e-9)
	// Scaling does not change the angle.
	assert.True(t, math.Abs(services.CosineSimilarity(a, c)-1) < 1e-9)
	assert.Equal(t, 0.0, services.CosineSimilarity(a, b))
	assert.True(t, math.Abs(services.CosineSimilarity(a, d)+1) < 1e-9)
}

func TestCosineSimilarityDegenerateInputs(t *testing.T) {
	assert.Equal(t, 0.0, services.CosineSimilarity(nil, nil))
	assert.Equal(t, 0.0, services.CosineSimilarity([]float64{1, 2}, []float64{1, 2, 3}))
	assert.Equal(t, 0.0, services.CosineSimilarity([]float64{0, 0}, []float64{1, 1}))
}

// Confidence is monotone in similarity and clamped to [0,1], so sorting
// by confidence is the same as sorting by similarity.
func TestConfidenceTransform(t *testing.T) {
	assert.Equal(t, 0.0, services.Confidence(-0.5))
	assert.Equal(t, 0.0, services.Confidence(0))
	assert.Equal(t, 0.25, services.Confidence(0.25))
	assert.Equal(t, 1.0, services.Confidence(1))
	assert.Equal(t, 1.0, services.Confidence(1.2))

	prev := -1.0
	for s := -1.0; s <= 1.0; s += 0.05 {
		current := services.Confidence(s)
		assert.True(t, current >= prev)
		prev = current
	}
}
