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

// Package test provides utility functions and mock data to support the
// application's test suite: a deterministic in-process embedder, fake
// transcript and discovery sources, and sample transcripts with known
// timestamps so matching behavior can be asserted exactly.
package test

import (
	"context"
	"hash/fnv"
	"log"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/jaycherian/gcp-go-video-source-finder/internal/cloud"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/model"
)

// TestVideoId is the video id used by the canonical test transcript.
const TestVideoId = "dQw4w9WgXcQ"

// StateManager caches the test configuration so it is loaded only once
// per test run.
type StateManager struct {
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is non-nil. A convenience to reduce
// boilerplate error checking in tests.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// SetupOS points the configuration loader at the test configuration
// files (configs/.env.toml overridden by configs/.env.test.toml).
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig is a singleton accessor for the test configuration.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// GetTestIndexRequestText returns the JSON payload of a Pub/Sub index
// request for the canonical test video.
func GetTestIndexRequestText() string {
	return `{"video_id": "dQw4w9WgXcQ"}`
}

// GetTestTranscript returns a transcript for the canonical test video
// with fixed five-second lines, so tests can assert exact timestamp
// spans. The phrase "never gonna give you up never gonna let you down"
// lives at 15s-20s.
func GetTestTranscript() *model.Transcript {
	return &model.Transcript{
		VideoID:  TestVideoId,
		Language: "en",
		Lines: []*model.TranscriptLine{
			{Text: "we're no strangers to love", Start: 0, End: 5},
			{Text: "you know the rules and so do i", Start: 5, End: 10},
			{Text: "a full commitment's what i'm thinking of", Start: 10, End: 15},
			{Text: "never gonna give you up never gonna let you down", Start: 15, End: 20},
			{Text: "never gonna run around and desert you", Start: 20, End: 25},
			{Text: "never gonna make you cry never gonna say goodbye", Start: 25, End: 30},
		},
	}
}

// GetWelcomeTranscript returns a second, unrelated transcript so tests
// can verify that queries do not match across videos.
func GetWelcomeTranscript(videoId string) *model.Transcript {
	return &model.Transcript{
		VideoID:  videoId,
		Language: "en",
		Lines: []*model.TranscriptLine{
			{Text: "hello everyone welcome to my channel", Start: 0, End: 4},
			{Text: "today we are going to talk about cooking pasta", Start: 4, End: 9},
			{Text: "first bring a large pot of water to the boil", Start: 9, End: 15},
		},
	}
}

// embedDim is the vector size produced by the fake embedder. It is kept
// large enough that distinct words essentially never share a hash bucket,
// so similarities really are proportional to word overlap as documented.
const embedDim = 65536

// FakeEmbedder is a deterministic, dependency-free embedder for tests. It
// hashes each word of the input into a fixed-size bag-of-words vector, so
// identical text embeds identically (cosine similarity 1.0) and texts
// sharing words score in proportion to their overlap. It implements the
// services.Embedder interface.
type FakeEmbedder struct {
	Version string
	Calls   int
}

// NewFakeEmbedder creates a fake embedder reporting the given model
// version.
func NewFakeEmbedder(version string) *FakeEmbedder {
	return &FakeEmbedder{Version: version}
}

func (f *FakeEmbedder) ModelVersion() string { return f.Version }

func (f *FakeEmbedder) EmbedText(_ context.Context, text string) ([]float64, error) {
	f.Calls++
	out := make([]float64, embedDim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		out[h.Sum32()%embedDim]++
	}
	var norm float64
	for _, v := range out {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range out {
			out[i] /= norm
		}
	}
	return out, nil
}

// FakeAcquirer serves transcripts from a map and records how often each
// video was requested. Videos listed in Errs fail with the configured
// error instead. It implements the services.Acquirer interface.
type FakeAcquirer struct {
	Transcripts map[string]*model.Transcript
	Errs        map[string]error
	Calls       map[string]int
}

// NewFakeAcquirer creates an empty fake acquirer.
func NewFakeAcquirer() *FakeAcquirer {
	return &FakeAcquirer{
		Transcripts: make(map[string]*model.Transcript),
		Errs:        make(map[string]error),
		Calls:       make(map[string]int),
	}
}

// Add registers a transcript under its video id.
func (f *FakeAcquirer) Add(transcript *model.Transcript) *FakeAcquirer {
	f.Transcripts[transcript.VideoID] = transcript
	return f
}

func (f *FakeAcquirer) GetTranscript(_ context.Context, videoId string) (*model.Transcript, error) {
	f.Calls[videoId]++
	if err, ok := f.Errs[videoId]; ok {
		return nil, err
	}
	if transcript, ok := f.Transcripts[videoId]; ok {
		return transcript, nil
	}
	return nil, model.NewAcquisitionError(videoId, model.AcquisitionNoCaptions, nil)
}

// FakeProvider returns a fixed candidate list, or a fixed error, for any
// query. It implements the services.VideoSearchProvider interface.
type FakeProvider struct {
	ProviderName string
	Candidates   []*model.CandidateVideo
	Err          error
	Calls        int
}

func (f *FakeProvider) Name() string { return f.ProviderName }

func (f *FakeProvider) Search(_ context.Context, _ string) ([]*model.CandidateVideo, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Candidates, nil
}

// Candidate builds a CandidateVideo for use with FakeProvider.
func Candidate(videoId string, provider string) *model.CandidateVideo {
	return &model.CandidateVideo{VideoId: videoId, SourceProvider: provider}
}
