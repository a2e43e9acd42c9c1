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

// Package model defines the data structures for the application. This file
// holds the error taxonomy shared by the matcher, indexer, and provider
// adapters.
//
// Only two error classes surface to API callers: ErrInvalidInput (the
// caller's fault) and EmbeddingVersionMismatchError (a data-integrity
// guard that requires a re-index). Acquisition and provider errors are
// recovered locally — the matcher skips the failing candidate or falls
// through to the next provider. "Not found" is deliberately not an error
// at all; the matcher signals it with a nil result.
package model

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when a request is malformed, such as an
// empty or whitespace-only snippet.
var ErrInvalidInput = errors.New("invalid input")

// AcquisitionErrorKind classifies why a transcript could not be fetched
// for a video.
type AcquisitionErrorKind string

const (
	AcquisitionNoCaptions          AcquisitionErrorKind = "no_captions"
	AcquisitionRestricted          AcquisitionErrorKind = "restricted"
	AcquisitionUnsupportedLanguage AcquisitionErrorKind = "unsupported_language"
	AcquisitionTransport           AcquisitionErrorKind = "transport"
)

// AcquisitionError reports a failure to obtain the transcript of a single
// video. The matcher treats it as "skip this candidate and continue".
type AcquisitionError struct {
	VideoId string
	Kind    AcquisitionErrorKind
	Err     error
}

func (e *AcquisitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transcript acquisition failed for video %s (%s): %v", e.VideoId, e.Kind, e.Err)
	}
	return fmt.Sprintf("transcript acquisition failed for video %s (%s)", e.VideoId, e.Kind)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// NewAcquisitionError wraps an underlying failure with the video id and
// classification needed for diagnosis.
func NewAcquisitionError(videoId string, kind AcquisitionErrorKind, err error) *AcquisitionError {
	return &AcquisitionError{VideoId: videoId, Kind: kind, Err: err}
}

// ProviderError reports a failure of a single discovery provider. The
// discoverer logs it and moves on to the next provider in the fallback
// chain; it is never fatal to the overall search.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("search provider %s failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// EmbeddingVersionMismatchError indicates that a similarity query touched
// chunks embedded with a different model than the one currently
// configured. Comparing such vectors would silently produce garbage
// rankings, so this is surfaced as a hard error that forces a re-index.
type EmbeddingVersionMismatchError struct {
	Want string
	Got  string
}

func (e *EmbeddingVersionMismatchError) Error() string {
	return fmt.Sprintf("embedding model mismatch: store has %q, query uses %q (re-index required)", e.Got, e.Want)
}

// IsAcquisitionError reports whether err is (or wraps) an AcquisitionError.
func IsAcquisitionError(err error) bool {
	var ae *AcquisitionError
	return errors.As(err, &ae)
}
