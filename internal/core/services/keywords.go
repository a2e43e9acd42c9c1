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

package services

import "strings"

// MaxSearchKeywords caps how many keywords a snippet contributes to the
// provider query. Web search APIs rank short keyword queries far better
// than a full transcript sentence pasted verbatim.
const MaxSearchKeywords = 5

// stopWords are common English function words that carry no signal for
// video discovery and are filtered out of the provider query.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "but": {}, "by": {}, "for": {}, "from": {},
	"had": {}, "has": {}, "have": {}, "he": {}, "her": {}, "his": {},
	"i": {}, "in": {}, "is": {}, "it": {}, "its": {}, "me": {},
	"my": {}, "not": {}, "of": {}, "on": {}, "or": {}, "our": {},
	"she": {}, "so": {}, "that": {}, "the": {}, "their": {}, "them": {},
	"they": {}, "this": {}, "to": {}, "was": {}, "we": {}, "were": {},
	"will": {}, "with": {}, "you": {}, "your": {},
}

// ExtractKeywords reduces a transcript snippet to its most searchable
// words: lowercase, punctuation stripped, stop words and short tokens
// dropped, duplicates removed, original order preserved, capped at max.
func ExtractKeywords(text string, max int) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '\''
	})

	keywords := make([]string, 0, max)
	seen := make(map[string]struct{})
	for _, w := range fields {
		if w = strings.Trim(w, "'"); len(w) < 3 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		keywords = append(keywords, w)
		if len(keywords) >= max {
			break
		}
	}
	return keywords
}

// SearchQuery builds the provider query for a snippet. When keyword
// extraction leaves nothing, the trimmed snippet itself is used so a
// short or all-stop-word snippet still produces a query.
func SearchQuery(snippet string) string {
	keywords := ExtractKeywords(snippet, MaxSearchKeywords)
	if len(keywords) == 0 {
		return strings.TrimSpace(snippet)
	}
	return strings.Join(keywords, " ")
}
