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
// finder. This file, `queries.go`, centralizes the BigQuery SQL used by
// the BigQuery-backed transcript store. Storing queries as constants in a
// dedicated file improves maintainability, readability, and reusability.
// The queries use `fmt.Sprintf` format verbs (e.g., %s, %d) as
// placeholders for table names and structural values; row data is always
// passed through query parameters, never interpolated.
package services

const (
	// QryChunkKnn defines the BigQuery query for performing a k-nearest
	// neighbor (KNN) vector search over stored transcript chunks. This is the
	// core query behind every find-source request.
	//
	// How it works:
	// - `VECTOR_SEARCH`: a BigQuery native function that efficiently finds the
	//   most similar vectors in a table to a given query vector.
	// - `TABLE %s`: the first placeholder is the fully qualified name of the
	//   chunk table.
	// - `'embedding'`: the column storing each chunk's embedding vector.
	// - `(SELECT [ %s ] as embedding)`: the second placeholder is the query
	//   vector itself, a comma-separated list of floating-point numbers
	//   generated from the search snippet.
	// - `top_k => %d`: the number of closest chunks to return.
	// - `distance_type => 'COSINE'`: cosine distance, so the store's notion of
	//   similarity (1 - distance) matches the in-memory backend exactly.
	// - `ORDER BY distance asc`: the most similar chunks come first.
	//
	// The query returns the chunk columns needed to build a search result
	// plus the raw cosine distance.
	QryChunkKnn = "SELECT base.id, base.video_id, base.text, base.`start`, base.`end`, base.embedding_model, distance FROM VECTOR_SEARCH(TABLE `%s`, 'embedding', (SELECT [ %s ] as embedding), top_k => %d, distance_type => 'COSINE') ORDER BY distance asc"

	// QryChunkUpsert defines the MERGE statement that writes chunks with
	// upsert semantics. Chunk ids are a deterministic hash of
	// (video_id, start), so re-indexing a video matches the existing rows and
	// rewrites them in place rather than duplicating them.
	//
	// The chunks are passed as an ARRAY<STRUCT> query parameter named
	// @chunks and flattened with UNNEST, which keeps the statement itself
	// free of row data.
	//
	// Placeholder:
	// - `%s`: the fully qualified name of the chunk table.
	QryChunkUpsert = "MERGE `%s` T USING UNNEST(@chunks) S ON T.id = S.id " +
		"WHEN MATCHED THEN UPDATE SET text = S.text, `start` = S.`start`, `end` = S.`end`, embedding_model = S.embedding_model, embedding = S.embedding, create_date = S.create_date " +
		"WHEN NOT MATCHED THEN INSERT ROW"

	// QryVideoChunks retrieves every stored chunk for one video in playback
	// order. The matcher uses this to widen an accepted hit across adjacent
	// chunks.
	//
	// Placeholder:
	// - `%s`: the fully qualified name of the chunk table.
	QryVideoChunks = "SELECT id, video_id, text, `start`, `end`, embedding_model, embedding, create_date FROM `%s` WHERE video_id = @video_id ORDER BY `start` asc"

	// QryHasVideo counts the chunks stored for one video. A count of zero
	// means the video has never been indexed (or indexing produced nothing).
	//
	// Placeholder:
	// - `%s`: the fully qualified name of the chunk table.
	QryHasVideo = "SELECT COUNT(*) as total FROM `%s` WHERE video_id = @video_id"

	// QryStoreStats returns the chunk count and the distinct video count in
	// a single scan, backing the stats endpoint.
	//
	// Placeholder:
	// - `%s`: the fully qualified name of the chunk table.
	QryStoreStats = "SELECT COUNT(*) as chunk_count, COUNT(DISTINCT video_id) as video_count FROM `%s`"
)
