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
// finder. This file implements the BigQuery-backed transcript store: chunk
// persistence via MERGE upserts and nearest-neighbor retrieval via the
// native VECTOR_SEARCH function with cosine distance.
package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/model"
	"google.golang.org/api/iterator"
)

// BigQueryStore is the production Store implementation. It holds the
// BigQuery client plus the dataset and table names identifying the chunk
// table. The client is shared and owned by the caller; Close releases only
// this store's handle on it.
type BigQueryStore struct {
	Client      *bigquery.Client // Client for interacting with Google BigQuery.
	DatasetName string           // The name of the BigQuery dataset.
	ChunkTable  string           // The table holding transcript chunks and their embeddings.
}

// NewBigQueryStore creates a store over the given chunk table.
func NewBigQueryStore(client *bigquery.Client, datasetName string, chunkTable string) *BigQueryStore {
	return &BigQueryStore{
		Client:      client,
		DatasetName: datasetName,
		ChunkTable:  chunkTable,
	}
}

// fqChunkTable returns the chunk table name in the `project.dataset.table`
// form the SQL templates expect. FullyQualifiedName uses a colon between
// project and dataset, which standard SQL does not accept.
func (s *BigQueryStore) fqChunkTable() string {
	return strings.Replace(s.Client.Dataset(s.DatasetName).Table(s.ChunkTable).FullyQualifiedName(), ":", ".", -1)
}

// knnRow is the row shape returned by QryChunkKnn: the chunk columns
// needed to build a result plus the raw cosine distance.
type knnRow struct {
	Id             string  `bigquery:"id"`
	VideoId        string  `bigquery:"video_id"`
	Text           string  `bigquery:"text"`
	Start          float64 `bigquery:"start"`
	End            float64 `bigquery:"end"`
	EmbeddingModel string  `bigquery:"embedding_model"`
	Distance       float64 `bigquery:"distance"`
}

// statsRow is the row shape returned by QryStoreStats.
type statsRow struct {
	ChunkCount int64 `bigquery:"chunk_count"`
	VideoCount int64 `bigquery:"video_count"`
}

// Upsert writes chunks through a single MERGE statement, matching on the
// deterministic chunk id. The chunk slice travels as an ARRAY<STRUCT>
// query parameter, so re-running the same batch is a no-op apart from the
// refreshed create_date.
func (s *BigQueryStore) Upsert(ctx context.Context, chunks []*model.TranscriptChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	q := s.Client.Query(fmt.Sprintf(QryChunkUpsert, s.fqChunkTable()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "chunks", Value: chunks},
	}
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to run chunk upsert: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("failed to wait for chunk upsert: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("chunk upsert failed: %w", err)
	}
	return nil
}

// QueryTopK performs the k-nearest-neighbor search in BigQuery and
// converts each row's cosine distance into the similarity the matcher
// works with (similarity = 1 - distance).
func (s *BigQueryStore) QueryTopK(ctx context.Context, embedding []float64, topK int) (out []*ChunkMatch, err error) {
	out = make([]*ChunkMatch, 0)

	// VECTOR_SEARCH expects the query vector inline as a comma-separated
	// list of float literals.
	stringArray := make([]string, 0, len(embedding))
	for _, f := range embedding {
		stringArray = append(stringArray, strconv.FormatFloat(f, 'f', -1, 64))
	}

	queryText := fmt.Sprintf(QryChunkKnn, s.fqChunkTable(), strings.Join(stringArray, ","), topK)
	itr, err := s.Client.Query(queryText).Read(ctx)
	if err != nil {
		return out, fmt.Errorf("failed to read from BigQuery: %w", err)
	}

	for {
		var r knnRow
		err := itr.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return out, fmt.Errorf("failed to iterate results: %w", err)
		}
		out = append(out, &ChunkMatch{
			Chunk: &model.TranscriptChunk{
				Id:             r.Id,
				VideoId:        r.VideoId,
				Text:           r.Text,
				Start:          r.Start,
				End:            r.End,
				EmbeddingModel: r.EmbeddingModel,
			},
			Similarity: 1 - r.Distance,
		})
	}
	return out, nil
}

// VideoChunks returns all stored chunks for the given video ordered by
// start time.
func (s *BigQueryStore) VideoChunks(ctx context.Context, videoId string) (out []*model.TranscriptChunk, err error) {
	out = make([]*model.TranscriptChunk, 0)

	q := s.Client.Query(fmt.Sprintf(QryVideoChunks, s.fqChunkTable()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "video_id", Value: videoId},
	}
	itr, err := q.Read(ctx)
	if err != nil {
		return out, fmt.Errorf("failed to read video chunks: %w", err)
	}

	for {
		var c = &model.TranscriptChunk{}
		err := itr.Next(c)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return out, fmt.Errorf("failed to iterate video chunks: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

// HasVideo reports whether the store holds at least one chunk for the
// video.
func (s *BigQueryStore) HasVideo(ctx context.Context, videoId string) (bool, error) {
	q := s.Client.Query(fmt.Sprintf(QryHasVideo, s.fqChunkTable()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "video_id", Value: videoId},
	}
	itr, err := q.Read(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count video chunks: %w", err)
	}
	var row struct {
		Total int64 `bigquery:"total"`
	}
	if err := itr.Next(&row); err != nil {
		return false, fmt.Errorf("failed to scan video chunk count: %w", err)
	}
	return row.Total > 0, nil
}

// Stats returns chunk and video counts for the stats endpoint.
func (s *BigQueryStore) Stats(ctx context.Context) (*StoreStats, error) {
	itr, err := s.Client.Query(fmt.Sprintf(QryStoreStats, s.fqChunkTable())).Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read store stats: %w", err)
	}
	var row statsRow
	if err := itr.Next(&row); err != nil {
		return nil, fmt.Errorf("failed to scan store stats: %w", err)
	}
	return &StoreStats{
		Backend:    "bigquery",
		VideoCount: row.VideoCount,
		ChunkCount: row.ChunkCount,
	}, nil
}

// Close is a no-op: the BigQuery client is shared application-wide and
// closed with the rest of the service clients.
func (s *BigQueryStore) Close() error {
	return nil
}
