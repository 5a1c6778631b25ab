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

// Package cloud. This file implements RecordStore on a BigQuery table.
//
// The images table has two columns: filename (STRING, the key) and tags
// (STRING holding a JSON object of label name to confidence). BigQuery has
// no primary keys, so the upsert is a MERGE on filename.
package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/model"
	"google.golang.org/api/iterator"
)

const (
	// QryMergeImageRecord upserts one record. Arg: fully qualified table.
	QryMergeImageRecord = "MERGE `%s` T " +
		"USING (SELECT @filename AS filename, @tags AS tags) S " +
		"ON T.filename = S.filename " +
		"WHEN MATCHED THEN UPDATE SET tags = S.tags " +
		"WHEN NOT MATCHED THEN INSERT (filename, tags) VALUES (S.filename, S.tags)"

	// QryGetImageRecord reads one record. Arg: fully qualified table.
	QryGetImageRecord = "SELECT filename, tags FROM `%s` WHERE filename = @filename LIMIT 1"
)

// BigQueryRecordStore implements RecordStore.
type BigQueryRecordStore struct {
	client *bigquery.Client
	table  string
}

type bigQueryImageRow struct {
	Filename string `bigquery:"filename"`
	Tags     string `bigquery:"tags"`
}

// NewBigQueryRecordStore targets <project>.<dataset>.<table>.
func NewBigQueryRecordStore(client *bigquery.Client, dataset, table string) *BigQueryRecordStore {
	return &BigQueryRecordStore{
		client: client,
		table:  fmt.Sprintf("%s.%s.%s", client.Project(), dataset, table),
	}
}

func (s *BigQueryRecordStore) Upsert(ctx context.Context, record *model.ImageRecord) error {
	tags, err := json.Marshal(record.Tags)
	if err != nil {
		return fmt.Errorf("encode tags for %s: %w", record.Filename, err)
	}
	q := s.client.Query(fmt.Sprintf(QryMergeImageRecord, s.table))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "filename", Value: record.Filename},
		{Name: "tags", Value: string(tags)},
	}
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("bigquery merge %s: %w", record.Filename, err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("bigquery merge wait %s: %w", record.Filename, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("bigquery merge %s: %w", record.Filename, err)
	}
	return nil
}

func (s *BigQueryRecordStore) Get(ctx context.Context, filename string) (*model.ImageRecord, error) {
	q := s.client.Query(fmt.Sprintf(QryGetImageRecord, s.table))
	q.Parameters = []bigquery.QueryParameter{{Name: "filename", Value: filename}}
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("bigquery read %s: %w", filename, err)
	}
	var row bigQueryImageRow
	err = itr.Next(&row)
	if errors.Is(err, iterator.Done) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("bigquery scan %s: %w", filename, err)
	}
	return decodeRecord(row.Filename, []byte(row.Tags))
}

// decodeRecord builds an ImageRecord from a JSON tag column.
func decodeRecord(filename string, tags []byte) (*model.ImageRecord, error) {
	record := &model.ImageRecord{Filename: filename, Tags: map[string]string{}}
	if len(tags) == 0 {
		return record, nil
	}
	if err := json.Unmarshal(tags, &record.Tags); err != nil {
		return nil, fmt.Errorf("decode tags for %s: %w", filename, err)
	}
	return record, nil
}
