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

package cloud

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jaycherian/gcp-go-image-tagger/internal/core/model"
	"github.com/lib/pq"
)

// PostgresRecordStore keeps image records in a Postgres table with a
// filename primary key and a JSONB tags column.
type PostgresRecordStore struct {
	db    *sql.DB
	table string
}

// NewPostgresRecordStore opens dsn with the lib/pq driver. The connection is
// verified lazily on first use.
func NewPostgresRecordStore(dsn, table string) (*PostgresRecordStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &PostgresRecordStore{db: db, table: pq.QuoteIdentifier(table)}, nil
}

// EnsureSchema creates the table when missing.
func (s *PostgresRecordStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (filename TEXT PRIMARY KEY, tags JSONB NOT NULL DEFAULT '{}'::jsonb)", s.table))
	if err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	return nil
}

func (s *PostgresRecordStore) Upsert(ctx context.Context, record *model.ImageRecord) error {
	tags, err := json.Marshal(record.Tags)
	if err != nil {
		return fmt.Errorf("encode tags for %s: %w", record.Filename, err)
	}
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (filename, tags) VALUES ($1, $2) ON CONFLICT (filename) DO UPDATE SET tags = EXCLUDED.tags", s.table),
		record.Filename, string(tags))
	if err != nil {
		return fmt.Errorf("postgres upsert %s: %w", record.Filename, err)
	}
	return nil
}

func (s *PostgresRecordStore) Get(ctx context.Context, filename string) (*model.ImageRecord, error) {
	var tags []byte
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT tags FROM %s WHERE filename = $1", s.table), filename).Scan(&tags)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get %s: %w", filename, err)
	}
	return decodeRecord(filename, tags)
}

func (s *PostgresRecordStore) Close() error {
	return s.db.Close()
}
