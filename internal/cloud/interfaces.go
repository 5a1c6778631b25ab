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
	"errors"
	"time"

	"github.com/jaycherian/gcp-go-image-tagger/internal/core/model"
)

// ErrRecordNotFound is returned by RecordStore.Get when no record exists for
// the filename.
var ErrRecordNotFound = errors.New("image record not found")

// ObjectStore is the slice of an object storage service the handlers use.
type ObjectStore interface {
	// ContentType returns the stored content type of bucket/key.
	ContentType(ctx context.Context, bucket, key string) (string, error)

	// Read returns the full object body.
	Read(ctx context.Context, bucket, key string) ([]byte, error)

	// Write stores data at bucket/key with the given content type.
	Write(ctx context.Context, bucket, key, contentType string, data []byte) error

	// ReplaceTags sets the object's tag set to exactly tags. Existing tags
	// not in tags are removed.
	ReplaceTags(ctx context.Context, bucket, key string, tags []model.Tag) error

	// SignedURL returns a time limited GET URL for bucket/key.
	SignedURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}

// LabelDetector runs image classification against a stored object.
// Implementations return labels in service order and never return labels
// below minConfidence.
type LabelDetector interface {
	DetectLabels(ctx context.Context, bucket, key string, minConfidence float32) ([]model.Label, error)
}

// RecordStore persists image records keyed by filename.
type RecordStore interface {
	// Upsert inserts or replaces the record for record.Filename.
	Upsert(ctx context.Context, record *model.ImageRecord) error

	// Get returns the record for filename or ErrRecordNotFound.
	Get(ctx context.Context, filename string) (*model.ImageRecord, error)
}
