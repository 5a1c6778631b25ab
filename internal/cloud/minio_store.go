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
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jaycherian/gcp-go-image-tagger/internal/core/model"
	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/tags"
)

// MinioObjectStore implements ObjectStore on any S3 compatible server
// reachable through minio-go.
type MinioObjectStore struct {
	client *minio.Client
}

// NewMinioClient connects to the endpoint described by storage.
func NewMinioClient(storage Storage) (*minio.Client, error) {
	client, err := minio.New(storage.Endpoint, &minio.Options{
		Creds:  miniocreds.NewStaticV4(storage.AccessKey, storage.SecretKey, ""),
		Secure: storage.UseSSL,
		Region: storage.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client %s: %w", storage.Endpoint, err)
	}
	return client, nil
}

func NewMinioObjectStore(client *minio.Client) *MinioObjectStore {
	return &MinioObjectStore{client: client}
}

func (s *MinioObjectStore) ContentType(ctx context.Context, bucket, key string) (string, error) {
	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("minio stat %s/%s: %w", bucket, key, err)
	}
	return info.ContentType, nil
}

func (s *MinioObjectStore) Read(ctx context.Context, bucket, key string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio get %s/%s: %w", bucket, key, err)
	}
	defer object.Close()
	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("minio read %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

func (s *MinioObjectStore) Write(ctx context.Context, bucket, key, contentType string, data []byte) error {
	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("minio put %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *MinioObjectStore) ReplaceTags(ctx context.Context, bucket, key string, labels []model.Tag) error {
	objectTags, err := tags.MapToObjectTags(model.TagMap(labels))
	if err != nil {
		return fmt.Errorf("minio tags %s/%s: %w", bucket, key, err)
	}
	if err := s.client.PutObjectTagging(ctx, bucket, key, objectTags, minio.PutObjectTaggingOptions{}); err != nil {
		return fmt.Errorf("minio put tagging %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *MinioObjectStore) SignedURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, bucket, key, expires, nil)
	if err != nil {
		return "", fmt.Errorf("minio presign %s/%s: %w", bucket, key, err)
	}
	return u.String(), nil
}
