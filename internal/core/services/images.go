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

// Package services contains the read side of the image tagger: looking up
// persisted image records, signing thumbnail URLs and accepting uploads.
package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"github.com/jaycherian/gcp-go-image-tagger/internal/cloud"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/model"
)

// DefaultSignedURLTTL is used when ImageService.SignedURLTTL is zero.
const DefaultSignedURLTTL = 15 * time.Minute

var (
	ErrInvalidFilename = errors.New("invalid filename")
	ErrNotAnImage      = errors.New("uploaded content is not an image")
)

// ImageService is a data access layer over the configured record store and
// object store.
type ImageService struct {
	Records      cloud.RecordStore
	Store        cloud.ObjectStore
	Bucket       string
	SignedURLTTL time.Duration
}

// NewImageService builds the service from loaded configuration and clients.
func NewImageService(config *cloud.Config, clients *cloud.ServiceClients) *ImageService {
	return &ImageService{
		Records:      clients.RecordStore,
		Store:        clients.ObjectStore,
		Bucket:       config.Storage.Bucket,
		SignedURLTTL: time.Duration(config.Storage.SignedURLMinutes) * time.Minute,
	}
}

func (s *ImageService) ttl() time.Duration {
	if s.SignedURLTTL <= 0 {
		return DefaultSignedURLTTL
	}
	return s.SignedURLTTL
}

// GetRecord returns the persisted record for filename. cloud.ErrRecordNotFound
// is returned unwrapped so callers can map it to a 404.
func (s *ImageService) GetRecord(ctx context.Context, filename string) (*model.ImageRecord, error) {
	if filename == "" {
		return nil, ErrInvalidFilename
	}
	record, err := s.Records.Get(ctx, filename)
	if err != nil {
		if errors.Is(err, cloud.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get record %q: %w", filename, err)
	}
	return record, nil
}

// ThumbnailURL signs a GET URL for the thumbnail generated from filename.
// Both "uploads/cat.png" and "cat.png" resolve to "thumbnails/cat.png".
func (s *ImageService) ThumbnailURL(ctx context.Context, filename string) (string, error) {
	if filename == "" || strings.HasSuffix(filename, "/") {
		return "", ErrInvalidFilename
	}
	env := model.EventEnvelope{Bucket: s.Bucket, Key: filename}
	url, err := s.Store.SignedURL(ctx, s.Bucket, env.ThumbnailKey(), s.ttl())
	if err != nil {
		return "", fmt.Errorf("sign thumbnail url for %q: %w", filename, err)
	}
	return url, nil
}

// Upload stores data under uploads/<name> with the content type sniffed from
// the bytes. Only images are accepted. The returned envelope identifies the
// stored object; the bucket notification it causes drives the pipelines.
func (s *ImageService) Upload(ctx context.Context, name string, data []byte) (*model.EventEnvelope, error) {
	base := path.Base(path.Clean("/" + name))
	if base == "/" || base == "." {
		return nil, ErrInvalidFilename
	}
	kind, err := filetype.Match(data)
	if err != nil || !filetype.IsImage(data) {
		return nil, ErrNotAnImage
	}
	env := &model.EventEnvelope{Bucket: s.Bucket, Key: model.UploadsPrefix + base}
	if err := s.Store.Write(ctx, env.Bucket, env.Key, kind.MIME.Value, data); err != nil {
		return nil, fmt.Errorf("upload %s: %w", env, err)
	}
	return env, nil
}
