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

// Package cloud. This file adapts Google Cloud Storage to ObjectStore.
//
// GCS has no tag sets, so tags are stored as custom object metadata under
// the LabelMetadataPrefix namespace. A tag replacement reads the current
// metadata and blanks the namespaced keys that are not in the new set, which
// is how the GCS API deletes metadata keys. Metadata outside the namespace is
// never sent in the update and so is left as it is.
//
// Signed URLs are produced with the V4 scheme. When a signer service account
// is configured the signature comes from the IAM Credentials SignBlob API so
// no private key is needed on the host.
package cloud

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/model"
)

// LabelMetadataPrefix marks the custom metadata keys that hold tags.
const LabelMetadataPrefix = "label-"

// GCSObjectStore implements ObjectStore on a storage.Client.
type GCSObjectStore struct {
	client      *storage.Client
	iamClient   *credentials.IamCredentialsClient
	signerEmail string
}

// NewGCSObjectStore wraps client. iamClient and signerEmail may be empty, in
// which case URL signing falls back to the client's own credentials.
func NewGCSObjectStore(client *storage.Client, iamClient *credentials.IamCredentialsClient, signerEmail string) *GCSObjectStore {
	return &GCSObjectStore{client: client, iamClient: iamClient, signerEmail: signerEmail}
}

func (s *GCSObjectStore) ContentType(ctx context.Context, bucket, key string) (string, error) {
	attrs, err := s.client.Bucket(bucket).Object(key).Attrs(ctx)
	if err != nil {
		return "", fmt.Errorf("gcs attrs %s/%s: %w", bucket, key, err)
	}
	return attrs.ContentType, nil
}

func (s *GCSObjectStore) Read(ctx context.Context, bucket, key string) ([]byte, error) {
	reader, err := s.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs open %s/%s: %w", bucket, key, err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("gcs read %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

func (s *GCSObjectStore) Write(ctx context.Context, bucket, key, contentType string, data []byte) error {
	writer := s.client.Bucket(bucket).Object(key).NewWriter(ctx)
	writer.ContentType = contentType
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("gcs write %s/%s: %w", bucket, key, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("gcs close %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *GCSObjectStore) ReplaceTags(ctx context.Context, bucket, key string, tags []model.Tag) error {
	object := s.client.Bucket(bucket).Object(key)
	attrs, err := object.Attrs(ctx)
	if err != nil {
		return fmt.Errorf("gcs attrs %s/%s: %w", bucket, key, err)
	}
	_, err = object.Update(ctx, storage.ObjectAttrsToUpdate{
		Metadata: replacementMetadata(attrs.Metadata, tags),
	})
	if err != nil {
		return fmt.Errorf("gcs update metadata %s/%s: %w", bucket, key, err)
	}
	return nil
}

// replacementMetadata returns the metadata patch that makes the label
// namespace of current hold exactly tags. Stale label keys map to "".
func replacementMetadata(current map[string]string, tags []model.Tag) map[string]string {
	update := make(map[string]string, len(tags))
	for k := range current {
		if strings.HasPrefix(k, LabelMetadataPrefix) {
			update[k] = ""
		}
	}
	for _, t := range tags {
		update[LabelMetadataPrefix+t.Key] = t.Value
	}
	return update
}

func (s *GCSObjectStore) SignedURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(expires),
	}
	if s.iamClient != nil && s.signerEmail != "" {
		opts.GoogleAccessID = s.signerEmail
		opts.SignBytes = func(b []byte) ([]byte, error) {
			resp, err := s.iamClient.SignBlob(ctx, &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.signerEmail),
				Payload: b,
			})
			if err != nil {
				return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
			}
			return resp.SignedBlob, nil
		}
	}
	u, err := s.client.Bucket(bucket).SignedURL(key, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).SignedURL(%q): %w", bucket, key, err)
	}
	return u, nil
}
