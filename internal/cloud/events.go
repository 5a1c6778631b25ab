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

// Package cloud. This file decodes inbound bucket notifications into the
// EventEnvelope every image handler works on.
//
// Two payload shapes are accepted:
//   - EventBridge "Object Created": {"detail":{"bucket":{"name"},"object":{"key"}}}
//   - GCS Pub/Sub object notification: {"bucket", "name", "contentType", ...}
//
// The EventBridge shape is tried first. Everything other than bucket and key
// is ignored.
package cloud

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jaycherian/gcp-go-image-tagger/internal/core/model"
)

// ErrInvalidEvent is returned when a payload carries neither a bucket nor an
// object key in any supported shape.
var ErrInvalidEvent = errors.New("invalid event payload")

// GetEnvelopeName returns the context key the decoded EventEnvelope is
// stored under.
func GetEnvelopeName() string {
	return "__EVENT__ENVELOPE__"
}

// ObjectCreatedEvent is the EventBridge notification for a new object. Only
// the fields the handlers read are mapped.
type ObjectCreatedEvent struct {
	Version    string `json:"version,omitempty"`
	ID         string `json:"id,omitempty"`
	DetailType string `json:"detail-type,omitempty"`
	Source     string `json:"source,omitempty"`
	Region     string `json:"region,omitempty"`
	Detail     struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key  string `json:"key"`
			Size int64  `json:"size,omitempty"`
		} `json:"object"`
	} `json:"detail"`
}

// NewObjectCreatedEvent builds an EventBridge-shaped notification, used by
// tests and the local HTTP surface.
func NewObjectCreatedEvent(bucket, key string) *ObjectCreatedEvent {
	e := &ObjectCreatedEvent{DetailType: "Object Created"}
	e.Detail.Bucket.Name = bucket
	e.Detail.Object.Key = key
	return e
}

// GCSPubSubNotification is the JSON payload GCS publishes for object
// changes.
type GCSPubSubNotification struct {
	Kind           string                 `json:"kind"`
	ID             string                 `json:"id"`
	SelfLink       string                 `json:"selfLink"`
	Name           string                 `json:"name"`
	Bucket         string                 `json:"bucket"`
	Generation     string                 `json:"generation"`
	MetaGeneration string                 `json:"metageneration"`
	ContentType    string                 `json:"contentType"`
	TimeCreated    string                 `json:"timeCreated"`
	Updated        string                 `json:"updated"`
	StorageClass   string                 `json:"storageClass"`
	Size           string                 `json:"size"`
	MD5Hash        string                 `json:"md5Hash"`
	MediaLink      string                 `json:"mediaLink"`
	MetaData       map[string]interface{} `json:"metadata"`
	Crc32c         string                 `json:"crc32c"`
	ETag           string                 `json:"etag"`
}

// DecodeEvent turns a raw notification into an EventEnvelope.
//
// Inputs:
//   - data: The raw JSON payload.
//
// Outputs:
//   - *model.EventEnvelope: The bucket and key of the object.
//   - error: ErrInvalidEvent (wrapped) when the payload cannot be used.
func DecodeEvent(data []byte) (*model.EventEnvelope, error) {
	var created ObjectCreatedEvent
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if created.Detail.Bucket.Name != "" || created.Detail.Object.Key != "" {
		return &model.EventEnvelope{
			Bucket: created.Detail.Bucket.Name,
			Key:    created.Detail.Object.Key,
		}, nil
	}

	var notification GCSPubSubNotification
	if err := json.Unmarshal(data, &notification); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if notification.Bucket != "" || notification.Name != "" {
		return &model.EventEnvelope{
			Bucket: notification.Bucket,
			Key:    notification.Name,
		}, nil
	}
	return nil, fmt.Errorf("%w: no bucket or object key", ErrInvalidEvent)
}
