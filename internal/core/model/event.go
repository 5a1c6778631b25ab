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

// Package model defines the data structures that flow through the image
// handlers. Everything here is transient: built once per invocation, read by
// the commands of one chain, and dropped when the invocation returns. The only
// structure that outlives an invocation is ImageRecord, and only because a
// record store persists a copy of it.
package model

import (
	"path"
	"strings"
)

// Object key prefixes that route an object to a pipeline.
const (
	UploadsPrefix    = "uploads/"
	ThumbnailsPrefix = "thumbnails/"
)

// EventEnvelope is the minimal description of the object that triggered an
// invocation. Key is a slash-delimited path; its leading segment decides
// which pipeline, if any, handles it.
type EventEnvelope struct {
	Bucket string `json:"bucket_name"`
	Key    string `json:"object_key"`
}

// IsUpload reports whether the object sits under the uploads/ prefix.
func (e *EventEnvelope) IsUpload() bool {
	return strings.HasPrefix(e.Key, UploadsPrefix)
}

// Extension returns the extension of the key including the dot, exactly as
// written (no case folding), or "" when there is none.
func (e *EventEnvelope) Extension() string {
	return path.Ext(e.Key)
}

// LastSegment returns the part of the key after the final slash.
func (e *EventEnvelope) LastSegment() string {
	if i := strings.LastIndex(e.Key, "/"); i >= 0 {
		return e.Key[i+1:]
	}
	return e.Key
}

// ThumbnailKey is where the thumbnail for this object is written.
func (e *EventEnvelope) ThumbnailKey() string {
	return ThumbnailsPrefix + e.LastSegment()
}

func (e *EventEnvelope) String() string {
	return e.Bucket + ":" + e.Key
}
