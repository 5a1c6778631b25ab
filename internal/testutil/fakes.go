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

package test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jaycherian/gcp-go-image-tagger/internal/cloud"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/model"
)

// FakeObject is one stored object.
type FakeObject struct {
	ContentType string
	Data        []byte
}

// FakeObjectStore is an in-memory cloud.ObjectStore. Errors keyed by
// operation name ("ContentType", "Read", "Write", "ReplaceTags",
// "SignedURL") are returned from that operation.
type FakeObjectStore struct {
	mu      sync.Mutex
	Objects map[string]FakeObject
	Tags    map[string][]model.Tag
	Errors  map[string]error
	Calls   []string
}

func NewFakeObjectStore() *FakeObjectStore {
	return &FakeObjectStore{
		Objects: make(map[string]FakeObject),
		Tags:    make(map[string][]model.Tag),
		Errors:  make(map[string]error),
	}
}

func objectID(bucket, key string) string {
	return bucket + "/" + key
}

// Put seeds an object.
func (f *FakeObjectStore) Put(bucket, key, contentType string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Objects[objectID(bucket, key)] = FakeObject{ContentType: contentType, Data: data}
}

// Object returns a stored object.
func (f *FakeObjectStore) Object(bucket, key string) (FakeObject, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.Objects[objectID(bucket, key)]
	return o, ok
}

// CallCount returns the number of calls made to the store.
func (f *FakeObjectStore) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

func (f *FakeObjectStore) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, op)
	return f.Errors[op]
}

func (f *FakeObjectStore) ContentType(_ context.Context, bucket, key string) (string, error) {
	if err := f.record("ContentType"); err != nil {
		return "", err
	}
	o, ok := f.Object(bucket, key)
	if !ok {
		return "", fmt.Errorf("object %s not found", objectID(bucket, key))
	}
	return o.ContentType, nil
}

func (f *FakeObjectStore) Read(_ context.Context, bucket, key string) ([]byte, error) {
	if err := f.record("Read"); err != nil {
		return nil, err
	}
	o, ok := f.Object(bucket, key)
	if !ok {
		return nil, fmt.Errorf("object %s not found", objectID(bucket, key))
	}
	return o.Data, nil
}

func (f *FakeObjectStore) Write(_ context.Context, bucket, key, contentType string, data []byte) error {
	if err := f.record("Write"); err != nil {
		return err
	}
	f.Put(bucket, key, contentType, data)
	return nil
}

func (f *FakeObjectStore) ReplaceTags(_ context.Context, bucket, key string, tags []model.Tag) error {
	if err := f.record("ReplaceTags"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Tags[objectID(bucket, key)] = append([]model.Tag(nil), tags...)
	return nil
}

func (f *FakeObjectStore) SignedURL(_ context.Context, bucket, key string, expires time.Duration) (string, error) {
	if err := f.record("SignedURL"); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://signed.example/%s?expires=%d", objectID(bucket, key), int(expires.Seconds())), nil
}

// DetectCall records one DetectLabels call.
type DetectCall struct {
	Bucket        string
	Key           string
	MinConfidence float32
}

// FakeLabelDetector returns Labels (or Err) and records every call.
type FakeLabelDetector struct {
	mu     sync.Mutex
	Labels []model.Label
	Err    error
	Calls  []DetectCall
}

func (f *FakeLabelDetector) DetectLabels(_ context.Context, bucket, key string, minConfidence float32) ([]model.Label, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, DetectCall{Bucket: bucket, Key: key, MinConfidence: minConfidence})
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]model.Label(nil), f.Labels...), nil
}

// CallCount returns the number of DetectLabels calls.
func (f *FakeLabelDetector) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// FakeRecordStore is an in-memory cloud.RecordStore.
type FakeRecordStore struct {
	mu      sync.Mutex
	Records map[string]*model.ImageRecord
	Err     error
	Upserts int
}

func NewFakeRecordStore() *FakeRecordStore {
	return &FakeRecordStore{Records: make(map[string]*model.ImageRecord)}
}

func (f *FakeRecordStore) Upsert(_ context.Context, record *model.ImageRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Upserts++
	if f.Err != nil {
		return f.Err
	}
	f.Records[record.Filename] = record
	return nil
}

func (f *FakeRecordStore) Get(_ context.Context, filename string) (*model.ImageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	r, ok := f.Records[filename]
	if !ok {
		return nil, cloud.ErrRecordNotFound
	}
	return r, nil
}

var (
	_ cloud.ObjectStore   = (*FakeObjectStore)(nil)
	_ cloud.LabelDetector = (*FakeLabelDetector)(nil)
	_ cloud.RecordStore   = (*FakeRecordStore)(nil)
)
