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

// Package model_test covers the pure transformations in the model package:
// routing helpers on the envelope, tag truncation, record filtering and the
// two workflow steps.
package model_test

import (
	"fmt"
	"testing"

	"github.com/jaycherian/gcp-go-image-tagger/internal/core/model"
	"github.com/stretchr/testify/assert"
)

func TestEventEnvelopeRouting(t *testing.T) {
	e := &model.EventEnvelope{Bucket: "lab4images", Key: "uploads/2024/cat.jpg"}
	assert.True(t, e.IsUpload())
	assert.Equal(t, ".jpg", e.Extension())
	assert.Equal(t, "cat.jpg", e.LastSegment())
	assert.Equal(t, "thumbnails/cat.jpg", e.ThumbnailKey())

	other := &model.EventEnvelope{Bucket: "lab4images", Key: "archive/uploads/cat.jpg"}
	assert.False(t, other.IsUpload())

	upper := &model.EventEnvelope{Key: "uploads/CAT.JPG"}
	assert.Equal(t, ".JPG", upper.Extension())

	flat := &model.EventEnvelope{Key: "cat.png"}
	assert.Equal(t, "cat.png", flat.LastSegment())
}

func labels(n int, confidence float32) []model.Label {
	out := make([]model.Label, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.Label{Name: fmt.Sprintf("label-%02d", i), Confidence: confidence})
	}
	return out
}

func TestTagsFromLabelsTruncatesInOrder(t *testing.T) {
	in := labels(13, 95.5)
	tags, skipped := model.TagsFromLabels(in, model.MaxObjectTags)

	assert.Len(t, tags, 10)
	assert.Len(t, skipped, 3)
	for i, tag := range tags {
		assert.Equal(t, in[i].Name, tag.Key)
		assert.Equal(t, "95.5", tag.Value)
	}
	assert.Equal(t, "label-10", skipped[0].Name)
}

func TestTagsFromLabelsUnderLimit(t *testing.T) {
	tags, skipped := model.TagsFromLabels(labels(3, 91), model.MaxObjectTags)
	assert.Len(t, tags, 3)
	assert.Empty(t, skipped)

	tags, skipped = model.TagsFromLabels(nil, model.MaxObjectTags)
	assert.Empty(t, tags)
	assert.Empty(t, skipped)
}

func TestFormatConfidence(t *testing.T) {
	assert.Equal(t, "90", model.FormatConfidence(90))
	assert.Equal(t, "99.12345", model.FormatConfidence(99.12345))
}

func TestNewImageRecordKeepsStrictlyAboveThreshold(t *testing.T) {
	in := []model.Label{
		{Name: "Cat", Confidence: 99.1},
		{Name: "Pet", Confidence: 90},
		{Name: "Animal", Confidence: 90.01},
		{Name: "Carpet", Confidence: 55},
	}
	record := model.NewImageRecord("uploads/cat.jpg", in, model.DefaultPersistThreshold)

	assert.Equal(t, "uploads/cat.jpg", record.Filename)
	assert.Equal(t, map[string]string{"Cat": "99.1", "Animal": "90.01"}, record.Tags)
}

func TestNewImageRecordIgnoresTagLimit(t *testing.T) {
	record := model.NewImageRecord("uploads/many.png", labels(15, 97), model.DefaultPersistThreshold)
	assert.Len(t, record.Tags, 15)

	empty := model.NewImageRecord("uploads/none.png", nil, model.DefaultPersistThreshold)
	assert.NotNil(t, empty.Tags)
	assert.Empty(t, empty.Tags)
}

func TestGreetingThenSalutations(t *testing.T) {
	state := &model.WorkflowState{Name: "Ann"}

	state.Greet()
	assert.Equal(t, "Hello Ann", state.Message)
	assert.Equal(t, 5, state.WaitInSeconds)

	state.SayGoodbye()
	assert.Equal(t, "Hello Ann, Goodbye Ann", state.Message)
}

func TestGreetingWithoutName(t *testing.T) {
	state := &model.WorkflowState{Name: ""}

	state.Greet()
	assert.Equal(t, "Hello", state.Message)

	state.SayGoodbye()
	assert.Equal(t, "Hello, Goodbye", state.Message)
}
