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

// Package commands holds the concrete steps the image handlers are built
// from. Each command embeds cor.BaseCommand and does one thing: decode an
// event, filter it, call one collaborator, or transform bytes.
//
// Commands exchange data through the cor.Context. The primary value flows
// through CtxIn/CtxOut; values several commands need are stored under the
// keys below.
package commands

import (
	"github.com/jaycherian/gcp-go-image-tagger/internal/cloud"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/cor"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/model"
)

const (
	LabelsKey      = "__LABELS__"       // []model.Label from the detector.
	ContentTypeKey = "__CONTENT_TYPE__" // string content type of the source object.
)

// Skip reasons logged with the "skip" event.
const (
	SkipReasonPrefix      = "prefix"
	SkipReasonExtension   = "extension"
	SkipReasonContentType = "content_type"
)

// Structured log event names.
const (
	EventSkip           = "skip"
	EventLabelsDetected = "labels.detected"
	EventLabelSkipped   = "label.skipped"
	EventTagsSaved      = "tags.saved"
	EventRecordSaved    = "record.saved"
	EventThumbnailSaved = "thumbnail.saved"
	EventObjectError    = "object.error"
)

// envelope returns the EventEnvelope stored by EventTrigger, or nil.
func envelope(context cor.Context) *model.EventEnvelope {
	e, _ := context.Get(cloud.GetEnvelopeName()).(*model.EventEnvelope)
	return e
}
