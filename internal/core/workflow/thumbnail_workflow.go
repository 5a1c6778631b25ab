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

// Package workflow. This file implements the thumbnail generator.
//
// Logic Flow:
//  1. The notification is decoded into an EventEnvelope.
//  2. Keys outside uploads/ end the run without touching storage.
//  3. The object's content type is read. Anything not image/* ends the run.
//  4. The object is downloaded, rendered into a 100x100 watermarked grayscale
//     thumbnail and written to thumbnails/<last key segment>.
//
// Handle returns the source content type whether or not a thumbnail was
// written. Failures are logged with the stack of the failing command and
// returned.
package workflow

import (
	"context"
	"log/slog"

	"github.com/jaycherian/gcp-go-image-tagger/internal/cloud"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/commands"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/cor"
)

// ThumbnailDependencies is everything the thumbnail generator needs.
type ThumbnailDependencies struct {
	Store  cloud.ObjectStore
	Logger *slog.Logger
}

// ThumbnailWorkflow writes thumbnails for uploaded images.
type ThumbnailWorkflow struct {
	cor.BaseCommand
	deps  ThumbnailDependencies
	chain cor.Chain
}

func NewThumbnailWorkflow(deps ThumbnailDependencies) *ThumbnailWorkflow {
	out := &ThumbnailWorkflow{
		BaseCommand: *cor.NewBaseCommand("thumbnail-workflow"),
		deps:        deps,
	}
	if deps.Logger != nil {
		out.SetLogger(deps.Logger)
	}
	out.initializeChain()
	return out
}

// NewThumbnailFromConfig wires the generator to the configured object store.
func NewThumbnailFromConfig(clients *cloud.ServiceClients) *ThumbnailWorkflow {
	return NewThumbnailWorkflow(ThumbnailDependencies{Store: clients.ObjectStore})
}

func (w *ThumbnailWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())
	addCommand(out, commands.NewEventTrigger("event-trigger"), w.deps.Logger)
	addCommand(out, commands.NewUploadFilter("upload-filter", nil), w.deps.Logger)
	addCommand(out, commands.NewContentTypeReader("content-type-reader", w.deps.Store), w.deps.Logger)
	addCommand(out, commands.NewImageFilter("image-filter"), w.deps.Logger)
	addCommand(out, commands.NewObjectDownload("object-download", w.deps.Store), w.deps.Logger)
	addCommand(out, commands.NewThumbnailRender("thumbnail-render"), w.deps.Logger)
	addCommand(out, commands.NewThumbnailUpload("thumbnail-upload", w.deps.Store), w.deps.Logger)
	w.chain = out
}

func (w *ThumbnailWorkflow) IsExecutable(context cor.Context) bool {
	return w.chain.IsExecutable(context) && context.Get(w.GetInputParam()) != nil
}

// Execute runs the generator and logs any failure with a stack trace.
func (w *ThumbnailWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
	if err := cor.JoinErrors(context); err != nil {
		object := ""
		if env, ok := context.Get(cloud.GetEnvelopeName()).(interface{ String() string }); ok {
			object = env.String()
		}
		w.Logger().ErrorContext(context.GetContext(), "error processing object",
			"event", commands.EventObjectError,
			"object", object,
			"error", err.Error(),
			"stack", cor.StackOf(err))
	}
}

// Handle generates the thumbnail for in and returns the source content type.
func (w *ThumbnailWorkflow) Handle(ctx context.Context, in interface{}) (string, error) {
	chCtx := run(ctx, w, in)
	contentType, _ := chCtx.Get(commands.ContentTypeKey).(string)
	return contentType, cor.JoinErrors(chCtx)
}
