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

// Package workflow. This file implements the upload classifier.
//
// Logic Flow:
//  1. The notification is decoded into an EventEnvelope.
//  2. Keys outside uploads/ end the run silently. Keys with an extension
//     other than .png, .jpg or .jpeg end it with a logged skip.
//  3. The detector labels the object using the configured minimum
//     confidence.
//  4. The first ten labels replace the object's tag set.
//  5. Every label strictly above the persist threshold goes into the image
//     record, which is upserted by filename.
//
// Steps 4 and 5 are not atomic: a failure in step 5 leaves the tags written.
// A failure in any step is returned to the caller for the platform to retry.
package workflow

import (
	"context"
	"log/slog"

	"github.com/jaycherian/gcp-go-image-tagger/internal/cloud"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/commands"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/cor"
)

// ClassifierDependencies is everything the classifier needs.
type ClassifierDependencies struct {
	Store            cloud.ObjectStore
	Detector         cloud.LabelDetector
	Records          cloud.RecordStore
	MinConfidence    float32 // Sent to the detector.
	PersistThreshold float32 // Record filter, independent of MinConfidence.
	Logger           *slog.Logger
}

// UploadClassifierWorkflow labels, tags and records uploaded images.
type UploadClassifierWorkflow struct {
	cor.BaseCommand
	deps  ClassifierDependencies
	chain cor.Chain
}

// NewUploadClassifierWorkflow builds the classifier from explicit
// dependencies.
//
// Inputs:
//   - deps: The collaborators and thresholds.
//
// Outputs:
//   - *UploadClassifierWorkflow: The ready to run workflow.
func NewUploadClassifierWorkflow(deps ClassifierDependencies) *UploadClassifierWorkflow {
	out := &UploadClassifierWorkflow{
		BaseCommand: *cor.NewBaseCommand("upload-classifier-workflow"),
		deps:        deps,
	}
	out.initializeChain()
	return out
}

// NewUploadClassifierFromConfig wires the classifier to the configured
// providers.
func NewUploadClassifierFromConfig(config *cloud.Config, clients *cloud.ServiceClients) *UploadClassifierWorkflow {
	return NewUploadClassifierWorkflow(ClassifierDependencies{
		Store:            clients.ObjectStore,
		Detector:         clients.LabelDetector,
		Records:          clients.RecordStore,
		MinConfidence:    config.Detection.MinConfidence,
		PersistThreshold: config.Records.PersistThreshold,
	})
}

func (w *UploadClassifierWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())
	addCommand(out, commands.NewEventTrigger("event-trigger"), w.deps.Logger)
	addCommand(out, commands.NewUploadFilter("upload-filter", commands.SupportedImageExtensions), w.deps.Logger)
	addCommand(out, commands.NewLabelDetection("label-detection", w.deps.Detector, w.deps.MinConfidence), w.deps.Logger)
	addCommand(out, commands.NewObjectTagger("object-tagger", w.deps.Store), w.deps.Logger)
	addCommand(out, commands.NewImageRecordPersist("image-record-persist", w.deps.Records, w.deps.PersistThreshold), w.deps.Logger)
	w.chain = out
}

// IsExecutable only needs an input; the chain validates it.
func (w *UploadClassifierWorkflow) IsExecutable(context cor.Context) bool {
	return w.chain.IsExecutable(context) && context.Get(w.GetInputParam()) != nil
}

// Execute runs the classifier over context.
func (w *UploadClassifierWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// Handle classifies the object named by in, which may be a raw notification
// ([]byte or string) or a *model.EventEnvelope.
func (w *UploadClassifierWorkflow) Handle(ctx context.Context, in interface{}) error {
	return cor.JoinErrors(run(ctx, w, in))
}
