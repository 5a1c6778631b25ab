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

package commands

import (
	"github.com/jaycherian/gcp-go-image-tagger/internal/cloud"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/cor"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/model"
)

// ImageRecordPersist upserts the image record built from every detected
// label above the persist threshold. The tag limit does not apply here.
type ImageRecordPersist struct {
	cor.BaseCommand
	records   cloud.RecordStore
	threshold float32
}

// NewImageRecordPersist reads labels from LabelsKey.
//
// Inputs:
//   - name: A string name for this command instance.
//   - records: The record store.
//   - threshold: Labels must be strictly above this to be persisted.
//
// Outputs:
//   - *ImageRecordPersist: The command.
func NewImageRecordPersist(name string, records cloud.RecordStore, threshold float32) *ImageRecordPersist {
	cmd := &ImageRecordPersist{
		BaseCommand: *cor.NewBaseCommand(name),
		records:     records,
		threshold:   threshold,
	}
	cmd.InputParamName = LabelsKey
	return cmd
}

func (c *ImageRecordPersist) Execute(context cor.Context) {
	env := envelope(context)
	if env == nil {
		c.Fail(context, errMissingEnvelope)
		return
	}
	labels, ok := context.Get(c.GetInputParam()).([]model.Label)
	if !ok {
		c.Fail(context, errMissingLabels)
		return
	}

	record := model.NewImageRecord(env.Key, labels, c.threshold)
	if err := c.records.Upsert(context.GetContext(), record); err != nil {
		c.Fail(context, err)
		return
	}

	c.Logger().InfoContext(context.GetContext(), "image record saved",
		"event", EventRecordSaved,
		"filename", record.Filename,
		"count", len(record.Tags))

	c.Succeed(context)
	context.Add(c.GetOutputParam(), record)
}
