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
)

// LabelDetection asks the detector to label the object named by the
// envelope. The labels are stored under LabelsKey in detector order.
type LabelDetection struct {
	cor.BaseCommand
	detector      cloud.LabelDetector
	minConfidence float32
}

// NewLabelDetection is the constructor for LabelDetection.
//
// Inputs:
//   - name: A string name for this command instance.
//   - detector: The label detection service.
//   - minConfidence: Sent with every request.
//
// Outputs:
//   - *LabelDetection: The command.
func NewLabelDetection(name string, detector cloud.LabelDetector, minConfidence float32) *LabelDetection {
	return &LabelDetection{
		BaseCommand:   *cor.NewBaseCommand(name),
		detector:      detector,
		minConfidence: minConfidence,
	}
}

func (c *LabelDetection) Execute(context cor.Context) {
	env := envelope(context)
	if env == nil {
		c.Fail(context, errMissingEnvelope)
		return
	}

	labels, err := c.detector.DetectLabels(context.GetContext(), env.Bucket, env.Key, c.minConfidence)
	if err != nil {
		c.Fail(context, err)
		return
	}

	c.Logger().InfoContext(context.GetContext(), "labels detected",
		"event", EventLabelsDetected,
		"object", env.String(),
		"count", len(labels),
		"min_confidence", c.minConfidence)

	c.Succeed(context)
	context.Add(LabelsKey, labels)
	context.Add(c.GetOutputParam(), labels)
}
