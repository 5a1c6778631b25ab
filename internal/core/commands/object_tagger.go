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

// Package commands. This file defines ObjectTagger.
//
// Logic Flow:
//  1. The first model.MaxObjectTags labels, in detector order, become tags
//     whose value is the stringified confidence.
//  2. Every label past the limit is logged as skipped.
//  3. The object's tag set is replaced with the new tags.
package commands

import (
	"github.com/jaycherian/gcp-go-image-tagger/internal/cloud"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/cor"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/model"
)

// ObjectTagger writes the detected labels onto the object as tags.
type ObjectTagger struct {
	cor.BaseCommand
	store   cloud.ObjectStore
	maxTags int
}

func NewObjectTagger(name string, store cloud.ObjectStore) *ObjectTagger {
	cmd := &ObjectTagger{
		BaseCommand: *cor.NewBaseCommand(name),
		store:       store,
		maxTags:     model.MaxObjectTags,
	}
	cmd.InputParamName = LabelsKey
	return cmd
}

func (c *ObjectTagger) Execute(context cor.Context) {
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

	tags, skipped := model.TagsFromLabels(labels, c.maxTags)
	for _, label := range skipped {
		c.Logger().InfoContext(context.GetContext(), "skipped label, maximum number of tags reached",
			"event", EventLabelSkipped,
			"object", env.String(),
			"label", label.Name,
			"confidence", label.Confidence)
	}

	if err := c.store.ReplaceTags(context.GetContext(), env.Bucket, env.Key, tags); err != nil {
		c.Fail(context, err)
		return
	}

	c.Logger().InfoContext(context.GetContext(), "tags saved",
		"event", EventTagsSaved,
		"object", env.String(),
		"count", len(tags))

	c.Succeed(context)
	context.Add(c.GetOutputParam(), tags)
}
