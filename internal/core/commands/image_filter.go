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
	"strings"

	"github.com/jaycherian/gcp-go-image-tagger/internal/core/cor"
)

// ImageFilter halts the chain unless the stored content type is an image.
type ImageFilter struct {
	cor.BaseCommand
}

func NewImageFilter(name string) *ImageFilter {
	return &ImageFilter{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *ImageFilter) Execute(context cor.Context) {
	env := envelope(context)
	if env == nil {
		c.Fail(context, errMissingEnvelope)
		return
	}
	contentType, _ := context.Get(ContentTypeKey).(string)
	if !strings.HasPrefix(contentType, "image/") {
		c.Logger().DebugContext(context.GetContext(), "object is not an image",
			"event", EventSkip,
			"reason", SkipReasonContentType,
			"object", env.String(),
			"content_type", contentType)
		context.Halt(SkipReasonContentType)
		c.Succeed(context)
		return
	}
	c.Succeed(context)
	context.Add(c.GetOutputParam(), env)
}
