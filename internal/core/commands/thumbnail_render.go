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
	"fmt"

	"github.com/jaycherian/gcp-go-image-tagger/internal/core/cor"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/render"
)

// ThumbnailRender turns the downloaded bytes into the encoded thumbnail.
type ThumbnailRender struct {
	cor.BaseCommand
}

func NewThumbnailRender(name string) *ThumbnailRender {
	return &ThumbnailRender{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *ThumbnailRender) Execute(context cor.Context) {
	data, ok := context.Get(c.GetInputParam()).([]byte)
	if !ok {
		c.Fail(context, fmt.Errorf("expected image bytes, got %T", context.Get(c.GetInputParam())))
		return
	}
	contentType, _ := context.Get(ContentTypeKey).(string)

	_, span := c.Tracer.Start(context.GetContext(), "render")
	thumb, err := render.Thumbnail(data, contentType)
	span.End()
	if err != nil {
		c.Fail(context, err)
		return
	}
	c.Succeed(context)
	context.Add(c.GetOutputParam(), thumb)
}
