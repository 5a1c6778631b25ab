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

	"github.com/jaycherian/gcp-go-image-tagger/internal/cloud"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/cor"
)

// ThumbnailUpload writes the thumbnail to thumbnails/<last key segment> in
// the source bucket with the source content type.
type ThumbnailUpload struct {
	cor.BaseCommand
	store cloud.ObjectStore
}

func NewThumbnailUpload(name string, store cloud.ObjectStore) *ThumbnailUpload {
	return &ThumbnailUpload{BaseCommand: *cor.NewBaseCommand(name), store: store}
}

func (c *ThumbnailUpload) Execute(context cor.Context) {
	env := envelope(context)
	if env == nil {
		c.Fail(context, errMissingEnvelope)
		return
	}
	data, ok := context.Get(c.GetInputParam()).([]byte)
	if !ok {
		c.Fail(context, fmt.Errorf("expected thumbnail bytes, got %T", context.Get(c.GetInputParam())))
		return
	}
	contentType, _ := context.Get(ContentTypeKey).(string)
	key := env.ThumbnailKey()

	if err := c.store.Write(context.GetContext(), env.Bucket, key, contentType, data); err != nil {
		c.Fail(context, err)
		return
	}

	c.Logger().InfoContext(context.GetContext(), "thumbnail saved",
		"event", EventThumbnailSaved,
		"bucket", env.Bucket,
		"key", key,
		"bytes", len(data))

	c.Succeed(context)
	context.Add(c.GetOutputParam(), key)
}
