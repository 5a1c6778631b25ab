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

// ObjectDownload reads the whole object into memory and outputs the bytes.
type ObjectDownload struct {
	cor.BaseCommand
	store cloud.ObjectStore
}

func NewObjectDownload(name string, store cloud.ObjectStore) *ObjectDownload {
	return &ObjectDownload{BaseCommand: *cor.NewBaseCommand(name), store: store}
}

func (c *ObjectDownload) Execute(context cor.Context) {
	env := envelope(context)
	if env == nil {
		c.Fail(context, errMissingEnvelope)
		return
	}
	data, err := c.store.Read(context.GetContext(), env.Bucket, env.Key)
	if err != nil {
		c.Fail(context, err)
		return
	}
	c.Succeed(context)
	context.Add(c.GetOutputParam(), data)
}
