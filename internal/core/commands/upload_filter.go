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

// Package commands. This file defines UploadFilter, the gate that keeps the
// image handlers away from objects they must not touch.
//
// Logic Flow:
//  1. A key outside uploads/ halts the chain silently; this includes the
//     thumbnails the generator itself writes.
//  2. When an extension allow-list is set, a key whose extension is not in it
//     halts the chain and the skip is logged. The comparison is exact, so
//     ".PNG" is not ".png".
//  3. Otherwise the envelope passes through unchanged.
package commands

import (
	"slices"

	"github.com/jaycherian/gcp-go-image-tagger/internal/core/cor"
)

// SupportedImageExtensions are the extensions the classifier labels.
var SupportedImageExtensions = []string{".png", ".jpg", ".jpeg"}

// UploadFilter halts the chain for keys the handler does not apply to.
type UploadFilter struct {
	cor.BaseCommand
	extensions []string
}

// NewUploadFilter creates a filter. A nil extensions list accepts any
// extension under uploads/.
func NewUploadFilter(name string, extensions []string) *UploadFilter {
	return &UploadFilter{BaseCommand: *cor.NewBaseCommand(name), extensions: extensions}
}

func (c *UploadFilter) Execute(context cor.Context) {
	env := envelope(context)
	if env == nil {
		c.Fail(context, errMissingEnvelope)
		return
	}

	if !env.IsUpload() {
		c.Logger().DebugContext(context.GetContext(), "object ignored",
			"event", EventSkip,
			"reason", SkipReasonPrefix,
			"object", env.String())
		context.Halt(SkipReasonPrefix)
		c.Succeed(context)
		return
	}

	if c.extensions != nil && !slices.Contains(c.extensions, env.Extension()) {
		c.Logger().InfoContext(context.GetContext(), "unsupported file extension",
			"event", EventSkip,
			"reason", SkipReasonExtension,
			"object", env.String(),
			"extension", env.Extension())
		context.Halt(SkipReasonExtension)
		c.Succeed(context)
		return
	}

	c.Succeed(context)
	context.Add(c.GetOutputParam(), env)
}
