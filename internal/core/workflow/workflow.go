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

// Package workflow assembles commands into the handlers the listeners, the
// HTTP layer and the Lambda entry point invoke.
//
// Every workflow is a cor.Command, so listeners can drive it with Execute,
// and also offers a typed Handle method that creates its own context and
// returns Go errors.
package workflow

import (
	"context"
	"log/slog"

	"github.com/jaycherian/gcp-go-image-tagger/internal/core/cor"
)

type loggable interface {
	SetLogger(logger *slog.Logger)
}

// addCommand appends command to chain, handing it logger when set.
func addCommand(chain cor.Chain, command cor.Command, logger *slog.Logger) {
	if l, ok := command.(loggable); ok && logger != nil {
		l.SetLogger(logger)
	}
	chain.AddCommand(command)
}

// run executes command over a fresh context holding in and returns the
// context for inspection.
func run(ctx context.Context, command cor.Command, in interface{}) cor.Context {
	ctx, _ = cor.WithInvocationID(ctx)
	chCtx := cor.NewContextWithInput(ctx, in)
	command.Execute(chCtx)
	return chCtx
}
