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

// Package workflow. This file implements the workflow step handlers.
//
// Greeting and Salutations are the two steps an external workflow engine
// calls in sequence, pausing for wait_in_seconds in between. HelloWorkflow
// runs both locally with the pause, for environments without an engine.
package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-image-tagger/internal/core/commands"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/cor"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/model"
)

// StepWorkflow runs one or more workflow step commands.
type StepWorkflow struct {
	cor.BaseCommand
	chain cor.Chain
}

func newStepWorkflow(name string, logger *slog.Logger, steps ...cor.Command) *StepWorkflow {
	chain := cor.NewBaseChain(name)
	for _, step := range steps {
		addCommand(chain, step, logger)
	}
	return &StepWorkflow{BaseCommand: *cor.NewBaseCommand(name), chain: chain}
}

// NewGreetingWorkflow handles the Greeting step.
func NewGreetingWorkflow(logger *slog.Logger) *StepWorkflow {
	return newStepWorkflow("greeting-workflow", logger, commands.NewGreeting("greeting"))
}

// NewSalutationsWorkflow handles the Salutations step.
func NewSalutationsWorkflow(logger *slog.Logger) *StepWorkflow {
	return newStepWorkflow("salutations-workflow", logger, commands.NewSalutations("salutations"))
}

// NewHelloWorkflow runs Greeting, waits as requested, then Salutations.
// A nil sleep uses a real timer.
func NewHelloWorkflow(logger *slog.Logger, sleep commands.SleepFunc) *StepWorkflow {
	return newStepWorkflow("hello-workflow", logger,
		commands.NewGreeting("greeting"),
		commands.NewWorkflowWait("wait", sleep),
		commands.NewSalutations("salutations"))
}

func (w *StepWorkflow) IsExecutable(context cor.Context) bool {
	return w.chain.IsExecutable(context) && context.Get(w.GetInputParam()) != nil
}

func (w *StepWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// Handle runs the steps over in (a *model.WorkflowState or its JSON) and
// returns the resulting state.
func (w *StepWorkflow) Handle(ctx context.Context, in interface{}) (*model.WorkflowState, error) {
	chCtx := run(ctx, w, in)
	if err := cor.JoinErrors(chCtx); err != nil {
		return nil, err
	}
	state, ok := chCtx.Get(cor.CtxIn).(*model.WorkflowState)
	if !ok {
		return nil, fmt.Errorf("%s produced no workflow state", w.GetName())
	}
	return state, nil
}
