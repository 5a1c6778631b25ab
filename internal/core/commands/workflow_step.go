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

// Package commands. This file defines the workflow step commands.
//
// A step receives the workflow state, transforms it and outputs the same
// state. WorkflowWait stands in for the workflow engine's pause between
// steps when the steps are run locally.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jaycherian/gcp-go-image-tagger/internal/core/cor"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/model"
)

// StepFunc transforms the workflow state in place.
type StepFunc func(state *model.WorkflowState) *model.WorkflowState

// WorkflowStep runs one StepFunc.
type WorkflowStep struct {
	cor.BaseCommand
	step StepFunc
}

func NewWorkflowStep(name string, step StepFunc) *WorkflowStep {
	return &WorkflowStep{BaseCommand: *cor.NewBaseCommand(name), step: step}
}

func NewGreeting(name string) *WorkflowStep {
	return NewWorkflowStep(name, (*model.WorkflowState).Greet)
}

func NewSalutations(name string) *WorkflowStep {
	return NewWorkflowStep(name, (*model.WorkflowState).SayGoodbye)
}

func (c *WorkflowStep) Execute(context cor.Context) {
	state, err := workflowState(context.Get(c.GetInputParam()))
	if err != nil {
		c.Fail(context, err)
		return
	}
	c.Succeed(context)
	context.Add(c.GetOutputParam(), c.step(state))
}

// workflowState accepts the state as a pointer, a value or raw JSON.
func workflowState(in interface{}) (*model.WorkflowState, error) {
	switch v := in.(type) {
	case *model.WorkflowState:
		return v, nil
	case model.WorkflowState:
		return &v, nil
	case []byte:
		state := &model.WorkflowState{}
		if err := json.Unmarshal(v, state); err != nil {
			return nil, fmt.Errorf("decode workflow state: %w", err)
		}
		return state, nil
	case string:
		return workflowState([]byte(v))
	default:
		return nil, fmt.Errorf("unsupported workflow state type %T", in)
	}
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the production SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WorkflowWait honours the state's wait_in_seconds hint and passes the state
// on unchanged.
type WorkflowWait struct {
	cor.BaseCommand
	sleep SleepFunc
}

func NewWorkflowWait(name string, sleep SleepFunc) *WorkflowWait {
	if sleep == nil {
		sleep = Sleep
	}
	return &WorkflowWait{BaseCommand: *cor.NewBaseCommand(name), sleep: sleep}
}

func (c *WorkflowWait) Execute(context cor.Context) {
	state, err := workflowState(context.Get(c.GetInputParam()))
	if err != nil {
		c.Fail(context, err)
		return
	}
	if state.WaitInSeconds > 0 {
		if err := c.sleep(context.GetContext(), time.Duration(state.WaitInSeconds)*time.Second); err != nil {
			c.Fail(context, err)
			return
		}
	}
	c.Succeed(context)
	context.Add(c.GetOutputParam(), state)
}
