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

package workflow_test

import (
	"context"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-image-tagger/internal/core/model"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/workflow"
	"github.com/zeebo/assert"
)

func TestGreetingThenSalutationsSteps(t *testing.T) {
	ctx := context.Background()

	state, err := workflow.NewGreetingWorkflow(nil).Handle(ctx, &model.WorkflowState{Name: "Ann"})
	assert.NoError(t, err)
	assert.Equal(t, state.Message, "Hello Ann")
	assert.Equal(t, state.WaitInSeconds, 5)

	state, err = workflow.NewSalutationsWorkflow(nil).Handle(ctx, state)
	assert.NoError(t, err)
	assert.Equal(t, state.Message, "Hello Ann, Goodbye Ann")
}

func TestStepsAcceptJSON(t *testing.T) {
	state, err := workflow.NewGreetingWorkflow(nil).Handle(context.Background(), []byte(`{"name":""}`))
	assert.NoError(t, err)
	assert.Equal(t, state.Message, "Hello")

	state, err = workflow.NewSalutationsWorkflow(nil).Handle(context.Background(), state)
	assert.NoError(t, err)
	assert.Equal(t, state.Message, "Hello, Goodbye")
}

func TestStepsRejectBadState(t *testing.T) {
	_, err := workflow.NewGreetingWorkflow(nil).Handle(context.Background(), "{")
	assert.Error(t, err)
}

func TestHelloWorkflowHonoursWait(t *testing.T) {
	var waited []time.Duration
	sleep := func(_ context.Context, d time.Duration) error {
		waited = append(waited, d)
		return nil
	}

	state, err := workflow.NewHelloWorkflow(nil, sleep).Handle(context.Background(), &model.WorkflowState{Name: "Ann"})
	assert.NoError(t, err)
	assert.Equal(t, state.Message, "Hello Ann, Goodbye Ann")
	assert.DeepEqual(t, waited, []time.Duration{5 * time.Second})
}

func TestHelloWorkflowStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := workflow.NewHelloWorkflow(nil, nil).Handle(ctx, &model.WorkflowState{Name: "Ann"})
	assert.Error(t, err)
}
