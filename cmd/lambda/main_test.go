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

package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-image-tagger/internal/cloud"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/model"
)

func TestStepHandlersNeedNoClients(t *testing.T) {
	ctx := context.Background()
	config := cloud.NewConfig()

	greet, closeFn, err := newHandler(ctx, cloud.HandlerGreeting, config)
	require.NoError(t, err)
	defer closeFn()
	out, err := greet(ctx, json.RawMessage(`{"name":"Ann"}`))
	require.NoError(t, err)
	assert.Equal(t, "Hello Ann", out.(*model.WorkflowState).Message)

	bye, _, err := newHandler(ctx, cloud.HandlerSalutations, config)
	require.NoError(t, err)
	out, err = bye(ctx, json.RawMessage(`{"message":"Hello"}`))
	require.NoError(t, err)
	assert.Equal(t, "Hello, Goodbye", out.(*model.WorkflowState).Message)
}

func TestUnknownHandler(t *testing.T) {
	_, _, err := newHandler(context.Background(), "resize", cloud.NewConfig())
	assert.Error(t, err)
}
