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

// Package main contains the state setup for the image tagger server: the
// configuration, the provider clients and the workflows built on them.
package main

import (
	"context"
	"fmt"

	"github.com/jaycherian/gcp-go-image-tagger/internal/api"
	"github.com/jaycherian/gcp-go-image-tagger/internal/cloud"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/cor"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/services"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/workflow"
)

// StateManager holds the shared dependencies of the server.
type StateManager struct {
	config      *cloud.Config
	cloud       *cloud.ServiceClients
	classifier  *workflow.UploadClassifierWorkflow
	thumbnail   *workflow.ThumbnailWorkflow
	greeting    *workflow.StepWorkflow
	salutations *workflow.StepWorkflow
	hello       *workflow.StepWorkflow
	images      *services.ImageService
}

// InitState loads clients for the configured providers and builds every
// workflow. The caller owns state.cloud and must Close it.
func InitState(ctx context.Context, config *cloud.Config) (*StateManager, error) {
	clients, err := cloud.NewServiceClients(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("init service clients: %w", err)
	}
	return &StateManager{
		config:      config,
		cloud:       clients,
		classifier:  workflow.NewUploadClassifierFromConfig(config, clients),
		thumbnail:   workflow.NewThumbnailFromConfig(clients),
		greeting:    workflow.NewGreetingWorkflow(nil),
		salutations: workflow.NewSalutationsWorkflow(nil),
		hello:       workflow.NewHelloWorkflow(nil, nil),
		images:      services.NewImageService(config, clients),
	}, nil
}

// handlers maps handler names used in configuration to workflows.
func (s *StateManager) handlers() map[string]cor.Command {
	return map[string]cor.Command{
		cloud.HandlerClassifier:  s.classifier,
		cloud.HandlerThumbnail:   s.thumbnail,
		cloud.HandlerGreeting:    s.greeting,
		cloud.HandlerSalutations: s.salutations,
	}
}

// apiHandlers returns the HTTP handler set.
func (s *StateManager) apiHandlers() *api.Handlers {
	return &api.Handlers{
		Classifier:  s.classifier,
		Thumbnail:   s.thumbnail,
		Greeting:    s.greeting,
		Salutations: s.salutations,
		Hello:       s.hello,
		Images:      s.images,
		Stats:       api.NewStats(),
	}
}
