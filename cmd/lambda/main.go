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

// Package main runs one image tagger handler as an AWS Lambda function. The
// HANDLER environment variable selects it: classifier, thumbnail, greeting
// or salutations. The function input is the raw event (a bucket
// notification, or the workflow state for the step handlers).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/jaycherian/gcp-go-image-tagger/internal/cloud"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/workflow"
	"github.com/jaycherian/gcp-go-image-tagger/internal/telemetry"
)

// EnvHandler selects the handler to run.
const EnvHandler = "HANDLER"

// Handler is the Lambda entry point signature used for every handler.
type Handler func(ctx context.Context, event json.RawMessage) (interface{}, error)

func newHandler(ctx context.Context, name string, config *cloud.Config) (Handler, func(), error) {
	switch name {
	case cloud.HandlerGreeting:
		w := workflow.NewGreetingWorkflow(nil)
		return func(ctx context.Context, event json.RawMessage) (interface{}, error) {
			return w.Handle(ctx, []byte(event))
		}, func() {}, nil
	case cloud.HandlerSalutations:
		w := workflow.NewSalutationsWorkflow(nil)
		return func(ctx context.Context, event json.RawMessage) (interface{}, error) {
			return w.Handle(ctx, []byte(event))
		}, func() {}, nil
	case cloud.HandlerClassifier, cloud.HandlerThumbnail:
	default:
		return nil, nil, fmt.Errorf("unknown handler %q", name)
	}

	clients, err := cloud.NewServiceClients(ctx, config)
	if err != nil {
		return nil, nil, err
	}
	if name == cloud.HandlerClassifier {
		w := workflow.NewUploadClassifierFromConfig(config, clients)
		return func(ctx context.Context, event json.RawMessage) (interface{}, error) {
			return nil, w.Handle(ctx, []byte(event))
		}, clients.Close, nil
	}
	w := workflow.NewThumbnailFromConfig(clients)
	return func(ctx context.Context, event json.RawMessage) (interface{}, error) {
		return w.Handle(ctx, []byte(event))
	}, clients.Close, nil
}

func main() {
	config, err := cloud.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	telemetry.SetupLogging(config.Application.LogLevel)

	ctx := context.Background()
	handler, closeClients, err := newHandler(ctx, os.Getenv(EnvHandler), config)
	if err != nil {
		slog.Error("failed to build handler", "error", err)
		os.Exit(1)
	}
	defer closeClients()

	lambda.Start(handler)
}
