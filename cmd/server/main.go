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

// Package main is the entry point for the image tagger server.
//
// The server loads configuration, sets up logging and OpenTelemetry, builds
// the provider clients and workflows, attaches the workflows to the
// configured Pub/Sub and Kafka listeners and serves the HTTP API until it
// receives SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jaycherian/gcp-go-image-tagger/internal/api"
	"github.com/jaycherian/gcp-go-image-tagger/internal/cloud"
	"github.com/jaycherian/gcp-go-image-tagger/internal/telemetry"
)

func main() {
	config, err := cloud.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	telemetry.SetupLogging(config.Application.LogLevel)
	slog.Info("Logging initialized", "level", config.Application.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	}()

	state, err := InitState(ctx, config)
	if err != nil {
		slog.Error("Failed to initialize state", "error", err)
		os.Exit(1)
	}
	defer state.cloud.Close()

	if err := SetupListeners(ctx, state); err != nil {
		slog.Error("Failed to start listeners", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         config.Server.Addr,
		Handler:      api.NewRouter(config.Application.Name, state.apiHandlers()),
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen", "error", err)
			cancel()
		}
	}()
	slog.Info("Server ready", "addr", config.Server.Addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed", "error", err)
	}
	cancel()
	slog.Info("Server exiting")
}
