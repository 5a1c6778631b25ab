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

// Package api defines the HTTP surface of the image tagger. Event routes run
// the same workflows the message listeners drive; the image routes read what
// those workflows produced.
package api

import (
	"context"
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/gcp-go-image-tagger/internal/core/model"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/services"
)

// Stats names for each workflow reachable over HTTP.
const (
	StatClassifier  = "classifier"
	StatThumbnail   = "thumbnail"
	StatGreeting    = "greeting"
	StatSalutations = "salutations"
	StatHello       = "hello"
)

// Classifier handles upload classification events.
type Classifier interface {
	Handle(ctx context.Context, in interface{}) error
}

// ThumbnailGenerator handles thumbnail events and reports the content type.
type ThumbnailGenerator interface {
	Handle(ctx context.Context, in interface{}) (string, error)
}

// StepHandler runs one or more workflow steps over a state.
type StepHandler interface {
	Handle(ctx context.Context, in interface{}) (*model.WorkflowState, error)
}

// Handlers is everything the router serves.
type Handlers struct {
	Classifier  Classifier
	Thumbnail   ThumbnailGenerator
	Greeting    StepHandler
	Salutations StepHandler
	Hello       StepHandler
	Images      *services.ImageService
	Stats       *Stats
	Logger      *slog.Logger
}

func (h *Handlers) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

// NewRouter builds the gin engine with tracing and CORS middleware and all
// routes mounted under /api/v1. Filenames in image routes are path escaped,
// so "uploads/cat.png" is requested as "uploads%2Fcat.png".
func NewRouter(serviceName string, h *Handlers) *gin.Engine {
	if h.Stats == nil {
		h.Stats = NewStats()
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(cors.Default())
	r.UseRawPath = true
	r.UnescapePathValues = true

	apiV1 := r.Group("/api/v1")
	{
		EventRouter(apiV1, h)
		StepRouter(apiV1, h)
		ImageRouter(apiV1, h)
		FileUpload(apiV1, h)
		Dashboard(apiV1, h.Stats)
	}
	return r
}
