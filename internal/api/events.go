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

package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-image-tagger/internal/cloud"
)

// EventRouter registers the bucket notification routes. The request body is
// the raw notification in either supported shape.
//
//   - POST /events/classify: 204 on success or skip.
//   - POST /events/thumbnail: 200 with {"content_type": ...}.
//
// Undecodable notifications are 400; any other failure is 500.
func EventRouter(r *gin.RouterGroup, h *Handlers) {
	events := r.Group("/events")
	{
		events.POST("/classify", func(c *gin.Context) {
			body, err := c.GetRawData()
			if err != nil {
				c.Status(http.StatusBadRequest)
				return
			}
			err = h.Classifier.Handle(c.Request.Context(), body)
			h.Stats.Record(StatClassifier, err)
			if err != nil {
				h.logger().ErrorContext(c.Request.Context(), "classify failed", "error", err)
				c.JSON(eventStatus(err), gin.H{"error": err.Error()})
				return
			}
			c.Status(http.StatusNoContent)
		})

		events.POST("/thumbnail", func(c *gin.Context) {
			body, err := c.GetRawData()
			if err != nil {
				c.Status(http.StatusBadRequest)
				return
			}
			contentType, err := h.Thumbnail.Handle(c.Request.Context(), body)
			h.Stats.Record(StatThumbnail, err)
			if err != nil {
				c.JSON(eventStatus(err), gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"content_type": contentType})
		})
	}
}

func eventStatus(err error) int {
	if errors.Is(err, cloud.ErrInvalidEvent) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
