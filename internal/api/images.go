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
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-image-tagger/internal/cloud"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/services"
)

// MaxUploadBytes bounds each uploaded file.
const MaxUploadBytes = 32 << 20

// ImageRouter registers the read routes for classified images.
//
//   - GET /images/:filename: the persisted record, 404 when absent.
//   - GET /images/:filename/thumbnail: {"url": ...} signed for the thumbnail.
func ImageRouter(r *gin.RouterGroup, h *Handlers) {
	images := r.Group("/images")
	{
		images.GET("/:filename", func(c *gin.Context) {
			record, err := h.Images.GetRecord(c.Request.Context(), c.Param("filename"))
			switch {
			case errors.Is(err, cloud.ErrRecordNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
				return
			case errors.Is(err, services.ErrInvalidFilename):
				c.Status(http.StatusBadRequest)
				return
			case err != nil:
				h.logger().ErrorContext(c.Request.Context(), "get record failed", "error", err)
				c.Status(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, record)
		})

		images.GET("/:filename/thumbnail", func(c *gin.Context) {
			signedURL, err := h.Images.ThumbnailURL(c.Request.Context(), c.Param("filename"))
			if errors.Is(err, services.ErrInvalidFilename) {
				c.Status(http.StatusBadRequest)
				return
			}
			if err != nil {
				h.logger().ErrorContext(c.Request.Context(), "sign thumbnail url failed", "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate thumbnail URL"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"url": signedURL})
		})
	}
}

// FileUpload registers POST /uploads, which stores each multipart "files"
// entry under uploads/ in the configured bucket.
func FileUpload(r *gin.RouterGroup, h *Handlers) {
	r.POST("/uploads", func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			c.String(http.StatusBadRequest, "get form err: %s", err.Error())
			return
		}
		files := form.File["files"]
		keys := make([]string, 0, len(files))
		for _, file := range files {
			if file.Size > MaxUploadBytes {
				c.String(http.StatusRequestEntityTooLarge, "file %s too large", file.Filename)
				return
			}
			f, err := file.Open()
			if err != nil {
				c.String(http.StatusBadRequest, "upload file err: %s", err.Error())
				return
			}
			data, err := io.ReadAll(f)
			_ = f.Close()
			if err != nil {
				c.String(http.StatusBadRequest, "upload file err: %s", err.Error())
				return
			}
			env, err := h.Images.Upload(c.Request.Context(), file.Filename, data)
			if errors.Is(err, services.ErrNotAnImage) || errors.Is(err, services.ErrInvalidFilename) {
				c.String(http.StatusUnsupportedMediaType, "%s: %s", file.Filename, err.Error())
				return
			}
			if err != nil {
				h.logger().ErrorContext(c.Request.Context(), "upload failed", "error", err)
				c.Status(http.StatusInternalServerError)
				return
			}
			keys = append(keys, env.Key)
		}
		c.JSON(http.StatusOK, gin.H{"keys": keys})
	})
}
