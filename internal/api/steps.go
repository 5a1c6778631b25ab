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
	"net/http"

	"github.com/gin-gonic/gin"
)

// StepRouter registers the workflow step routes. Each takes the workflow
// state as JSON and returns the mutated state.
func StepRouter(r *gin.RouterGroup, h *Handlers) {
	r.POST("/steps/greeting", stepHandler(h, StatGreeting, h.Greeting))
	r.POST("/steps/salutations", stepHandler(h, StatSalutations, h.Salutations))
	r.POST("/workflows/hello", stepHandler(h, StatHello, h.Hello))
}

func stepHandler(h *Handlers, name string, step StepHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil || len(body) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing workflow state"})
			return
		}
		state, err := step.Handle(c.Request.Context(), body)
		h.Stats.Record(name, err)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, state)
	}
}
