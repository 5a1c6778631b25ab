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
	"sort"
	"sync"

	"github.com/gin-gonic/gin"
)

// WorkflowStats counts the invocations of one workflow made through the API.
type WorkflowStats struct {
	Name        string `json:"name"`
	Invocations int64  `json:"invocations"`
	Failures    int64  `json:"failures"`
}

// Stats holds per-workflow counters. The zero value is ready to use.
type Stats struct {
	mu    sync.Mutex
	stats map[string]*WorkflowStats
}

func NewStats() *Stats {
	return &Stats{stats: make(map[string]*WorkflowStats)}
}

// Record counts one invocation of name, and a failure when err is non-nil.
func (s *Stats) Record(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stats == nil {
		s.stats = make(map[string]*WorkflowStats)
	}
	ws, ok := s.stats[name]
	if !ok {
		ws = &WorkflowStats{Name: name}
		s.stats[name] = ws
	}
	ws.Invocations++
	if err != nil {
		ws.Failures++
	}
}

// Snapshot returns a copy of the counters sorted by name.
func (s *Stats) Snapshot() []WorkflowStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]WorkflowStats, 0, len(s.stats))
	for _, ws := range s.stats {
		out = append(out, *ws)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Dashboard registers GET /stats.
func Dashboard(r *gin.RouterGroup, stats *Stats) {
	r.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, stats.Snapshot())
	})
}
