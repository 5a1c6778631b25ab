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

package test

import (
	"context"
	"log/slog"
	"sync"
)

// LogEntry is one captured log record with its attributes flattened.
type LogEntry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// RecordingHandler is a slog.Handler that keeps every record in memory so
// tests can assert on structured events.
type RecordingHandler struct {
	mu      *sync.Mutex
	entries *[]LogEntry
	attrs   []slog.Attr
}

func NewRecordingHandler() *RecordingHandler {
	return &RecordingHandler{mu: &sync.Mutex{}, entries: &[]LogEntry{}}
}

// NewRecordingLogger returns a logger backed by a new RecordingHandler.
func NewRecordingLogger() (*slog.Logger, *RecordingHandler) {
	h := NewRecordingHandler()
	return slog.New(h), h
}

func (h *RecordingHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *RecordingHandler) Handle(_ context.Context, r slog.Record) error {
	entry := LogEntry{Level: r.Level, Message: r.Message, Attrs: make(map[string]any)}
	for _, a := range h.attrs {
		entry.Attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		entry.Attrs[a.Key] = a.Value.Any()
		return true
	})
	h.mu.Lock()
	defer h.mu.Unlock()
	*h.entries = append(*h.entries, entry)
	return nil
}

func (h *RecordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &RecordingHandler{
		mu:      h.mu,
		entries: h.entries,
		attrs:   append(append([]slog.Attr(nil), h.attrs...), attrs...),
	}
}

func (h *RecordingHandler) WithGroup(string) slog.Handler {
	return h
}

// Entries returns a copy of everything logged so far.
func (h *RecordingHandler) Entries() []LogEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]LogEntry(nil), *h.entries...)
}

// Events returns the entries whose "event" attribute equals event.
func (h *RecordingHandler) Events(event string) []LogEntry {
	var out []LogEntry
	for _, e := range h.Entries() {
		if e.Attrs["event"] == event {
			out = append(out, e)
		}
	}
	return out
}
