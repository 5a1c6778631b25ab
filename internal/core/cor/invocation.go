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

package cor

import (
	"context"

	"github.com/google/uuid"
)

type invocationKey struct{}

// WithInvocationID returns a child of ctx carrying a fresh invocation id.
// An id already present on ctx is kept.
func WithInvocationID(ctx context.Context) (context.Context, string) {
	if id := InvocationID(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return context.WithValue(ctx, invocationKey{}, id), id
}

// InvocationID returns the id set by WithInvocationID, or "".
func InvocationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(invocationKey{}).(string)
	return id
}
