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

// Package cloud. This file decorates a LabelDetector with a rate limiter so
// a burst of uploads cannot exceed the detection service quota.
//
// Logic Flow:
//  1. Each DetectLabels call waits for a token from the limiter.
//  2. The wait honours the caller's context, so a cancelled invocation stops
//     queueing instead of sleeping.
//  3. The wrapped detector is then called unchanged.
package cloud

import (
	"context"
	"fmt"

	"github.com/jaycherian/gcp-go-image-tagger/internal/core/model"
	"golang.org/x/time/rate"
)

// QuotaAwareLabelDetector limits the request rate of the wrapped detector.
type QuotaAwareLabelDetector struct {
	wrapped   LabelDetector
	RateLimit *rate.Limiter
}

// NewQuotaAwareLabelDetector wraps detector with a token bucket refilled at
// requestsPerSecond with the same burst size.
//
// Inputs:
//   - detector: The detector to protect.
//   - requestsPerSecond: Maximum sustained call rate.
//
// Outputs:
//   - *QuotaAwareLabelDetector: The decorated detector.
func NewQuotaAwareLabelDetector(detector LabelDetector, requestsPerSecond int) *QuotaAwareLabelDetector {
	return &QuotaAwareLabelDetector{
		wrapped:   detector,
		RateLimit: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

func (q *QuotaAwareLabelDetector) DetectLabels(ctx context.Context, bucket, key string, minConfidence float32) ([]model.Label, error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for detection quota: %w", err)
	}
	return q.wrapped.DetectLabels(ctx, bucket, key, minConfidence)
}
