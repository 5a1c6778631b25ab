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

package cloud_test

import (
	"testing"

	"github.com/jaycherian/gcp-go-image-tagger/internal/cloud"
	test "github.com/jaycherian/gcp-go-image-tagger/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeObjectCreatedEvent(t *testing.T) {
	env, err := cloud.DecodeEvent([]byte(test.GetTestObjectCreatedEvent("photos", "uploads/a b/cat.png")))
	require.NoError(t, err)
	assert.Equal(t, "photos", env.Bucket)
	assert.Equal(t, "uploads/a b/cat.png", env.Key)
}

func TestDecodeGCSNotification(t *testing.T) {
	env, err := cloud.DecodeEvent([]byte(test.GetTestGCSNotification("photos", "uploads/cat.png", "image/png")))
	require.NoError(t, err)
	assert.Equal(t, "photos", env.Bucket)
	assert.Equal(t, "uploads/cat.png", env.Key)
}

func TestDecodeRejectsUnknownPayloads(t *testing.T) {
	for _, payload := range []string{`{}`, `{"detail":{"bucket":{}}}`, `[1,2]`, `garbage`} {
		_, err := cloud.DecodeEvent([]byte(payload))
		assert.ErrorIs(t, err, cloud.ErrInvalidEvent, payload)
	}
}
