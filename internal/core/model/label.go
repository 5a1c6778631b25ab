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

package model

import "strconv"

// MaxObjectTags is the most tags written onto a single object.
const MaxObjectTags = 10

// Label is one category returned by a label-detection service.
type Label struct {
	Name       string  `json:"name"`
	Confidence float32 `json:"confidence"`
}

// Tag is a label re-encoded as an object tag.
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// FormatConfidence renders a confidence score the same way for tags and
// records: shortest decimal form that round-trips a float32.
func FormatConfidence(confidence float32) string {
	return strconv.FormatFloat(float64(confidence), 'f', -1, 32)
}

// TagsFromLabels converts labels to tags in response order, keeping at most
// max of them. Labels beyond the limit are returned as skipped.
func TagsFromLabels(labels []Label, max int) (tags []Tag, skipped []Label) {
	tags = make([]Tag, 0, min(len(labels), max))
	for _, l := range labels {
		if len(tags) >= max {
			skipped = append(skipped, l)
			continue
		}
		tags = append(tags, Tag{Key: l.Name, Value: FormatConfidence(l.Confidence)})
	}
	return tags, skipped
}

// TagMap flattens tags into a map, the shape most storage APIs expect.
func TagMap(tags []Tag) map[string]string {
	out := make(map[string]string, len(tags))
	for _, t := range tags {
		out[t.Key] = t.Value
	}
	return out
}
