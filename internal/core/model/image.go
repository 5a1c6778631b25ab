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

// DefaultPersistThreshold is the confidence a label must strictly exceed to
// be stored in an ImageRecord. It is unrelated to the minimum confidence sent
// to the detection service and the two may differ.
const DefaultPersistThreshold float32 = 90

// ImagesTable is the logical name of the record table.
const ImagesTable = "images"

// ImageRecord is the persisted summary of one image, keyed by Filename.
type ImageRecord struct {
	Filename string            `json:"filename" dynamodbav:"filename"`
	Tags     map[string]string `json:"tags" dynamodbav:"tags"`
}

// NewImageRecord keeps every label whose confidence is strictly greater than
// threshold. The full label list is considered, not only the tagged subset.
//
// Inputs:
//   - filename: The object key the record is stored under.
//   - labels: The complete detection response.
//   - threshold: The exclusive lower bound on confidence.
//
// Outputs:
//   - *ImageRecord: A record with a non-nil (possibly empty) Tags map.
func NewImageRecord(filename string, labels []Label, threshold float32) *ImageRecord {
	tags := make(map[string]string)
	for _, l := range labels {
		if l.Confidence > threshold {
			tags[l.Name] = FormatConfidence(l.Confidence)
		}
	}
	return &ImageRecord{Filename: filename, Tags: tags}
}
