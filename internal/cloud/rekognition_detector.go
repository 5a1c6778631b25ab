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

package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	rktypes "github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/model"
)

// RekognitionAPI is the part of *rekognition.Client the detector calls.
type RekognitionAPI interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// RekognitionLabelDetector labels images with Amazon Rekognition. Objects
// are referenced in S3 unless an object source is set, in which case their
// bytes are read through it and sent inline.
type RekognitionLabelDetector struct {
	client    RekognitionAPI
	maxLabels int
	source    ObjectStore
}

func NewRekognitionLabelDetector(client RekognitionAPI, detection Detection) *RekognitionLabelDetector {
	return &RekognitionLabelDetector{client: client, maxLabels: detection.MaxLabels}
}

// WithObjectSource makes the detector read objects through store, for
// stores other than S3.
func (d *RekognitionLabelDetector) WithObjectSource(store ObjectStore) *RekognitionLabelDetector {
	d.source = store
	return d
}

func (d *RekognitionLabelDetector) image(ctx context.Context, bucket, key string) (*rktypes.Image, error) {
	if d.source == nil {
		return &rktypes.Image{
			S3Object: &rktypes.S3Object{
				Bucket: aws.String(bucket),
				Name:   aws.String(key),
			},
		}, nil
	}
	data, err := d.source.Read(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("rekognition read %s/%s: %w", bucket, key, err)
	}
	return &rktypes.Image{Bytes: data}, nil
}

func (d *RekognitionLabelDetector) DetectLabels(ctx context.Context, bucket, key string, minConfidence float32) ([]model.Label, error) {
	image, err := d.image(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	input := &rekognition.DetectLabelsInput{
		Image:         image,
		MinConfidence: aws.Float32(minConfidence),
	}
	if d.maxLabels > 0 {
		input.MaxLabels = aws.Int32(int32(d.maxLabels))
	}
	out, err := d.client.DetectLabels(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("rekognition detect labels %s/%s: %w", bucket, key, err)
	}
	return fromRekognitionLabels(out.Labels), nil
}

func fromRekognitionLabels(in []rktypes.Label) []model.Label {
	labels := make([]model.Label, 0, len(in))
	for _, l := range in {
		labels = append(labels, model.Label{
			Name:       aws.ToString(l.Name),
			Confidence: aws.ToFloat32(l.Confidence),
		})
	}
	return labels
}
