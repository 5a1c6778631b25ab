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

// Package cloud. This file implements LabelDetector with a Gemini model on
// Vertex AI.
//
// Logic Flow:
//  1. With no object source set, the object is referenced by its gs:// URI
//     and the model reads it directly from Cloud Storage. With a source (any
//     non-GCS store), the bytes are read through it and sent inline.
//  2. The model is asked for labels as a JSON array constrained by a response
//     schema of {name, confidence} objects, confidence on a 0-100 scale.
//  3. Labels below the minimum confidence are dropped. Model order is kept.
//  4. Prompt and candidate token counts are recorded on OTel counters.
package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/h2non/filetype"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"
)

// MeterName scopes the counters owned by the cloud adapters.
const MeterName = "github.com/jaycherian/gcp-go-image-tagger/internal/cloud"

const defaultLabelPrompt = "Identify the objects, scenes and concepts visible in this image. " +
	"Return each as a short label name with a confidence between 0 and 100, most confident first."

// DefaultSafetySettings leave every harm category unblocked; the detector
// only ever sends uploaded images and a fixed prompt.
var DefaultSafetySettings = []*genai.SafetySetting{
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
}

// ContentGenerator is the part of *genai.Models the detector calls.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiLabelDetector asks a Gemini model to label an image in GCS.
type GeminiLabelDetector struct {
	models             ContentGenerator
	modelName          string
	config             *genai.GenerateContentConfig
	maxLabels          int
	source             ObjectStore
	inputTokenCounter  metric.Int64Counter
	outputTokenCounter metric.Int64Counter
}

// labelSchema constrains the model output to [{name, confidence}].
var labelSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":       {Type: genai.TypeString},
			"confidence": {Type: genai.TypeNumber},
		},
		Required: []string{"name", "confidence"},
	},
}

// NewGeminiLabelDetector builds a detector from the Detection settings.
//
// Inputs:
//   - models: Usually genai.Client.Models.
//   - detection: Model name, system instructions and label cap.
//
// Outputs:
//   - *GeminiLabelDetector: The configured detector.
func NewGeminiLabelDetector(models ContentGenerator, detection Detection) *GeminiLabelDetector {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
		ResponseSchema:   labelSchema,
		SafetySettings:   DefaultSafetySettings,
	}
	if detection.SystemInstructions != "" {
		config.SystemInstruction = genai.NewContentFromText(detection.SystemInstructions, genai.RoleUser)
	}

	meter := otel.Meter(MeterName)
	inputTokens := int64Counter(meter, "detector.gemini.tokens.input")
	outputTokens := int64Counter(meter, "detector.gemini.tokens.output")

	return &GeminiLabelDetector{
		models:             models,
		modelName:          detection.Model,
		config:             config,
		maxLabels:          detection.MaxLabels,
		inputTokenCounter:  inputTokens,
		outputTokenCounter: outputTokens,
	}
}

// int64Counter creates a counter on meter. A rejected counter is logged and
// returned as nil; callers skip nil counters.
func int64Counter(meter metric.Meter, name string) metric.Int64Counter {
	counter, err := meter.Int64Counter(name)
	if err != nil {
		slog.Warn("failed to create counter", "counter", name, "error", err)
		return nil
	}
	return counter
}

type geminiLabel struct {
	Name       string  `json:"name"`
	Confidence float32 `json:"confidence"`
}

// WithObjectSource makes the detector read objects through store and send
// them inline, for stores the model cannot reach by URI.
func (d *GeminiLabelDetector) WithObjectSource(store ObjectStore) *GeminiLabelDetector {
	d.source = store
	return d
}

func (d *GeminiLabelDetector) imagePart(ctx context.Context, bucket, key string) (*genai.Part, error) {
	if d.source == nil {
		return genai.NewPartFromURI(fmt.Sprintf("gs://%s/%s", bucket, key), imageMIMEType(key)), nil
	}
	data, err := d.source.Read(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("gemini read %s/%s: %w", bucket, key, err)
	}
	return genai.NewPartFromBytes(data, sniffImageMIMEType(data, key)), nil
}

func (d *GeminiLabelDetector) DetectLabels(ctx context.Context, bucket, key string, minConfidence float32) ([]model.Label, error) {
	image, err := d.imagePart(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	parts := []*genai.Part{
		image,
		genai.NewPartFromText(fmt.Sprintf("%s Only include labels with confidence of at least %g.", defaultLabelPrompt, minConfidence)),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := d.models.GenerateContent(ctx, d.modelName, contents, d.config)
	if err != nil {
		return nil, fmt.Errorf("gemini detect labels %s/%s: %w", bucket, key, err)
	}
	if resp.UsageMetadata != nil {
		if d.inputTokenCounter != nil {
			d.inputTokenCounter.Add(ctx, int64(resp.UsageMetadata.PromptTokenCount))
		}
		if d.outputTokenCounter != nil {
			d.outputTokenCounter.Add(ctx, int64(resp.UsageMetadata.CandidatesTokenCount))
		}
	}
	return parseGeminiLabels(resp.Text(), minConfidence, d.maxLabels)
}

// parseGeminiLabels decodes the model output, keeping order and dropping
// labels under minConfidence. maxLabels <= 0 means no cap.
func parseGeminiLabels(text string, minConfidence float32, maxLabels int) ([]model.Label, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimSuffix(text, "```")

	var raw []geminiLabel
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("gemini label response: %w", err)
	}
	labels := make([]model.Label, 0, len(raw))
	for _, l := range raw {
		if l.Name == "" || l.Confidence < minConfidence {
			continue
		}
		labels = append(labels, model.Label{Name: l.Name, Confidence: l.Confidence})
		if maxLabels > 0 && len(labels) == maxLabels {
			break
		}
	}
	return labels, nil
}

// imageMIMEType maps a key's extension to a MIME type, image/jpeg when
// unknown.
func imageMIMEType(key string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(key), "."))
	if ext == "jpeg" {
		ext = "jpg"
	}
	if t := filetype.GetType(ext); t != filetype.Unknown && t.MIME.Value != "" {
		return t.MIME.Value
	}
	return "image/jpeg"
}

// sniffImageMIMEType prefers the type detected from data and falls back to
// the key's extension.
func sniffImageMIMEType(data []byte, key string) string {
	if kind, err := filetype.Image(data); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	return imageMIMEType(key)
}
