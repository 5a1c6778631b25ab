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
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	rktypes "github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"google.golang.org/genai"
)

func TestReplacementMetadataClearsStaleKeys(t *testing.T) {
	update := replacementMetadata(
		map[string]string{"label-Old": "91", "label-Cat": "90"},
		[]model.Tag{{Key: "Cat", Value: "99"}, {Key: "Pet", Value: "95"}},
	)
	assert.Equal(t, map[string]string{"label-Old": "", "label-Cat": "99", "label-Pet": "95"}, update)
}

func TestReplacementMetadataKeepsOtherMetadata(t *testing.T) {
	update := replacementMetadata(
		map[string]string{"uploaded-by": "alice", "download-token": "abc", "label-OldLabel": "95"},
		[]model.Tag{{Key: "Cat", Value: "99"}},
	)
	assert.Equal(t, map[string]string{"label-OldLabel": "", "label-Cat": "99"}, update)
	assert.NotContains(t, update, "uploaded-by")
	assert.NotContains(t, update, "download-token")
}

func TestParseGeminiLabels(t *testing.T) {
	text := "```json\n[{\"name\":\"Cat\",\"confidence\":98.5},{\"name\":\"Sofa\",\"confidence\":42},{\"name\":\"Pet\",\"confidence\":91}]```"

	labels, err := parseGeminiLabels(text, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, []model.Label{{Name: "Cat", Confidence: 98.5}, {Name: "Pet", Confidence: 91}}, labels)

	labels, err = parseGeminiLabels(text, 0, 2)
	require.NoError(t, err)
	assert.Len(t, labels, 2)

	_, err = parseGeminiLabels("I cannot do that", 0, 0)
	assert.Error(t, err)
}

func TestImageMIMEType(t *testing.T) {
	assert.Equal(t, "image/png", imageMIMEType("uploads/a.png"))
	assert.Equal(t, "image/jpeg", imageMIMEType("uploads/a.jpeg"))
	assert.Equal(t, "image/jpeg", imageMIMEType("uploads/a.JPG"))
	assert.Equal(t, "image/jpeg", imageMIMEType("uploads/a"))
}

type fakeGenerator struct {
	text     string
	model    string
	contents []*genai.Content
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(f.text, genai.RoleModel)}},
	}, nil
}

// memStore serves Read from a map keyed by bucket/key.
type memStore struct {
	objects map[string][]byte
	reads   []string
}

func (m *memStore) ContentType(context.Context, string, string) (string, error) { return "", nil }

func (m *memStore) Read(_ context.Context, bucket, key string) ([]byte, error) {
	m.reads = append(m.reads, bucket+"/"+key)
	data, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, errors.New("no such object")
	}
	return data, nil
}

func (m *memStore) Write(context.Context, string, string, string, []byte) error { return nil }

func (m *memStore) ReplaceTags(context.Context, string, string, []model.Tag) error { return nil }

func (m *memStore) SignedURL(context.Context, string, string, time.Duration) (string, error) {
	return "", nil
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestGeminiDetector(t *testing.T) {
	gen := &fakeGenerator{text: `[{"name":"Dog","confidence":96},{"name":"Ball","confidence":70}]`}
	detector := NewGeminiLabelDetector(gen, Detection{Model: "gemini-test"})

	labels, err := detector.DetectLabels(context.Background(), "photos", "uploads/dog.png", 90)
	require.NoError(t, err)
	assert.Equal(t, []model.Label{{Name: "Dog", Confidence: 96}}, labels)
	assert.Equal(t, "gemini-test", gen.model)

	part := gen.contents[0].Parts[0]
	require.NotNil(t, part.FileData)
	assert.Equal(t, "gs://photos/uploads/dog.png", part.FileData.FileURI)
	assert.Equal(t, "image/png", part.FileData.MIMEType)
}

func TestGeminiDetectorSendsBytesFromObjectSource(t *testing.T) {
	gen := &fakeGenerator{text: `[{"name":"Dog","confidence":96}]`}
	store := &memStore{objects: map[string][]byte{"minio-bucket/uploads/dog.jpg": pngHeader}}
	detector := NewGeminiLabelDetector(gen, Detection{Model: "gemini-test"}).WithObjectSource(store)

	labels, err := detector.DetectLabels(context.Background(), "minio-bucket", "uploads/dog.jpg", 90)
	require.NoError(t, err)
	assert.Len(t, labels, 1)
	assert.Equal(t, []string{"minio-bucket/uploads/dog.jpg"}, store.reads)

	part := gen.contents[0].Parts[0]
	assert.Nil(t, part.FileData)
	require.NotNil(t, part.InlineData)
	assert.Equal(t, pngHeader, part.InlineData.Data)
	assert.Equal(t, "image/png", part.InlineData.MIMEType)

	_, err = detector.DetectLabels(context.Background(), "minio-bucket", "uploads/missing.png", 90)
	assert.Error(t, err)
}

func TestInt64CounterLogsRejectedCounter(t *testing.T) {
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(previous)

	assert.Nil(t, int64Counter(rejectingMeter{}, "detector.gemini.tokens.input"))
	assert.Contains(t, buf.String(), "failed to create counter")
	assert.Contains(t, buf.String(), "detector.gemini.tokens.input")

	assert.NotNil(t, int64Counter(noop.Meter{}, "detector.gemini.tokens.output"))
}

type rejectingMeter struct {
	noop.Meter
}

func (rejectingMeter) Int64Counter(string, ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	return nil, errors.New("instrument rejected")
}

func TestReadsNatively(t *testing.T) {
	cases := []struct {
		storage, detection string
		native             bool
	}{
		{ProviderGCS, ProviderGemini, true},
		{ProviderMinio, ProviderGemini, false},
		{ProviderS3, ProviderGemini, false},
		{ProviderS3, ProviderRekognition, true},
		{ProviderMinio, ProviderRekognition, false},
		{ProviderGCS, ProviderRekognition, false},
	}
	for _, c := range cases {
		config := NewConfig()
		config.Storage.Provider = c.storage
		config.Detection.Provider = c.detection
		assert.Equal(t, c.native, readsNatively(config), c.storage+"/"+c.detection)
	}
}

type fakeRekognition struct {
	input *rekognition.DetectLabelsInput
}

func (f *fakeRekognition) DetectLabels(_ context.Context, in *rekognition.DetectLabelsInput, _ ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error) {
	f.input = in
	return &rekognition.DetectLabelsOutput{Labels: []rktypes.Label{
		{Name: aws.String("Beach"), Confidence: aws.Float32(99.1)},
		{Name: aws.String("Sand"), Confidence: aws.Float32(93)},
	}}, nil
}

func TestRekognitionDetector(t *testing.T) {
	client := &fakeRekognition{}
	labels, err := NewRekognitionLabelDetector(client, Detection{}).DetectLabels(context.Background(), "photos", "uploads/beach.jpg", 85)
	require.NoError(t, err)

	assert.Equal(t, []model.Label{{Name: "Beach", Confidence: 99.1}, {Name: "Sand", Confidence: 93}}, labels)
	assert.Equal(t, "photos", aws.ToString(client.input.Image.S3Object.Bucket))
	assert.Equal(t, "uploads/beach.jpg", aws.ToString(client.input.Image.S3Object.Name))
	assert.Equal(t, float32(85), aws.ToFloat32(client.input.MinConfidence))
	assert.Nil(t, client.input.MaxLabels)
}

func TestRekognitionDetectorSendsBytesFromObjectSource(t *testing.T) {
	client := &fakeRekognition{}
	store := &memStore{objects: map[string][]byte{"minio-bucket/uploads/beach.png": pngHeader}}
	detector := NewRekognitionLabelDetector(client, Detection{}).WithObjectSource(store)

	_, err := detector.DetectLabels(context.Background(), "minio-bucket", "uploads/beach.png", 85)
	require.NoError(t, err)
	assert.Nil(t, client.input.Image.S3Object)
	assert.Equal(t, pngHeader, client.input.Image.Bytes)
}

type fakeDynamo struct {
	items map[string]map[string]ddbtypes.AttributeValue
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	key := in.Item["filename"].(*ddbtypes.AttributeValueMemberS).Value
	f.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	key := in.Key["filename"].(*ddbtypes.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: f.items[key]}, nil
}

func TestDynamoDBRecordStore(t *testing.T) {
	client := &fakeDynamo{items: map[string]map[string]ddbtypes.AttributeValue{}}
	store := NewDynamoDBRecordStore(client, model.ImagesTable)
	ctx := context.Background()

	record := &model.ImageRecord{Filename: "uploads/cat.png", Tags: map[string]string{"Cat": "99"}}
	require.NoError(t, store.Upsert(ctx, record))
	require.NoError(t, store.Upsert(ctx, &model.ImageRecord{Filename: "uploads/cat.png", Tags: map[string]string{"Pet": "95"}}))

	got, err := store.Get(ctx, "uploads/cat.png")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Pet": "95"}, got.Tags)

	_, err = store.Get(ctx, "uploads/missing.png")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestDecodeRecord(t *testing.T) {
	r, err := decodeRecord("f", nil)
	require.NoError(t, err)
	assert.NotNil(t, r.Tags)

	r, err = decodeRecord("f", []byte(`{"Cat":"99"}`))
	require.NoError(t, err)
	assert.Equal(t, "99", r.Tags["Cat"])
}

func TestToS3Tags(t *testing.T) {
	set := toS3Tags([]model.Tag{{Key: "Cat", Value: "99"}})
	require.Len(t, set, 1)
	assert.Equal(t, "Cat", aws.ToString(set[0].Key))
	assert.Equal(t, "99", aws.ToString(set[0].Value))
}

type countingDetector struct{ calls int }

func (c *countingDetector) DetectLabels(context.Context, string, string, float32) ([]model.Label, error) {
	c.calls++
	return nil, nil
}

func TestQuotaAwareDetectorHonoursContext(t *testing.T) {
	inner := &countingDetector{}
	detector := NewQuotaAwareLabelDetector(inner, 1)

	_, err := detector.DetectLabels(context.Background(), "b", "k", 90)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = detector.DetectLabels(ctx, "b", "k", 90)
	assert.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}
