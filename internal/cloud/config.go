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

// Package cloud holds everything that talks to the outside world: the
// configuration model, the provider adapters for object storage, label
// detection and the record store, and the listeners that turn bucket
// notifications into handler invocations.
//
// This file defines the configuration structs, loaded from layered TOML files
// and then patched from the environment (see utils.go).
//
// Structs:
//   - Storage: Which object store to use and how to reach it.
//   - Detection: Which label detector to use, its model and thresholds.
//   - Records: Which record store to use and where the images table lives.
//   - Telemetry: Which OpenTelemetry exporter to install.
//   - TopicSubscription: A Pub/Sub subscription feeding one handler.
//   - Kafka: Brokers, per-handler topics and the retry and dead letter
//     settings for Kafka-delivered notifications.
//   - Config: The root of the configuration tree.
package cloud

import "github.com/jaycherian/gcp-go-image-tagger/internal/core/model"

// Provider keys accepted in configuration.
const (
	ProviderGCS         = "gcs"
	ProviderS3          = "s3"
	ProviderMinio       = "minio"
	ProviderGemini      = "gemini"
	ProviderRekognition = "rekognition"
	ProviderBigQuery    = "bigquery"
	ProviderDynamoDB    = "dynamodb"
	ProviderPostgres    = "postgres"
)

// Handler names. They key subscriptions, Kafka topics and stats.
const (
	HandlerClassifier  = "classifier"
	HandlerThumbnail   = "thumbnail"
	HandlerGreeting    = "greeting"
	HandlerSalutations = "salutations"
)

// DefaultMinConfidence is the minimum confidence sent with every detection
// request unless overridden.
const DefaultMinConfidence float32 = 90

// Storage selects and configures the object store.
type Storage struct {
	Provider                  string `toml:"provider"`                     // gcs, s3 or minio.
	Bucket                    string `toml:"bucket"`                       // Bucket served by the HTTP API.
	Endpoint                  string `toml:"endpoint"`                     // MinIO endpoint (host:port).
	Region                    string `toml:"region"`                       // S3/MinIO region.
	AccessKey                 string `toml:"access_key"`                   // MinIO access key.
	SecretKey                 string `toml:"secret_key"`                   // MinIO secret key.
	UseSSL                    bool   `toml:"use_ssl"`                      // MinIO TLS.
	SignerServiceAccountEmail string `toml:"signer_service_account_email"` // GCS URL signer.
	SignedURLMinutes          int    `toml:"signed_url_minutes"`           // Lifetime of thumbnail URLs.
}

// Detection selects and configures the label detector.
type Detection struct {
	Provider           string  `toml:"provider"`            // gemini or rekognition.
	Model              string  `toml:"model"`               // Gemini model name.
	SystemInstructions string  `toml:"system_instructions"` // Gemini system prompt.
	MaxLabels          int     `toml:"max_labels"`          // Upper bound requested from the detector, 0 for none.
	MinConfidence      float32 `toml:"min_confidence"`      // Sent with each request; env MinConfidence wins.
	RateLimit          int     `toml:"rate_limit"`          // Requests per second, 0 disables limiting.
}

// Records selects and configures the record store.
type Records struct {
	Provider         string  `toml:"provider"`          // bigquery, dynamodb or postgres.
	Dataset          string  `toml:"dataset"`           // BigQuery dataset.
	Table            string  `toml:"table"`             // Table name, "images" by default.
	DatabaseURL      string  `toml:"database_url"`      // Postgres DSN.
	PersistThreshold float32 `toml:"persist_threshold"` // Labels strictly above this are persisted.
}

// Telemetry selects the OpenTelemetry exporter.
type Telemetry struct {
	Exporter string `toml:"exporter"` // gcp, otlp or none.
	Endpoint string `toml:"endpoint"` // OTLP collector endpoint.
	Insecure bool   `toml:"insecure"` // OTLP without TLS.
}

// TopicSubscription is a Pub/Sub subscription bound to a handler.
type TopicSubscription struct {
	Name             string `toml:"name"`
	DeadLetterTopic  string `toml:"dead_letter_topic"`
	TimeoutInSeconds int    `toml:"timeout_in_seconds"`
}

// Kafka configures Kafka-delivered bucket notifications.
type Kafka struct {
	Brokers            []string          `toml:"brokers"`
	GroupID            string            `toml:"group_id"`
	Topics             map[string]string `toml:"topics"` // handler name -> topic.
	DeadLetterTopic    string            `toml:"dead_letter_topic"`
	MaxAttempts        int               `toml:"max_attempts"`
	RetryBackoffMillis int               `toml:"retry_backoff_millis"`
}

// Config is the root configuration.
type Config struct {
	Application struct {
		Name            string `toml:"name"`
		GoogleProjectId string `toml:"google_project_id"`
		GoogleLocation  string `toml:"location"`
		AWSRegion       string `toml:"aws_region"`
		LogLevel        string `toml:"log_level"`
	} `toml:"application"`
	Server struct {
		Addr string `toml:"addr"`
	} `toml:"server"`
	Storage            Storage                      `toml:"storage"`
	Detection          Detection                    `toml:"detection"`
	Records            Records                      `toml:"records"`
	Telemetry          Telemetry                    `toml:"telemetry"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"` // handler name -> subscription.
	Kafka              Kafka                        `toml:"kafka"`
}

// NewConfig returns a Config populated with defaults. Maps are initialised so
// the TOML decoder can merge into them.
func NewConfig() *Config {
	c := &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
	}
	c.Application.Name = "image-tagger"
	c.Application.LogLevel = "info"
	c.Server.Addr = ":8080"
	c.Storage.Provider = ProviderGCS
	c.Storage.SignedURLMinutes = 15
	c.Detection.Provider = ProviderGemini
	c.Detection.Model = "gemini-2.0-flash"
	c.Detection.MinConfidence = DefaultMinConfidence
	c.Records.Provider = ProviderBigQuery
	c.Records.Table = model.ImagesTable
	c.Records.PersistThreshold = model.DefaultPersistThreshold
	c.Telemetry.Exporter = "none"
	c.Kafka.Topics = make(map[string]string)
	c.Kafka.MaxAttempts = 3
	c.Kafka.RetryBackoffMillis = 500
	return c
}
