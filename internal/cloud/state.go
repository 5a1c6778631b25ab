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

// Package cloud. This file builds the service clients for the configured
// providers and hands them out behind the ObjectStore, LabelDetector and
// RecordStore interfaces.
//
// Logic Flow:
//  1. NewServiceClients is called once at startup with the resolved Config.
//  2. Only the SDK clients the selected providers need are created; an AWS
//     configuration is loaded when any provider is an AWS service.
//  3. The detector is wrapped in the rate limiter when a rate is configured.
//  4. One Pub/Sub listener per topic subscription and one Kafka listener per
//     Kafka topic are created without a command; the command is attached
//     once the workflows are built. Kafka listeners share one dead letter
//     writer when a dead letter topic is configured.
package cloud

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"google.golang.org/genai"
)

// ServiceClients holds the provider adapters and listeners for one process.
type ServiceClients struct {
	ObjectStore     ObjectStore
	LabelDetector   LabelDetector
	RecordStore     RecordStore
	PubsubClient    *pubsub.Client
	PubSubListeners map[string]*PubSubListener // handler name -> listener.
	KafkaListeners  map[string]*KafkaListener  // handler name -> listener.
	closers         []io.Closer
}

// Close releases every client that holds connections.
func (c *ServiceClients) Close() {
	for _, closer := range c.closers {
		_ = closer.Close()
	}
	c.closers = nil
}

func usesAWS(config *Config) bool {
	return config.Storage.Provider == ProviderS3 ||
		config.Detection.Provider == ProviderRekognition ||
		config.Records.Provider == ProviderDynamoDB
}

// NewServiceClients creates the clients required by config.
//
// Inputs:
//   - ctx: The root context of the process.
//   - config: The resolved configuration.
//
// Outputs:
//   - *ServiceClients: The adapters and listeners.
//   - error: An error when a client cannot be created or a provider is unknown.
func NewServiceClients(ctx context.Context, config *Config) (clients *ServiceClients, err error) {
	clients = &ServiceClients{
		PubSubListeners: make(map[string]*PubSubListener),
		KafkaListeners:  make(map[string]*KafkaListener),
	}
	defer func() {
		if err != nil {
			clients.Close()
			clients = nil
		}
	}()

	var awsCfg aws.Config
	if usesAWS(config) {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(config.Application.AWSRegion))
		if err != nil {
			return clients, fmt.Errorf("load aws config: %w", err)
		}
	}

	if clients.ObjectStore, err = clients.newObjectStore(ctx, config, awsCfg); err != nil {
		return clients, err
	}
	if clients.LabelDetector, err = clients.newLabelDetector(ctx, config, awsCfg); err != nil {
		return clients, err
	}
	if clients.RecordStore, err = clients.newRecordStore(ctx, config, awsCfg); err != nil {
		return clients, err
	}

	if len(config.TopicSubscriptions) > 0 {
		pc, err := pubsub.NewClient(ctx, config.Application.GoogleProjectId)
		if err != nil {
			return clients, fmt.Errorf("pubsub client: %w", err)
		}
		clients.PubsubClient = pc
		clients.closers = append(clients.closers, pc)
		for handler, sub := range config.TopicSubscriptions {
			listener, err := NewPubSubListener(pc, sub.Name, nil)
			if err != nil {
				return clients, err
			}
			clients.PubSubListeners[handler] = listener
		}
	}

	if len(config.Kafka.Brokers) > 0 {
		var deadLetter MessageWriter
		if w := NewKafkaDeadLetterWriter(config.Kafka); w != nil {
			deadLetter = w
			clients.closers = append(clients.closers, w)
		}
		backoff := time.Duration(config.Kafka.RetryBackoffMillis) * time.Millisecond
		for handler, topic := range config.Kafka.Topics {
			clients.KafkaListeners[handler] = NewKafkaListener(NewKafkaReader(config.Kafka, topic), topic, nil).
				WithRetry(config.Kafka.MaxAttempts, backoff).
				WithDeadLetter(deadLetter)
		}
	}

	return clients, nil
}

func (c *ServiceClients) newObjectStore(ctx context.Context, config *Config, awsCfg aws.Config) (ObjectStore, error) {
	switch config.Storage.Provider {
	case ProviderGCS:
		sc, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("storage client: %w", err)
		}
		c.closers = append(c.closers, sc)
		var iamClient *credentials.IamCredentialsClient
		if config.Storage.SignerServiceAccountEmail != "" {
			iamClient, err = credentials.NewIamCredentialsClient(ctx)
			if err != nil {
				return nil, fmt.Errorf("iam credentials client: %w", err)
			}
			c.closers = append(c.closers, iamClient)
		}
		return NewGCSObjectStore(sc, iamClient, config.Storage.SignerServiceAccountEmail), nil
	case ProviderS3:
		return NewS3ObjectStore(s3.NewFromConfig(awsCfg)), nil
	case ProviderMinio:
		mc, err := NewMinioClient(config.Storage)
		if err != nil {
			return nil, err
		}
		return NewMinioObjectStore(mc), nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", config.Storage.Provider)
	}
}

// readsNatively reports whether the configured detector can fetch objects
// from the configured store by itself: Gemini reads GCS, Rekognition reads
// S3. Any other pairing goes through ObjectStore.Read.
func readsNatively(config *Config) bool {
	switch config.Detection.Provider {
	case ProviderGemini:
		return config.Storage.Provider == ProviderGCS
	case ProviderRekognition:
		return config.Storage.Provider == ProviderS3
	default:
		return false
	}
}

func (c *ServiceClients) newLabelDetector(ctx context.Context, config *Config, awsCfg aws.Config) (LabelDetector, error) {
	var detector LabelDetector
	switch config.Detection.Provider {
	case ProviderGemini:
		gc, err := genai.NewClient(ctx, &genai.ClientConfig{
			Project:  config.Application.GoogleProjectId,
			Location: config.Application.GoogleLocation,
			Backend:  genai.BackendVertexAI,
		})
		if err != nil {
			return nil, fmt.Errorf("genai client: %w", err)
		}
		gemini := NewGeminiLabelDetector(gc.Models, config.Detection)
		if !readsNatively(config) {
			gemini.WithObjectSource(c.ObjectStore)
		}
		detector = gemini
	case ProviderRekognition:
		rk := NewRekognitionLabelDetector(rekognition.NewFromConfig(awsCfg), config.Detection)
		if !readsNatively(config) {
			rk.WithObjectSource(c.ObjectStore)
		}
		detector = rk
	default:
		return nil, fmt.Errorf("unknown detection provider %q", config.Detection.Provider)
	}
	if config.Detection.RateLimit > 0 {
		detector = NewQuotaAwareLabelDetector(detector, config.Detection.RateLimit)
	}
	return detector, nil
}

func (c *ServiceClients) newRecordStore(ctx context.Context, config *Config, awsCfg aws.Config) (RecordStore, error) {
	switch config.Records.Provider {
	case ProviderBigQuery:
		bc, err := bigquery.NewClient(ctx, config.Application.GoogleProjectId)
		if err != nil {
			return nil, fmt.Errorf("bigquery client: %w", err)
		}
		c.closers = append(c.closers, bc)
		return NewBigQueryRecordStore(bc, config.Records.Dataset, config.Records.Table), nil
	case ProviderDynamoDB:
		return NewDynamoDBRecordStore(dynamodb.NewFromConfig(awsCfg), config.Records.Table), nil
	case ProviderPostgres:
		store, err := NewPostgresRecordStore(config.Records.DatabaseURL, config.Records.Table)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, store)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown records provider %q", config.Records.Provider)
	}
}
