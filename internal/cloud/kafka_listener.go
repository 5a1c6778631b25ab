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

// Package cloud. This file is the Kafka counterpart of PubSubListener, used
// with S3 compatible stores (MinIO) that publish bucket notifications to a
// Kafka topic.
//
// Kafka commits are cumulative per partition, so an offset is committed only
// once every message before it is settled. A failing message is retried in
// place up to MaxAttempts. If it still fails it is written to the dead letter
// topic and then committed. Without a dead letter topic Poll returns an
// error, the listener stops and the group resumes from the failed offset.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jaycherian/gcp-go-image-tagger/internal/core/cor"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Dead letter headers.
const (
	HeaderError        = "x-error"
	HeaderSourceTopic  = "x-source-topic"
	HeaderSourceOffset = "x-source-offset"
)

// MessageReader is the part of *kafka.Reader the listener uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// MessageWriter is the part of *kafka.Writer the listener uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaListener binds one topic to one command.
type KafkaListener struct {
	reader      MessageReader
	topic       string
	command     cor.Command
	maxAttempts int
	backoff     time.Duration
	deadLetter  MessageWriter
}

// NewKafkaReader creates a consumer group reader for topic.
func NewKafkaReader(config Kafka, topic string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: config.Brokers,
		GroupID: config.GroupID,
		Topic:   topic,
	})
}

// NewKafkaDeadLetterWriter creates the writer for config.DeadLetterTopic, or
// returns nil when none is configured.
func NewKafkaDeadLetterWriter(config Kafka) *kafka.Writer {
	if config.DeadLetterTopic == "" {
		return nil
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(config.Brokers...),
		Topic:                  config.DeadLetterTopic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaListener(reader MessageReader, topic string, command cor.Command) *KafkaListener {
	return &KafkaListener{reader: reader, topic: topic, command: command, maxAttempts: 1}
}

// WithRetry sets how often a failing message is attempted and the pause
// between attempts.
func (k *KafkaListener) WithRetry(maxAttempts int, backoff time.Duration) *KafkaListener {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	k.maxAttempts = maxAttempts
	k.backoff = backoff
	return k
}

// WithDeadLetter routes messages that exhaust their attempts to writer.
func (k *KafkaListener) WithDeadLetter(writer MessageWriter) *KafkaListener {
	k.deadLetter = writer
	return k
}

// SetCommand attaches command unless one is already set.
func (k *KafkaListener) SetCommand(command cor.Command) {
	if k.command == nil {
		k.command = command
	}
}

// Listen consumes in the background until ctx ends or a message cannot be
// settled, then closes the reader.
func (k *KafkaListener) Listen(ctx context.Context) {
	slog.Info("listening", "topic", k.topic)
	go func() {
		defer k.reader.Close()
		for {
			if err := k.Poll(ctx); err != nil {
				if ctx.Err() == nil {
					slog.Error("error receiving data", "topic", k.topic, "error", err)
				}
				return
			}
		}
	}()
}

// Poll fetches and settles a single message. It returns an error when
// fetching or committing fails, or when a message fails every attempt and
// there is no dead letter topic. The message is not committed in that case.
func (k *KafkaListener) Poll(ctx context.Context) error {
	msg, err := k.reader.FetchMessage(ctx)
	if err != nil {
		return err
	}

	tracer := otel.Tracer("message-listener")
	spanCtx, span := tracer.Start(ctx, "receive-message")
	defer span.End()
	spanCtx, invocationID := cor.WithInvocationID(spanCtx)
	span.SetAttributes(
		attribute.String("topic", msg.Topic),
		attribute.Int64("offset", msg.Offset),
		attribute.String("invocation.id", invocationID),
	)

	if failure := k.handle(spanCtx, span, msg); failure != nil {
		span.SetStatus(codes.Error, "failed")
		if k.deadLetter == nil {
			return fmt.Errorf("offset %d on %s failed after %d attempts: %w", msg.Offset, k.topic, k.maxAttempts, failure)
		}
		if err := k.deadLetter.WriteMessages(ctx, deadLetterMessage(msg, failure)); err != nil {
			return errors.Join(fmt.Errorf("dead letter write failed for offset %d", msg.Offset), err)
		}
		slog.WarnContext(spanCtx, "message sent to dead letter topic", "topic", k.topic, "offset", msg.Offset)
	}

	if err := k.reader.CommitMessages(ctx, msg); err != nil {
		span.SetStatus(codes.Error, "commit failed")
		return errors.Join(errors.New("commit failed"), err)
	}
	span.SetStatus(codes.Ok, "success")
	return nil
}

// handle runs the command until it succeeds or the attempts run out, and
// returns the last failure.
func (k *KafkaListener) handle(ctx context.Context, span trace.Span, msg kafka.Message) error {
	var failure error
	for attempt := 1; attempt <= k.maxAttempts; attempt++ {
		chainCtx := cor.NewContextWithInput(ctx, msg.Value)
		k.command.Execute(chainCtx)
		if !chainCtx.HasErrors() {
			return nil
		}
		failure = cor.JoinErrors(chainCtx)
		span.SetAttributes(attribute.Int("attempts", attempt))
		slog.ErrorContext(ctx, "error executing chain",
			"topic", k.topic,
			"offset", msg.Offset,
			"attempt", attempt,
			"error", failure)
		if attempt < k.maxAttempts && k.backoff > 0 {
			select {
			case <-ctx.Done():
				return errors.Join(failure, ctx.Err())
			case <-time.After(k.backoff):
			}
		}
	}
	return failure
}

func deadLetterMessage(msg kafka.Message, failure error) kafka.Message {
	headers := append([]kafka.Header{}, msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: HeaderError, Value: []byte(failure.Error())},
		kafka.Header{Key: HeaderSourceTopic, Value: []byte(msg.Topic)},
		kafka.Header{Key: HeaderSourceOffset, Value: []byte(strconv.FormatInt(msg.Offset, 10))},
	)
	return kafka.Message{Key: msg.Key, Value: msg.Value, Headers: headers}
}
