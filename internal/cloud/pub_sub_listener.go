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

// Package cloud. This file defines the Pub/Sub listener that feeds bucket
// notifications into a handler.
//
// Logic Flow:
//  1. A PubSubListener is created with a client and a subscription ID.
//  2. The handler's Command is attached with SetCommand once the workflows
//     are built.
//  3. Listen starts a goroutine that receives messages until ctx ends.
//  4. Each message gets a span and an invocation id, and runs through the
//     command with the raw payload as input.
//  5. The message is acked only when the command recorded no errors. Failed
//     messages are left unacked so Pub/Sub redelivers them under the
//     subscription's retry policy.
package cloud

import (
	"context"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"github.com/jaycherian/gcp-go-image-tagger/internal/core/cor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PubSubListener binds one subscription to one command.
type PubSubListener struct {
	client       *pubsub.Client
	subscription *pubsub.Subscription
	command      cor.Command
}

// NewPubSubListener creates a listener for subscriptionID. command may be
// nil and attached later with SetCommand.
//
// Inputs:
//   - pubsubClient: An authenticated client.
//   - subscriptionID: The subscription to receive from.
//   - command: The command run for each message.
//
// Outputs:
//   - *PubSubListener: The listener.
//   - error: Always nil; kept for symmetry with the other listeners.
func NewPubSubListener(
	pubsubClient *pubsub.Client,
	subscriptionID string,
	command cor.Command,
) (cmd *PubSubListener, err error) {
	sub := pubsubClient.Subscription(subscriptionID)
	cmd = &PubSubListener{
		client:       pubsubClient,
		subscription: sub,
		command:      command,
	}
	return cmd, nil
}

// SetCommand attaches command unless one is already set.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// Listen starts receiving in the background. Cancelling ctx stops it.
func (m *PubSubListener) Listen(ctx context.Context) {
	slog.Info("listening", "subscription", m.subscription.ID())

	go func() {
		tracer := otel.Tracer("message-listener")

		err := m.subscription.Receive(ctx, func(msgCtx context.Context, msg *pubsub.Message) {
			spanCtx, span := tracer.Start(msgCtx, "receive-message")
			defer span.End()
			spanCtx, invocationID := cor.WithInvocationID(spanCtx)
			span.SetAttributes(
				attribute.String("msg.id", msg.ID),
				attribute.String("invocation.id", invocationID),
			)

			chainCtx := cor.NewContextWithInput(spanCtx, msg.Data)
			m.command.Execute(chainCtx)

			if !chainCtx.HasErrors() {
				span.SetStatus(codes.Ok, "success")
				msg.Ack()
				return
			}
			span.SetStatus(codes.Error, "failed")
			slog.ErrorContext(spanCtx, "error executing chain",
				"subscription", m.subscription.ID(),
				"error", cor.JoinErrors(chainCtx))
		})
		if err != nil {
			slog.Error("error receiving data", "subscription", m.subscription.ID(), "error", err)
		}
	}()
}
