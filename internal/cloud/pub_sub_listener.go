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

// Package cloud provides components for interacting with Google Cloud
// services. This file defines a generic Pub/Sub message listener used for
// asynchronous index requests: a message carrying a video id arrives on
// the subscription, the attached command (the indexing workflow) runs,
// and the message is acknowledged only when the workflow completed
// without error, so failed indexing attempts are redelivered under the
// subscription's retry policy.
package cloud

import (
	"context"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/cor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PubSubListener connects a Pub/Sub subscription to a processing command.
// Listeners have a lifecycle independent of individual API requests, so
// they live with the other cloud components.
type PubSubListener struct {
	client       *pubsub.Client
	subscription *pubsub.Subscription
	command      cor.Command
}

// IndexRequest is the JSON payload expected on the index-request
// subscription.
type IndexRequest struct {
	VideoId string `json:"video_id"`
}

// NewPubSubListener creates a listener for the given subscription id. The
// command may be nil at construction time and attached later with
// SetCommand, once the workflow it depends on has been built.
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

// SetCommand attaches a command to the listener unless one is already
// attached.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// Listen starts receiving messages in a background goroutine. Each
// message's data is handed to the attached command as the chain input;
// the message is acknowledged only if the chain finishes without errors.
// Canceling ctx stops the receive loop.
func (m *PubSubListener) Listen(ctx context.Context) {
	slog.Info("listening for index requests", "subscription", m.subscription.String())

	go func() {
		tracer := otel.Tracer("index-request-listener")

		err := m.subscription.Receive(ctx, func(_ context.Context, msg *pubsub.Message) {
			spanCtx, span := tracer.Start(ctx, "receive-index-request")
			span.SetAttributes(attribute.String("msg", string(msg.Data)))

			chainCtx := cor.NewBaseContext()
			chainCtx.SetContext(spanCtx)
			chainCtx.Add(cor.CtxIn, string(msg.Data))

			m.command.Execute(chainCtx)

			if !chainCtx.HasErrors() {
				span.SetStatus(codes.Ok, "success")
				msg.Ack()
			} else {
				span.SetStatus(codes.Error, "failed")
				for name, e := range chainCtx.GetErrors() {
					slog.Error("index request failed", "command", name, "error", e)
				}
				// No Ack and no Nack: let the ack deadline lapse so the
				// message is redelivered per the subscription policy.
			}

			span.End()
		})

		if err != nil {
			slog.Error("error receiving index requests", "error", err)
		}
	}()
}
