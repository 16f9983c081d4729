// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/parfour/parfour/internal/metrics"
)

// Bus is the in-process pub/sub bus. Messages are delivered to every
// subscriber of a topic; subscribers that fall behind buffer up to the
// configured channel size. Parfour runs as a single process, so the
// Go-channel transport is authoritative — there is no external broker
// to reconcile with.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter
}

// NewBus creates the event bus.
func NewBus() *Bus {
	logger := NewLoggerAdapter()
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 64,
		}, logger),
		logger: logger,
	}
}

// Close shuts the bus down. Pending messages are dropped; subscribers'
// channels close.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// publish marshals a payload and publishes it on a topic.
func (b *Bus) publish(topic string, payload any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), encoded)
	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// PublishIdentityChanged publishes an identity change event.
func (b *Bus) PublishIdentityChanged(event IdentityChangedEvent) error {
	return b.publish(TopicIdentityChanged, event)
}

// PublishFundsUpdated publishes a funds-raised update.
func (b *Bus) PublishFundsUpdated(event FundsUpdatedEvent) error {
	if err := b.publish(TopicFundsUpdated, event); err != nil {
		return err
	}
	metrics.FundsUpdates.Inc()
	return nil
}

// SubscribeIdentityChanged subscribes to identity change events.
// Messages are decoded and acked before delivery; a decode failure is
// acked and dropped, since replaying a malformed payload cannot fix it.
func (b *Bus) SubscribeIdentityChanged(ctx context.Context) (<-chan IdentityChangedEvent, error) {
	messages, err := b.pubsub.Subscribe(ctx, TopicIdentityChanged)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", TopicIdentityChanged, err)
	}
	return decodeLoop[IdentityChangedEvent](ctx, messages, b.logger, TopicIdentityChanged), nil
}

// SubscribeFundsUpdated subscribes to funds-raised updates.
func (b *Bus) SubscribeFundsUpdated(ctx context.Context) (<-chan FundsUpdatedEvent, error) {
	messages, err := b.pubsub.Subscribe(ctx, TopicFundsUpdated)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", TopicFundsUpdated, err)
	}
	return decodeLoop[FundsUpdatedEvent](ctx, messages, b.logger, TopicFundsUpdated), nil
}

// decodeLoop turns a raw Watermill message stream into a typed event
// channel. The returned channel closes when the subscription ends.
func decodeLoop[T any](ctx context.Context, messages <-chan *message.Message, logger watermill.LoggerAdapter, topic string) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for msg := range messages {
			var event T
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				logger.Error("Failed to decode event", err, watermill.LogFields{"topic": topic})
				msg.Ack()
				continue
			}
			msg.Ack()

			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
