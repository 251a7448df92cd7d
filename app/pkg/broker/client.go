// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package broker

import (
	"context"
	"fmt"

	"github.com/sk-pkg/kafka"
	"github.com/sk-pkg/logger"
	"go.uber.org/zap"
)

// Client produces and consumes typed envelopes over named topics, wrapping
// sk-pkg/kafka the way the rest of the stack wraps its sk-pkg/* siblings —
// functional options in, a single Manager handle out.
type Client struct {
	manager *kafka.Manager
	logger  *logger.Manager
}

// Config carries the connection and consumer parameters from app config.
type Config struct {
	Brokers       []string
	ConsumerGroup string
}

// New dials the broker with the given configuration.
func New(cfg Config, log *logger.Manager) (*Client, error) {
	manager, err := kafka.New(
		kafka.WithBrokers(cfg.Brokers),
		kafka.WithGroupID(cfg.ConsumerGroup),
	)
	if err != nil {
		return nil, fmt.Errorf("broker dial failed: %w", err)
	}

	return &Client{manager: manager, logger: log}, nil
}

// Produce sends envelope to topic with the given routing key. Fire-and-
// forget with an asynchronous delivery report; on broker error it logs and
// returns false, leaving retry to the caller.
//
// Parameters:
//   - ctx: for log correlation.
//   - topic: destination topic.
//   - key: partition routing key (job_id for JOB_SUBMIT/JOB_RESULT,
//     executor_id for EXECUTOR_HEARTBEAT, job_id payload for JOB_CANCEL).
//   - envelope: the typed message to send.
//
// Returns:
//   - bool: true on successful produce.
func (c *Client) Produce(ctx context.Context, topic, key string, envelope Envelope) bool {
	value, err := envelope.Marshal()
	if err != nil {
		c.logger.Error(ctx, "envelope marshal failed", zap.String("topic", topic), zap.Error(err))
		return false
	}

	if err := c.manager.Produce(topic, key, value); err != nil {
		c.logger.Error(ctx, "broker produce failed", zap.String("topic", topic), zap.String("key", key), zap.Error(err))
		return false
	}

	return true
}

// Handler processes one decoded envelope for a given routing key.
type Handler func(ctx context.Context, key string, envelope Envelope)

// Consume runs a single consumer loop over topics in the client's consumer
// group, polling with a 100ms timeout and auto-committing every 5s
// (sk-pkg/kafka's defaults), dispatching each decoded envelope to handler.
// A malformed envelope or unknown type is logged and skipped — it never
// kills the loop. Blocks until ctx is cancelled.
func (c *Client) Consume(ctx context.Context, topics []string, handler Handler) error {
	return c.manager.Consume(ctx, topics, func(key, value []byte) error {
		envelope, err := Unmarshal(value)
		if err != nil {
			c.logger.Warn(ctx, "malformed envelope, skipping", zap.String("key", string(key)), zap.Error(err))
			return nil
		}

		switch envelope.Type {
		case JobSubmit, JobCancel, JobResult, ExecutorHeartbeat:
			handler(ctx, string(key), envelope)
		default:
			c.logger.Warn(ctx, "unknown envelope type, skipping", zap.String("type", string(envelope.Type)))
		}

		return nil
	})
}

// Close releases the underlying broker connections.
func (c *Client) Close() error {
	return c.manager.Close()
}
