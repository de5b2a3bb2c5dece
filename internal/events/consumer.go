package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/caffein/school-platform/pkg/metrics"
)

// Handler processes one decoded event payload. A non-nil error is logged and
// the message is acknowledged anyway: the relay deliberately has no retry and
// no dead-letter path, matching the upstream consumers it replaces.
type Handler func(ctx context.Context, payload []byte) error

// ConsumerConfig tunes one consumer group member.
type ConsumerConfig struct {
	Group        string
	Consumer     string
	BlockTimeout time.Duration
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
}

// Consumer reads relay streams through a consumer group, one message at a
// time per member. Entries left pending by a crashed member are re-read on
// the next start, which is where the at-least-once (and double-apply)
// semantics come from.
type Consumer struct {
	client       *redis.Client
	group        string
	consumer     string
	blockTimeout time.Duration
	logger       *zap.Logger
	metrics      *metrics.Metrics
	handlers     map[string]Handler
}

// NewConsumer constructs a Consumer for a set of stream handlers.
func NewConsumer(client *redis.Client, cfg ConsumerConfig) *Consumer {
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Consumer == "" {
		cfg.Consumer = "worker-1"
	}
	return &Consumer{
		client:       client,
		group:        cfg.Group,
		consumer:     cfg.Consumer,
		blockTimeout: cfg.BlockTimeout,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		handlers:     make(map[string]Handler),
	}
}

// Subscribe registers the handler for a stream. Must be called before Run.
func (c *Consumer) Subscribe(stream string, h Handler) {
	c.handlers[stream] = h
}

// Run blocks reading the subscribed streams until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	if len(c.handlers) == 0 {
		return fmt.Errorf("consumer group %s: no subscriptions", c.group)
	}

	streams := make([]string, 0, len(c.handlers))
	for s := range c.handlers {
		streams = append(streams, s)
	}

	for _, stream := range streams {
		if err := c.ensureGroup(ctx, stream); err != nil {
			return err
		}
	}

	// Drain entries delivered before a previous crash, then follow new ones.
	// One iteration per Count=1 batch keeps the drain flat however deep the
	// backlog is.
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		processed, err := c.consume(ctx, streams, "0")
		if err != nil {
			return err
		}
		if !processed {
			break
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, err := c.consume(ctx, streams, ">"); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			c.logger.Warn("relay read failed", zap.String("group", c.group), zap.Error(err))
			time.Sleep(time.Second)
		}
	}
}

func (c *Consumer) ensureGroup(ctx context.Context, stream string) error {
	err := c.client.XGroupCreateMkStream(ctx, stream, c.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create group %s on %s: %w", c.group, stream, err)
	}
	return nil
}

// consume reads one batch at the cursor and dispatches it. The returned flag
// reports whether any message was processed; a drained backlog read ("0")
// comes back empty, which is how the drain loop knows to stop.
func (c *Consumer) consume(ctx context.Context, streams []string, cursor string) (bool, error) {
	args := make([]string, 0, len(streams)*2)
	args = append(args, streams...)
	for range streams {
		args = append(args, cursor)
	}

	res, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  args,
		Count:    1,
		Block:    c.blockTimeout,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	processed := false
	for _, stream := range res {
		for _, msg := range stream.Messages {
			processed = true
			c.dispatch(ctx, stream.Stream, msg)
		}
	}
	return processed, nil
}

func (c *Consumer) dispatch(ctx context.Context, stream string, msg redis.XMessage) {
	defer func() {
		if err := c.client.XAck(ctx, stream, c.group, msg.ID).Err(); err != nil {
			c.logger.Warn("relay ack failed",
				zap.String("stream", stream),
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}()

	payload, err := extractPayload(msg)
	if err != nil {
		c.logger.Error("relay message malformed",
			zap.String("stream", stream),
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		if c.metrics != nil {
			c.metrics.EventDropped(stream)
		}
		return
	}

	handler := c.handlers[stream]
	if err := handler(ctx, payload); err != nil {
		// Swallow-and-drop: the message is acked regardless, so a failed
		// handler silently loses the event.
		c.logger.Error("event handler failed",
			zap.String("stream", stream),
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		if c.metrics != nil {
			c.metrics.EventDropped(stream)
		}
		return
	}
	if c.metrics != nil {
		c.metrics.EventConsumed(stream)
	}
}

func extractPayload(msg redis.XMessage) ([]byte, error) {
	raw, ok := msg.Values["payload"]
	if !ok {
		return nil, fmt.Errorf("missing payload field")
	}
	switch v := raw.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unexpected payload type %T", raw)
	}
}

// Decode unmarshals a payload into the typed event, shared by all handlers.
func Decode(payload []byte, dest interface{}) error {
	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	return nil
}
