package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/caffein/school-platform/pkg/metrics"
)

// Publisher appends events to relay streams. Delivery is at-least-once from
// the consumer's perspective; producers treat publication as best-effort and
// never roll back business writes when it fails.
type Publisher struct {
	client  *redis.Client
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewPublisher constructs a Publisher.
func NewPublisher(client *redis.Client, logger *zap.Logger, m *metrics.Metrics) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{client: client, logger: logger, metrics: m}
}

// Publish marshals the payload and appends it to the stream.
func (p *Publisher) Publish(ctx context.Context, stream string, payload interface{}) error {
	if p.client == nil {
		return fmt.Errorf("publish %s: relay not configured", stream)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event for %s: %w", stream, err)
	}
	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{"payload": string(body)},
	}).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", stream, err)
	}
	if p.metrics != nil {
		p.metrics.EventPublished(stream)
	}
	return nil
}

// PublishBestEffort publishes and logs failures instead of returning them.
// Enrollment and attendance writes use this so the event channel can never
// fail the synchronous request.
func (p *Publisher) PublishBestEffort(ctx context.Context, stream string, payload interface{}) {
	if err := p.Publish(ctx, stream, payload); err != nil {
		p.logger.Warn("event publish failed",
			zap.String("stream", stream),
			zap.Error(err),
		)
	}
}
