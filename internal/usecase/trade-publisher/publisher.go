package tradepublisher

import (
	"context"

	"github.com/segmentio/kafka-go"

	tradepublisherv1 "github.com/sigmatrade/matching-engine/internal/domain/trade-publisher/v1"
	"github.com/sigmatrade/matching-engine/pkg/config"
	"github.com/sigmatrade/matching-engine/pkg/errors"
	"github.com/sigmatrade/matching-engine/pkg/logger"
)

// Publisher represents a Kafka Publisher for publishing executed trades.
type Publisher struct {
	kafkaWriter *kafka.Writer
	logger      *logger.Logger
}

// NewPublisher creates a new Kafka publisher for the trade topic.
func NewPublisher(cfg config.TradePublisherConfig, log *logger.Logger) *Publisher {
	kafkaWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
	})

	return &Publisher{
		kafkaWriter: kafkaWriter,
		logger:      log,
	}
}

// PublishTradeEvent publishes a trade event to the trade topic.
func (p *Publisher) PublishTradeEvent(ctx context.Context, event *tradepublisherv1.TradeEventPayload) error {
	msg := kafka.Message{
		Key:   []byte(event.EventID),
		Value: tradepublisherv1.ToBytes(event),
	}

	if err := p.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		p.logger.Error(err,
			logger.Field{Key: "error", Value: err.Error()},
			logger.Field{Key: "tradeEvent", Value: event},
		)
		return errors.NewTracer("failed to publish trade event").Wrap(err)
	}
	return nil
}

// Close flushes and closes the underlying Kafka writer.
func (p *Publisher) Close() error {
	return p.kafkaWriter.Close()
}
