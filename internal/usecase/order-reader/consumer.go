package orderreader

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	orderreaderv1 "github.com/sigmatrade/matching-engine/internal/domain/order-reader/v1"
	"github.com/sigmatrade/matching-engine/pkg/config"
	"github.com/sigmatrade/matching-engine/pkg/logger"
)

// Reader represents a Kafka Reader for consuming order events from the order topic.
type Reader struct {
	kafkaReader *kafka.Reader
	logger      *logger.Logger
}

// NewReader creates a new Kafka reader for the order topic. It returns an
// implementation of the OrderReader interface.
func NewReader(cfg config.KafkaConfig, log *logger.Logger) Reader {
	kafkaReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		Partition:   0,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})

	return Reader{
		kafkaReader: kafkaReader,
		logger:      log,
	}
}

// logError is a helper method to log errors consistently
func (r Reader) logError(err error, operation string) {
	r.logger.Error(err,
		logger.Field{Key: "error", Value: err.Error()},
		logger.Field{Key: "operation", Value: operation},
	)
}

// SetOffset sets the offset for the Kafka reader.
func (r Reader) SetOffset(offset int64) error {
	if err := r.kafkaReader.SetOffset(offset); err != nil {
		r.logError(err, "SetOffset")
		return err
	}
	return nil
}

// ReadMessage reads a message from the order topic and parses it as an order event.
func (r Reader) ReadMessage(ctx context.Context) (kafka.Message, *orderreaderv1.OrderEventPayload, error) {
	msg, err := r.kafkaReader.ReadMessage(ctx)
	if err != nil {
		r.logError(err, "ReadMessage")
		return kafka.Message{Offset: 0}, nil, err
	}

	var event orderreaderv1.OrderEventPayload
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		r.logError(err, "UnmarshalOrderEvent")
		return kafka.Message{Offset: 0}, nil, err
	}

	r.logger.Info("ReadMessage",
		logger.Field{Key: "type", Value: event.Type},
		logger.Field{Key: "side", Value: event.Side},
		logger.Field{Key: "volume", Value: event.Volume},
		logger.Field{Key: "price", Value: event.Price},
		logger.Field{Key: "targetID", Value: event.TargetID},
	)

	event.Offset = msg.Offset

	return msg, &event, nil
}

// Close properly closes the Kafka reader.
func (r Reader) Close() error {
	if err := r.kafkaReader.Close(); err != nil {
		r.logError(err, "Close")
		return err
	}
	return nil
}

// CommitMessages commits the messages after processing. The reader runs
// without a consumer group and tracks its position through snapshots, so
// there is nothing to commit.
func (r Reader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	return nil
}
