package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/yungbote/traffic-backend/internal/logger"
)

// Sink receives the raw bytes of every delivered message. Delivery is
// at-least-once; a failed validation inside the sink drops the message and
// consumption continues.
type Sink interface {
	Ingest(ctx context.Context, raw []byte) error
}

type KafkaConsumerConfig struct {
	Brokers  []string
	Topic    string
	GroupID  string
	ClientID string
}

// KafkaConsumer reads traffic payloads from a kafka topic and feeds them to
// the sink.
type KafkaConsumer struct {
	log    *logger.Logger
	reader *kafka.Reader
	sink   Sink
}

func NewKafkaConsumer(log *logger.Logger, cfg KafkaConsumerConfig, sink Sink) (*KafkaConsumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic required")
	}
	if sink == nil {
		return nil, errors.New("sink required")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
		Dialer: &kafka.Dialer{
			ClientID:  cfg.ClientID,
			Timeout:   10 * time.Second,
			DualStack: true,
		},
	})

	return &KafkaConsumer{
		log:    log.With("component", "KafkaConsumer", "topic", cfg.Topic),
		reader: reader,
		sink:   sink,
	}, nil
}

// Run consumes until the context ends. Malformed messages are dropped by the
// sink; only transport failures terminate the loop.
func (c *KafkaConsumer) Run(ctx context.Context) error {
	c.log.Info("Kafka consumer started")
	defer c.log.Info("Kafka consumer stopped")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("kafka read: %w", err)
		}
		// Validation failures are already logged by the sink; keep consuming.
		_ = c.sink.Ingest(ctx, msg.Value)
	}
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
