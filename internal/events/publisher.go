// Package events carries maintenance lifecycle events over Kafka: the
// workflow publishes every committed transition, and the consumer reacts
// to completions by refreshing the asset's health snapshot.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"

	"asset-service/internal/logging"
	"asset-service/internal/models"
)

// Publisher writes maintenance events to Kafka, keyed by asset id so one
// asset's events stay ordered.
type Publisher struct {
	writer *kafka.Writer
	logger *logging.Logger
}

// NewPublisher constructs a Publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string, logger *logging.Logger) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
		logger: logger,
	}
}

// Publish sends one event.
func (p *Publisher) Publish(ctx context.Context, evt models.MaintenanceEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(evt.AssetID, 10)),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	p.logger.Debugf("Published %s for request %d", evt.Event, evt.RequestID)
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
