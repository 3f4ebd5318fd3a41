package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/akylbek/payment-system/midtrans-gateway/internal/models"
)

const (
	TopicOrderStatusChanged  = "order.status.changed"
	TopicSubscriptionRenewal = "subscription.renewal.due"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaPublisher struct {
	writer MessageWriter
}

func NewKafkaPublisher(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// PublishStatusChanged writes event keyed by order id, keeping one order's events on one partition.
func (p *KafkaPublisher) PublishStatusChanged(ctx context.Context, event models.StatusChangedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode status event for order %s: %w", event.OrderID, err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: payload,
	})
}
