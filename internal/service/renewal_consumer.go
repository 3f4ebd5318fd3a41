package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/midtrans-gateway/internal/models"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/telemetry"
)

// MessageReader is the subset of *kafka.Reader the consumer needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// RenewalConsumer charges renewals announced on the subscription.renewal.due topic.
type RenewalConsumer struct {
	reader  MessageReader
	renewal *RenewalService
}

func NewRenewalConsumer(reader MessageReader, renewal *RenewalService) *RenewalConsumer {
	return &RenewalConsumer{reader: reader, renewal: renewal}
}

// Run processes messages one at a time until ctx is cancelled.
func (c *RenewalConsumer) Run(ctx context.Context) {
	defer c.reader.Close()

	telemetry.Logger.Info("Started consuming subscription renewal events")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				telemetry.Logger.Info("Stopped consuming subscription renewal events")
				return
			}
			telemetry.Logger.Error("Error reading message from Kafka", zap.Error(err))
			continue
		}

		var event models.RenewalEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil || event.OrderID == "" {
			telemetry.Logger.Error("Discarding malformed renewal event",
				zap.ByteString("key", msg.Key),
				zap.Error(err),
			)
			continue
		}

		res := c.renewal.ScheduledPayment(ctx, event.OrderID, event.Amount)
		telemetry.Logger.Info("Processed renewal event",
			zap.String("order_id", event.OrderID),
			zap.String("result", res.Result),
			zap.String("error", res.Error),
		)
	}
}
