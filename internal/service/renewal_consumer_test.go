package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akylbek/payment-system/midtrans-gateway/internal/models"
)

// queueReader hands out queued messages, then blocks until ctx is done.
type queueReader struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (r *queueReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.msgs) > 0 {
		msg := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *queueReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func TestRenewalConsumer_Run(t *testing.T) {
	orders := renewalOrders("481111-tok")
	gw := &fakeGateway{charge: &models.ChargeResult{TransactionID: "tx-1", StatusCode: "200"}}
	reader := &queueReader{msgs: []kafka.Message{
		{Key: []byte("bad"), Value: []byte("{not json")},
		{Key: []byte("501"), Value: []byte(`{"order_id":"501","amount":"231000"}`)},
	}}
	consumer := NewRenewalConsumer(reader, NewRenewalService(orders, gw, testRegistry(), testPages))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		consumer.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		gw.mu.Lock()
		defer gw.mu.Unlock()
		return len(gw.charged) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
	assert.True(t, reader.closed)
	assert.Equal(t, "501", gw.charged[0].OrderID)
}
