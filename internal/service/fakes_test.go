package service

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/akylbek/payment-system/midtrans-gateway/internal/checkout"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/models"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/pricing"
)

type note struct {
	orderID  string
	text     string
	customer bool
}

// memoryOrders mimics the compare-and-set semantics of the Postgres store.
type memoryOrders struct {
	mu     sync.Mutex
	orders map[string]*models.Order
	notes  []note
	err    error
}

func newMemoryOrders(orders ...*models.Order) *memoryOrders {
	m := &memoryOrders{orders: make(map[string]*models.Order)}
	for _, o := range orders {
		if o.Metadata == nil {
			o.Metadata = map[string]string{}
		}
		m.orders[o.ID] = o
	}
	return m
}

func (m *memoryOrders) Get(_ context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memoryOrders) Upsert(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
	return nil
}

func (m *memoryOrders) Transition(_ context.Context, id string, to models.OrderStatus) (models.TransitionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return models.TransitionResult{}, models.ErrOrderNotFound
	}
	if !models.CanTransition(o.Status, to) {
		return models.TransitionResult{Previous: o.Status, Current: o.Status}, nil
	}
	prev := o.Status
	o.PreviousStatus, o.Status = prev, to
	return models.TransitionResult{Applied: true, Previous: prev, Current: to}, nil
}

func (m *memoryOrders) SetMetadata(_ context.Context, id, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return models.ErrOrderNotFound
	}
	o.Metadata[key] = value
	return nil
}

func (m *memoryOrders) GetMetadata(_ context.Context, id, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return "", nil
	}
	return o.Metadata[key], nil
}

func (m *memoryOrders) AddNote(_ context.Context, id, text string, customer bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes = append(m.notes, note{orderID: id, text: text, customer: customer})
	return nil
}

func (m *memoryOrders) status(id string) models.OrderStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id].Status
}

func (m *memoryOrders) meta(id, key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id].Metadata[key]
}

type fakeGateway struct {
	mu        sync.Mutex
	token     *models.SnapToken
	status    *models.TransactionStatus
	charge    *models.ChargeResult
	err       error
	created   []*models.PaymentRequest
	charged   []*models.PaymentRequest
	refetched int
}

func (g *fakeGateway) CreateTransaction(_ context.Context, req *models.PaymentRequest) (*models.SnapToken, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.created = append(g.created, req)
	if g.err != nil {
		return nil, g.err
	}
	return g.token, nil
}

func (g *fakeGateway) GetTransactionStatus(_ context.Context, orderID string) (*models.TransactionStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refetched++
	if g.err != nil {
		return nil, g.err
	}
	st := *g.status
	st.OrderID = orderID
	return &st, nil
}

func (g *fakeGateway) CreateRecurringTransaction(_ context.Context, req *models.PaymentRequest) (*models.ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.charged = append(g.charged, req)
	if g.err != nil {
		return nil, g.err
	}
	return g.charge, nil
}

type fakeLocker struct {
	busy     bool
	acquired int
	released int
}

func (l *fakeLocker) Acquire(context.Context, string) (func(), error) {
	if l.busy {
		return nil, models.ErrOrderLocked
	}
	l.acquired++
	return func() { l.released++ }, nil
}

type fakePublisher struct {
	events []models.StatusChangedEvent
	err    error
}

func (p *fakePublisher) PublishStatusChanged(_ context.Context, e models.StatusChangedEvent) error {
	p.events = append(p.events, e)
	return p.err
}

type staticVerifier bool

func (v staticVerifier) VerifySignature(models.Notification) bool { return bool(v) }

func testRegistry() *checkout.Registry {
	n := pricing.NewNormalizer("IDR", "IDR", decimal.NewFromInt(1))
	b := checkout.NewPaymentRequestBuilder(pricing.NewBuilder(n), checkout.Options{Enable3DS: true})
	return checkout.NewRegistry(
		checkout.NewOneTimeMethod(b, nil),
		checkout.NewInstallmentMethod(b, 500000),
		checkout.NewSubscriptionMethod(b, "", nil),
	)
}

func testOrder(id, method string, status models.OrderStatus) *models.Order {
	return &models.Order{
		ID:            id,
		PaymentMethod: method,
		Currency:      "IDR",
		Status:        status,
		Billing:       models.Address{FirstName: "Siti", Country: "ID", Email: "siti@example.com"},
		Items: []models.OrderItem{
			{ProductID: "42", Name: "Batik Shirt", Quantity: 2, Subtotal: decimal.NewFromInt(100000)},
		},
		ShippingTotal: decimal.NewFromInt(31000),
		Metadata:      map[string]string{},
	}
}
