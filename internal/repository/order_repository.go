package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/akylbek/payment-system/midtrans-gateway/internal/models"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) InitDB() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id VARCHAR(64) PRIMARY KEY,
			parent_id VARCHAR(64) NOT NULL DEFAULT '',
			payment_method VARCHAR(64) NOT NULL,
			status VARCHAR(20) NOT NULL,
			previous_status VARCHAR(20) NOT NULL DEFAULT '',
			payload JSONB NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,
		`CREATE TABLE IF NOT EXISTS order_meta (
			order_id VARCHAR(64) NOT NULL REFERENCES orders(id),
			meta_key VARCHAR(64) NOT NULL,
			meta_value TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (order_id, meta_key)
		)`,
		`CREATE TABLE IF NOT EXISTS order_notes (
			id BIGSERIAL PRIMARY KEY,
			order_id VARCHAR(64) NOT NULL REFERENCES orders(id),
			note TEXT NOT NULL,
			customer_note BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, query := range queries {
		if _, err := r.db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

// orderPayload is the part of the order snapshot kept as a JSON document.
type orderPayload struct {
	Currency               string             `json:"currency"`
	Total                  decimal.Decimal    `json:"total"`
	Billing                models.Address     `json:"billing"`
	Shipping               models.Address     `json:"shipping"`
	ShipToDifferentAddress bool               `json:"ship_to_different_address"`
	Items                  []models.OrderItem `json:"items"`
	ShippingTotal          decimal.Decimal    `json:"shipping_total"`
	TaxTotal               decimal.Decimal    `json:"tax_total"`
	DiscountTotal          decimal.Decimal    `json:"discount_total"`
	Fees                   []models.Fee       `json:"fees"`
}

// Upsert stores a snapshot pushed by the platform. The status of an existing
// order is owned by Transition and is left untouched.
func (r *OrderRepository) Upsert(ctx context.Context, order *models.Order) error {
	payload, err := json.Marshal(orderPayload{
		Currency:               order.Currency,
		Total:                  order.Total,
		Billing:                order.Billing,
		Shipping:               order.Shipping,
		ShipToDifferentAddress: order.ShipToDifferentAddress,
		Items:                  order.Items,
		ShippingTotal:          order.ShippingTotal,
		TaxTotal:               order.TaxTotal,
		DiscountTotal:          order.DiscountTotal,
		Fees:                   order.Fees,
	})
	if err != nil {
		return fmt.Errorf("encode order %s: %w", order.ID, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, parent_id, payment_method, status, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET parent_id = EXCLUDED.parent_id,
			payment_method = EXCLUDED.payment_method,
			payload = EXCLUDED.payload,
			updated_at = NOW()
	`, order.ID, order.ParentID, order.PaymentMethod, order.Status, payload)
	if err != nil {
		return fmt.Errorf("upsert order %s: %w", order.ID, err)
	}

	for key, value := range order.Metadata {
		if err := setMetadata(ctx, tx, order.ID, key, value); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *OrderRepository) Get(ctx context.Context, orderID string) (*models.Order, error) {
	order := models.Order{ID: orderID}
	var payload []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT parent_id, payment_method, status, previous_status, payload, created_at, updated_at
		FROM orders WHERE id = $1
	`, orderID).Scan(&order.ParentID, &order.PaymentMethod, &order.Status, &order.PreviousStatus,
		&payload, &order.CreatedAt, &order.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	var p orderPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode order %s: %w", orderID, err)
	}
	order.Currency = p.Currency
	order.Total = p.Total
	order.Billing = p.Billing
	order.Shipping = p.Shipping
	order.ShipToDifferentAddress = p.ShipToDifferentAddress
	order.Items = p.Items
	order.ShippingTotal = p.ShippingTotal
	order.TaxTotal = p.TaxTotal
	order.DiscountTotal = p.DiscountTotal
	order.Fees = p.Fees

	order.Metadata, err = r.metadata(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return &order, nil
}

// Transition is a compare-and-set on the statuses allowed to precede status,
// so concurrent writers can never move an order backwards.
func (r *OrderRepository) Transition(ctx context.Context, orderID string, status models.OrderStatus) (models.TransitionResult, error) {
	if !status.Valid() {
		return models.TransitionResult{}, fmt.Errorf("unknown order status %q", status)
	}
	from := make([]string, 0, len(status.AllowedFrom()))
	for _, s := range status.AllowedFrom() {
		from = append(from, string(s))
	}

	var previous models.OrderStatus
	err := r.db.QueryRowContext(ctx, `
		UPDATE orders
		SET status = $1, previous_status = status, updated_at = NOW()
		WHERE id = $2 AND status = ANY($3)
		RETURNING previous_status
	`, status, orderID, pq.Array(from)).Scan(&previous)
	if err == nil {
		return models.TransitionResult{Applied: true, Previous: previous, Current: status}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.TransitionResult{}, err
	}

	var current models.OrderStatus
	err = r.db.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1`, orderID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TransitionResult{}, models.ErrOrderNotFound
	}
	if err != nil {
		return models.TransitionResult{}, err
	}
	return models.TransitionResult{Previous: current, Current: current}, nil
}

func (r *OrderRepository) SetMetadata(ctx context.Context, orderID, key, value string) error {
	return setMetadata(ctx, r.db, orderID, key, value)
}

// GetMetadata returns an empty string for keys that were never set.
func (r *OrderRepository) GetMetadata(ctx context.Context, orderID, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT meta_value FROM order_meta WHERE order_id = $1 AND meta_key = $2`, orderID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (r *OrderRepository) AddNote(ctx context.Context, orderID, note string, customerNote bool) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO order_notes (order_id, note, customer_note) VALUES ($1, $2, $3)`, orderID, note, customerNote)
	return err
}

func (r *OrderRepository) metadata(ctx context.Context, orderID string) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT meta_key, meta_value FROM order_meta WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		meta[key] = value
	}
	return meta, rows.Err()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func setMetadata(ctx context.Context, db execer, orderID, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO order_meta (order_id, meta_key, meta_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (order_id, meta_key) DO UPDATE
		SET meta_value = EXCLUDED.meta_value, updated_at = NOW()
	`, orderID, key, value)
	if err != nil {
		return fmt.Errorf("set %s on order %s: %w", key, orderID, err)
	}
	return nil
}
