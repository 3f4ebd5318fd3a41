package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akylbek/payment-system/midtrans-gateway/internal/models"
)

func newMockRepo(t *testing.T) (*OrderRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewOrderRepository(db), mock
}

func TestTransition_Applied(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE orders`)).
		WithArgs("processing", "1001", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"previous_status"}).AddRow("pending"))

	res, err := repo.Transition(context.Background(), "1001", models.StatusProcessing)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, models.StatusPending, res.Previous)
	assert.Equal(t, models.StatusProcessing, res.Current)
}

func TestTransition_AlreadyThere(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE orders`)).
		WithArgs("processing", "1001", sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM orders WHERE id = $1`)).
		WithArgs("1001").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("processing"))

	res, err := repo.Transition(context.Background(), "1001", models.StatusProcessing)
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.False(t, res.Rejected(models.StatusProcessing))
}

func TestTransition_BackwardsRejected(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE orders`)).
		WithArgs("on-hold", "1001", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"previous_status"}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM orders WHERE id = $1`)).
		WithArgs("1001").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("processing"))

	res, err := repo.Transition(context.Background(), "1001", models.StatusOnHold)
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.True(t, res.Rejected(models.StatusOnHold))
	assert.Equal(t, models.StatusProcessing, res.Current)
}

func TestTransition_UnknownOrder(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE orders`)).
		WillReturnRows(sqlmock.NewRows([]string{"previous_status"}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM orders`)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	_, err := repo.Transition(context.Background(), "nope", models.StatusFailed)
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
}

func TestTransition_UnknownStatus(t *testing.T) {
	repo, _ := newMockRepo(t)

	_, err := repo.Transition(context.Background(), "1001", models.OrderStatus("completed"))
	assert.ErrorContains(t, err, "unknown order status")
}

func TestGet(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()
	payload := `{"currency":"IDR","total":"231000","billing":{"first_name":"Siti","country":"ID"},` +
		`"items":[{"product_id":"42","name":"Batik Shirt","quantity":2,"subtotal":"100000"}],"shipping_total":"31000"}`

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT parent_id, payment_method, status`)).
		WithArgs("1001").
		WillReturnRows(sqlmock.NewRows([]string{"parent_id", "payment_method", "status", "previous_status", "payload", "created_at", "updated_at"}).
			AddRow("", "midtrans", "pending", "", []byte(payload), now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT meta_key, meta_value FROM order_meta`)).
		WithArgs("1001").
		WillReturnRows(sqlmock.NewRows([]string{"meta_key", "meta_value"}).AddRow(models.MetaSnapToken, "snap-token"))

	order, err := repo.Get(context.Background(), "1001")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, "midtrans", order.PaymentMethod)
	assert.Equal(t, "Siti", order.Billing.FirstName)
	require.Len(t, order.Items, 1)
	assert.True(t, decimal.NewFromInt(100000).Equal(order.Items[0].Subtotal))
	assert.True(t, decimal.NewFromInt(31000).Equal(order.ShippingTotal))
	assert.Equal(t, "snap-token", order.Metadata[models.MetaSnapToken])
}

func TestGet_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT parent_id`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
}

func TestUpsert_KeepsStatusAndWritesMetadata(t *testing.T) {
	repo, mock := newMockRepo(t)
	order := &models.Order{
		ID:            "1001",
		PaymentMethod: "midtrans_subscription",
		Currency:      "IDR",
		Status:        models.StatusPending,
		Metadata:      map[string]string{models.MetaSubscriptionToken: "tok"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (id) DO UPDATE`)).
		WithArgs("1001", "", "midtrans_subscription", "pending", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_meta`)).
		WithArgs("1001", models.MetaSubscriptionToken, "tok").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Upsert(context.Background(), order))
}

func TestMetadataAndNotes(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_meta`)).
		WithArgs("1001", models.MetaPaymentURL, "https://app.sandbox.midtrans.com/snap/v2/vtweb/x").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT meta_value FROM order_meta`)).
		WithArgs("1001", models.MetaSubscriptionToken).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_notes`)).
		WithArgs("1001", "Midtrans subscription payment failed.", false).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.SetMetadata(ctx, "1001", models.MetaPaymentURL, "https://app.sandbox.midtrans.com/snap/v2/vtweb/x"))

	value, err := repo.GetMetadata(ctx, "1001", models.MetaSubscriptionToken)
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, repo.AddNote(ctx, "1001", "Midtrans subscription payment failed.", false))
}
