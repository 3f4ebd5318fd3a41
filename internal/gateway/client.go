package gateway

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/midtrans/midtrans-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/midtrans-gateway/internal/models"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/telemetry"
)

const DefaultTimeout = 30 * time.Second

const (
	opCreateTransaction = "create_transaction"
	opTransactionStatus = "transaction_status"
	opCharge            = "charge"
)

type endpoints struct {
	snap string
	api  string
}

var environments = map[midtrans.EnvironmentType]endpoints{
	midtrans.Sandbox:    {snap: "https://app.sandbox.midtrans.com", api: "https://api.sandbox.midtrans.com"},
	midtrans.Production: {snap: "https://app.midtrans.com", api: "https://api.midtrans.com"},
}

// Environment maps a configuration value onto a Midtrans environment.
// Anything other than "production" is the sandbox.
func Environment(name string) midtrans.EnvironmentType {
	if strings.EqualFold(strings.TrimSpace(name), "production") {
		return midtrans.Production
	}
	return midtrans.Sandbox
}

type Config struct {
	ServerKey   string
	Environment midtrans.EnvironmentType
	Timeout     time.Duration

	// Base URL overrides, used against test servers.
	SnapBaseURL string
	APIBaseURL  string
}

// Client talks to the Midtrans Snap and Core APIs. Calls are never retried.
type Client struct {
	http      *resty.Client
	serverKey string
	snapBase  string
	apiBase   string
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	urls, ok := environments[cfg.Environment]
	if !ok {
		urls = environments[midtrans.Sandbox]
	}
	if cfg.SnapBaseURL != "" {
		urls.snap = cfg.SnapBaseURL
	}
	if cfg.APIBaseURL != "" {
		urls.api = cfg.APIBaseURL
	}

	httpClient := resty.New().
		SetTimeout(timeout).
		SetBasicAuth(cfg.ServerKey, "").
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:      httpClient,
		serverKey: cfg.ServerKey,
		snapBase:  strings.TrimRight(urls.snap, "/"),
		apiBase:   strings.TrimRight(urls.api, "/"),
	}
}

// CreateTransaction requests a Snap token for req.
func (c *Client) CreateTransaction(ctx context.Context, req *models.PaymentRequest) (*models.SnapToken, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "midtrans.CreateTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("order_id", req.OrderID))

	var (
		out    models.SnapToken
		errOut snapErrorResponse
	)
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(newSnapRequest(req)).
		SetResult(&out).
		SetError(&errOut).
		Post(c.snapBase + "/snap/v1/transactions")
	c.observe(opCreateTransaction, start, err == nil && !resp.IsError())

	if err != nil {
		return nil, c.fail(span, &models.GatewayError{Op: opCreateTransaction, Message: "request failed", Err: err})
	}
	if resp.IsError() {
		return nil, c.fail(span, &models.GatewayError{
			Op:         opCreateTransaction,
			StatusCode: resp.StatusCode(),
			Message:    errOut.message(resp.String()),
		})
	}
	if out.Token == "" {
		return nil, c.fail(span, &models.GatewayError{
			Op:         opCreateTransaction,
			StatusCode: resp.StatusCode(),
			Message:    "response carries no token",
		})
	}

	return &out, nil
}

// GetTransactionStatus fetches the canonical status of orderID.
func (c *Client) GetTransactionStatus(ctx context.Context, orderID string) (*models.TransactionStatus, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "midtrans.GetTransactionStatus")
	defer span.End()
	span.SetAttributes(attribute.String("order_id", orderID))

	var out models.TransactionStatus
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetPathParam("orderID", orderID).
		Get(c.apiBase + "/v2/{orderID}/status")
	c.observe(opTransactionStatus, start, err == nil && !resp.IsError())

	if err != nil {
		return nil, c.fail(span, &models.GatewayError{Op: opTransactionStatus, Message: "request failed", Err: err})
	}
	if resp.IsError() {
		return nil, c.fail(span, &models.GatewayError{
			Op:         opTransactionStatus,
			StatusCode: resp.StatusCode(),
			Message:    resp.String(),
		})
	}
	// Expired transactions come back as status_code 407 with a transaction_status;
	// only a body without one is a failure.
	if out.TransactionStatus == "" {
		code := bodyStatus(out.StatusCode)
		msg := out.StatusMessage
		if code < 300 {
			code, msg = resp.StatusCode(), "response carries no transaction_status"
		}
		return nil, c.fail(span, &models.GatewayError{Op: opTransactionStatus, StatusCode: code, Message: msg})
	}

	return &out, nil
}

// CreateRecurringTransaction charges a saved card through the Core API.
func (c *Client) CreateRecurringTransaction(ctx context.Context, req *models.PaymentRequest) (*models.ChargeResult, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "midtrans.CreateRecurringTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("order_id", req.OrderID))

	var out models.ChargeResult
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(newChargeRequest(req)).
		SetResult(&out).
		Post(c.apiBase + "/v2/charge")
	c.observe(opCharge, start, err == nil && !resp.IsError())

	if err != nil {
		return nil, c.fail(span, &models.GatewayError{Op: opCharge, Message: "request failed", Err: err})
	}
	if resp.IsError() {
		return nil, c.fail(span, &models.GatewayError{Op: opCharge, StatusCode: resp.StatusCode(), Message: resp.String()})
	}
	if code := bodyStatus(out.StatusCode); code >= 300 {
		return nil, c.fail(span, &models.GatewayError{Op: opCharge, StatusCode: code, Message: out.StatusMessage})
	}

	return &out, nil
}

// VerifySignature checks the signature_key Midtrans attaches to notifications:
// hex SHA-512 of order_id + status_code + gross_amount + server key.
func (c *Client) VerifySignature(n models.Notification) bool {
	hash := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + c.serverKey))
	return hex.EncodeToString(hash[:]) == n.SignatureKey
}

func (c *Client) observe(op string, start time.Time, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	telemetry.GatewayRequests.WithLabelValues(op, result).Inc()
	telemetry.GatewayDuration.WithLabelValues(op).Observe(float64(time.Since(start).Milliseconds()))
}

func (c *Client) fail(span trace.Span, err *models.GatewayError) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Message)
	telemetry.Logger.Warn("Midtrans call failed",
		zap.String("op", err.Op),
		zap.Int("status_code", err.StatusCode),
		zap.String("message", err.Message),
		zap.Error(err.Err),
	)
	return err
}

// bodyStatus parses the status_code Midtrans embeds in Core API bodies; 0 when absent.
func bodyStatus(s string) int {
	code, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return code
}

type snapErrorResponse struct {
	ErrorMessages []string `json:"error_messages"`
}

func (e snapErrorResponse) message(fallback string) string {
	if len(e.ErrorMessages) == 0 {
		return fallback
	}
	return strings.Join(e.ErrorMessages, "; ")
}
