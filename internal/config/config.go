package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port           string
	DatabaseURL    string
	RedisURL       string
	KafkaBrokers   string
	JaegerEndpoint string
	LogFile        string

	Midtrans MidtransConfig

	StoreCurrency      string
	SettlementCurrency string
	ToIDRRate          decimal.Decimal
	StoreBaseURL       string
	CallbackURL        string

	InternalJWTSecret string

	invalid []string
}

type MidtransConfig struct {
	Environment          string
	ServerKeySandbox     string
	ServerKeyProduction  string
	Timeout              time.Duration
	VerifySignature      bool
	EnableRedirect       bool
	Enable3DS            bool
	MinInstallmentAmount int64
	EnabledPayments      []string
	AcquiringBank        string
	BinNumbers           []string
	CustomFields         []string
	SettleCreditCard     bool
}

// ServerKey returns the key of the selected environment.
func (m MidtransConfig) ServerKey() string {
	if m.Environment == "production" {
		return m.ServerKeyProduction
	}
	return m.ServerKeySandbox
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real variables win.
func Load() *Config {
	_ = godotenv.Load()

	c := &Config{}

	c.Port = getenv("PORT", "8082")
	c.DatabaseURL = os.Getenv("DATABASE_URL")
	c.RedisURL = getenv("REDIS_URL", "localhost:6379")
	c.KafkaBrokers = getenv("KAFKA_BROKERS", "localhost:9092")
	c.JaegerEndpoint = getenv("JAEGER_ENDPOINT", "jaeger:4318")
	c.LogFile = os.Getenv("LOG_FILE")

	c.Midtrans = MidtransConfig{
		Environment:          strings.ToLower(getenv("MIDTRANS_ENVIRONMENT", "sandbox")),
		ServerKeySandbox:     os.Getenv("MIDTRANS_SERVER_KEY_SANDBOX"),
		ServerKeyProduction:  os.Getenv("MIDTRANS_SERVER_KEY_PRODUCTION"),
		Timeout:              c.duration("MIDTRANS_TIMEOUT", 30*time.Second),
		VerifySignature:      c.boolean("MIDTRANS_VERIFY_SIGNATURE", false),
		EnableRedirect:       c.boolean("MIDTRANS_ENABLE_REDIRECT", false),
		Enable3DS:            c.boolean("MIDTRANS_ENABLE_3DS", true),
		MinInstallmentAmount: c.integer("MIDTRANS_MIN_INSTALLMENT_AMOUNT", 500000),
		EnabledPayments:      splitList(os.Getenv("MIDTRANS_ENABLED_PAYMENTS")),
		AcquiringBank:        strings.TrimSpace(os.Getenv("MIDTRANS_ACQUIRING_BANK")),
		BinNumbers:           splitList(os.Getenv("MIDTRANS_BIN_NUMBERS")),
		CustomFields:         splitList(os.Getenv("MIDTRANS_CUSTOM_FIELDS")),
		SettleCreditCard:     c.boolean("MIDTRANS_SETTLE_CREDIT_CARD", false),
	}

	c.StoreCurrency = strings.ToUpper(getenv("STORE_CURRENCY", "IDR"))
	c.SettlementCurrency = strings.ToUpper(getenv("SETTLEMENT_CURRENCY", "IDR"))
	c.ToIDRRate = c.number("TO_IDR_RATE", decimal.NewFromInt(1))
	c.StoreBaseURL = strings.TrimRight(getenv("STORE_BASE_URL", "http://localhost:8080"), "/")
	c.CallbackURL = getenv("CALLBACK_URL", c.StoreBaseURL+"/midtrans/callback")

	c.InternalJWTSecret = os.Getenv("INTERNAL_JWT_SECRET")

	return c
}

// Validate checks presence and type of the settings the service cannot run without.
func (c *Config) Validate() error {
	var errs []error
	for _, name := range c.invalid {
		errs = append(errs, fmt.Errorf("%s has an invalid value", name))
	}

	switch c.Midtrans.Environment {
	case "sandbox", "production":
		if c.Midtrans.ServerKey() == "" {
			errs = append(errs, fmt.Errorf("MIDTRANS_SERVER_KEY_%s is required", strings.ToUpper(c.Midtrans.Environment)))
		}
	default:
		errs = append(errs, fmt.Errorf("MIDTRANS_ENVIRONMENT must be sandbox or production, got %q", c.Midtrans.Environment))
	}

	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.InternalJWTSecret == "" {
		errs = append(errs, errors.New("INTERNAL_JWT_SECRET is required"))
	}
	if !c.ToIDRRate.IsPositive() {
		errs = append(errs, errors.New("TO_IDR_RATE must be positive"))
	}
	if c.Midtrans.MinInstallmentAmount < 0 {
		errs = append(errs, errors.New("MIDTRANS_MIN_INSTALLMENT_AMOUNT must not be negative"))
	}
	if strings.ContainsAny(c.Midtrans.AcquiringBank, ", ") {
		errs = append(errs, errors.New("MIDTRANS_ACQUIRING_BANK accepts a single bank"))
	}

	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (c *Config) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		c.invalid = append(c.invalid, key)
		return fallback
	}
	return d
}

func (c *Config) boolean(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		c.invalid = append(c.invalid, key)
		return fallback
	}
	return b
}

func (c *Config) integer(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		c.invalid = append(c.invalid, key)
		return fallback
	}
	return n
}

func (c *Config) number(key string, fallback decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		c.invalid = append(c.invalid, key)
		return fallback
	}
	return d
}

// splitList splits a comma separated setting, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
