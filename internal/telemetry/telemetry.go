package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const DefaultServiceName = "midtrans-gateway"

// Logger and Tracer are replaced by InitTelemetry; until then they discard output.
var (
	Tracer      trace.Tracer = otel.Tracer(DefaultServiceName)
	Logger      *zap.Logger  = zap.NewNop()
	ServiceName string       = DefaultServiceName
)

type Options struct {
	ServiceName  string
	OTLPEndpoint string // host:port of the OTLP HTTP collector
	LogFile      string // optional; rotated by size
}

// InitTelemetry installs the global logger and tracer provider.
func InitTelemetry(opts Options) error {
	if opts.ServiceName == "" {
		opts.ServiceName = DefaultServiceName
	}
	ServiceName = opts.ServiceName

	logger, err := newLogger(opts.LogFile)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	Logger = logger.With(zap.String("service", opts.ServiceName))

	tp, err := newTracerProvider(context.Background(), opts.ServiceName, opts.OTLPEndpoint)
	if err != nil {
		return err
	}
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	Tracer = tp.Tracer(opts.ServiceName)

	Logger.Info("Telemetry initialized", zap.String("otlp_endpoint", opts.OTLPEndpoint))
	return nil
}

func newLogger(logFile string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if logFile == "" {
		return cfg.Build()
	}

	rotating := zapcore.NewCore(
		zapcore.NewJSONEncoder(cfg.EncoderConfig),
		zapcore.AddSync(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    50, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
		}),
		cfg.Level,
	)
	return cfg.Build(zap.WrapCore(func(stdout zapcore.Core) zapcore.Core {
		return zapcore.NewTee(stdout, rotating)
	}))
}

func newTracerProvider(ctx context.Context, serviceName, endpoint string) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String("1.0.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	), nil
}

// Shutdown flushes pending spans and log entries.
func Shutdown(ctx context.Context) error {
	if tp, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); ok {
		if err := tp.Shutdown(ctx); err != nil {
			return err
		}
	}
	return Logger.Sync()
}
