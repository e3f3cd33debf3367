// Package telemetry provides fail-open OpenTelemetry instrumentation for
// the agent runtime. A disabled or unreachable collector never fails or
// slows request handling: spans fall back to the global no-op provider and
// export errors are swallowed.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/Strob0t/AgentLink/internal/config"
)

// ShutdownFunc flushes and shuts down the telemetry providers.
type ShutdownFunc func(ctx context.Context) error

func nopShutdown(context.Context) error { return nil }

// Setup initializes OTLP trace and metric providers over a single gRPC
// collector connection and installs them globally. When telemetry is
// disabled, or the exporters cannot be created, the global no-op providers
// stay in place and the error is only logged: telemetry must never take
// the agent down.
func Setup(ctx context.Context, cfg config.Telemetry, service, version string) ShutdownFunc {
	if !cfg.Enabled {
		return nopShutdown
	}

	shutdown, err := setup(ctx, cfg, service, version)
	if err != nil {
		slog.Warn("telemetry disabled: setup failed", "endpoint", cfg.Endpoint, "error", err)
		return nopShutdown
	}

	slog.Info("telemetry enabled", "endpoint", cfg.Endpoint)
	return shutdown
}

func setup(ctx context.Context, cfg config.Telemetry, service, version string) (ShutdownFunc, error) {
	creds := credentials.NewClientTLSFromCert(nil, "")
	if cfg.Insecure {
		creds = insecure.NewCredentials()
	}

	conn, err := grpc.NewClient(cfg.Endpoint, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("collector connection: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(service),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("resource: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)

	metricExporter, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
	)
	otel.SetMeterProvider(meterProvider)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return func(ctx context.Context) error {
		terr := tracerProvider.Shutdown(ctx)
		merr := meterProvider.Shutdown(ctx)
		cerr := conn.Close()
		if terr != nil {
			return terr
		}
		if merr != nil {
			return merr
		}
		return cerr
	}, nil
}
