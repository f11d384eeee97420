// Package telemetry wires OpenTelemetry trace and log export over OTLP/HTTP.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

const (
	defaultServiceVersion = "1.0.0"
	defaultTimeout        = 5 * time.Second

	kubernetesCollector = "http://opentelemetry-collector.opentelemetry.svc.cluster.local:4318"
)

// Config holds the OpenTelemetry configuration.
type Config struct {
	ServiceName    string        `env:"OTEL_SERVICE_NAME"`
	ServiceVersion string        `env:"OTEL_SERVICE_VERSION"               envDefault:"1.0.0"`
	Environment    string        `env:"ENVIRONMENT"                        envDefault:"local"`
	Endpoint       string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Enabled        bool          `env:"OTEL_ENABLED"                       envDefault:"false"`
	ExportLogs     bool          `env:"OTEL_LOGS_ENABLED"                  envDefault:"false"`
	Timeout        time.Duration `env:"OTEL_EXPORTER_OTLP_TIMEOUT"         envDefault:"5s"`
}

// LoadConfigFromEnv loads OpenTelemetry configuration from environment variables.
// The service name defaults to serviceName. Inside Kubernetes the endpoint defaults to the
// cluster collector.
func LoadConfigFromEnv(serviceName string) (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse telemetry config: %w", err)
	}

	cfg.applyDefaults(serviceName)

	return cfg, nil
}

func (c *Config) applyDefaults(serviceName string) {
	if c.ServiceName == "" {
		c.ServiceName = serviceName
	}

	if c.ServiceVersion == "" {
		c.ServiceVersion = defaultServiceVersion
	}

	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}

	if c.Endpoint == "" && os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		c.Endpoint = kubernetesCollector
	}
}

// Provider owns the exporters created by Initialize.
// The zero value is a disabled provider.
type Provider struct {
	traces *sdktrace.TracerProvider
	logs   *sdklog.LoggerProvider
}

// Initialize sets up OpenTelemetry tracing, and log export when requested, with the given
// configuration. A disabled or endpoint-less config yields a disabled provider.
func Initialize(ctx context.Context, config Config) (*Provider, error) {
	if !config.Enabled {
		slog.Info("OpenTelemetry is disabled")

		return &Provider{}, nil
	}

	if config.Endpoint == "" {
		slog.Warn("OpenTelemetry endpoint not configured, telemetry will be disabled")

		return &Provider{}, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	traceExporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(config.Endpoint),
		otlptracehttp.WithTimeout(config.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	provider := &Provider{
		traces: sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
		),
	}

	otel.SetTracerProvider(provider.traces)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if config.ExportLogs {
		logExporter, err := otlploghttp.New(ctx,
			otlploghttp.WithEndpointURL(config.Endpoint),
			otlploghttp.WithTimeout(config.Timeout),
		)
		if err != nil {
			return nil, errors.Join(
				fmt.Errorf("failed to create OTLP log exporter: %w", err),
				provider.Shutdown(ctx))
		}

		provider.logs = sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
			sdklog.WithResource(res),
		)
	}

	slog.Info("OpenTelemetry initialized",
		"service", config.ServiceName,
		"version", config.ServiceVersion,
		"environment", config.Environment,
		"endpoint", config.Endpoint,
		"logs", config.ExportLogs,
	)

	return provider, nil
}

// Enabled reports whether spans are being exported.
func (p *Provider) Enabled() bool {
	return p != nil && p.traces != nil
}

// LogHandler returns a slog handler that forwards records to the OTLP log exporter, or nil
// when log export is off.
func (p *Provider) LogHandler(name string) slog.Handler {
	if p == nil || p.logs == nil {
		return nil
	}

	return otelslog.NewHandler(name, otelslog.WithLoggerProvider(p.logs))
}

// Shutdown flushes and stops every exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}

	var errs []error

	if p.logs != nil {
		errs = append(errs, p.logs.Shutdown(ctx))
	}

	if p.traces != nil {
		slog.Info("Shutting down OpenTelemetry tracer provider")

		errs = append(errs, p.traces.Shutdown(ctx))
	}

	return errors.Join(errs...)
}
