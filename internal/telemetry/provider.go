// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Exporter names accepted by Config.Exporter.
const (
	ExporterGRPC = "grpc"
	ExporterHTTP = "http"
)

const shutdownGrace = 5 * time.Second

var (
	ErrUnsupportedExporter = errors.New("unsupported trace exporter")
	ErrMissingEndpoint     = errors.New("trace endpoint is required")
	ErrSamplingRate        = errors.New("sampling rate must be within [0,1]")
)

type exporterFunc func(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error)

// Exporters dial the collector without TLS.
var exporters = map[string]exporterFunc{
	ExporterGRPC: func(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
		return otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
	},
	ExporterHTTP: func(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
		return otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	},
}

// SupportedExporter reports whether name selects a known OTLP exporter.
func SupportedExporter(name string) bool {
	_, ok := exporters[name]
	return ok
}

// Config describes the trace pipeline of one capturekit process.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	// Commit is the build revision; empty or "unknown" is omitted from the resource.
	Commit string
	// Backend names the recording backend, e.g. "ffmpeg".
	Backend      string
	Exporter     string
	Endpoint     string
	SamplingRate float64
}

// Validate returns the first setting NewProvider would reject. A disabled
// config is only checked for its sampling rate.
func (c Config) Validate() error {
	if c.SamplingRate < 0 || c.SamplingRate > 1 {
		return fmt.Errorf("%w: got %g", ErrSamplingRate, c.SamplingRate)
	}
	if !c.Enabled {
		return nil
	}
	if !SupportedExporter(c.Exporter) {
		return fmt.Errorf("%w: %q", ErrUnsupportedExporter, c.Exporter)
	}
	if c.Endpoint == "" {
		return ErrMissingEndpoint
	}
	return nil
}

// Sampler samples root spans at rate and otherwise follows the parent, so a
// recording started from a traced request stays in that trace.
func Sampler(rate float64) sdktrace.Sampler {
	var root sdktrace.Sampler
	switch {
	case rate >= 1:
		root = sdktrace.AlwaysSample()
	case rate <= 0:
		root = sdktrace.NeverSample()
	default:
		root = sdktrace.TraceIDRatioBased(rate)
	}
	return sdktrace.ParentBased(root)
}

func resourceAttributes(c Config) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.ServiceNameKey.String(c.ServiceName),
		semconv.ServiceVersionKey.String(c.ServiceVersion),
	}
	if c.Commit != "" && c.Commit != "unknown" {
		attrs = append(attrs, attribute.String(BuildCommitKey, c.Commit))
	}
	if c.Backend != "" {
		attrs = append(attrs, attribute.String(RecordingBackendKey, c.Backend))
	}
	return attrs
}

// Provider owns the process tracer provider. The zero value is a disabled provider.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// NewProvider validates cfg and installs the global tracer provider. A
// disabled config installs a noop provider.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return &Provider{}, nil
	}

	exp, err := exporters[cfg.Exporter](ctx, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%s trace exporter: %w", cfg.Exporter, err)
	}
	return install(ctx, cfg, sdktrace.WithBatcher(exp))
}

func install(ctx context.Context, cfg Config, pipeline sdktrace.TracerProviderOption) (*Provider, error) {
	res, err := resource.New(ctx, resource.WithAttributes(resourceAttributes(cfg)...))
	if err != nil {
		return nil, fmt.Errorf("trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		pipeline,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(Sampler(cfg.SamplingRate)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return &Provider{tp: tp}, nil
}

// Shutdown flushes pending spans, bounded by ctx and a fixed grace period.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()
	return p.tp.Shutdown(ctx)
}

// Tracer returns a tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
