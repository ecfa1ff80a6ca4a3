package telemetry

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type Options struct {
	ServiceName  string
	OTLPEndpoint string
	// Stdout writes spans to StdoutWriter when no OTLP endpoint is set.
	Stdout       bool
	StdoutWriter io.Writer
	SampleRatio  float64
}

// Setup installs the global tracer provider. Tracing is opt-in: with neither
// an endpoint nor stdout output configured it returns a no-op shutdown.
func Setup(ctx context.Context, opts Options, logger *slog.Logger) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	var (
		exporter sdktrace.SpanExporter
		err      error
		target   string
	)
	switch {
	case opts.OTLPEndpoint != "":
		exporter, err = otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(opts.OTLPEndpoint))
		target = "otlp"
	case opts.Stdout:
		stdoutOpts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
		if opts.StdoutWriter != nil {
			stdoutOpts = append(stdoutOpts, stdouttrace.WithWriter(opts.StdoutWriter))
		}
		exporter, err = stdouttrace.New(stdoutOpts...)
		target = "stdout"
	default:
		return noop, nil
	}
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(opts.ServiceName)))
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(opts.SampleRatio)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if logger != nil {
		logger.Info("tracing enabled",
			"event", "telemetry_enabled",
			"module", "internal/platform/telemetry",
			"layer", "platform",
			"exporter", target,
			"sample_ratio", opts.SampleRatio,
		)
	}
	return tp.Shutdown, nil
}

func sampler(ratio float64) sdktrace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}
