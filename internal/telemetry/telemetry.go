// Copyright (c) 2026 dotandev
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package telemetry wires optional OpenTelemetry tracing for executions and
// calibration runs. Spans are pure diagnostics; nothing read from them ever
// feeds back into charging.
package telemetry

import (
	"context"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const tracerName = "soromet"

// Config holds OpenTelemetry configuration.
type Config struct {
	Enabled     bool
	ExporterURL string
	ServiceName string
}

// ConfigFromEnv reads SOROMET_OTEL_ENDPOINT; tracing is enabled only when
// the endpoint is set.
func ConfigFromEnv() Config {
	endpoint := os.Getenv("SOROMET_OTEL_ENDPOINT")
	return Config{
		Enabled:     endpoint != "",
		ExporterURL: endpoint,
		ServiceName: tracerName,
	}
}

// Init installs a global tracer provider exporting to the configured OTLP
// HTTP endpoint. An unreachable collector is not an error; spans are
// batched and dropped silently. The returned function flushes and shuts
// the provider down.
func Init(ctx context.Context, config Config) (func(), error) {
	if !config.Enabled {
		return func() {}, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(config.ExporterURL),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String("dev"),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
	}, nil
}

// GetTracer returns the process-wide tracer, a no-op one when Init was
// never called.
func GetTracer() oteltrace.Tracer {
	return otel.Tracer(tracerName)
}
