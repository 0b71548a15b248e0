// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package opentelemetry wires an OTLP trace exporter into the global tracer provider.
package opentelemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/penny-vault/weekperf/common"
)

const (
	Name = "github.com/penny-vault/weekperf"
)

// Options selects the OTLP collector. An empty Endpoint disables export
type Options struct {
	Endpoint string
	HTTP     bool
	Headers  map[string]string
}

// Setup installs the tracer provider and returns its shutdown func
func Setup(ctx context.Context, opts Options) (func(context.Context) error, error) {
	if opts.Endpoint == "" {
		log.Debug().Msg("otlp endpoint not configured; tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(common.Program),
			semconv.ServiceVersionKey.String(common.CurrentVersion.String()),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	var client otlptrace.Client
	if opts.HTTP {
		log.Info().Str("Endpoint", opts.Endpoint).Msg("using HTTP(s) for OTLP connection")
		client = otlptracehttp.NewClient(
			otlptracehttp.WithEndpoint(opts.Endpoint),
			otlptracehttp.WithHeaders(opts.Headers),
		)
	} else {
		log.Info().Str("Endpoint", opts.Endpoint).Msg("using gRPC for OTLP connection")
		client = otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(opts.Endpoint),
			otlptracegrpc.WithHeaders(opts.Headers),
		)
	}

	traceExporter, err := otlptrace.New(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tracerProvider.Shutdown, nil
}

// RequestAttributes describes a market data request on a span
func RequestAttributes(function, symbol string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("Function", function),
		attribute.String("Symbol", symbol),
	}
}

// Fail records err on the span and marks it failed with msg
func Fail(span trace.Span, err error, msg string) {
	if err != nil {
		span.RecordError(err)
	}
	span.SetStatus(codes.Error, msg)
}
