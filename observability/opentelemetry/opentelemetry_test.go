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

package opentelemetry_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/penny-vault/weekperf/observability/opentelemetry"
)

var _ = Describe("Tracing", func() {
	It("is a no-op without an endpoint", func() {
		shutdown, err := opentelemetry.Setup(context.Background(), opentelemetry.Options{})
		Expect(err).To(BeNil())
		Expect(shutdown(context.Background())).To(Succeed())
	})

	It("marks failed spans", func() {
		rec := tracetest.NewSpanRecorder()
		provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

		_, span := provider.Tracer(opentelemetry.Name).Start(context.Background(), "alphavantage.query")
		span.SetAttributes(opentelemetry.RequestAttributes("RSI", "NVDA")...)
		opentelemetry.Fail(span, errors.New("boom"), "request failed")
		span.End()

		ended := rec.Ended()
		Expect(ended).To(HaveLen(1))
		Expect(ended[0].Status().Code).To(Equal(codes.Error))
		Expect(ended[0].Status().Description).To(Equal("request failed"))
		Expect(ended[0].Events()).To(HaveLen(1))
		Expect(ended[0].Attributes()).To(HaveLen(2))
	})
})
