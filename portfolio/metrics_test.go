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

package portfolio_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/weekperf/portfolio"
	"github.com/penny-vault/weekperf/strategies"
)

var _ = Describe("Performance metrics", func() {
	Context("with a series of zeros over a year", func() {
		var (
			perf *portfolio.Performance
		)

		BeforeEach(func() {
			rs := &strategies.ReturnSeries{
				Name:    "Flat",
				Kind:    strategies.FixedWeightsKind,
				Dates:   weekDates(52),
				Returns: make([]float64, 52),
			}
			perf = portfolio.Evaluate(rs, nil, portfolio.DefaultOptions())
		})

		It("has no return", func() {
			Expect(perf.Metrics.CumulativeReturn).To(Equal(0.0))
			Expect(perf.Metrics.AnnualizedReturn).To(Equal(0.0))
		})

		It("has no volatility", func() {
			Expect(perf.Metrics.AnnualizedVolatility).To(Equal(0.0))
		})

		It("has an undefined sharpe ratio", func() {
			Expect(math.IsNaN(perf.Metrics.SharpeRatio)).To(BeTrue())
		})

		It("has no drawdown", func() {
			Expect(perf.Metrics.MaxDrawdown).To(Equal(0.0))
			Expect(perf.WorstDrawDown).To(BeNil())
		})

		It("has undefined alpha and beta without a benchmark", func() {
			Expect(math.IsNaN(perf.Metrics.Alpha)).To(BeTrue())
			Expect(math.IsNaN(perf.Metrics.Beta)).To(BeTrue())
		})
	})

	It("annualizes cumulative return by the number of periods", func() {
		Expect(portfolio.AnnualizedReturn(0.21, 104, 52)).To(BeNumerically("~", 0.10, 1e-12))
		Expect(portfolio.AnnualizedReturn(0.10, 52, 52)).To(BeNumerically("~", 0.10, 1e-12))
		Expect(math.IsNaN(portfolio.AnnualizedReturn(0.10, 0, 52))).To(BeTrue())
	})

	It("annualizes volatility from defined returns only", func() {
		vol := portfolio.AnnualizedVolatility([]float64{nan, 0.01, 0.03}, 52)
		Expect(vol).To(BeNumerically("~", math.Sqrt(0.0002)*math.Sqrt(52), 1e-12))
		Expect(math.IsNaN(portfolio.AnnualizedVolatility([]float64{nan, 0.01}, 52))).To(BeTrue())
	})

	It("computes the sharpe ratio net of the risk free rate", func() {
		Expect(portfolio.SharpeRatio(0.12, 0.2, 0.02)).To(BeNumerically("~", 0.5, 1e-12))
		Expect(math.IsNaN(portfolio.SharpeRatio(0.12, 0, 0))).To(BeTrue())
		Expect(math.IsNaN(portfolio.SharpeRatio(0.12, nan, 0))).To(BeTrue())
	})

	Context("regression", func() {
		It("recovers an exact linear relationship", func() {
			bench := []float64{0.01, -0.02, 0.03, 0.0}
			strat := make([]float64, len(bench))
			for idx, b := range bench {
				strat[idx] = 2*b + 0.001
			}

			alpha, beta := portfolio.Regression(strat, bench)
			Expect(beta).To(BeNumerically("~", 2, 1e-9))
			Expect(alpha).To(BeNumerically("~", 0.001, 1e-12))
			Expect(portfolio.AnnualizedAlpha(alpha, 52)).To(BeNumerically("~", math.Pow(1.001, 52)-1, 1e-9))
		})

		It("treats undefined returns as zero", func() {
			alpha, beta := portfolio.Regression([]float64{nan, 0.1, -0.1}, []float64{nan, 0.05, -0.05})
			Expect(beta).To(BeNumerically("~", 2, 1e-12))
			Expect(alpha).To(BeNumerically("~", 0, 1e-12))
		})

		It("is undefined with fewer than two observations", func() {
			alpha, beta := portfolio.Regression([]float64{0.1}, []float64{0.05})
			Expect(math.IsNaN(alpha)).To(BeTrue())
			Expect(math.IsNaN(beta)).To(BeTrue())
			Expect(math.IsNaN(portfolio.AnnualizedAlpha(alpha, 52))).To(BeTrue())
		})

		It("is undefined against a constant benchmark", func() {
			alpha, beta := portfolio.Regression([]float64{0.1, 0.2, 0.3}, []float64{0.01, 0.01, 0.01})
			Expect(math.IsNaN(alpha)).To(BeTrue())
			Expect(math.IsNaN(beta)).To(BeTrue())
		})
	})

	Context("the benchmark", func() {
		It("has alpha 0 and beta 1 by definition", func() {
			rs := &strategies.ReturnSeries{
				Name:    "NASDAQ 100",
				Kind:    strategies.BenchmarkKind,
				Dates:   weekDates(4),
				Returns: []float64{nan, 0.02, -0.01, 0.03},
			}
			perf := portfolio.Evaluate(rs, rs.Returns, portfolio.DefaultOptions())
			Expect(perf.Metrics.Alpha).To(Equal(0.0))
			Expect(perf.Metrics.Beta).To(Equal(1.0))
		})

		It("keeps the identity even when a regression would be degenerate", func() {
			rs := &strategies.ReturnSeries{
				Name:    "Flat Index",
				Kind:    strategies.BenchmarkKind,
				Dates:   weekDates(1),
				Returns: []float64{nan},
			}
			perf := portfolio.Evaluate(rs, rs.Returns, portfolio.DefaultOptions())
			Expect(perf.Metrics.Alpha).To(Equal(0.0))
			Expect(perf.Metrics.Beta).To(Equal(1.0))
		})
	})

	Context("correlation", func() {
		It("uses only pairs where both returns are defined", func() {
			Expect(portfolio.Correlation([]float64{nan, 0.1, -0.1, 0.2}, []float64{0.5, 0.05, -0.05, 0.1})).To(BeNumerically("~", 1, 1e-12))
		})

		It("is negative for opposing series", func() {
			Expect(portfolio.Correlation([]float64{0.1, -0.1, 0.2}, []float64{-0.1, 0.1, -0.2})).To(BeNumerically("~", -1, 1e-12))
		})

		It("is undefined for constant or short series", func() {
			Expect(math.IsNaN(portfolio.Correlation([]float64{0.1, 0.1}, []float64{0.2, 0.3}))).To(BeTrue())
			Expect(math.IsNaN(portfolio.Correlation([]float64{0.1}, []float64{0.2}))).To(BeTrue())
		})
	})
})
