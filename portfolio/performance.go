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

package portfolio

import (
	"time"

	"github.com/penny-vault/weekperf/strategies"
	"github.com/rs/zerolog/log"
)

// Options controls the analytics applied to a comparison
type Options struct {
	Window         int
	PeriodsPerYear float64
	RiskFreeRate   float64
}

// DefaultOptions uses a 4 week rolling window, 52 periods per year and no risk free return
func DefaultOptions() Options {
	return Options{
		Window:         DefaultWindow,
		PeriodsPerYear: DefaultPeriodsPerYear,
		RiskFreeRate:   0,
	}
}

// Performance is the derived analytics of one strategy over the comparison weeks
type Performance struct {
	Name              string
	Kind              strategies.Kind
	Dates             []time.Time
	Returns           []float64
	Cumulative        []float64
	Drawdown          []float64
	RollingVolatility []float64
	RollingSharpe     []float64
	WorstDrawDown     *DrawDown
	Metrics           Metrics
}

// RegressionLine is the least squares fit of portfolio returns on benchmark returns
type RegressionLine struct {
	Slope     float64
	Intercept float64
}

// Report holds the analytics of every strategy in a comparison
type Report struct {
	Dates       []time.Time
	Strategies  []*Performance
	Correlation float64
	Regression  RegressionLine
	Options     Options
}

// Lookup returns the performance of the named strategy or nil
func (r *Report) Lookup(name string) *Performance {
	for _, perf := range r.Strategies {
		if perf.Name == name {
			return perf
		}
	}
	return nil
}

// Analyze derives cumulative return, drawdown, rolling statistics and performance metrics for
// every strategy in the comparison. Alpha and beta are measured against the comparison's benchmark;
// the benchmark itself has alpha 0 and beta 1. Correlation and the regression line relate the first
// fixed weight strategy to the benchmark
func Analyze(cmp *strategies.Comparison, opts Options) *Report {
	if opts.Window == 0 {
		opts.Window = DefaultWindow
	}
	if opts.PeriodsPerYear == 0 {
		opts.PeriodsPerYear = DefaultPeriodsPerYear
	}

	report := &Report{
		Dates:      cmp.Dates,
		Strategies: make([]*Performance, 0, len(cmp.Series)),
		Options:    opts,
	}

	var benchReturns []float64
	if bench := cmp.Benchmark(); bench != nil {
		benchReturns = bench.Returns
	} else {
		log.Warn().Msg("comparison has no benchmark; alpha and beta are undefined")
	}

	for _, rs := range cmp.Series {
		perf := Evaluate(rs, benchReturns, opts)
		report.Strategies = append(report.Strategies, perf)
	}

	report.Correlation = nan()
	report.Regression = RegressionLine{Slope: nan(), Intercept: nan()}
	if benchReturns != nil {
		for _, rs := range cmp.Series {
			if rs.Kind == strategies.FixedWeightsKind {
				report.Correlation = Correlation(rs.Returns, benchReturns)
				intercept, slope := Regression(rs.Returns, benchReturns)
				report.Regression = RegressionLine{Slope: slope, Intercept: intercept}
				break
			}
		}
	}

	return report
}

// Evaluate computes the analytics of a single return series. benchmark may be nil, in which
// case alpha and beta are NaN unless rs is itself a benchmark
func Evaluate(rs *strategies.ReturnSeries, benchmark []float64, opts Options) *Performance {
	perf := &Performance{
		Name:              rs.Name,
		Kind:              rs.Kind,
		Dates:             rs.Dates,
		Returns:           rs.Returns,
		Cumulative:        Cumulative(rs.Returns),
		RollingVolatility: RollingVolatility(rs.Returns, opts.Window),
		RollingSharpe:     RollingSharpe(rs.Returns, opts.Window),
	}
	perf.Drawdown = Drawdown(perf.Cumulative)
	perf.WorstDrawDown = WorstDrawDown(perf.Dates, perf.Drawdown)

	m := Metrics{
		CumulativeReturn: nan(),
		MaxDrawdown:      MaxDrawdown(perf.Drawdown),
	}

	n := len(rs.Returns)
	if n > 0 {
		m.CumulativeReturn = perf.Cumulative[n-1]
	}
	m.AnnualizedReturn = AnnualizedReturn(m.CumulativeReturn, n, opts.PeriodsPerYear)
	m.AnnualizedVolatility = AnnualizedVolatility(rs.Returns, opts.PeriodsPerYear)
	m.SharpeRatio = SharpeRatio(m.AnnualizedReturn, m.AnnualizedVolatility, opts.RiskFreeRate)

	switch {
	case rs.Kind == strategies.BenchmarkKind:
		m.Alpha = 0
		m.Beta = 1
	case benchmark != nil:
		alpha, beta := Regression(rs.Returns, benchmark)
		m.Alpha = AnnualizedAlpha(alpha, opts.PeriodsPerYear)
		m.Beta = beta
	default:
		m.Alpha = nan()
		m.Beta = nan()
	}

	perf.Metrics = m

	log.Debug().Str("Strategy", rs.Name).Float64("CumulativeReturn", m.CumulativeReturn).Float64("SharpeRatio", m.SharpeRatio).Msg("evaluated strategy")

	return perf
}
