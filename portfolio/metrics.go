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
	"math"

	"gonum.org/v1/gonum/stat"
)

const DefaultPeriodsPerYear = 52

// Metrics summarizes the performance of one return series. NaN marks a value that could not be
// computed from the data available
type Metrics struct {
	CumulativeReturn     float64
	AnnualizedReturn     float64
	AnnualizedVolatility float64
	SharpeRatio          float64
	MaxDrawdown          float64
	Alpha                float64
	Beta                 float64
}

// AnnualizedReturn scales a cumulative return earned over n periods to a yearly rate:
// (1 + cum)^(periodsPerYear/n) - 1
func AnnualizedReturn(cumulative float64, n int, periodsPerYear float64) float64 {
	if n < 1 || math.IsNaN(cumulative) {
		return math.NaN()
	}
	return math.Pow(1.0+cumulative, periodsPerYear/float64(n)) - 1.0
}

// AnnualizedVolatility is the sample standard deviation of the defined returns scaled by
// sqrt(periodsPerYear). Fewer than 2 defined returns yield NaN
func AnnualizedVolatility(returns []float64, periodsPerYear float64) float64 {
	vals := defined(returns)
	if len(vals) < 2 {
		return math.NaN()
	}
	return stat.StdDev(vals, nil) * math.Sqrt(periodsPerYear)
}

// SharpeRatio = (annualized return - risk free rate) / annualized volatility. Zero or undefined
// volatility yields NaN
func SharpeRatio(annualizedReturn, annualizedVolatility, riskFreeRate float64) float64 {
	if annualizedVolatility == 0 || math.IsNaN(annualizedVolatility) {
		return math.NaN()
	}
	return (annualizedReturn - riskFreeRate) / annualizedVolatility
}

// Regression fits strategy = beta * benchmark + alpha by ordinary least squares. Undefined
// returns are treated as 0 for the fit. Fewer than 2 paired observations or a constant benchmark
// yield NaN for both values
func Regression(strategy, benchmark []float64) (alpha, beta float64) {
	n := len(strategy)
	if len(benchmark) < n {
		n = len(benchmark)
	}
	if n < 2 {
		return math.NaN(), math.NaN()
	}

	y := fillNaN(strategy[:n], 0)
	x := fillNaN(benchmark[:n], 0)

	if stat.Variance(x, nil) == 0 {
		return math.NaN(), math.NaN()
	}

	alpha, beta = stat.LinearRegression(x, y, nil, false)
	return alpha, beta
}

// AnnualizedAlpha compounds a per-period regression intercept to a yearly rate
func AnnualizedAlpha(periodAlpha, periodsPerYear float64) float64 {
	if math.IsNaN(periodAlpha) {
		return math.NaN()
	}
	return math.Pow(1.0+periodAlpha, periodsPerYear) - 1.0
}

// Correlation is the Pearson correlation of the pairs where both series are defined. Fewer than
// 2 pairs or a constant series yield NaN
func Correlation(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}

	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for idx := 0; idx < n; idx++ {
		if math.IsNaN(x[idx]) || math.IsNaN(y[idx]) {
			continue
		}
		xs = append(xs, x[idx])
		ys = append(ys, y[idx])
	}

	if len(xs) < 2 || stat.Variance(xs, nil) == 0 || stat.Variance(ys, nil) == 0 {
		return math.NaN()
	}

	return stat.Correlation(xs, ys, nil)
}

func defined(vals []float64) []float64 {
	res := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			res = append(res, v)
		}
	}
	return res
}

func fillNaN(vals []float64, fill float64) []float64 {
	res := make([]float64, len(vals))
	for idx, v := range vals {
		if math.IsNaN(v) {
			res[idx] = fill
		} else {
			res[idx] = v
		}
	}
	return res
}

func nan() float64 {
	return math.NaN()
}
