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

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
)

const DefaultWindow = 4

// RollingVolatility computes the sample standard deviation (N-1 denominator) of each trailing
// window. The first window-1 points are NaN, as is any window with fewer than 2 defined returns.
// Invalid windows result in a series of all NaN
func RollingVolatility(returns []float64, window int) []float64 {
	return rolling(returns, window, func(vals []float64) float64 {
		return stat.StdDev(vals, nil)
	})
}

// RollingSharpe computes mean / sample standard deviation of each trailing window. Points where
// the deviation is zero or undefined are NaN
func RollingSharpe(returns []float64, window int) []float64 {
	return rolling(returns, window, func(vals []float64) float64 {
		mean, std := stat.MeanStdDev(vals, nil)
		if std == 0 || math.IsNaN(std) {
			return math.NaN()
		}
		return mean / std
	})
}

func rolling(returns []float64, window int, fn func([]float64) float64) []float64 {
	res := make([]float64, len(returns))
	for idx := range res {
		res[idx] = math.NaN()
	}

	if window <= 0 {
		log.Error().Int("Window", window).Msg("rolling window must be > 0")
		return res
	}

	vals := make([]float64, 0, window)
	for idx := window - 1; idx < len(returns); idx++ {
		vals = vals[:0]
		for _, r := range returns[idx-window+1 : idx+1] {
			if !math.IsNaN(r) {
				vals = append(vals, r)
			}
		}
		if len(vals) < 2 {
			continue
		}
		res[idx] = fn(vals)
	}

	return res
}
