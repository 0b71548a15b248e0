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

package marketdata

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/penny-vault/weekperf/dataframe"
)

// VolatilityLookback is the number of daily closes used for the weekly volatility estimate
const VolatilityLookback = 20

// Volatility is the weekly volatility estimate of one ticker
type Volatility struct {
	Ticker           string
	WeeklyVolatility float64
}

// WeeklyVolatility is the sample standard deviation of the daily simple returns of the last
// VolatilityLookback closes on or before weekEnd, scaled by sqrt(5). NaN when fewer than two
// returns are available
func WeeklyVolatility(df *dataframe.DataFrame, weekEnd time.Time) float64 {
	if df == nil || df.ColIndex(CloseColumn) < 0 {
		return math.NaN()
	}

	window := df.Trim(time.Time{}, weekEnd).Tail(VolatilityLookback)
	closes, err := window.Select(CloseColumn)
	if err != nil {
		return math.NaN()
	}

	pct := closes.PctChange()
	returns := make([]float64, 0, pct.Len())
	for _, r := range pct.Vals[0] {
		if !math.IsNaN(r) {
			returns = append(returns, r)
		}
	}

	if len(returns) < 2 {
		return math.NaN()
	}

	return stat.StdDev(returns, nil) * math.Sqrt(5)
}
