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
	"time"
)

// DrawDown is a single peak-to-recovery episode of a cumulative return series
type DrawDown struct {
	Begin       time.Time `json:"begin"`
	End         time.Time `json:"end"`
	Recovery    time.Time `json:"recovery"`
	LossPercent float64   `json:"lossPercent"`
}

// Cumulative compounds a return series: cum[t] = (1+cum[t-1]) * (1+r[t]) - 1. Undefined
// returns are treated as 0 at this stage only
func Cumulative(returns []float64) []float64 {
	cum := make([]float64, len(returns))
	growth := 1.0
	for idx, r := range returns {
		if !math.IsNaN(r) {
			growth *= 1.0 + r
		}
		cum[idx] = growth - 1.0
	}
	return cum
}

// Drawdown expresses each point of a cumulative return series as a loss from the running
// high-water mark, measured as a fraction of the compounded value at the peak:
// (cum[t] - peak[t]) / (1 + peak[t]). Values are always <= 0
func Drawdown(cumulative []float64) []float64 {
	dd := make([]float64, len(cumulative))
	peak := math.Inf(-1)
	for idx, cum := range cumulative {
		if cum > peak {
			peak = cum
		}
		if cum >= peak {
			dd[idx] = 0
			continue
		}
		dd[idx] = (cum - peak) / (1.0 + peak)
	}
	return dd
}

// MaxDrawdown is the deepest point of a drawdown series; NaN for an empty series
func MaxDrawdown(drawdown []float64) float64 {
	if len(drawdown) == 0 {
		return math.NaN()
	}

	worst := 0.0
	for _, dd := range drawdown {
		if dd < worst {
			worst = dd
		}
	}
	return worst
}

// DrawDowns splits a drawdown series into episodes. An episode begins at the last high-water
// mark, ends at its trough and recovers when the drawdown returns to zero; episodes that have not
// recovered have a zero Recovery
func DrawDowns(dates []time.Time, drawdown []float64) []*DrawDown {
	all := []*DrawDown{}

	var current *DrawDown
	for idx, dd := range drawdown {
		switch {
		case dd < 0 && current == nil:
			begin := dates[idx]
			if idx > 0 {
				begin = dates[idx-1]
			}
			current = &DrawDown{Begin: begin, End: dates[idx], LossPercent: dd}
		case dd < 0:
			if dd < current.LossPercent {
				current.LossPercent = dd
				current.End = dates[idx]
			}
		case current != nil:
			current.Recovery = dates[idx]
			all = append(all, current)
			current = nil
		}
	}

	if current != nil {
		all = append(all, current)
	}

	return all
}

// WorstDrawDown returns the episode with the largest loss or nil if there are none
func WorstDrawDown(dates []time.Time, drawdown []float64) *DrawDown {
	var worst *DrawDown
	for _, dd := range DrawDowns(dates, drawdown) {
		if worst == nil || dd.LossPercent < worst.LossPercent {
			worst = dd
		}
	}
	return worst
}
