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

package strategies

import (
	"fmt"

	"github.com/penny-vault/weekperf/data"
	"github.com/penny-vault/weekperf/dataframe"
	"github.com/rs/zerolog/log"
)

// Inputs holds the tables every strategy computes from. It is built once by NewInputs so
// that all strategies see the same alignment of weights and prices
type Inputs struct {
	Assets []string

	// Alignment is the join of portfolio weights with the weekly price grid
	Alignment *data.Alignment

	// Grid is the full weekly price grid of the assets
	Grid *dataframe.DataFrame

	// AlignedReturns is the simple return of each asset between consecutive aligned weeks. Only
	// the portfolio's own weights are applied to it
	AlignedReturns *dataframe.DataFrame

	// GridReturns is the simple return of each asset between consecutive weeks of the full grid
	GridReturns *dataframe.DataFrame

	// Benchmark is the weekly benchmark grid (a single column); may be nil
	Benchmark *dataframe.DataFrame

	// Signal is an externally supplied weight table keyed by week start; may be nil
	Signal *data.WeightTable
}

// NewInputs builds the weekly grids and the shared weight/price alignment. prices holds daily
// closes with one column per asset in weights; benchmark, when not nil, holds the daily benchmark
// close in its only column
func NewInputs(weights *data.WeightTable, prices, benchmark *dataframe.DataFrame, signal *data.WeightTable) (*Inputs, error) {
	grid := data.WeeklyGrid(prices)

	align, err := data.Align(weights, grid)
	if err != nil {
		return nil, err
	}

	alignedPrices, err := align.Prices.Select(weights.Assets...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, err)
	}

	gridPrices, err := grid.Select(weights.Assets...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, err)
	}

	in := &Inputs{
		Assets:         weights.Assets,
		Alignment:      align,
		Grid:           grid,
		AlignedReturns: alignedPrices.PctChange(),
		GridReturns:    gridPrices.PctChange(),
		Signal:         signal,
	}

	if benchmark != nil {
		if benchmark.ColCount() != 1 {
			return nil, fmt.Errorf("%w: benchmark must have exactly one column, found %d", ErrNoBenchmark, benchmark.ColCount())
		}
		in.Benchmark = data.WeeklyGrid(benchmark)
	}

	log.Debug().Int("NumWeeks", grid.Len()).Int("NumAligned", align.Len()).Int("NumExcluded", len(align.Excluded)).Msg("prepared strategy inputs")

	return in, nil
}

// WeeklyReturns is GridReturns restricted to the aligned weeks. Each row is the return from the
// preceding grid week, whether or not that week had a weight snapshot
func (in *Inputs) WeeklyReturns() *dataframe.DataFrame {
	return in.GridReturns.Reindex(in.Alignment.Weeks)
}
