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
	"time"

	"github.com/penny-vault/weekperf/dataframe"
	"github.com/rs/zerolog/log"
)

// Comparison holds the return series of several strategies restricted to the weeks they all share
type Comparison struct {
	Dates  []time.Time
	Series []*ReturnSeries
}

// Lookup returns the series with the given name or nil
func (c *Comparison) Lookup(name string) *ReturnSeries {
	for _, rs := range c.Series {
		if rs.Name == name {
			return rs
		}
	}
	return nil
}

// Benchmark returns the first benchmark series in the comparison or nil
func (c *Comparison) Benchmark() *ReturnSeries {
	for _, rs := range c.Series {
		if rs.Kind == BenchmarkKind {
			return rs
		}
	}
	return nil
}

// DataFrame returns the comparison as a dataframe with one column per strategy
func (c *Comparison) DataFrame() *dataframe.DataFrame {
	df := &dataframe.DataFrame{
		Dates:    c.Dates,
		ColNames: make([]string, len(c.Series)),
		Vals:     make([][]float64, len(c.Series)),
	}
	for idx, rs := range c.Series {
		df.ColNames[idx] = rs.Name
		df.Vals[idx] = rs.Returns
	}
	return df
}

// Compare computes every strategy from the shared inputs and inner-joins the results on week.
// Weeks missing from any series are excluded rather than padded
func Compare(in *Inputs, strats ...Strategy) (*Comparison, error) {
	if len(strats) == 0 {
		return nil, ErrNoStrategies
	}

	dfMap := make(dataframe.DataFrameMap, len(strats))
	order := make([]string, 0, len(strats))
	kinds := make(map[string]Kind, len(strats))

	for _, strat := range strats {
		name := strat.Name()
		if _, ok := dfMap[name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}

		rs, err := strat.ComputeReturns(in)
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", name, err)
		}

		log.Debug().Str("Strategy", name).Str("Kind", string(strat.Kind())).Int("NumWeeks", rs.Len()).Msg("computed return series")

		dfMap[name] = rs.DataFrame()
		order = append(order, name)
		kinds[name] = strat.Kind()
	}

	joined, err := dfMap.DataFrame(order...)
	if err != nil {
		return nil, err
	}

	if joined.Len() == 0 {
		log.Warn().Int("NumStrategies", len(strats)).Msg("strategies share no common weeks")
	}

	cmp := &Comparison{
		Dates:  joined.Dates,
		Series: make([]*ReturnSeries, len(order)),
	}

	for idx, name := range order {
		cmp.Series[idx] = &ReturnSeries{
			Name:    name,
			Kind:    kinds[name],
			Dates:   joined.Dates,
			Returns: joined.Vals[idx],
		}
	}

	return cmp, nil
}

// StandardOptions names the strategies returned by Standard
type StandardOptions struct {
	PortfolioName    string
	PrimaryAsset     string
	EqualWeightName  string
	SignalName       string
	BenchmarkName    string
	IncludeSignal    bool
	IncludeBenchmark bool
}

// Standard returns the portfolio plus its reference strategies in reporting order
func Standard(opts StandardOptions) []Strategy {
	strats := []Strategy{NewFixedWeights(opts.PortfolioName)}

	if opts.IncludeBenchmark {
		strats = append(strats, NewBenchmarkIndex(opts.BenchmarkName))
	}

	strats = append(strats,
		NewBuyHoldEqual(opts.EqualWeightName),
		NewBuyHoldSingle(fmt.Sprintf("B&H (100%% %s)", opts.PrimaryAsset), opts.PrimaryAsset),
	)

	if opts.IncludeSignal {
		strats = append(strats, NewSignalWeights(opts.SignalName))
	}

	return strats
}
