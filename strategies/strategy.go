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

// Package strategies computes weekly return series for competing allocation rules over one
// shared alignment of weights and prices.
package strategies

import (
	"time"

	"github.com/penny-vault/weekperf/dataframe"
)

// Kind identifies the family a strategy belongs to
type Kind string

const (
	FixedWeightsKind  Kind = "fixed-weights"
	BuyHoldSingleKind Kind = "buy-hold-single"
	BuyHoldEqualKind  Kind = "buy-hold-equal"
	SignalWeightsKind Kind = "signal-weights"
	BenchmarkKind     Kind = "benchmark"
)

// Strategy produces a weekly return series from the shared inputs
type Strategy interface {
	Name() string
	Kind() Kind
	ComputeReturns(in *Inputs) (*ReturnSeries, error)
}

// ReturnSeries is the chronologically ordered weekly simple return of one strategy. Undefined
// returns (e.g. the first week) are NaN
type ReturnSeries struct {
	Name    string
	Kind    Kind
	Dates   []time.Time
	Returns []float64
}

// Len returns the number of weeks in the series
func (rs *ReturnSeries) Len() int {
	return len(rs.Dates)
}

// DataFrame returns the series as a single column dataframe named after the strategy
func (rs *ReturnSeries) DataFrame() *dataframe.DataFrame {
	return &dataframe.DataFrame{
		Dates:    rs.Dates,
		ColNames: []string{rs.Name},
		Vals:     [][]float64{rs.Returns},
	}
}

func newReturnSeries(s Strategy, df *dataframe.DataFrame) *ReturnSeries {
	return &ReturnSeries{
		Name:    s.Name(),
		Kind:    s.Kind(),
		Dates:   df.Dates,
		Returns: df.Vals[0],
	}
}
