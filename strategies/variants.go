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
)

// FixedWeights applies the portfolio's own weight snapshots, already lagged one week by the
// alignment, to each week's asset returns
type FixedWeights struct {
	name string
}

func NewFixedWeights(name string) *FixedWeights {
	return &FixedWeights{name: name}
}

func (s *FixedWeights) Name() string { return s.name }
func (s *FixedWeights) Kind() Kind   { return FixedWeightsKind }

// ComputeReturns returns Σ weight[asset] * return[asset] for every aligned week, with returns
// measured between consecutive aligned weeks
func (s *FixedWeights) ComputeReturns(in *Inputs) (*ReturnSeries, error) {
	weighted := in.AlignedReturns.Mul(in.Alignment.Weights)
	return newReturnSeries(s, weighted.RowSum()), nil
}

// BuyHoldSingle holds 100% of one asset; its returns come from the full weekly grid
type BuyHoldSingle struct {
	name  string
	asset string
}

func NewBuyHoldSingle(name, asset string) *BuyHoldSingle {
	return &BuyHoldSingle{name: name, asset: asset}
}

func (s *BuyHoldSingle) Name() string { return s.name }
func (s *BuyHoldSingle) Kind() Kind   { return BuyHoldSingleKind }

func (s *BuyHoldSingle) ComputeReturns(in *Inputs) (*ReturnSeries, error) {
	returns, err := in.WeeklyReturns().Select(s.asset)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, s.asset)
	}
	return newReturnSeries(s, returns), nil
}

// BuyHoldEqual holds every asset in equal proportion, rebalanced weekly
type BuyHoldEqual struct {
	name string
}

func NewBuyHoldEqual(name string) *BuyHoldEqual {
	return &BuyHoldEqual{name: name}
}

func (s *BuyHoldEqual) Name() string { return s.name }
func (s *BuyHoldEqual) Kind() Kind   { return BuyHoldEqualKind }

func (s *BuyHoldEqual) ComputeReturns(in *Inputs) (*ReturnSeries, error) {
	return newReturnSeries(s, in.WeeklyReturns().RowMean()), nil
}

// SignalWeights applies an external weight table keyed directly to the price grid. Weights are
// forward filled over the full grid and shifted one week before use; weeks before the first
// signal hold nothing
type SignalWeights struct {
	name string
}

func NewSignalWeights(name string) *SignalWeights {
	return &SignalWeights{name: name}
}

func (s *SignalWeights) Name() string { return s.name }
func (s *SignalWeights) Kind() Kind   { return SignalWeightsKind }

func (s *SignalWeights) ComputeReturns(in *Inputs) (*ReturnSeries, error) {
	if in.Signal == nil {
		return nil, ErrNoSignal
	}

	signal, err := in.Signal.DataFrame().Select(in.Assets...)
	if err != nil {
		return nil, fmt.Errorf("%w: signal weights: %s", ErrUnknownAsset, err)
	}

	onGrid := signal.Reindex(in.Grid.Dates).FFill().Lag(1).FillNA(0)
	applied := onGrid.Reindex(in.Alignment.Weeks)

	weighted := in.WeeklyReturns().Mul(applied)
	return newReturnSeries(s, weighted.RowSum()), nil
}

// BenchmarkIndex is the simple return of the benchmark on its own weekly grid
type BenchmarkIndex struct {
	name string
}

func NewBenchmarkIndex(name string) *BenchmarkIndex {
	return &BenchmarkIndex{name: name}
}

func (s *BenchmarkIndex) Name() string { return s.name }
func (s *BenchmarkIndex) Kind() Kind   { return BenchmarkKind }

func (s *BenchmarkIndex) ComputeReturns(in *Inputs) (*ReturnSeries, error) {
	if in.Benchmark == nil {
		return nil, ErrNoBenchmark
	}
	return newReturnSeries(s, in.Benchmark.PctChange()), nil
}
