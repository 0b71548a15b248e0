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

package strategies_test

import (
	"math"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/weekperf/data"
	"github.com/penny-vault/weekperf/dataframe"
	"github.com/penny-vault/weekperf/strategies"
)

func weeks(n ...int) []time.Time {
	res := make([]time.Time, len(n))
	for idx, w := range n {
		res[idx] = data.DefaultEpoch.AddDate(0, 0, (w-1)*7)
	}
	return res
}

func mustWeights(csvData string) *data.WeightTable {
	wt, err := data.ReadWeights(strings.NewReader(csvData), data.DefaultEpoch, []string{"NVDA", "MSFT"})
	Expect(err).NotTo(HaveOccurred())
	return wt
}

func mustPrices(csvData string) *dataframe.DataFrame {
	df, err := data.ReadPrices(strings.NewReader(csvData), nil)
	Expect(err).NotTo(HaveOccurred())
	return df
}

func expectReturns(actual []float64, expected ...float64) {
	Expect(actual).To(HaveLen(len(expected)))
	for idx, val := range expected {
		if math.IsNaN(val) {
			Expect(math.IsNaN(actual[idx])).To(BeTrue(), "index %d should be NaN", idx)
		} else {
			Expect(actual[idx]).To(BeNumerically("~", val, 1e-12), "index %d", idx)
		}
	}
}

var nan = math.NaN()

var _ = Describe("Strategies", func() {
	var (
		prices    *dataframe.DataFrame
		benchmark *dataframe.DataFrame
	)

	BeforeEach(func() {
		prices = mustPrices("date,NVDA,MSFT\n" +
			"2024-01-01,100,50\n" +
			"2024-01-08,110,50\n" +
			"2024-01-15,121,50\n" +
			"2024-01-22,108.9,50\n" +
			"2024-01-29,108.9,50\n")
		benchmark = mustPrices("date,benchmark_close\n" +
			"2024-01-02,1000\n" +
			"2024-01-09,1010\n" +
			"2024-01-16,1010\n" +
			"2024-01-23,1111\n" +
			"2024-01-30,1111\n")
	})

	Context("with a constant single asset portfolio", func() {
		It("matches buy and hold on the primary asset", func() {
			prices = mustPrices("date,NVDA,MSFT\n2024-01-08,100,50\n2024-01-15,110,50\n2024-01-22,99,50\n")
			wt := mustWeights("Week,NVDA,MSFT,AAPL,CASH\n1,1,0,0,0\n2,1,0,0,0\n3,1,0,0,0\n")

			in, err := strategies.NewInputs(wt, prices, nil, nil)
			Expect(err).NotTo(HaveOccurred())

			portfolio, err := strategies.NewFixedWeights("Portfolio").ComputeReturns(in)
			Expect(err).NotTo(HaveOccurred())
			single, err := strategies.NewBuyHoldSingle("B&H NVDA", "NVDA").ComputeReturns(in)
			Expect(err).NotTo(HaveOccurred())

			expectReturns(portfolio.Returns, nan, 0.10, -0.10)
			expectReturns(single.Returns, nan, 0.10, -0.10)
			Expect(portfolio.Dates).To(Equal(weeks(2, 3, 4)))
		})
	})

	Context("with a weight change", func() {
		var (
			in *strategies.Inputs
		)

		BeforeEach(func() {
			wt := mustWeights("Week,NVDA,MSFT\n1,1,0\n2,1,0\n3,0,1\n4,0,1\n")
			var err error
			in, err = strategies.NewInputs(wt, prices, benchmark, nil)
			Expect(err).NotTo(HaveOccurred())
		})

		It("only affects returns from the following week", func() {
			rs, err := strategies.NewFixedWeights("Portfolio").ComputeReturns(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(rs.Dates).To(Equal(weeks(2, 3, 4, 5)))

			// the week 3 snapshot moves to MSFT; week 3 still earns NVDA's 10%
			expectReturns(rs.Returns, nan, 0.10, 0, 0)
		})

		It("computes equal weight returns on the weekly grid", func() {
			rs, err := strategies.NewBuyHoldEqual("Equal").ComputeReturns(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(rs.Dates).To(Equal(weeks(2, 3, 4, 5)))

			// week 2 is measured from the grid's week 1 even though week 1 is not aligned
			expectReturns(rs.Returns, 0.05, 0.05, -0.05, 0)
		})

		It("computes the benchmark on its own weekly grid", func() {
			rs, err := strategies.NewBenchmarkIndex("NASDAQ 100").ComputeReturns(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(rs.Dates).To(Equal(weeks(1, 2, 3, 4, 5)))
			expectReturns(rs.Returns, nan, 0.01, 0, 0.1, 0)
		})

		It("fails when the primary asset is unknown", func() {
			_, err := strategies.NewBuyHoldSingle("B&H AAPL", "AAPL").ComputeReturns(in)
			Expect(err).To(MatchError(strategies.ErrUnknownAsset))
		})

		It("fails when no signal weights are supplied", func() {
			_, err := strategies.NewSignalWeights("Signal").ComputeReturns(in)
			Expect(err).To(MatchError(strategies.ErrNoSignal))
		})
	})

	Context("with external signal weights", func() {
		It("forward fills and shifts the signal one week on the price grid", func() {
			wt := mustWeights("Week,NVDA,MSFT\n1,1,0\n2,1,0\n3,1,0\n4,1,0\n")
			signal := mustWeights("Week,NVDA,MSFT\n1,1,0\n3,0,1\n")

			in, err := strategies.NewInputs(wt, prices, nil, signal)
			Expect(err).NotTo(HaveOccurred())

			rs, err := strategies.NewSignalWeights("Signal").ComputeReturns(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(rs.Dates).To(Equal(weeks(2, 3, 4, 5)))

			// the week 1 signal earns weeks 2 and 3; the week 3 signal first earns week 4
			expectReturns(rs.Returns, 0.10, 0.10, 0, 0)
		})

		It("holds nothing before the first signal", func() {
			wt := mustWeights("Week,NVDA,MSFT\n1,1,0\n2,1,0\n3,1,0\n4,1,0\n")
			signal := mustWeights("Week,NVDA,MSFT\n3,1,0\n")

			in, err := strategies.NewInputs(wt, prices, nil, signal)
			Expect(err).NotTo(HaveOccurred())

			rs, err := strategies.NewSignalWeights("Signal").ComputeReturns(in)
			Expect(err).NotTo(HaveOccurred())
			expectReturns(rs.Returns, 0, 0, -0.10, 0)
		})
	})

	Context("with weight snapshots that skip weeks", func() {
		var (
			in *strategies.Inputs
		)

		BeforeEach(func() {
			// snapshots for weeks 1 and 3 take effect in weeks 2 and 4
			wt := mustWeights("Week,NVDA,MSFT\n1,1,0\n3,1,0\n")
			signal := mustWeights("Week,NVDA,MSFT\n1,1,0\n")
			var err error
			in, err = strategies.NewInputs(wt, prices, nil, signal)
			Expect(err).NotTo(HaveOccurred())
			Expect(in.Alignment.Weeks).To(Equal(weeks(2, 4)))
		})

		It("measures buy and hold over single grid weeks", func() {
			rs, err := strategies.NewBuyHoldSingle("B&H NVDA", "NVDA").ComputeReturns(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(rs.Dates).To(Equal(weeks(2, 4)))

			// 110/100-1 and 108.9/121-1, not the two week 108.9/110-1
			expectReturns(rs.Returns, 0.10, -0.10)
		})

		It("measures equal weight over single grid weeks", func() {
			rs, err := strategies.NewBuyHoldEqual("Equal").ComputeReturns(in)
			Expect(err).NotTo(HaveOccurred())
			expectReturns(rs.Returns, 0.05, -0.05)
		})

		It("applies the signal to single grid week returns", func() {
			rs, err := strategies.NewSignalWeights("Signal").ComputeReturns(in)
			Expect(err).NotTo(HaveOccurred())
			expectReturns(rs.Returns, 0.10, -0.10)
		})

		It("keeps the portfolio on consecutive aligned weeks", func() {
			rs, err := strategies.NewFixedWeights("Portfolio").ComputeReturns(in)
			Expect(err).NotTo(HaveOccurred())
			expectReturns(rs.Returns, nan, 108.9/110.0-1)
		})
	})

	Context("comparing strategies", func() {
		var (
			in *strategies.Inputs
		)

		BeforeEach(func() {
			wt := mustWeights("Week,NVDA,MSFT\n1,1,0\n2,1,0\n3,0,1\n4,0,1\n")
			signal := mustWeights("Week,NVDA,MSFT\n1,0.5,0.5\n")
			var err error
			in, err = strategies.NewInputs(wt, prices, benchmark, signal)
			Expect(err).NotTo(HaveOccurred())
		})

		It("shares one weekly index across every strategy", func() {
			strats := strategies.Standard(strategies.StandardOptions{
				PortfolioName:    "Portfolio",
				PrimaryAsset:     "NVDA",
				EqualWeightName:  "B&H (Equal Weight)",
				SignalName:       "MACD Daily",
				BenchmarkName:    "NASDAQ 100",
				IncludeSignal:    true,
				IncludeBenchmark: true,
			})

			cmp, err := strategies.Compare(in, strats...)
			Expect(err).NotTo(HaveOccurred())
			Expect(cmp.Dates).To(Equal(weeks(2, 3, 4, 5)))
			Expect(cmp.Series).To(HaveLen(5))

			names := make([]string, 0, len(cmp.Series))
			for _, rs := range cmp.Series {
				Expect(rs.Dates).To(Equal(cmp.Dates))
				names = append(names, rs.Name)
			}
			Expect(names).To(Equal([]string{"Portfolio", "NASDAQ 100", "B&H (Equal Weight)", "B&H (100% NVDA)", "MACD Daily"}))

			// benchmark week 1 is dropped by the inner join
			expectReturns(cmp.Benchmark().Returns, 0.01, 0, 0.1, 0)
			Expect(cmp.Lookup("Portfolio").Kind).To(Equal(strategies.FixedWeightsKind))
			Expect(cmp.Lookup("missing")).To(BeNil())
			Expect(cmp.DataFrame().ColNames).To(Equal(names))
		})

		It("rejects duplicate strategy names", func() {
			_, err := strategies.Compare(in, strategies.NewFixedWeights("A"), strategies.NewBuyHoldEqual("A"))
			Expect(err).To(MatchError(strategies.ErrDuplicateName))
		})

		It("requires at least one strategy", func() {
			_, err := strategies.Compare(in)
			Expect(err).To(MatchError(strategies.ErrNoStrategies))
		})

		It("returns an empty comparison when weeks do not overlap", func() {
			late := mustPrices("date,benchmark_close\n2025-01-06,1\n2025-01-13,2\n")
			wt := mustWeights("Week,NVDA,MSFT\n1,1,0\n2,1,0\n")
			in2, err := strategies.NewInputs(wt, prices, late, nil)
			Expect(err).NotTo(HaveOccurred())

			cmp, err := strategies.Compare(in2, strategies.NewFixedWeights("Portfolio"), strategies.NewBenchmarkIndex("Bench"))
			Expect(err).NotTo(HaveOccurred())
			Expect(cmp.Dates).To(BeEmpty())
			Expect(cmp.Series[0].Returns).To(BeEmpty())
		})
	})

	It("rejects a benchmark with several columns", func() {
		wt := mustWeights("Week,NVDA,MSFT\n1,1,0\n")
		_, err := strategies.NewInputs(wt, prices, prices, nil)
		Expect(err).To(MatchError(strategies.ErrNoBenchmark))
	})
})
