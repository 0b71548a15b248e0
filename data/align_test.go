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

package data_test

import (
	"math"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/weekperf/data"
	"github.com/penny-vault/weekperf/dataframe"
)

func monday(week int) time.Time {
	return data.DefaultEpoch.AddDate(0, 0, (week-1)*7)
}

var _ = Describe("Time alignment", func() {
	var (
		grid *dataframe.DataFrame
	)

	BeforeEach(func() {
		// daily prices for weeks 1-4, starting Tuesday of week 1
		prices := "date,NVDA,MSFT\n" +
			"2024-01-02,100,50\n2024-01-03,101,51\n" +
			"2024-01-08,110,52\n2024-01-10,111,53\n" +
			"2024-01-16,99,54\n" +
			"2024-01-22,99,55\n"
		daily, err := data.ReadPrices(strings.NewReader(prices), nil)
		Expect(err).NotTo(HaveOccurred())
		grid = data.WeeklyGrid(daily)
	})

	It("builds one row per calendar week", func() {
		Expect(grid.Dates).To(Equal([]time.Time{monday(1), monday(2), monday(3), monday(4)}))
		Expect(grid.Column("NVDA")).To(Equal([]float64{100, 110, 99, 99}))
	})

	It("joins snapshots on the following week", func() {
		csvData := "Week,NVDA,MSFT\n1,1,0\n2,0,1\n3,0.5,0.5\n"
		wt, err := data.ReadWeights(strings.NewReader(csvData), data.DefaultEpoch, nil)
		Expect(err).NotTo(HaveOccurred())

		align, err := data.Align(wt, grid)
		Expect(err).NotTo(HaveOccurred())
		Expect(align.Weeks).To(Equal([]time.Time{monday(2), monday(3), monday(4)}))

		// weights observed in week 1 govern week 2
		Expect(align.Weights.Column("NVDA")).To(Equal([]float64{1, 0, 0.5}))
		Expect(align.Prices.Column("NVDA")).To(Equal([]float64{110, 99, 99}))
		Expect(align.Excluded).To(BeEmpty())
	})

	It("never applies a snapshot to its own week", func() {
		csvData := "Week,NVDA,MSFT\n1,1,0\n2,0,1\n"
		wt, err := data.ReadWeights(strings.NewReader(csvData), data.DefaultEpoch, nil)
		Expect(err).NotTo(HaveOccurred())

		align, err := data.Align(wt, grid)
		Expect(err).NotTo(HaveOccurred())
		for idx, snap := range wt.Snapshots {
			Expect(align.Weeks[idx].After(snap.WeekStart)).To(BeTrue())
		}
	})

	It("excludes snapshots without a matching price week", func() {
		csvData := "Week,NVDA,MSFT\n1,1,0\n4,1,0\n9,1,0\n"
		wt, err := data.ReadWeights(strings.NewReader(csvData), data.DefaultEpoch, nil)
		Expect(err).NotTo(HaveOccurred())

		align, err := data.Align(wt, grid)
		Expect(err).NotTo(HaveOccurred())
		Expect(align.Weeks).To(Equal([]time.Time{monday(2)}))
		Expect(align.Excluded).To(Equal([]time.Time{monday(5), monday(10)}))
	})

	It("keeps the last snapshot when weeks repeat", func() {
		csvData := "Week,NVDA,MSFT\n1,1,0\n1,0.25,0.75\n"
		wt, err := data.ReadWeights(strings.NewReader(csvData), data.DefaultEpoch, nil)
		Expect(err).NotTo(HaveOccurred())

		align, err := data.Align(wt, grid)
		Expect(err).NotTo(HaveOccurred())
		Expect(align.Len()).To(Equal(1))
		Expect(align.Weights.Column("MSFT")).To(Equal([]float64{0.75}))
	})

	It("reports missing weights as NaN", func() {
		wt := &data.WeightTable{
			Assets: []string{"NVDA", "MSFT"},
			Snapshots: []*data.WeightSnapshot{
				{WeekStart: monday(1), Weights: map[string]float64{"NVDA": 1}},
			},
		}

		align, err := data.Align(wt, grid)
		Expect(err).NotTo(HaveOccurred())
		Expect(math.IsNaN(align.Weights.Column("MSFT")[0])).To(BeTrue())
	})

	It("fails when an asset has no prices", func() {
		wt := &data.WeightTable{Assets: []string{"AAPL"}}
		_, err := data.Align(wt, grid)
		Expect(err).To(MatchError(data.ErrMissingColumn))
	})

	It("returns an empty alignment when nothing overlaps", func() {
		wt := &data.WeightTable{
			Assets: []string{"NVDA"},
			Snapshots: []*data.WeightSnapshot{
				{WeekStart: monday(20), Weights: map[string]float64{"NVDA": 1}},
			},
		}

		align, err := data.Align(wt, grid)
		Expect(err).NotTo(HaveOccurred())
		Expect(align.Len()).To(Equal(0))
		Expect(align.Prices.Len()).To(Equal(0))
	})
})
