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

package dataframe_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/weekperf/dataframe"
)

var _ = Describe("When computing with dataframes", func() {
	var (
		df    *dataframe.DataFrame
		dates []time.Time
	)

	BeforeEach(func() {
		dates = []time.Time{day(2024, 1, 1), day(2024, 1, 8), day(2024, 1, 15), day(2024, 1, 22)}
		df = &dataframe.DataFrame{
			Dates:    dates,
			ColNames: []string{"NVDA", "MSFT"},
			Vals: [][]float64{
				{100, 110, 99, 99},
				{50, 0, 10, math.NaN()},
			},
		}
	})

	Context("pct change", func() {
		It("is NaN for the first row", func() {
			res := df.PctChange()
			Expect(math.IsNaN(res.Vals[0][0])).To(BeTrue())
			Expect(math.IsNaN(res.Vals[1][0])).To(BeTrue())
		})

		It("computes simple returns", func() {
			res := df.PctChange()
			Expect(res.Vals[0][1]).To(BeNumerically("~", 0.10, 1e-12))
			Expect(res.Vals[0][2]).To(BeNumerically("~", -0.10, 1e-12))
			Expect(res.Vals[0][3]).To(Equal(0.0))
		})

		It("is NaN when the prior value is zero or missing", func() {
			res := df.PctChange()
			Expect(res.Vals[1][1]).To(Equal(-1.0))
			Expect(math.IsNaN(res.Vals[1][2])).To(BeTrue())
			Expect(math.IsNaN(res.Vals[1][3])).To(BeTrue())
		})

		It("does not modify the source", func() {
			df.PctChange()
			Expect(df.Vals[0]).To(Equal([]float64{100, 110, 99, 99}))
		})
	})

	Context("filling", func() {
		It("forward fills gaps but leaves leading NaN", func() {
			gappy := &dataframe.DataFrame{
				Dates:    dates,
				ColNames: []string{"NVDA"},
				Vals:     [][]float64{{math.NaN(), 0.5, math.NaN(), -0.25}},
			}
			res := gappy.FFill()
			Expect(math.IsNaN(res.Vals[0][0])).To(BeTrue())
			Expect(res.Vals[0][1:]).To(Equal([]float64{0.5, 0.5, -0.25}))
			Expect(math.IsNaN(gappy.Vals[0][2])).To(BeTrue())
		})

		It("replaces NaN with a value", func() {
			res := df.FillNA(0)
			Expect(res.Vals[1]).To(Equal([]float64{50, 0, 10, 0}))
		})
	})

	Context("row reductions", func() {
		It("sums rows and propagates NaN", func() {
			res := df.RowSum()
			Expect(res.ColNames).To(Equal([]string{"sum"}))
			Expect(res.Vals[0][:3]).To(Equal([]float64{150, 110, 109}))
			Expect(math.IsNaN(res.Vals[0][3])).To(BeTrue())
		})

		It("averages rows and propagates NaN", func() {
			res := df.RowMean()
			Expect(res.Vals[0][:3]).To(Equal([]float64{75, 55, 54.5}))
			Expect(math.IsNaN(res.Vals[0][3])).To(BeTrue())
		})
	})

	Context("multiplication", func() {
		It("multiplies matching columns", func() {
			weights := &dataframe.DataFrame{
				Dates:    dates,
				ColNames: []string{"MSFT", "NVDA"},
				Vals: [][]float64{
					{1, 1, 1, 1},
					{0.5, 0.5, 2, 0},
				},
			}
			res := df.Mul(weights)
			Expect(res.Vals[0]).To(Equal([]float64{50, 55, 198, 0}))
			Expect(res.Vals[1][:3]).To(Equal([]float64{50, 0, 10}))
		})
	})
})
