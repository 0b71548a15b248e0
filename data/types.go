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

package data

import (
	"math"
	"sort"
	"time"

	"github.com/penny-vault/weekperf/dataframe"
)

const CashColumn = "CASH"

// WeightSnapshot is the point-in-time allocation observed during the week starting WeekStart.
// Weights need not sum to one and may be negative
type WeightSnapshot struct {
	WeekStart time.Time
	Weights   map[string]float64
	Cash      float64
}

// EffectiveWeek is the week whose return the snapshot's weights are applied to
func (s *WeightSnapshot) EffectiveWeek() time.Time {
	return s.WeekStart.AddDate(0, 0, 7)
}

// Weight returns the weight held in asset, or NaN if the snapshot does not mention it
func (s *WeightSnapshot) Weight(asset string) float64 {
	if w, ok := s.Weights[asset]; ok {
		return w
	}
	return math.NaN()
}

// WeightTable is a chronologically ordered list of weight snapshots for a fixed set of assets
type WeightTable struct {
	Assets    []string
	Snapshots []*WeightSnapshot

	// Dropped holds a *MalformedWeekIndexError for every row that was skipped while loading
	Dropped []error
}

// Sort orders the snapshots by week start; snapshots on the same week keep their load order
func (wt *WeightTable) Sort() {
	sort.SliceStable(wt.Snapshots, func(i, j int) bool {
		return wt.Snapshots[i].WeekStart.Before(wt.Snapshots[j].WeekStart)
	})
}

// DataFrame converts the table into a dataframe indexed by week start with one column per asset.
// When several snapshots share a week start the last one wins
func (wt *WeightTable) DataFrame() *dataframe.DataFrame {
	df := dataframe.New(wt.Assets...)
	for _, snap := range wt.Snapshots {
		vals := make([]float64, len(wt.Assets))
		for idx, asset := range wt.Assets {
			vals[idx] = snap.Weight(asset)
		}

		if last := df.Len() - 1; last >= 0 && df.Dates[last].Equal(snap.WeekStart) {
			for colIdx := range df.Vals {
				df.Vals[colIdx][last] = vals[colIdx]
			}
			continue
		}

		df.InsertRow(snap.WeekStart, vals...)
	}
	return df
}
