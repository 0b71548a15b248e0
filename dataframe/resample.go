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

package dataframe

import (
	"math"
	"time"
)

// WeekKey returns the Monday that starts the calendar week containing t, at midnight in t's location
func WeekKey(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
}

// WeeklyFirst groups rows by calendar week (see WeekKey) and keeps the first non-NaN
// observation of each column in each week. The resulting dataframe is indexed by week key
// and has exactly one row per week present in df. df must be sorted by date
func (df *DataFrame) WeeklyFirst() *DataFrame {
	res := &DataFrame{
		Dates:    make([]time.Time, 0, df.Len()/5+1),
		ColNames: df.ColNames,
		Vals:     make([][]float64, len(df.ColNames)),
	}

	for colIdx := range res.Vals {
		res.Vals[colIdx] = make([]float64, 0, df.Len()/5+1)
	}

	for rowIdx, date := range df.Dates {
		key := WeekKey(date)
		last := len(res.Dates) - 1
		if last < 0 || !res.Dates[last].Equal(key) {
			res.Dates = append(res.Dates, key)
			for colIdx := range res.Vals {
				res.Vals[colIdx] = append(res.Vals[colIdx], df.Vals[colIdx][rowIdx])
			}
			continue
		}

		for colIdx := range res.Vals {
			if math.IsNaN(res.Vals[colIdx][last]) {
				res.Vals[colIdx][last] = df.Vals[colIdx][rowIdx]
			}
		}
	}

	return res
}
