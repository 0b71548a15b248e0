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
	"fmt"
	"math"
	"time"
)

// InnerJoin returns a new dataframe holding the rows whose date is present in both df and other.
// Row order follows df; columns of df come first followed by the columns of other. Column names
// must be unique across both dataframes
func (df *DataFrame) InnerJoin(other *DataFrame) (*DataFrame, error) {
	for _, colName := range other.ColNames {
		if df.ColIndex(colName) != -1 {
			return nil, fmt.Errorf("%w: duplicate column %s", ErrDateIndexNotAligned, colName)
		}
	}

	otherRows := other.dateIndex()

	res := &DataFrame{
		Dates:    make([]time.Time, 0, df.Len()),
		ColNames: append(append(make([]string, 0, df.ColCount()+other.ColCount()), df.ColNames...), other.ColNames...),
		Vals:     make([][]float64, df.ColCount()+other.ColCount()),
	}

	for rowIdx, date := range df.Dates {
		otherIdx, ok := otherRows[date.Unix()]
		if !ok {
			continue
		}
		res.Dates = append(res.Dates, date)
		for colIdx, col := range df.Vals {
			res.Vals[colIdx] = append(res.Vals[colIdx], col[rowIdx])
		}
		for colIdx, col := range other.Vals {
			res.Vals[df.ColCount()+colIdx] = append(res.Vals[df.ColCount()+colIdx], col[otherIdx])
		}
	}

	for colIdx := range res.Vals {
		if res.Vals[colIdx] == nil {
			res.Vals[colIdx] = []float64{}
		}
	}

	return res, nil
}

// Reindex conforms df to the given dates: rows present in df are copied and dates missing
// from df are filled with NaN
func (df *DataFrame) Reindex(dates []time.Time) *DataFrame {
	rows := df.dateIndex()

	res := &DataFrame{
		Dates:    make([]time.Time, len(dates)),
		ColNames: df.ColNames,
		Vals:     make([][]float64, len(df.Vals)),
	}
	copy(res.Dates, dates)

	for colIdx, col := range df.Vals {
		out := make([]float64, len(dates))
		for idx, date := range dates {
			if rowIdx, ok := rows[date.Unix()]; ok {
				out[idx] = col[rowIdx]
			} else {
				out[idx] = math.NaN()
			}
		}
		res.Vals[colIdx] = out
	}

	return res
}

// dateIndex maps each date to its row; when a date repeats the last row wins
func (df *DataFrame) dateIndex() map[int64]int {
	rows := make(map[int64]int, len(df.Dates))
	for idx, date := range df.Dates {
		rows[date.Unix()] = idx
	}
	return rows
}
