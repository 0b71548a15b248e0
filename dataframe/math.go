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

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FFill replaces NaN values with the last non-NaN value seen in the same column and returns
// a new dataframe. Leading NaN values are left untouched
func (df *DataFrame) FFill() *DataFrame {
	df = df.Copy()
	for _, col := range df.Vals {
		last := math.NaN()
		for rowIdx, val := range col {
			if math.IsNaN(val) {
				col[rowIdx] = last
			} else {
				last = val
			}
		}
	}
	return df
}

// FillNA replaces all NaN values with val and returns a new dataframe
func (df *DataFrame) FillNA(val float64) *DataFrame {
	df = df.Copy()
	for _, col := range df.Vals {
		for rowIdx := range col {
			if math.IsNaN(col[rowIdx]) {
				col[rowIdx] = val
			}
		}
	}
	return df
}

// Mul multiplies all columns in dataframe df by the corresponding column in dataframe other and returns a new dataframe.
// Columns that are not present in other are left unchanged. Panics if rows are not equal.
func (df *DataFrame) Mul(other *DataFrame) *DataFrame {
	df = df.Copy()

	otherMap := make(map[string]int, len(other.ColNames))
	for idx, val := range other.ColNames {
		otherMap[val] = idx
	}

	for idx, colName := range df.ColNames {
		if otherIdx, ok := otherMap[colName]; ok {
			floats.Mul(df.Vals[idx], other.Vals[otherIdx])
		}
	}
	return df
}

// PctChange computes the simple period-over-period return of each column and returns a new dataframe.
// The first row is NaN; a missing or zero prior value yields NaN
func (df *DataFrame) PctChange() *DataFrame {
	res := &DataFrame{
		Dates:    df.Dates,
		ColNames: df.ColNames,
		Vals:     make([][]float64, len(df.Vals)),
	}

	for colIdx, col := range df.Vals {
		out := make([]float64, len(col))
		for rowIdx := range col {
			if rowIdx == 0 {
				out[rowIdx] = math.NaN()
				continue
			}
			prev := col[rowIdx-1]
			if prev == 0 || math.IsNaN(prev) || math.IsNaN(col[rowIdx]) {
				out[rowIdx] = math.NaN()
				continue
			}
			out[rowIdx] = col[rowIdx]/prev - 1
		}
		res.Vals[colIdx] = out
	}

	return res
}

// RowMean computes the mean of each row across all columns and stores it in a new dataframe with the column name 'mean'.
// A NaN anywhere in the row makes the row's mean NaN
func (df *DataFrame) RowMean() *DataFrame {
	res := &DataFrame{
		ColNames: []string{"mean"},
		Dates:    df.Dates,
		Vals:     [][]float64{make([]float64, len(df.Dates))},
	}

	for rowIdx := range df.Dates {
		if len(df.ColNames) == 0 {
			res.Vals[0][rowIdx] = math.NaN()
			continue
		}
		res.Vals[0][rowIdx] = stat.Mean(df.row(rowIdx), nil)
	}

	return res
}

// RowSum computes the sum of each row across all columns and stores it in a new dataframe with the column name 'sum'.
// A NaN anywhere in the row makes the row's sum NaN
func (df *DataFrame) RowSum() *DataFrame {
	res := &DataFrame{
		ColNames: []string{"sum"},
		Dates:    df.Dates,
		Vals:     [][]float64{make([]float64, len(df.Dates))},
	}

	for rowIdx := range df.Dates {
		res.Vals[0][rowIdx] = floats.Sum(df.row(rowIdx))
	}

	return res
}

func (df *DataFrame) row(rowIdx int) []float64 {
	row := make([]float64, len(df.ColNames))
	for colIdx := range df.ColNames {
		row[colIdx] = df.Vals[colIdx][rowIdx]
	}
	return row
}
