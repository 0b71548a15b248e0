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
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
)

// New creates an empty dataframe with the given columns
func New(colNames ...string) *DataFrame {
	df := &DataFrame{
		Dates:    []time.Time{},
		ColNames: make([]string, len(colNames)),
		Vals:     make([][]float64, len(colNames)),
	}

	copy(df.ColNames, colNames)
	for idx := range df.Vals {
		df.Vals[idx] = []float64{}
	}

	return df
}

// Column returns the values of the named column or nil if the column does not exist
func (df *DataFrame) Column(colName string) []float64 {
	colIdx := df.ColIndex(colName)
	if colIdx == -1 {
		return nil
	}
	return df.Vals[colIdx]
}

// Get index of specified column; returns -1 if column doesn't exist
func (df *DataFrame) ColIndex(colName string) int {
	for idx, val := range df.ColNames {
		if colName == val {
			return idx
		}
	}

	return -1
}

// ColCount returns the number of columns in the dataframe
func (df *DataFrame) ColCount() int {
	return len(df.ColNames)
}

// Copy creates a copy of the dataframe
func (df *DataFrame) Copy() *DataFrame {
	df2 := &DataFrame{
		ColNames: make([]string, len(df.ColNames)),
		Dates:    make([]time.Time, len(df.Dates)),
		Vals:     make([][]float64, len(df.Vals)),
	}

	copy(df2.ColNames, df.ColNames)
	copy(df2.Dates, df.Dates)

	for idx := range df2.Vals {
		df2.Vals[idx] = make([]float64, len(df.Vals[idx]))
		copy(df2.Vals[idx], df.Vals[idx])
	}

	return df2
}

// End returns the last time in the DataFrame
func (df *DataFrame) End() time.Time {
	if len(df.Dates) == 0 {
		return time.Time{}
	}
	return df.Dates[len(df.Dates)-1]
}

// Insert a new column to the end of the dataframe. Panics if the column length does not
// match the date index
func (df *DataFrame) Insert(name string, col []float64) *DataFrame {
	if len(col) != len(df.Dates) {
		log.Panic().Str("Column", name).Int("ColLen", len(col)).Int("NumRows", len(df.Dates)).Msg("column length must equal number of rows")
	}
	df.ColNames = append(df.ColNames, name)
	df.Vals = append(df.Vals, col)
	return df
}

// InsertRow adds a new row to the dataframe. Date must be after the last date in the dataframe and vals must equal the number
// of columns. If either of these conditions are not met then panic
func (df *DataFrame) InsertRow(date time.Time, vals ...float64) *DataFrame {
	// Check that the last date in the dataframe is prior to the new date
	if len(df.Dates) != 0 {
		last := df.Dates[len(df.Dates)-1]
		if !last.Before(date) {
			log.Panic().Time("lastDate", last).Time("newDate", date).Msg("newDate must be after lastDate")
		}
	}

	// Check that the number of columns equals the number of vals passed
	if len(vals) != len(df.ColNames) {
		log.Panic().Int("NumValsPassed", len(vals)).Int("NumColumns", len(df.ColNames)).Msg("number of vals passed must equal number of columns")
	}

	df.Dates = append(df.Dates, date)
	for colIdx := range df.ColNames {
		df.Vals[colIdx] = append(df.Vals[colIdx], vals[colIdx])
	}

	return df
}

// Lag shifts the dataframe by the specified number of rows, replacing shifted values by math.NaN() and returns a new dataframe
func (df *DataFrame) Lag(n int) *DataFrame {
	df = df.Copy()
	prepend := make([]float64, n)
	for idx := range prepend {
		prepend[idx] = math.NaN()
	}

	for idx := range df.Vals {
		l := len(df.Vals[idx])
		df.Vals[idx] = append(prepend, df.Vals[idx]...)[:l] //nolint:makezero
	}
	return df
}

// Len returns the number of rows in the dataframe
func (df *DataFrame) Len() int {
	return len(df.Dates)
}

// Select returns a dataframe with only the requested columns, in the requested order. The
// returned dataframe shares storage with df
func (df *DataFrame) Select(columns ...string) (*DataFrame, error) {
	res := &DataFrame{
		Dates:    df.Dates,
		ColNames: make([]string, 0, len(columns)),
		Vals:     make([][]float64, 0, len(columns)),
	}

	for _, col := range columns {
		colIdx := df.ColIndex(col)
		if colIdx == -1 {
			return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, col)
		}
		res.ColNames = append(res.ColNames, col)
		res.Vals = append(res.Vals, df.Vals[colIdx])
	}

	return res, nil
}

// Start returns the first date of the dataframe
func (df *DataFrame) Start() time.Time {
	if len(df.Dates) == 0 {
		return time.Time{}
	}
	return df.Dates[0]
}

// Table renders an ASCII formatted table
func (df *DataFrame) Table() string {
	if len(df.Dates) == 0 {
		return "<NO DATA>" // nothing to do as there is no data available in the dataframe
	}

	// construct table header
	tableCols := append([]string{"Date"}, df.ColNames...)

	// initialize table
	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader(tableCols)
	footer := make([]string, len(tableCols))
	footer[0] = "Num Rows"
	if len(footer) > 1 {
		footer[1] = fmt.Sprintf("%d", df.Len())
	}
	table.SetFooter(footer)
	table.SetBorder(false)

	for idx, date := range df.Dates {
		row := make([]string, 0, len(df.Vals)+1)
		row = append(row, date.Format(DateFormat))
		for _, col := range df.Vals {
			row = append(row, fmt.Sprintf("%.4f", col[idx]))
		}
		table.Append(row)
	}

	table.Render()
	return s.String()
}

// Trim the dataframe to the specified date range (inclusive). The returned dataframe
// shares storage with df
func (df *DataFrame) Trim(begin, end time.Time) *DataFrame {
	df2 := &DataFrame{
		ColNames: df.ColNames,
		Dates:    []time.Time{},
		Vals:     make([][]float64, len(df.Vals)),
	}

	for colIdx := range df2.Vals {
		df2.Vals[colIdx] = []float64{}
	}

	// requested range is invalid or the dataframe is empty
	if end.Before(begin) || df.Len() == 0 {
		return df2
	}

	beginIdx := sort.Search(len(df.Dates), func(i int) bool {
		return !df.Dates[i].Before(begin)
	})

	endIdx := sort.Search(len(df.Dates), func(i int) bool {
		return df.Dates[i].After(end)
	})

	if beginIdx >= endIdx {
		return df2
	}

	df2.Dates = df.Dates[beginIdx:endIdx]
	for colIdx, col := range df.Vals {
		df2.Vals[colIdx] = col[beginIdx:endIdx]
	}

	return df2
}

// Tail returns the last n rows of the dataframe
func (df *DataFrame) Tail(n int) *DataFrame {
	if n >= df.Len() {
		return df
	}
	if n < 0 {
		n = 0
	}

	start := df.Len() - n
	df2 := &DataFrame{
		ColNames: df.ColNames,
		Dates:    df.Dates[start:],
		Vals:     make([][]float64, len(df.Vals)),
	}
	for colIdx, col := range df.Vals {
		df2.Vals[colIdx] = col[start:]
	}
	return df2
}
