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
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/penny-vault/weekperf/dataframe"
	"github.com/rs/zerolog/log"
)

const (
	WeekColumn = "Week"
	DateColumn = "date"
)

// LoadWeights opens the CSV file at path and reads it with ReadWeights
func LoadWeights(path string, epoch time.Time, assets []string) (*WeightTable, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	wt, err := ReadWeights(fh, epoch, assets)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return wt, nil
}

// ReadWeights reads a weight table with a Week column, one column per asset and an optional CASH column.
// When assets is empty every column other than Week and CASH is treated as an asset. Rows whose week
// cannot be mapped to a calendar date are dropped and reported in WeightTable.Dropped; a non-numeric
// weight is a hard failure
func ReadWeights(r io.Reader, epoch time.Time, assets []string) (*WeightTable, error) {
	if err := ValidateEpoch(epoch); err != nil {
		return nil, err
	}

	tbl, err := loadTable(r)
	if err != nil {
		return nil, err
	}

	weekIdx, ok := tbl.lookup(WeekColumn)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, WeekColumn)
	}

	cashIdx, hasCash := tbl.cols[CashColumn]

	if len(assets) == 0 {
		for idx, name := range tbl.header {
			if idx != weekIdx && (!hasCash || idx != cashIdx) {
				assets = append(assets, name)
			}
		}
	}

	assetIdx := make([]int, len(assets))
	for idx, asset := range assets {
		colIdx, ok := tbl.cols[asset]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, asset)
		}
		assetIdx[idx] = colIdx
	}

	wt := &WeightTable{
		Assets:    assets,
		Snapshots: []*WeightSnapshot{},
	}

	for row := 0; row < tbl.rows(); row++ {
		line := tbl.line(row)
		weekVal := tbl.cell(row, weekIdx)

		week, err := ParseWeek(weekVal)
		if err != nil {
			dropped := &MalformedWeekIndexError{Line: line, Value: weekVal}
			log.Warn().Int("Line", line).Str("Week", weekVal).Msg("dropping weight row with malformed week index")
			wt.Dropped = append(wt.Dropped, dropped)
			continue
		}

		weekStart, err := WeekStart(epoch, week)
		if err != nil {
			return nil, err
		}

		snap := &WeightSnapshot{
			WeekStart: weekStart,
			Weights:   make(map[string]float64, len(assets)),
		}

		for idx, asset := range assets {
			val, err := parseCell(tbl.cell(row, assetIdx[idx]))
			if err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, asset, err)
			}
			snap.Weights[asset] = val
		}

		if hasCash {
			if snap.Cash, err = parseCell(tbl.cell(row, cashIdx)); err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, CashColumn, err)
			}
		}

		wt.Snapshots = append(wt.Snapshots, snap)
	}

	if len(wt.Snapshots) == 0 && len(wt.Dropped) == 0 {
		return nil, ErrNoRows
	}

	wt.Sort()
	return wt, nil
}

// LoadPrices opens the CSV file at path and reads it with ReadPrices
func LoadPrices(path string, columns []string) (*dataframe.DataFrame, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	df, err := ReadPrices(fh, columns)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return df, nil
}

// ReadPrices reads a daily price table with a date column and one close column per symbol. Only the
// requested columns are kept, in the requested order; when columns is empty every non-date column is
// kept. The result is sorted by date. Empty cells are treated as missing (NaN)
func ReadPrices(r io.Reader, columns []string) (*dataframe.DataFrame, error) {
	tbl, err := loadTable(r)
	if err != nil {
		return nil, err
	}

	dateIdx, ok := tbl.lookup(DateColumn)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, DateColumn)
	}

	if len(columns) == 0 {
		for idx, name := range tbl.header {
			if idx != dateIdx {
				columns = append(columns, name)
			}
		}
	}

	colIdx := make([]int, len(columns))
	for idx, col := range columns {
		cIdx, ok := tbl.cols[col]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
		colIdx[idx] = cIdx
	}

	type priceRow struct {
		date time.Time
		vals []float64
	}

	rows := make([]priceRow, 0, tbl.rows())
	for row := 0; row < tbl.rows(); row++ {
		line := tbl.line(row)

		date, err := ParseDate(tbl.cell(row, dateIdx))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		pr := priceRow{date: date, vals: make([]float64, len(columns))}
		for idx, cIdx := range colIdx {
			if pr.vals[idx], err = parseCell(tbl.cell(row, cIdx)); err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, columns[idx], err)
			}
		}
		rows = append(rows, pr)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].date.Before(rows[j].date)
	})

	df := &dataframe.DataFrame{
		Dates:    make([]time.Time, len(rows)),
		ColNames: columns,
		Vals:     make([][]float64, len(columns)),
	}
	for idx := range df.Vals {
		df.Vals[idx] = make([]float64, len(rows))
	}
	for rowIdx, pr := range rows {
		df.Dates[rowIdx] = pr.date
		for idx, val := range pr.vals {
			df.Vals[idx][rowIdx] = val
		}
	}

	return df, nil
}

func parseCell(val string) (float64, error) {
	val = strings.TrimSpace(val)
	switch strings.ToLower(val) {
	case "", "nan", "na", "null":
		return math.NaN(), nil
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNonNumericValue, val)
	}
	return f, nil
}
