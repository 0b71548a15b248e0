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
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	dfgo "github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/imports"
)

// table is a CSV file loaded by dataframe-go with every column kept as text. Cells are
// converted by the readers so that each one can apply its own row policy
type table struct {
	df     *dfgo.DataFrame
	header []string
	cols   map[string]int
}

// loadTable reads every record of r. A file without a header and at least one data row
// is ErrNoRows
func loadTable(r io.Reader) (*table, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	if countRecords(body) < 2 {
		return nil, ErrNoRows
	}

	df, err := imports.LoadFromCSV(context.TODO(), bytes.NewReader(body), imports.CSVLoadOptions{
		TrimLeadingSpace: true,
	})
	if err != nil {
		return nil, fmt.Errorf("load csv: %w", err)
	}

	if df.NRows(dfgo.Options{}) == 0 {
		return nil, ErrNoRows
	}

	tbl := &table{
		df:     df,
		header: make([]string, len(df.Series)),
		cols:   make(map[string]int, len(df.Series)),
	}
	for idx, series := range df.Series {
		name := strings.TrimSpace(series.Name(dfgo.Options{}))
		tbl.header[idx] = name
		tbl.cols[name] = idx
	}

	return tbl, nil
}

func countRecords(body []byte) int {
	n := 0
	for _, line := range bytes.Split(body, []byte("\n")) {
		if len(bytes.TrimSpace(line)) > 0 {
			n++
		}
	}
	return n
}

func (t *table) rows() int {
	return t.df.NRows(dfgo.Options{})
}

// line is the 1-based file line of data row row; the header is line 1
func (t *table) line(row int) int {
	return row + 2
}

// lookup finds a column by exact name, then case-insensitively
func (t *table) lookup(name string) (int, bool) {
	if idx, ok := t.cols[name]; ok {
		return idx, true
	}
	for k, idx := range t.cols {
		if strings.EqualFold(k, name) {
			return idx, true
		}
	}
	return 0, false
}

// cell returns the text of a cell; missing cells are empty
func (t *table) cell(row, col int) string {
	switch v := t.df.Series[col].Value(row, dfgo.Options{}).(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case *string:
		if v == nil {
			return ""
		}
		return strings.TrimSpace(*v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
