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

package common

import (
	"context"
	"errors"
	"io"

	dfgo "github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/exports"
)

var ErrRaggedRow = errors.New("row length does not match header")

// ExportCSV writes a header and text rows as CSV through dataframe-go. Cells are written as
// given, so callers decide how missing values are rendered
func ExportCSV(ctx context.Context, w io.Writer, header []string, rows [][]string) error {
	cols := make([][]interface{}, len(header))
	for idx := range cols {
		cols[idx] = make([]interface{}, 0, len(rows))
	}

	for _, row := range rows {
		if len(row) != len(header) {
			return ErrRaggedRow
		}
		for idx, val := range row {
			cols[idx] = append(cols[idx], val)
		}
	}

	series := make([]dfgo.Series, len(header))
	for idx, name := range header {
		series[idx] = dfgo.NewSeriesString(name, nil, cols[idx]...)
	}

	return exports.ExportToCSV(ctx, w, dfgo.NewDataFrame(series...))
}
