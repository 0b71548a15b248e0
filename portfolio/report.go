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

package portfolio

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/penny-vault/weekperf/common"
	"github.com/penny-vault/weekperf/dataframe"
)

// MetricSummary is the table-ready view of Metrics. Undefined values are nil
type MetricSummary struct {
	Strategy             string   `json:"strategy" toml:"strategy"`
	Kind                 string   `json:"kind" toml:"kind"`
	CumulativeReturn     *float64 `json:"cumulativeReturn" toml:"cumulative_return,omitempty"`
	AnnualizedReturn     *float64 `json:"annualizedReturn" toml:"annualized_return,omitempty"`
	AnnualizedVolatility *float64 `json:"annualizedVolatility" toml:"annualized_volatility,omitempty"`
	SharpeRatio          *float64 `json:"sharpeRatio" toml:"sharpe_ratio,omitempty"`
	MaxDrawdown          *float64 `json:"maxDrawdown" toml:"max_drawdown,omitempty"`
	Alpha                *float64 `json:"alpha" toml:"alpha,omitempty"`
	Beta                 *float64 `json:"beta" toml:"beta,omitempty"`
}

// Summary is the serializable form of a report
type Summary struct {
	NumWeeks    int              `json:"numWeeks" toml:"num_weeks"`
	Start       string           `json:"start,omitempty" toml:"start,omitempty"`
	End         string           `json:"end,omitempty" toml:"end,omitempty"`
	Correlation *float64         `json:"correlation" toml:"correlation,omitempty"`
	Slope       *float64         `json:"regressionSlope" toml:"regression_slope,omitempty"`
	Intercept   *float64         `json:"regressionIntercept" toml:"regression_intercept,omitempty"`
	Metrics     []*MetricSummary `json:"metrics" toml:"metrics"`
}

// Summary converts the report into its serializable form
func (r *Report) Summary() *Summary {
	summary := &Summary{
		NumWeeks:    len(r.Dates),
		Correlation: optional(r.Correlation),
		Slope:       optional(r.Regression.Slope),
		Intercept:   optional(r.Regression.Intercept),
		Metrics:     make([]*MetricSummary, 0, len(r.Strategies)),
	}

	if len(r.Dates) > 0 {
		summary.Start = r.Dates[0].Format(dataframe.DateFormat)
		summary.End = r.Dates[len(r.Dates)-1].Format(dataframe.DateFormat)
	}

	for _, perf := range r.Strategies {
		m := perf.Metrics
		summary.Metrics = append(summary.Metrics, &MetricSummary{
			Strategy:             perf.Name,
			Kind:                 string(perf.Kind),
			CumulativeReturn:     optional(m.CumulativeReturn),
			AnnualizedReturn:     optional(m.AnnualizedReturn),
			AnnualizedVolatility: optional(m.AnnualizedVolatility),
			SharpeRatio:          optional(m.SharpeRatio),
			MaxDrawdown:          optional(m.MaxDrawdown),
			Alpha:                optional(m.Alpha),
			Beta:                 optional(m.Beta),
		})
	}

	return summary
}

// MetricsTable renders the performance metrics of every strategy as an ASCII table. Returns,
// volatility, drawdown and alpha are shown as percentages
func (r *Report) MetricsTable() string {
	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader([]string{"Strategy", "Cumulative Return", "Annualized Return", "Annualized Volatility", "Sharpe Ratio", "Max Drawdown", "Alpha", "Beta"})
	table.SetBorder(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, perf := range r.Strategies {
		m := perf.Metrics
		table.Append([]string{
			perf.Name,
			percent(m.CumulativeReturn),
			percent(m.AnnualizedReturn),
			percent(m.AnnualizedVolatility),
			decimal(m.SharpeRatio),
			percent(m.MaxDrawdown),
			percent(m.Alpha),
			decimal(m.Beta),
		})
	}

	table.Render()
	return s.String()
}

// SeriesDataFrame returns the weekly series of one strategy
func (perf *Performance) SeriesDataFrame() *dataframe.DataFrame {
	return &dataframe.DataFrame{
		Dates:    perf.Dates,
		ColNames: []string{"Return", "Cumulative", "Drawdown", "RollingVolatility", "RollingSharpe"},
		Vals:     [][]float64{perf.Returns, perf.Cumulative, perf.Drawdown, perf.RollingVolatility, perf.RollingSharpe},
	}
}

// CumulativeDataFrame returns the cumulative return of every strategy, one column per strategy
func (r *Report) CumulativeDataFrame() *dataframe.DataFrame {
	df := &dataframe.DataFrame{
		Dates:    r.Dates,
		ColNames: make([]string, len(r.Strategies)),
		Vals:     make([][]float64, len(r.Strategies)),
	}
	for idx, perf := range r.Strategies {
		df.ColNames[idx] = perf.Name
		df.Vals[idx] = perf.Cumulative
	}
	return df
}

// WriteSeriesCSV writes the weekly series of one strategy. Undefined values are written as empty cells
func (perf *Performance) WriteSeriesCSV(w io.Writer) error {
	df := perf.SeriesDataFrame()

	rows := make([][]string, len(df.Dates))
	for rowIdx, date := range df.Dates {
		row := make([]string, 0, df.ColCount()+1)
		row = append(row, date.Format(dataframe.DateFormat))
		for _, col := range df.Vals {
			row = append(row, formatCell(col[rowIdx]))
		}
		rows[rowIdx] = row
	}

	return common.ExportCSV(context.TODO(), w, append([]string{"Week"}, df.ColNames...), rows)
}

func optional(val float64) *float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return nil
	}
	return &val
}

func percent(val float64) string {
	if math.IsNaN(val) {
		return "NaN"
	}
	return fmt.Sprintf("%.2f%%", val*100)
}

func decimal(val float64) string {
	if math.IsNaN(val) {
		return "NaN"
	}
	return fmt.Sprintf("%.2f", val)
}

func formatCell(val float64) string {
	if math.IsNaN(val) {
		return ""
	}
	return strconv.FormatFloat(val, 'f', -1, 64)
}
