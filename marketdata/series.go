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

package marketdata

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/penny-vault/weekperf/data"
	"github.com/penny-vault/weekperf/dataframe"
)

// Output column names of the daily series and indicators
const (
	OpenColumn       = "open"
	HighColumn       = "high"
	LowColumn        = "low"
	CloseColumn      = "close"
	VolumeColumn     = "volume"
	MACDColumn       = "MACD"
	MACDHistColumn   = "MACD_Hist"
	MACDSignalColumn = "MACD_Signal"
)

// DefaultIndicatorPeriod is the look back used for RSI and Bollinger bands
const DefaultIndicatorPeriod = 20

// field maps a JSON member of a dated entry to a dataframe column
type field struct {
	key    string
	column string
}

func RSIColumn(period int) string         { return fmt.Sprintf("RSI_%d", period) }
func BBandUpperColumn(period int) string  { return fmt.Sprintf("BB_UPPER_%d", period) }
func BBandMiddleColumn(period int) string { return fmt.Sprintf("BB_MIDDLE_%d", period) }
func BBandLowerColumn(period int) string  { return fmt.Sprintf("BB_LOWER_%d", period) }

// decodeSeries converts an object of date -> {key: "number"} into a date sorted dataframe.
// Members not listed in fields are ignored and absent members become NaN.
func decodeSeries(raw json.RawMessage, fields []field) (*dataframe.DataFrame, error) {
	entries := map[string]map[string]string{}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, ErrNoData
	}

	type row struct {
		date time.Time
		vals []float64
	}

	rows := make([]row, 0, len(entries))
	for dateStr, entry := range entries {
		date, err := data.ParseDate(dateStr)
		if err != nil {
			return nil, err
		}

		vals := make([]float64, len(fields))
		for idx, f := range fields {
			val, ok := entry[f.key]
			if !ok || strings.TrimSpace(val) == "" {
				vals[idx] = math.NaN()
				continue
			}
			num, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s %q on %s", data.ErrNonNumericValue, f.key, val, dateStr)
			}
			vals[idx] = num
		}
		rows = append(rows, row{date: date, vals: vals})
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].date.Before(rows[j].date)
	})

	colNames := make([]string, len(fields))
	for idx, f := range fields {
		colNames[idx] = f.column
	}

	df := &dataframe.DataFrame{
		Dates:    make([]time.Time, 0, len(rows)),
		ColNames: colNames,
		Vals:     make([][]float64, len(fields)),
	}
	for colIdx := range df.Vals {
		df.Vals[colIdx] = make([]float64, 0, len(rows))
	}

	for _, r := range rows {
		// intraday keys can normalize to the same day; keep the latest
		if n := len(df.Dates); n > 0 && df.Dates[n-1].Equal(r.date) {
			for colIdx := range df.Vals {
				df.Vals[colIdx][n-1] = r.vals[colIdx]
			}
			continue
		}
		df.Dates = append(df.Dates, r.date)
		for colIdx := range df.Vals {
			df.Vals[colIdx] = append(df.Vals[colIdx], r.vals[colIdx])
		}
	}

	return df, nil
}

func (c *Client) series(ctx context.Context, function, symbol, section string, params url.Values, fields []field) (*dataframe.DataFrame, error) {
	resp, err := c.query(ctx, function, symbol, params)
	if err != nil {
		return nil, err
	}

	raw, err := resp.section(section)
	if err != nil {
		return nil, err
	}

	df, err := decodeSeries(raw, fields)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", function, symbol, err)
	}
	return df, nil
}

// DailySeries returns the full daily OHLCV history of symbol
func (c *Client) DailySeries(ctx context.Context, symbol string) (*dataframe.DataFrame, error) {
	params := url.Values{}
	params.Set("outputsize", "full")

	return c.series(ctx, "TIME_SERIES_DAILY", symbol, "Time Series (Daily)", params, []field{
		{"1. open", OpenColumn},
		{"2. high", HighColumn},
		{"3. low", LowColumn},
		{"4. close", CloseColumn},
		{"5. volume", VolumeColumn},
	})
}

// MACD returns the daily 12/26/9 MACD of the close
func (c *Client) MACD(ctx context.Context, symbol string) (*dataframe.DataFrame, error) {
	params := url.Values{}
	params.Set("interval", "daily")
	params.Set("series_type", "close")
	params.Set("fastperiod", "12")
	params.Set("slowperiod", "26")
	params.Set("signalperiod", "9")

	return c.series(ctx, "MACD", symbol, "Technical Analysis: MACD", params, []field{
		{"MACD", MACDColumn},
		{"MACD_Hist", MACDHistColumn},
		{"MACD_Signal", MACDSignalColumn},
	})
}

// RSI returns the daily relative strength index of the close
func (c *Client) RSI(ctx context.Context, symbol string, period int) (*dataframe.DataFrame, error) {
	params := url.Values{}
	params.Set("interval", "daily")
	params.Set("time_period", strconv.Itoa(period))
	params.Set("series_type", "close")

	return c.series(ctx, "RSI", symbol, "Technical Analysis: RSI", params, []field{
		{"RSI", RSIColumn(period)},
	})
}

// BBands returns daily Bollinger bands (2 standard deviations, simple moving average)
func (c *Client) BBands(ctx context.Context, symbol string, period int) (*dataframe.DataFrame, error) {
	params := url.Values{}
	params.Set("interval", "daily")
	params.Set("time_period", strconv.Itoa(period))
	params.Set("series_type", "close")
	params.Set("nbdevup", "2")
	params.Set("nbdevdn", "2")
	params.Set("matype", "0")

	return c.series(ctx, "BBANDS", symbol, "Technical Analysis: BBANDS", params, []field{
		{"Real Upper Band", BBandUpperColumn(period)},
		{"Real Middle Band", BBandMiddleColumn(period)},
		{"Real Lower Band", BBandLowerColumn(period)},
	})
}
