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
	"time"

	"github.com/rs/zerolog/log"

	"github.com/penny-vault/weekperf/dataframe"
)

// DefaultHistoryDays is the number of trading days kept per technicals artifact
const DefaultHistoryDays = 200

// Technicals returns the daily OHLCV history of symbol left joined with MACD, RSI and
// Bollinger bands. A failed indicator is logged and its columns omitted; a failed price
// request is returned as an error.
func (c *Client) Technicals(ctx context.Context, symbol string, period int) (*dataframe.DataFrame, error) {
	subLog := log.With().Str("Symbol", symbol).Logger()

	daily, err := c.DailySeries(ctx, symbol)
	if err != nil {
		return nil, err
	}

	indicators := []struct {
		name  string
		fetch func() (*dataframe.DataFrame, error)
	}{
		{"MACD", func() (*dataframe.DataFrame, error) { return c.MACD(ctx, symbol) }},
		{"RSI", func() (*dataframe.DataFrame, error) { return c.RSI(ctx, symbol, period) }},
		{"BBANDS", func() (*dataframe.DataFrame, error) { return c.BBands(ctx, symbol, period) }},
	}

	for _, ind := range indicators {
		df, err := ind.fetch()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			subLog.Warn().Err(err).Str("Indicator", ind.name).Msg("indicator unavailable; continuing without it")
			continue
		}
		leftJoin(daily, df)
		subLog.Debug().Str("Indicator", ind.name).Msg("indicator merged")
	}

	return daily, nil
}

// leftJoin appends the columns of other to df, aligned to df's dates
func leftJoin(df, other *dataframe.DataFrame) {
	aligned := other.Reindex(df.Dates)
	for colIdx, name := range aligned.ColNames {
		df.Insert(name, aligned.Vals[colIdx])
	}
}

// TechnicalWindow keeps the last history rows on or before weekEnd
func TechnicalWindow(df *dataframe.DataFrame, weekEnd time.Time, history int) *dataframe.DataFrame {
	return df.Trim(time.Time{}, weekEnd).Tail(history)
}
