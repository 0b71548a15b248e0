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
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/penny-vault/weekperf/dataframe"
)

// Fetcher is the subset of Client used by the aggregator
type Fetcher interface {
	Technicals(ctx context.Context, symbol string, period int) (*dataframe.DataFrame, error)
	Fundamentals(ctx context.Context, symbol string) (*Fundamentals, error)
	News(ctx context.Context, ticker string, week Week, limit int) ([]*Article, error)
}

// AggregatorOptions configures a run
type AggregatorOptions struct {
	Tickers     []string
	NewsLimit   int
	HistoryDays int
	Period      int
}

// Summary lists the artifacts a run produced and the ones that failed
type Summary struct {
	Weeks   int
	Written []string
	Failed  []error
}

// Aggregator produces technicals, fundamentals, news and volatility artifacts per week
type Aggregator struct {
	fetcher Fetcher
	sink    Sink
	opts    AggregatorOptions
}

func NewAggregator(fetcher Fetcher, sink Sink, opts AggregatorOptions) *Aggregator {
	if opts.NewsLimit <= 0 {
		opts.NewsLimit = DefaultNewsLimit
	}
	if opts.HistoryDays <= 0 {
		opts.HistoryDays = DefaultHistoryDays
	}
	if opts.Period <= 0 {
		opts.Period = DefaultIndicatorPeriod
	}
	return &Aggregator{
		fetcher: fetcher,
		sink:    sink,
		opts:    opts,
	}
}

// Run aggregates every week in [start, end]. The failure of one artifact is recorded in the
// summary and does not stop the others; only cancellation and an invalid range abort the run
func (a *Aggregator) Run(ctx context.Context, start, end time.Time) (*Summary, error) {
	if midnight(end).Before(midnight(start)) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange, start.Format(dataframe.DateFormat), end.Format(dataframe.DateFormat))
	}

	weeks := Weeks(start, end)
	summary := &Summary{Weeks: len(weeks)}

	// the daily history does not depend on the week so it is requested once per ticker
	technicals := make(map[string]*dataframe.DataFrame, len(a.opts.Tickers))
	technicalsErr := make(map[string]error, len(a.opts.Tickers))

	for _, week := range weeks {
		weekLog := log.With().Str("WeekStart", week.Start.Format(dataframe.DateFormat)).Str("WeekEnd", week.End.Format(dataframe.DateFormat)).Logger()
		vols := make([]*Volatility, 0, len(a.opts.Tickers))

		for _, ticker := range a.opts.Tickers {
			if err := ctx.Err(); err != nil {
				return summary, err
			}

			subLog := weekLog.With().Str("Ticker", ticker).Logger()
			subLog.Info().Msg("processing ticker")

			// 1. technicals
			df, fetched := technicals[ticker]
			if !fetched {
				if _, failed := technicalsErr[ticker]; !failed {
					var err error
					df, err = a.fetcher.Technicals(ctx, ticker, a.opts.Period)
					if err != nil {
						technicalsErr[ticker] = err
					} else {
						technicals[ticker] = df
					}
				}
			}

			vol := &Volatility{Ticker: ticker, WeeklyVolatility: math.NaN()}
			if err, failed := technicalsErr[ticker]; failed {
				a.fail(summary, subLog, "technicals", fmt.Errorf("technicals %s %s: %w", ticker, week, err))
			} else {
				window := TechnicalWindow(df, week.End, a.opts.HistoryDays)
				vol.WeeklyVolatility = WeeklyVolatility(window, week.End)
				if window.Len() == 0 {
					a.fail(summary, subLog, "technicals", fmt.Errorf("technicals %s %s: %w", ticker, week, ErrNoData))
				} else {
					a.write(summary, subLog, "technicals", func() (string, error) {
						return a.sink.WriteTechnicals(ticker, week, window)
					})
				}
			}
			vols = append(vols, vol)

			// 2. fundamentals
			if f, err := a.fetcher.Fundamentals(ctx, ticker); err != nil {
				a.fail(summary, subLog, "fundamentals", fmt.Errorf("fundamentals %s %s: %w", ticker, week, err))
			} else {
				a.write(summary, subLog, "fundamentals", func() (string, error) {
					return a.sink.WriteFundamentals(ticker, week, f)
				})
			}

			// 3. news
			articles, err := a.fetcher.News(ctx, ticker, week, a.opts.NewsLimit)
			switch {
			case err != nil:
				a.fail(summary, subLog, "news", fmt.Errorf("news %s %s: %w", ticker, week, err))
			case len(articles) == 0:
				subLog.Info().Msg("no news articles within the week")
			default:
				a.write(summary, subLog, "news", func() (string, error) {
					return a.sink.WriteNews(ticker, week, articles)
				})
			}
		}

		if len(vols) > 0 {
			a.write(summary, weekLog, "volatility", func() (string, error) {
				return a.sink.WriteVolatility(week, vols)
			})
		}
	}

	log.Info().Int("Weeks", summary.Weeks).Int("Written", len(summary.Written)).Int("Failed", len(summary.Failed)).Msg("data aggregation complete")
	return summary, nil
}

func (a *Aggregator) write(summary *Summary, subLog zerolog.Logger, artifact string, fn func() (string, error)) {
	path, err := fn()
	if err != nil {
		a.fail(summary, subLog, artifact, fmt.Errorf("write %s: %w", artifact, err))
		return
	}
	subLog.Info().Str("Artifact", artifact).Str("Path", path).Msg("artifact saved")
	summary.Written = append(summary.Written, path)
}

func (a *Aggregator) fail(summary *Summary, subLog zerolog.Logger, artifact string, err error) {
	subLog.Error().Err(err).Str("Artifact", artifact).Msg("artifact failed")
	summary.Failed = append(summary.Failed, err)
}
