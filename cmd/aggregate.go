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

package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penny-vault/weekperf/common"
	"github.com/penny-vault/weekperf/data"
	"github.com/penny-vault/weekperf/dataframe"
	"github.com/penny-vault/weekperf/marketdata"
)

var ErrMissingAPIKey = errors.New("alpha vantage api key is not configured")

var (
	aggregateStart         string
	aggregateEnd           string
	aggregateLookbackWeeks int
)

func init() {
	rootCmd.AddCommand(aggregateCmd)

	now := time.Now()
	aggregateCmd.Flags().StringVar(&aggregateStart, "start", now.AddDate(0, 0, -30).Format(dataframe.DateFormat), "First day to aggregate (YYYY-MM-DD)")
	aggregateCmd.Flags().StringVar(&aggregateEnd, "end", now.Format(dataframe.DateFormat), "Last day to aggregate (YYYY-MM-DD)")
	aggregateCmd.Flags().IntVar(&aggregateLookbackWeeks, "lookback-weeks", 1, "Weeks aggregated by each scheduled run, ending today")

	viper.BindEnv("aggregate.output_dir", "WEEKPERF_OUTPUT_DIR")
	aggregateCmd.Flags().String("output-dir", "output", "Directory receiving the weekly artifacts")
	viper.BindPFlag("aggregate.output_dir", aggregateCmd.Flags().Lookup("output-dir"))

	viper.BindEnv("aggregate.format", "WEEKPERF_OUTPUT_FORMAT")
	aggregateCmd.Flags().String("output-format", "csv", "Artifact format one of: csv or parquet")
	viper.BindPFlag("aggregate.format", aggregateCmd.Flags().Lookup("output-format"))

	viper.BindEnv("aggregate.news_limit", "WEEKPERF_NEWS_LIMIT")
	aggregateCmd.Flags().Int("news-limit", marketdata.DefaultNewsLimit, "Articles requested per ticker and week")
	viper.BindPFlag("aggregate.news_limit", aggregateCmd.Flags().Lookup("news-limit"))

	viper.BindEnv("aggregate.history_days", "WEEKPERF_HISTORY_DAYS")
	aggregateCmd.Flags().Int("history-days", marketdata.DefaultHistoryDays, "Trading days kept in each technicals artifact")
	viper.BindPFlag("aggregate.history_days", aggregateCmd.Flags().Lookup("history-days"))

	viper.BindEnv("aggregate.schedule", "WEEKPERF_SCHEDULE")
	aggregateCmd.Flags().String("schedule", "", "Cron expression to aggregate repeatedly, e.g. '0 18 * * 5'; blank runs once")
	viper.BindPFlag("aggregate.schedule", aggregateCmd.Flags().Lookup("schedule"))
}

func newAggregator(tickers []string) (*marketdata.Aggregator, error) {
	apiKey := viper.GetString("alphavantage.api_key")
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	cache, err := common.SetupCache()
	if err != nil {
		return nil, err
	}

	client := marketdata.NewClient(apiKey,
		marketdata.WithBaseURL(viper.GetString("alphavantage.base_url")),
		marketdata.WithRateLimit(viper.GetInt("alphavantage.requests_per_minute")),
		marketdata.WithRetry(viper.GetInt("alphavantage.max_attempts"), marketdata.DefaultRetryDelay),
		marketdata.WithCache(cache),
	)

	sink, err := marketdata.NewSink(strings.ToLower(viper.GetString("aggregate.format")), viper.GetString("aggregate.output_dir"))
	if err != nil {
		return nil, err
	}

	return marketdata.NewAggregator(client, sink, marketdata.AggregatorOptions{
		Tickers:     tickers,
		NewsLimit:   viper.GetInt("aggregate.news_limit"),
		HistoryDays: viper.GetInt("aggregate.history_days"),
	}), nil
}

// scheduledRange is the window of a scheduled run at now
func scheduledRange(now time.Time, lookbackWeeks int) (time.Time, time.Time) {
	if lookbackWeeks < 1 {
		lookbackWeeks = 1
	}
	return dataframe.WeekKey(now).AddDate(0, 0, -7*(lookbackWeeks-1)), now
}

// cronLogger routes robfig/cron diagnostics through zerolog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// aggregationChain skips a tick while the previous run is still going and recovers panics
func aggregationChain() cron.Chain {
	return cron.NewChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{}))
}

func runAggregation(ctx context.Context, agg *marketdata.Aggregator, start, end time.Time) error {
	runLog := log.With().Str("RunID", uuid.New().String()).Time("Start", start).Time("End", end).Logger()
	runLog.Info().Msg("starting data aggregation")

	summary, err := agg.Run(ctx, start, end)
	if err != nil {
		runLog.Error().Err(err).Msg("data aggregation aborted")
		return err
	}

	if len(summary.Failed) > 0 {
		runLog.Warn().Int("NumFailed", len(summary.Failed)).Int("NumWritten", len(summary.Written)).Msg("some artifacts could not be produced")
	}
	return nil
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Download weekly technicals, fundamentals, news and volatility from Alpha Vantage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tickers := viper.GetStringSlice("analysis.tickers")
		common.ArrToUpper(tickers)

		agg, err := newAggregator(tickers)
		if err != nil {
			log.Error().Err(err).Msg("could not configure aggregator")
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		schedule := viper.GetString("aggregate.schedule")
		if schedule == "" {
			start, err := data.ParseDate(aggregateStart)
			if err != nil {
				return err
			}
			end, err := data.ParseDate(aggregateEnd)
			if err != nil {
				return err
			}
			return runAggregation(ctx, agg, start, end)
		}

		scheduler := cron.New(cron.WithLogger(cronLogger{}))
		_, err = scheduler.AddJob(schedule, aggregationChain().Then(cron.FuncJob(func() {
			start, end := scheduledRange(time.Now(), aggregateLookbackWeeks)
			if err := runAggregation(ctx, agg, start, end); err != nil {
				log.Warn().Err(err).Str("Schedule", schedule).Msg("scheduled aggregation failed; waiting for next run")
			}
		})))
		if err != nil {
			log.Error().Err(err).Str("Schedule", schedule).Msg("robfig/cron could not parse schedule")
			return err
		}

		log.Info().Str("Schedule", schedule).Strs("Tickers", tickers).Msg("aggregation scheduled")
		scheduler.Start()
		<-ctx.Done()
		<-scheduler.Stop().Done()
		return nil
	},
}
