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
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penny-vault/weekperf/common"
	"github.com/penny-vault/weekperf/observability/opentelemetry"
)

var shutdownTracing = func(context.Context) error { return nil }

func init() {
	// Analysis
	viper.BindEnv("analysis.epoch", "WEEKPERF_EPOCH")
	rootCmd.PersistentFlags().String("epoch", "2024-01-01", "Date of week 1 of the week index")
	viper.BindPFlag("analysis.epoch", rootCmd.PersistentFlags().Lookup("epoch"))

	viper.BindEnv("analysis.tickers", "WEEKPERF_TICKERS")
	rootCmd.PersistentFlags().StringSlice("tickers", []string{"NVDA", "MSFT", "AAPL"}, "Assets held by the portfolio")
	viper.BindPFlag("analysis.tickers", rootCmd.PersistentFlags().Lookup("tickers"))

	viper.BindEnv("analysis.primary_asset", "WEEKPERF_PRIMARY_ASSET")
	rootCmd.PersistentFlags().String("primary-asset", "NVDA", "Asset of the single asset buy & hold comparison")
	viper.BindPFlag("analysis.primary_asset", rootCmd.PersistentFlags().Lookup("primary-asset"))

	viper.BindEnv("analysis.benchmark_column", "WEEKPERF_BENCHMARK_COLUMN")
	rootCmd.PersistentFlags().String("benchmark-column", "benchmark_close", "Column of the benchmark file holding the index close")
	viper.BindPFlag("analysis.benchmark_column", rootCmd.PersistentFlags().Lookup("benchmark-column"))

	viper.BindEnv("analysis.benchmark_name", "WEEKPERF_BENCHMARK_NAME")
	rootCmd.PersistentFlags().String("benchmark-name", "NASDAQ 100", "Display name of the benchmark")
	viper.BindPFlag("analysis.benchmark_name", rootCmd.PersistentFlags().Lookup("benchmark-name"))

	viper.BindEnv("analysis.window", "WEEKPERF_WINDOW")
	rootCmd.PersistentFlags().Int("window", 4, "Rolling window in weeks")
	viper.BindPFlag("analysis.window", rootCmd.PersistentFlags().Lookup("window"))

	viper.BindEnv("analysis.risk_free_rate", "WEEKPERF_RISK_FREE_RATE")
	rootCmd.PersistentFlags().Float64("risk-free-rate", 0, "Annual risk free rate used by the Sharpe ratio")
	viper.BindPFlag("analysis.risk_free_rate", rootCmd.PersistentFlags().Lookup("risk-free-rate"))

	viper.BindEnv("analysis.periods_per_year", "WEEKPERF_PERIODS_PER_YEAR")
	rootCmd.PersistentFlags().Float64("periods-per-year", 52, "Periods per year used to annualize")
	viper.BindPFlag("analysis.periods_per_year", rootCmd.PersistentFlags().Lookup("periods-per-year"))

	// Inputs
	viper.BindEnv("input.weights", "WEEKPERF_WEIGHTS")
	rootCmd.PersistentFlags().String("weights", "results.csv", "Portfolio weight snapshots (Week, <asset>..., CASH)")
	viper.BindPFlag("input.weights", rootCmd.PersistentFlags().Lookup("weights"))

	viper.BindEnv("input.prices", "WEEKPERF_PRICES")
	rootCmd.PersistentFlags().String("prices", "prices.csv", "Daily asset closes (date, <asset>...)")
	viper.BindPFlag("input.prices", rootCmd.PersistentFlags().Lookup("prices"))

	viper.BindEnv("input.benchmark", "WEEKPERF_BENCHMARK")
	rootCmd.PersistentFlags().String("benchmark", "", "Daily benchmark closes; blank skips the benchmark")
	viper.BindPFlag("input.benchmark", rootCmd.PersistentFlags().Lookup("benchmark"))

	viper.BindEnv("input.signal", "WEEKPERF_SIGNAL")
	rootCmd.PersistentFlags().String("signal", "", "Signal strategy weights (Week, <asset>...); blank skips the signal strategy")
	viper.BindPFlag("input.signal", rootCmd.PersistentFlags().Lookup("signal"))

	// Alpha Vantage
	viper.BindEnv("alphavantage.api_key", "ALPHA_VANTAGE_API_KEY")
	rootCmd.PersistentFlags().String("alphavantage-api-key", "", "Alpha Vantage API key")
	viper.BindPFlag("alphavantage.api_key", rootCmd.PersistentFlags().Lookup("alphavantage-api-key"))

	viper.BindEnv("alphavantage.base_url", "ALPHA_VANTAGE_BASE_URL")
	rootCmd.PersistentFlags().String("alphavantage-base-url", "https://www.alphavantage.co/query", "Alpha Vantage query endpoint")
	viper.BindPFlag("alphavantage.base_url", rootCmd.PersistentFlags().Lookup("alphavantage-base-url"))

	viper.BindEnv("alphavantage.requests_per_minute", "ALPHA_VANTAGE_REQUESTS_PER_MINUTE")
	rootCmd.PersistentFlags().Int("alphavantage-requests-per-minute", 5, "Maximum Alpha Vantage requests per minute")
	viper.BindPFlag("alphavantage.requests_per_minute", rootCmd.PersistentFlags().Lookup("alphavantage-requests-per-minute"))

	viper.BindEnv("alphavantage.max_attempts", "ALPHA_VANTAGE_MAX_ATTEMPTS")
	rootCmd.PersistentFlags().Int("alphavantage-max-attempts", 3, "Attempts per Alpha Vantage request")
	viper.BindPFlag("alphavantage.max_attempts", rootCmd.PersistentFlags().Lookup("alphavantage-max-attempts"))

	// Cache
	viper.BindEnv("cache.local_size", "WEEKPERF_CACHE_LOCAL_SIZE")
	rootCmd.PersistentFlags().Int("cache-local-size", 256, "Number of responses kept in the in-memory cache")
	viper.BindPFlag("cache.local_size", rootCmd.PersistentFlags().Lookup("cache-local-size"))

	viper.BindEnv("cache.redis", "WEEKPERF_CACHE_REDIS")
	rootCmd.PersistentFlags().Bool("cache-redis", false, "Also cache responses in redis")
	viper.BindPFlag("cache.redis", rootCmd.PersistentFlags().Lookup("cache-redis"))

	viper.BindEnv("cache.redis_url", "REDIS_URL")
	rootCmd.PersistentFlags().String("cache-redis-url", "redis://localhost:6379/0", "Redis connection URL")
	viper.BindPFlag("cache.redis_url", rootCmd.PersistentFlags().Lookup("cache-redis-url"))

	viper.BindEnv("cache.ttl", "WEEKPERF_CACHE_TTL")
	rootCmd.PersistentFlags().Int("cache-ttl", 86400, "Seconds a redis cache entry lives")
	viper.BindPFlag("cache.ttl", rootCmd.PersistentFlags().Lookup("cache-ttl"))

	// Tracing
	viper.BindEnv("otlp.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	rootCmd.PersistentFlags().String("otlp-endpoint", "", "OTLP collector endpoint; blank disables tracing")
	viper.BindPFlag("otlp.endpoint", rootCmd.PersistentFlags().Lookup("otlp-endpoint"))

	viper.BindEnv("otlp.http", "WEEKPERF_OTLP_HTTP")
	rootCmd.PersistentFlags().Bool("otlp-http", false, "Use HTTP instead of gRPC for OTLP")
	viper.BindPFlag("otlp.http", rootCmd.PersistentFlags().Lookup("otlp-http"))

	// Logging configuration
	viper.BindEnv("log.level", "WEEKPERF_LOG_LEVEL")
	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.BindEnv("log.report_caller", "WEEKPERF_LOG_REPORT_CALLER")
	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	viper.BindPFlag("log.report_caller", rootCmd.PersistentFlags().Lookup("log-report-caller"))

	viper.BindEnv("log.output", "WEEKPERF_LOG_OUTPUT")
	rootCmd.PersistentFlags().String("log-output", "stderr", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	viper.BindPFlag("log.output", rootCmd.PersistentFlags().Lookup("log-output"))

	viper.BindEnv("log.pretty", "WEEKPERF_LOG_PRETTY")
	rootCmd.PersistentFlags().Bool("log-pretty", true, "Write human readable logs instead of JSON")
	viper.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))
}

var rootCmd = &cobra.Command{
	Use:     common.Program,
	Version: common.CurrentVersion.String(),
	Short:   "Weekly portfolio performance analytics",
	Long: `Compare a weekly rebalanced portfolio against buy & hold, signal driven and benchmark
strategies, and aggregate the weekly market data that feeds it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		common.SetupLogging()

		shutdown, err := opentelemetry.Setup(cmd.Context(), opentelemetry.Options{
			Endpoint: viper.GetString("otlp.endpoint"),
			HTTP:     viper.GetBool("otlp.http"),
			Headers:  viper.GetStringMapString("otlp.headers"),
		})
		if err != nil {
			log.Error().Err(err).Msg("could not setup tracing")
			return err
		}
		shutdownTracing = shutdown
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn().Err(err).Msg("could not flush traces")
		}
		common.CloseLogging()
	},
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
