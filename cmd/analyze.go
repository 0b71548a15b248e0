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
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penny-vault/weekperf/common"
	"github.com/penny-vault/weekperf/data"
	"github.com/penny-vault/weekperf/dataframe"
	"github.com/penny-vault/weekperf/portfolio"
	"github.com/penny-vault/weekperf/strategies"
)

var ErrUnknownReportFormat = errors.New("unknown report format")

var (
	analyzeFormat string
	analyzeSeries bool
	analyzeExport string
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "table", "Output format one of: table, json, or toml")
	analyzeCmd.Flags().BoolVar(&analyzeSeries, "series", false, "Also print the weekly series of every strategy")
	analyzeCmd.Flags().StringVar(&analyzeExport, "export", "", "Write the weekly series of every strategy as CSV into this directory")
}

// analyzeConfig collects everything needed to build a report
type analyzeConfig struct {
	Epoch           time.Time
	Tickers         []string
	PrimaryAsset    string
	BenchmarkColumn string
	BenchmarkName   string
	WeightsPath     string
	PricesPath      string
	BenchmarkPath   string
	SignalPath      string
	Options         portfolio.Options
}

func analyzeConfigFromViper() (*analyzeConfig, error) {
	epoch, err := data.ParseDate(viper.GetString("analysis.epoch"))
	if err != nil {
		return nil, fmt.Errorf("analysis.epoch: %w", err)
	}
	if err := data.ValidateEpoch(epoch); err != nil {
		return nil, fmt.Errorf("analysis.epoch: %w", err)
	}

	tickers := viper.GetStringSlice("analysis.tickers")
	common.ArrToUpper(tickers)

	return &analyzeConfig{
		Epoch:           epoch,
		Tickers:         tickers,
		PrimaryAsset:    strings.ToUpper(viper.GetString("analysis.primary_asset")),
		BenchmarkColumn: viper.GetString("analysis.benchmark_column"),
		BenchmarkName:   viper.GetString("analysis.benchmark_name"),
		WeightsPath:     viper.GetString("input.weights"),
		PricesPath:      viper.GetString("input.prices"),
		BenchmarkPath:   viper.GetString("input.benchmark"),
		SignalPath:      viper.GetString("input.signal"),
		Options: portfolio.Options{
			Window:         viper.GetInt("analysis.window"),
			PeriodsPerYear: viper.GetFloat64("analysis.periods_per_year"),
			RiskFreeRate:   viper.GetFloat64("analysis.risk_free_rate"),
		},
	}, nil
}

// buildReport loads the input tables, computes every strategy over the shared alignment and
// evaluates their performance
func buildReport(cfg *analyzeConfig) (*portfolio.Report, error) {
	weights, err := data.LoadWeights(cfg.WeightsPath, cfg.Epoch, cfg.Tickers)
	if err != nil {
		return nil, err
	}
	if len(weights.Dropped) > 0 {
		log.Warn().Int("NumDropped", len(weights.Dropped)).Str("FileName", cfg.WeightsPath).Msg("weight rows with malformed week index were skipped")
	}

	prices, err := data.LoadPrices(cfg.PricesPath, weights.Assets)
	if err != nil {
		return nil, err
	}

	var benchmark *dataframe.DataFrame
	if cfg.BenchmarkPath != "" {
		if benchmark, err = data.LoadPrices(cfg.BenchmarkPath, []string{cfg.BenchmarkColumn}); err != nil {
			return nil, err
		}
	}

	var signal *data.WeightTable
	if cfg.SignalPath != "" {
		if signal, err = data.LoadWeights(cfg.SignalPath, cfg.Epoch, weights.Assets); err != nil {
			return nil, err
		}
	}

	in, err := strategies.NewInputs(weights, prices, benchmark, signal)
	if err != nil {
		return nil, err
	}

	primary := cfg.PrimaryAsset
	if primary == "" && len(weights.Assets) > 0 {
		primary = weights.Assets[0]
	}

	strats := strategies.Standard(strategies.StandardOptions{
		PortfolioName:    "Portfolio",
		PrimaryAsset:     primary,
		EqualWeightName:  "B&H (Equal Weight)",
		SignalName:       "MACD Strategy",
		BenchmarkName:    cfg.BenchmarkName,
		IncludeSignal:    signal != nil,
		IncludeBenchmark: benchmark != nil,
	})

	cmp, err := strategies.Compare(in, strats...)
	if err != nil {
		return nil, err
	}

	return portfolio.Analyze(cmp, cfg.Options), nil
}

// writeReport renders report to w in format
func writeReport(w io.Writer, report *portfolio.Report, format string, series bool) error {
	switch format {
	case "", "table":
		fmt.Fprintln(w, report.MetricsTable())
		fmt.Fprintf(w, "Correlation (Portfolio vs Benchmark): %s\n", formatStat(report.Correlation))
		fmt.Fprintf(w, "Regression: y = %s * x + %s\n", formatStat(report.Regression.Slope), formatStat(report.Regression.Intercept))
		if series {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Cumulative Returns")
			fmt.Fprintln(w, report.CumulativeDataFrame().Table())
			for _, perf := range report.Strategies {
				fmt.Fprintln(w, perf.Name)
				fmt.Fprintln(w, perf.SeriesDataFrame().Table())
			}
		}
	case "json":
		b, err := json.MarshalIndent(report.Summary(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(b))
	case "toml":
		b, err := toml.Marshal(report.Summary())
		if err != nil {
			return err
		}
		fmt.Fprint(w, string(b))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownReportFormat, format)
	}
	return nil
}

func formatStat(val float64) string {
	if math.IsNaN(val) {
		return "NaN"
	}
	return fmt.Sprintf("%.4f", val)
}

// exportSeries writes one CSV per strategy into dir
func exportSeries(dir string, report *portfolio.Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(report.Strategies))
	for _, perf := range report.Strategies {
		path := filepath.Join(dir, fileSlug(perf.Name)+".csv")
		fh, err := os.Create(path)
		if err != nil {
			return paths, err
		}
		err = perf.WriteSeriesCSV(fh)
		if closeErr := fh.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// fileSlug lowercases name and replaces every run of non alphanumeric characters by '_'
func fileSlug(name string) string {
	var sb strings.Builder
	underscore := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && sb.Len() > 0 {
			sb.WriteRune('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(sb.String(), "_")
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compare the portfolio against its reference strategies",
	Long: `Load the weekly weight snapshots, daily prices and optional benchmark and signal tables,
compute the weekly returns of every strategy over the shared alignment and print their
performance metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runLog := log.With().Str("RunID", uuid.New().String()).Logger()

		cfg, err := analyzeConfigFromViper()
		if err != nil {
			return err
		}

		report, err := buildReport(cfg)
		if err != nil {
			runLog.Error().Err(err).Msg("could not compute performance report")
			return err
		}
		runLog.Info().Int("NumWeeks", len(report.Dates)).Int("NumStrategies", len(report.Strategies)).Msg("computed performance report")

		if err := writeReport(cmd.OutOrStdout(), report, analyzeFormat, analyzeSeries); err != nil {
			return err
		}

		if analyzeExport != "" {
			paths, err := exportSeries(analyzeExport, report)
			if err != nil {
				runLog.Error().Err(err).Str("Dir", analyzeExport).Msg("could not export series")
				return err
			}
			runLog.Info().Strs("Files", paths).Msg("exported weekly series")
		}

		return nil
	},
}
