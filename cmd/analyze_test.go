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
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"

	"github.com/penny-vault/weekperf/data"
	"github.com/penny-vault/weekperf/portfolio"
)

func writeFile(dir, name, contents string) string {
	path := filepath.Join(dir, name)
	Expect(os.WriteFile(path, []byte(contents), 0o600)).To(Succeed())
	return path
}

var _ = Describe("Analyze", func() {
	var (
		dir string
		cfg *analyzeConfig
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "weekperf")
		Expect(err).To(BeNil())
		DeferCleanup(os.RemoveAll, dir)

		cfg = &analyzeConfig{
			Epoch:           data.DefaultEpoch,
			Tickers:         []string{"NVDA", "MSFT"},
			PrimaryAsset:    "NVDA",
			BenchmarkColumn: "benchmark_close",
			BenchmarkName:   "NASDAQ 100",
			WeightsPath: writeFile(dir, "results.csv", "Week,NVDA,MSFT,CASH\n"+
				"1,0.5,0.5,0\n2,0.5,0.5,0\n3,1,0,0\nweek four,1,0,0\n4,1,0,0\n5,0,1,0\n"),
			PricesPath: writeFile(dir, "prices.csv", "date,NVDA,MSFT\n"+
				"2024-01-02,100,50\n2024-01-03,101,51\n"+
				"2024-01-08,110,50\n2024-01-15,121,55\n"+
				"2024-01-22,108.9,55\n2024-01-29,119.79,60.5\n2024-02-05,119.79,66.55\n"),
			BenchmarkPath: writeFile(dir, "benchmark.csv", "date,benchmark_close\n"+
				"2024-01-02,1000\n2024-01-08,1010\n2024-01-15,1060.5\n2024-01-22,1007.475\n2024-01-29,1057.85\n2024-02-05,1100\n"),
			SignalPath: writeFile(dir, "signal.csv", "Week,NVDA,MSFT\n1,1,0\n3,0,1\n"),
			Options:    portfolio.DefaultOptions(),
		}
	})

	It("reports every strategy in order", func() {
		report, err := buildReport(cfg)
		Expect(err).To(BeNil())

		names := []string{}
		for _, perf := range report.Strategies {
			names = append(names, perf.Name)
		}
		Expect(names).To(Equal([]string{"Portfolio", "NASDAQ 100", "B&H (Equal Weight)", "B&H (100% NVDA)", "MACD Strategy"}))
		Expect(report.Dates).ToNot(BeEmpty())
		Expect(report.Strategies[0].Returns).To(HaveLen(len(report.Dates)))
	})

	It("skips optional tables that are not configured", func() {
		cfg.BenchmarkPath = ""
		cfg.SignalPath = ""

		report, err := buildReport(cfg)
		Expect(err).To(BeNil())
		Expect(report.Strategies).To(HaveLen(3))
		Expect(report.Lookup("NASDAQ 100")).To(BeNil())
	})

	It("rejects an epoch that is not a Monday", func() {
		cfg.Epoch = time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
		_, err := buildReport(cfg)
		Expect(err).To(MatchError(data.ErrEpochNotMonday))
	})

	It("fails on a missing price file", func() {
		cfg.PricesPath = filepath.Join(dir, "missing.csv")
		_, err := buildReport(cfg)
		Expect(err).ToNot(BeNil())
	})

	It("fails when a held asset has no prices", func() {
		cfg.PricesPath = writeFile(dir, "nvda.csv", "date,NVDA\n2024-01-08,100\n")
		_, err := buildReport(cfg)
		Expect(err).ToNot(BeNil())
	})

	Describe("output", func() {
		var report *portfolio.Report

		BeforeEach(func() {
			var err error
			report, err = buildReport(cfg)
			Expect(err).To(BeNil())
		})

		It("renders the metrics table", func() {
			var buf bytes.Buffer
			Expect(writeReport(&buf, report, "table", true)).To(Succeed())
			Expect(buf.String()).To(ContainSubstring("SHARPE RATIO"))
			Expect(buf.String()).To(ContainSubstring("B&H (100% NVDA)"))
			Expect(buf.String()).To(ContainSubstring("Correlation (Portfolio vs Benchmark)"))
			Expect(buf.String()).To(ContainSubstring("Cumulative Returns"))
		})

		It("renders json", func() {
			var buf bytes.Buffer
			Expect(writeReport(&buf, report, "json", false)).To(Succeed())

			summary := portfolio.Summary{}
			Expect(json.Unmarshal(buf.Bytes(), &summary)).To(Succeed())
			Expect(summary.Metrics).To(HaveLen(5))
			Expect(summary.Metrics[0].Strategy).To(Equal("Portfolio"))
			Expect(summary.Start).To(Equal(report.Dates[0].Format("2006-01-02")))
		})

		It("renders toml", func() {
			var buf bytes.Buffer
			Expect(writeReport(&buf, report, "toml", false)).To(Succeed())

			summary := portfolio.Summary{}
			Expect(toml.Unmarshal(buf.Bytes(), &summary)).To(Succeed())
			Expect(summary.Metrics).To(HaveLen(5))
			Expect(summary.NumWeeks).To(Equal(len(report.Dates)))
		})

		It("rejects unknown formats", func() {
			var buf bytes.Buffer
			err := writeReport(&buf, report, "yaml", false)
			Expect(errors.Is(err, ErrUnknownReportFormat)).To(BeTrue())
		})

		It("exports one CSV per strategy", func() {
			out := filepath.Join(dir, "export")
			paths, err := exportSeries(out, report)
			Expect(err).To(BeNil())
			Expect(paths).To(HaveLen(5))
			Expect(filepath.Base(paths[3])).To(Equal("b_h_100_nvda.csv"))

			contents, err := os.ReadFile(paths[0])
			Expect(err).To(BeNil())
			Expect(string(contents)).To(HavePrefix("Week,Return,Cumulative,Drawdown,RollingVolatility,RollingSharpe\n"))
		})
	})
})

var _ = Describe("Helpers", func() {
	It("slugs strategy names", func() {
		Expect(fileSlug("Portfolio")).To(Equal("portfolio"))
		Expect(fileSlug("B&H (Equal Weight)")).To(Equal("b_h_equal_weight"))
		Expect(fileSlug("NASDAQ 100")).To(Equal("nasdaq_100"))
	})

	It("schedules the current week by default", func() {
		now := time.Date(2024, 1, 12, 18, 0, 0, 0, time.UTC)
		start, end := scheduledRange(now, 1)
		Expect(start).To(Equal(time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)))
		Expect(end).To(Equal(now))

		start, _ = scheduledRange(now, 3)
		Expect(start).To(Equal(time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC)))
	})

	It("skips a scheduled run while the previous one is still going", func() {
		var runs int32
		started := make(chan struct{})
		release := make(chan struct{})
		job := aggregationChain().Then(cron.FuncJob(func() {
			atomic.AddInt32(&runs, 1)
			close(started)
			<-release
		}))

		done := make(chan struct{})
		go func() {
			job.Run()
			close(done)
		}()
		<-started

		job.Run()
		Expect(atomic.LoadInt32(&runs)).To(Equal(int32(1)))

		close(release)
		Eventually(done).Should(BeClosed())
	})

	It("recovers a panicking scheduled run", func() {
		job := aggregationChain().Then(cron.FuncJob(func() {
			panic("boom")
		}))
		Expect(job.Run).NotTo(Panic())
	})
})
