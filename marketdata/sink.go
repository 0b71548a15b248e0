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
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/parquet-go/parquet-go"

	"github.com/penny-vault/weekperf/common"
	"github.com/penny-vault/weekperf/dataframe"
)

var ErrUnknownFormat = errors.New("unknown output format")

// Sink persists the weekly artifacts and returns the path written
type Sink interface {
	WriteTechnicals(ticker string, week Week, df *dataframe.DataFrame) (string, error)
	WriteFundamentals(ticker string, week Week, f *Fundamentals) (string, error)
	WriteNews(ticker string, week Week, articles []*Article) (string, error)
	WriteVolatility(week Week, vols []*Volatility) (string, error)
}

// NewSink returns the sink for format ("csv" or "parquet") rooted at dir
func NewSink(format, dir string) (Sink, error) {
	switch format {
	case "", "csv":
		return &CSVSink{Dir: dir}, nil
	case "parquet":
		return &ParquetSink{Dir: dir}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func technicalsName(ticker string, week Week, ext string) string {
	return fmt.Sprintf("technicals_%s_%s.%s", ticker, week.End.Format(dataframe.DateFormat), ext)
}

func fundamentalsName(ticker string, week Week, ext string) string {
	return fmt.Sprintf("financials_%s_%s.%s", ticker, week, ext)
}

func newsName(ticker string, week Week, ext string) string {
	return fmt.Sprintf("news_%s_%s.%s", ticker, week, ext)
}

func volatilityName(week Week, ext string) string {
	return fmt.Sprintf("VOLATILITY_%s.%s", week.Start.Format(dataframe.DateFormat), ext)
}

// NewsRecord is the flattened form of an Article; list members are JSON encoded
type NewsRecord struct {
	Title                 string  `parquet:"title"`
	URL                   string  `parquet:"url"`
	TimePublishedStr      string  `parquet:"time_published_str"`
	TimePublishedISO      string  `parquet:"time_published_iso"`
	Authors               string  `parquet:"authors"`
	Summary               string  `parquet:"summary"`
	BannerImage           string  `parquet:"banner_image"`
	Source                string  `parquet:"source"`
	SourceDomain          string  `parquet:"source_domain"`
	CategoryWithinSource  string  `parquet:"category_within_source"`
	Topics                string  `parquet:"topics"`
	OverallSentimentScore float64 `parquet:"overall_sentiment_score"`
	OverallSentimentLabel string  `parquet:"overall_sentiment_label"`
	TickerSentiment       string  `parquet:"ticker_sentiment"`
}

var newsHeader = []string{
	"title", "url", "time_published_str", "time_published_iso", "authors", "summary",
	"banner_image", "source", "source_domain", "category_within_source", "topics",
	"overall_sentiment_score", "overall_sentiment_label", "ticker_sentiment",
}

func encodeList(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func newsRecord(a *Article) NewsRecord {
	authors := a.Authors
	if authors == nil {
		authors = []string{}
	}
	topics := a.Topics
	if topics == nil {
		topics = []Topic{}
	}
	return NewsRecord{
		Title:                 a.Title,
		URL:                   a.URL,
		TimePublishedStr:      a.TimePublished,
		TimePublishedISO:      a.Published.Format(time.RFC3339),
		Authors:               encodeList(authors),
		Summary:               a.Summary,
		BannerImage:           a.BannerImage,
		Source:                a.Source,
		SourceDomain:          a.SourceDomain,
		CategoryWithinSource:  a.CategoryWithinSource,
		Topics:                encodeList(topics),
		OverallSentimentScore: a.OverallSentimentScore,
		OverallSentimentLabel: a.OverallSentimentLabel,
		TickerSentiment:       encodeList(a.TickerSentiment),
	}
}

func (r NewsRecord) row() []string {
	return []string{
		r.Title, r.URL, r.TimePublishedStr, r.TimePublishedISO, r.Authors, r.Summary,
		r.BannerImage, r.Source, r.SourceDomain, r.CategoryWithinSource, r.Topics,
		formatFloat(r.OverallSentimentScore), r.OverallSentimentLabel, r.TickerSentiment,
	}
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// CSVSink writes every artifact as a CSV file in Dir
type CSVSink struct {
	Dir string
}

func (s *CSVSink) write(name string, header []string, rows [][]string) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(s.Dir, name)
	fh, err := os.Create(path)
	if err != nil {
		return "", err
	}

	err = common.ExportCSV(context.TODO(), fh, header, rows)
	if closeErr := fh.Close(); err == nil {
		err = closeErr
	}
	return path, err
}

func (s *CSVSink) WriteTechnicals(ticker string, week Week, df *dataframe.DataFrame) (string, error) {
	header := append([]string{"date"}, df.ColNames...)
	rows := make([][]string, df.Len())
	for rowIdx, date := range df.Dates {
		row := make([]string, 0, len(header))
		row = append(row, date.Format(dataframe.DateFormat))
		for _, col := range df.Vals {
			row = append(row, formatFloat(col[rowIdx]))
		}
		rows[rowIdx] = row
	}
	return s.write(technicalsName(ticker, week, "csv"), header, rows)
}

func (s *CSVSink) WriteFundamentals(ticker string, week Week, f *Fundamentals) (string, error) {
	header := make([]string, len(f.Fields))
	row := make([]string, len(f.Fields))
	for idx, fld := range f.Fields {
		header[idx] = fld.Name
		row[idx] = fld.Value
	}
	return s.write(fundamentalsName(ticker, week, "csv"), header, [][]string{row})
}

func (s *CSVSink) WriteNews(ticker string, week Week, articles []*Article) (string, error) {
	rows := make([][]string, len(articles))
	for idx, a := range articles {
		rows[idx] = newsRecord(a).row()
	}
	return s.write(newsName(ticker, week, "csv"), newsHeader, rows)
}

func (s *CSVSink) WriteVolatility(week Week, vols []*Volatility) (string, error) {
	rows := make([][]string, len(vols))
	for idx, v := range vols {
		rows[idx] = []string{v.Ticker, formatFloat(v.WeeklyVolatility)}
	}
	return s.write(volatilityName(week, "csv"), []string{"Ticker", "WeeklyVolatility"}, rows)
}

// TechnicalRecord is the parquet schema of one trading day; missing indicators are NaN
type TechnicalRecord struct {
	Date       int64   `parquet:"date,timestamp(millisecond)"`
	Open       float64 `parquet:"open"`
	High       float64 `parquet:"high"`
	Low        float64 `parquet:"low"`
	Close      float64 `parquet:"close"`
	Volume     float64 `parquet:"volume"`
	MACD       float64 `parquet:"macd"`
	MACDHist   float64 `parquet:"macd_hist"`
	MACDSignal float64 `parquet:"macd_signal"`
	RSI        float64 `parquet:"rsi"`
	BBUpper    float64 `parquet:"bb_upper"`
	BBMiddle   float64 `parquet:"bb_middle"`
	BBLower    float64 `parquet:"bb_lower"`
}

// FundamentalRecord stores a snapshot in long form
type FundamentalRecord struct {
	Symbol string `parquet:"symbol"`
	Field  string `parquet:"field"`
	Value  string `parquet:"value"`
}

type VolatilityRecord struct {
	Ticker           string  `parquet:"ticker"`
	WeeklyVolatility float64 `parquet:"weekly_volatility"`
}

// ParquetSink writes every artifact as a parquet file in Dir
type ParquetSink struct {
	Dir    string
	Period int
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func (s *ParquetSink) WriteTechnicals(ticker string, week Week, df *dataframe.DataFrame) (string, error) {
	period := s.Period
	if period == 0 {
		period = DefaultIndicatorPeriod
	}

	value := func(name string, rowIdx int) float64 {
		if idx := df.ColIndex(name); idx >= 0 {
			return df.Vals[idx][rowIdx]
		}
		return math.NaN()
	}

	records := make([]TechnicalRecord, df.Len())
	for rowIdx, date := range df.Dates {
		records[rowIdx] = TechnicalRecord{
			Date:       date.UnixMilli(),
			Open:       value(OpenColumn, rowIdx),
			High:       value(HighColumn, rowIdx),
			Low:        value(LowColumn, rowIdx),
			Close:      value(CloseColumn, rowIdx),
			Volume:     value(VolumeColumn, rowIdx),
			MACD:       value(MACDColumn, rowIdx),
			MACDHist:   value(MACDHistColumn, rowIdx),
			MACDSignal: value(MACDSignalColumn, rowIdx),
			RSI:        value(RSIColumn(period), rowIdx),
			BBUpper:    value(BBandUpperColumn(period), rowIdx),
			BBMiddle:   value(BBandMiddleColumn(period), rowIdx),
			BBLower:    value(BBandLowerColumn(period), rowIdx),
		}
	}

	path := filepath.Join(s.Dir, technicalsName(ticker, week, "parquet"))
	return path, writeParquetFile(path, records)
}

func (s *ParquetSink) WriteFundamentals(ticker string, week Week, f *Fundamentals) (string, error) {
	records := make([]FundamentalRecord, len(f.Fields))
	for idx, fld := range f.Fields {
		records[idx] = FundamentalRecord{Symbol: ticker, Field: fld.Name, Value: fld.Value}
	}

	path := filepath.Join(s.Dir, fundamentalsName(ticker, week, "parquet"))
	return path, writeParquetFile(path, records)
}

func (s *ParquetSink) WriteNews(ticker string, week Week, articles []*Article) (string, error) {
	records := make([]NewsRecord, len(articles))
	for idx, a := range articles {
		records[idx] = newsRecord(a)
	}

	path := filepath.Join(s.Dir, newsName(ticker, week, "parquet"))
	return path, writeParquetFile(path, records)
}

func (s *ParquetSink) WriteVolatility(week Week, vols []*Volatility) (string, error) {
	records := make([]VolatilityRecord, len(vols))
	for idx, v := range vols {
		records[idx] = VolatilityRecord{Ticker: v.Ticker, WeeklyVolatility: v.WeeklyVolatility}
	}

	path := filepath.Join(s.Dir, volatilityName(week, "parquet"))
	return path, writeParquetFile(path, records)
}
