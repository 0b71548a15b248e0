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
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

const (
	newsQueryLayout     = "20060102T1504"
	newsPublishedLayout = "20060102T150405"
)

// DefaultNewsLimit is the number of articles requested per ticker and week
const DefaultNewsLimit = 10

type Topic struct {
	Topic          string `json:"topic"`
	RelevanceScore string `json:"relevance_score"`
}

type TickerSentiment struct {
	Ticker               string `json:"ticker"`
	RelevanceScore       string `json:"relevance_score"`
	TickerSentimentScore string `json:"ticker_sentiment_score"`
	TickerSentimentLabel string `json:"ticker_sentiment_label"`
}

// Article is one NEWS_SENTIMENT feed entry
type Article struct {
	Title                 string            `json:"title"`
	URL                   string            `json:"url"`
	TimePublished         string            `json:"time_published"`
	Authors               []string          `json:"authors"`
	Summary               string            `json:"summary"`
	BannerImage           string            `json:"banner_image"`
	Source                string            `json:"source"`
	CategoryWithinSource  string            `json:"category_within_source"`
	SourceDomain          string            `json:"source_domain"`
	Topics                []Topic           `json:"topics"`
	OverallSentimentScore float64           `json:"overall_sentiment_score"`
	OverallSentimentLabel string            `json:"overall_sentiment_label"`
	TickerSentiment       []TickerSentiment `json:"ticker_sentiment"`

	Published time.Time `json:"-"`
}

// News returns the articles about ticker published within week, most relevant first as
// requested from the API and then ordered by publish time. Ticker sentiment is narrowed to
// ticker.
func (c *Client) News(ctx context.Context, ticker string, week Week, limit int) ([]*Article, error) {
	subLog := log.With().Str("Symbol", ticker).Time("WeekStart", week.Start).Logger()

	if limit <= 0 {
		limit = DefaultNewsLimit
	}

	from := week.Start
	to := week.End.AddDate(0, 0, 1).Add(-time.Minute)

	params := url.Values{}
	params.Set("tickers", ticker)
	params.Set("sort", "RELEVANCE")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("time_from", from.Format(newsQueryLayout))
	params.Set("time_to", to.Format(newsQueryLayout))

	resp, err := c.query(ctx, "NEWS_SENTIMENT", ticker, params)
	if err != nil {
		return nil, err
	}

	raw, ok := resp["feed"]
	if !ok {
		subLog.Warn().Msg("news response has no feed")
		return []*Article{}, nil
	}

	feed := []*Article{}
	if err := json.Unmarshal(raw, &feed); err != nil {
		subLog.Warn().Err(err).Msg("unexpected news feed format")
		return []*Article{}, nil
	}

	return filterArticles(feed, ticker, week), nil
}

// filterArticles keeps articles published in [week.Start, week.End + 1 day) UTC
func filterArticles(feed []*Article, ticker string, week Week) []*Article {
	begin := week.Start
	end := week.End.AddDate(0, 0, 1)

	res := make([]*Article, 0, len(feed))
	for _, item := range feed {
		if item.TimePublished == "" {
			continue
		}

		published, err := time.ParseInLocation(newsPublishedLayout, item.TimePublished, time.UTC)
		if err != nil {
			log.Warn().Str("TimePublished", item.TimePublished).Str("Title", item.Title).Msg("could not parse article publish time")
			continue
		}

		if published.Before(begin) || !published.Before(end) {
			continue
		}

		item.Published = published
		sentiment := make([]TickerSentiment, 0, 1)
		for _, ts := range item.TickerSentiment {
			if ts.Ticker == ticker {
				sentiment = append(sentiment, ts)
			}
		}
		item.TickerSentiment = sentiment
		res = append(res, item)
	}

	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Published.Before(res[j].Published)
	})

	return res
}
