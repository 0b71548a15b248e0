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
	"sort"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Field is a single named value of a fundamentals snapshot
type Field struct {
	Name  string
	Value string
}

// Fundamentals is a one row snapshot of a company; the first source to report a field wins
type Fundamentals struct {
	Symbol string
	Fields []Field
	seen   map[string]bool
}

// Get returns the value of name and whether it was reported
func (f *Fundamentals) Get(name string) (string, bool) {
	for _, fld := range f.Fields {
		if fld.Name == name {
			return fld.Value, true
		}
	}
	return "", false
}

// merge appends the members of entry in key order, ignoring names already present
func (f *Fundamentals) merge(entry map[string]interface{}) {
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}

	keys := make([]string, 0, len(entry))
	for k := range entry {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if f.seen[k] {
			continue
		}
		f.seen[k] = true
		f.Fields = append(f.Fields, Field{Name: k, Value: stringify(entry[k])})
	}
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Overview returns the company overview of symbol
func (c *Client) Overview(ctx context.Context, symbol string) (map[string]interface{}, error) {
	resp, err := c.query(ctx, "OVERVIEW", symbol, nil)
	if err != nil {
		return nil, err
	}

	entry := make(map[string]interface{}, len(resp))
	for k, raw := range resp {
		var v interface{}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		entry[k] = v
	}
	return entry, nil
}

// LatestReport returns the first (most recent) entry of the named list of function's response,
// e.g. annualReports of INCOME_STATEMENT
func (c *Client) LatestReport(ctx context.Context, function, symbol, list string) (map[string]interface{}, error) {
	resp, err := c.query(ctx, function, symbol, nil)
	if err != nil {
		return nil, err
	}

	raw, err := resp.section(list)
	if err != nil {
		return nil, err
	}

	reports := []map[string]interface{}{}
	if err := json.Unmarshal(raw, &reports); err != nil {
		return nil, err
	}

	if len(reports) == 0 {
		return nil, ErrNoData
	}
	return reports[0], nil
}

// Fundamentals merges the overview with the latest annual income statement, balance sheet,
// cash flow and earnings of symbol. Sources that fail are logged and skipped; ErrNoData is
// returned when none succeed.
func (c *Client) Fundamentals(ctx context.Context, symbol string) (*Fundamentals, error) {
	subLog := log.With().Str("Symbol", symbol).Logger()
	res := &Fundamentals{Symbol: symbol}

	sources := []struct {
		name  string
		fetch func() (map[string]interface{}, error)
	}{
		{"OVERVIEW", func() (map[string]interface{}, error) { return c.Overview(ctx, symbol) }},
		{"INCOME_STATEMENT", func() (map[string]interface{}, error) {
			return c.LatestReport(ctx, "INCOME_STATEMENT", symbol, "annualReports")
		}},
		{"BALANCE_SHEET", func() (map[string]interface{}, error) {
			return c.LatestReport(ctx, "BALANCE_SHEET", symbol, "annualReports")
		}},
		{"CASH_FLOW", func() (map[string]interface{}, error) {
			return c.LatestReport(ctx, "CASH_FLOW", symbol, "annualReports")
		}},
		{"EARNINGS", func() (map[string]interface{}, error) {
			return c.LatestReport(ctx, "EARNINGS", symbol, "annualEarnings")
		}},
	}

	for _, src := range sources {
		entry, err := src.fetch()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			subLog.Warn().Err(err).Str("Source", src.name).Msg("fundamentals source unavailable")
			continue
		}
		res.merge(entry)
	}

	if len(res.Fields) == 0 {
		return nil, ErrNoData
	}
	return res, nil
}
