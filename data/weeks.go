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

package data

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultEpoch is the Monday on which week 1 starts
var DefaultEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// WeekStart maps a 1-based week number to the date the week starts on: epoch + (week-1)*7 days
func WeekStart(epoch time.Time, week int) (time.Time, error) {
	if err := ValidateEpoch(epoch); err != nil {
		return time.Time{}, err
	}
	if week < 1 {
		return time.Time{}, fmt.Errorf("%w: %d", ErrMalformedWeekIndex, week)
	}
	return epoch.AddDate(0, 0, (week-1)*7), nil
}

// ValidateEpoch returns ErrEpochNotMonday unless epoch falls on a Monday. Week starts derived
// from any other day never match the Monday keys of the price grid
func ValidateEpoch(epoch time.Time) error {
	if epoch.Weekday() != time.Monday {
		return fmt.Errorf("%w: %s is a %s", ErrEpochNotMonday, epoch.Format("2006-01-02"), epoch.Weekday())
	}
	return nil
}

// ParseWeek parses a week number. Integral values written as floats (e.g. "3.0") are accepted;
// fractional, non-positive, or non-numeric values return ErrMalformedWeekIndex
func ParseWeek(val string) (int, error) {
	val = strings.TrimSpace(val)
	if week, err := strconv.Atoi(val); err == nil {
		if week < 1 {
			return 0, fmt.Errorf("%w: %d", ErrMalformedWeekIndex, week)
		}
		return week, nil
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f < 1 || f > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedWeekIndex, val)
	}

	return int(f), nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
}

// ParseDate parses a calendar date and normalizes it to midnight UTC
func ParseDate(val string) (time.Time, error) {
	val = strings.TrimSpace(val)
	for _, layout := range dateLayouts {
		if dt, err := time.Parse(layout, val); err == nil {
			return time.Date(dt.Year(), dt.Month(), dt.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, val)
}
