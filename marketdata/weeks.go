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
	"time"

	"github.com/penny-vault/weekperf/dataframe"
)

// Week is a Monday..Sunday window; End may be clipped to the end of the requested range
type Week struct {
	Start time.Time
	End   time.Time
}

func (w Week) String() string {
	return w.Start.Format(dataframe.DateFormat) + "_to_" + w.End.Format(dataframe.DateFormat)
}

// Weeks splits [start, end] into weekly windows. The first window begins on the Monday of
// start's week and the last one ends on end
func Weeks(start, end time.Time) []Week {
	start = midnight(start)
	end = midnight(end)

	weeks := []Week{}
	if end.Before(start) {
		return weeks
	}

	monday := dataframe.WeekKey(start)
	for !monday.After(end) {
		sunday := monday.AddDate(0, 0, 6)
		if sunday.After(end) {
			sunday = end
		}
		weeks = append(weeks, Week{Start: monday, End: sunday})
		monday = monday.AddDate(0, 0, 7)
	}

	return weeks
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
