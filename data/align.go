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
	"time"

	"github.com/penny-vault/weekperf/dataframe"
	"github.com/rs/zerolog/log"
)

// WeeklyGrid reduces a daily price table to one row per calendar week holding the first
// observation of that week. Rows are keyed by the Monday of the week
func WeeklyGrid(prices *dataframe.DataFrame) *dataframe.DataFrame {
	grid := prices.WeeklyFirst()
	log.Debug().Int("NumDays", prices.Len()).Int("NumWeeks", grid.Len()).Msg("built weekly price grid")
	return grid
}

// Alignment is the shared join of weight snapshots and weekly prices. Row t of Weights holds the
// snapshot observed the week before Weeks[t]; row t of Prices is the price grid row of Weeks[t]
type Alignment struct {
	Weeks   []time.Time
	Weights *dataframe.DataFrame
	Prices  *dataframe.DataFrame
	Cash    []float64

	// Excluded lists effective weeks that had no matching price week
	Excluded []time.Time
}

// Len returns the number of aligned weeks
func (a *Alignment) Len() int {
	return len(a.Weeks)
}

// Align inner-joins weight snapshots to the weekly price grid on EffectiveWeek == week key. Snapshots
// whose effective week has no grid row are excluded. If several snapshots share an effective week the
// last one is used. Every asset in weights must have a price column in grid
func Align(weights *WeightTable, grid *dataframe.DataFrame) (*Alignment, error) {
	for _, asset := range weights.Assets {
		if grid.ColIndex(asset) == -1 {
			return nil, fmt.Errorf("%w: no prices for %s", ErrMissingColumn, asset)
		}
	}

	gridRows := make(map[int64]int, grid.Len())
	for idx, week := range grid.Dates {
		gridRows[week.Unix()] = idx
	}

	// dedupe on effective week keeping the last snapshot
	snapshots := make([]*WeightSnapshot, 0, len(weights.Snapshots))
	for _, snap := range weights.Snapshots {
		if last := len(snapshots) - 1; last >= 0 && snapshots[last].EffectiveWeek().Equal(snap.EffectiveWeek()) {
			log.Warn().Time("EffectiveWeek", snap.EffectiveWeek()).Msg("duplicate weight snapshot for week; keeping the last one")
			snapshots[last] = snap
			continue
		}
		snapshots = append(snapshots, snap)
	}

	align := &Alignment{
		Weeks:    make([]time.Time, 0, len(snapshots)),
		Weights:  dataframe.New(weights.Assets...),
		Cash:     make([]float64, 0, len(snapshots)),
		Excluded: []time.Time{},
	}

	for _, snap := range snapshots {
		effective := snap.EffectiveWeek()
		if _, ok := gridRows[effective.Unix()]; !ok {
			log.Debug().Time("EffectiveWeek", effective).Msg("no price week for weight snapshot; excluding")
			align.Excluded = append(align.Excluded, effective)
			continue
		}

		vals := make([]float64, len(weights.Assets))
		for idx, asset := range weights.Assets {
			vals[idx] = snap.Weight(asset)
		}

		align.Weeks = append(align.Weeks, effective)
		align.Weights.InsertRow(effective, vals...)
		align.Cash = append(align.Cash, snap.Cash)
	}

	align.Prices = grid.Reindex(align.Weeks)

	if align.Len() == 0 {
		log.Warn().Int("NumSnapshots", len(snapshots)).Int("NumWeeks", grid.Len()).Msg("no weight snapshot aligned with the price grid")
	}

	return align, nil
}
