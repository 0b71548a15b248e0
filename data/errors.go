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
	"errors"
	"fmt"
)

var (
	ErrMalformedWeekIndex = errors.New("malformed week index")
	ErrNonNumericValue    = errors.New("non-numeric value")
	ErrMalformedDate      = errors.New("malformed date")
	ErrMissingColumn      = errors.New("missing column")
	ErrNoRows             = errors.New("table has no rows")
	ErrEpochNotMonday     = errors.New("epoch is not a Monday")
)

// MalformedWeekIndexError describes a weight row whose week number could not be mapped to a
// calendar date. Loaders drop the row and report the error alongside the loaded table
type MalformedWeekIndexError struct {
	Line  int
	Value string
}

func (e *MalformedWeekIndexError) Error() string {
	return fmt.Sprintf("line %d: week %q must be an integer >= 1", e.Line, e.Value)
}

func (e *MalformedWeekIndexError) Unwrap() error {
	return ErrMalformedWeekIndex
}
