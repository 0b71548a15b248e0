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
	"errors"
	"fmt"
)

var (
	ErrRateLimited  = errors.New("alpha vantage rate limit reached")
	ErrAPIMessage   = errors.New("alpha vantage returned an error message")
	ErrNoData       = errors.New("no data returned")
	ErrInvalidRange = errors.New("start date is after end date")
)

// APIError is returned for HTTP status codes >= 400
type APIError struct {
	StatusCode int
	Function   string
	Symbol     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("alpha vantage %s %s: HTTP status %d", e.Function, e.Symbol, e.StatusCode)
}

// Temporary reports whether the request may succeed if retried
func (e *APIError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
