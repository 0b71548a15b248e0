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

package dataframe

import (
	"fmt"
	"sort"
)

type DataFrameMap map[string]*DataFrame

// DataFrame joins each item in the map into a single dataframe containing only dates shared by
// every item. Columns are ordered by the given keys; when no keys are given the map keys are used
// in sorted order
func (dfMap DataFrameMap) DataFrame(order ...string) (*DataFrame, error) {
	if len(order) == 0 {
		for k := range dfMap {
			order = append(order, k)
		}
		sort.Strings(order)
	}

	var res *DataFrame
	for _, k := range order {
		df, ok := dfMap[k]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, k)
		}

		if res == nil {
			res = df.Copy()
			continue
		}

		var err error
		if res, err = res.InnerJoin(df); err != nil {
			return nil, err
		}
	}

	if res == nil {
		return New(), nil
	}

	return res, nil
}
