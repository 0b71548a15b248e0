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

package strategies

import "errors"

var (
	ErrUnknownAsset    = errors.New("asset has no prices in the weekly grid")
	ErrNoSignal        = errors.New("no signal weights supplied")
	ErrNoBenchmark     = errors.New("no benchmark prices supplied")
	ErrDuplicateName   = errors.New("duplicate strategy name")
	ErrNoStrategies    = errors.New("no strategies to compare")
)
