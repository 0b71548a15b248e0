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

package common

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// ErrCorruptCacheEntry is returned when a stored response no longer decodes
var ErrCorruptCacheEntry = errors.New("corrupt cache entry")

// frames carry a content checksum so damaged redis entries fail to decode
var lz4Options = []lz4.Option{
	lz4.CompressionLevelOption(lz4.Fast),
	lz4.ChecksumOption(true),
}

// Compress encodes a response body as an lz4 frame
func Compress(body []byte) ([]byte, error) {
	var frame bytes.Buffer
	zw := lz4.NewWriter(&frame)
	if err := zw.Apply(lz4Options...); err != nil {
		return nil, err
	}

	if _, err := zw.Write(body); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return frame.Bytes(), nil
}

// Decompress decodes a frame written by Compress
func Decompress(frame []byte) ([]byte, error) {
	body := bytes.NewBuffer(make([]byte, 0, 4*len(frame)))
	if _, err := io.Copy(body, lz4.NewReader(bytes.NewReader(frame))); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptCacheEntry, err)
	}
	return body.Bytes(), nil
}
