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
	"context"
	"encoding/hex"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/zeebo/blake3"
)

var (
	ErrCacheMiss = errors.New("cache miss")
)

// CacheOptions configures a two level response cache
type CacheOptions struct {
	LocalSize int
	RedisURL  string
	TTL       time.Duration
}

// Cache keeps lz4 compressed values in a local LRU and, when configured, in redis
type Cache struct {
	local *lru.Cache
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCache creates a cache. Redis is only used when RedisURL is set
func NewCache(opts CacheOptions) (*Cache, error) {
	size := opts.LocalSize
	if size <= 0 {
		size = 128
	}

	local, err := lru.New(size)
	if err != nil {
		return nil, err
	}

	c := &Cache{
		local: local,
		ttl:   opts.TTL,
	}

	if opts.RedisURL != "" {
		opt, err := redis.ParseURL(opts.RedisURL)
		if err != nil {
			return nil, err
		}
		c.rdb = redis.NewClient(opt)
	}

	return c, nil
}

// SetupCache builds the cache from the cache.* configuration keys
func SetupCache() (*Cache, error) {
	opts := CacheOptions{
		LocalSize: viper.GetInt("cache.local_size"),
		TTL:       time.Duration(viper.GetInt("cache.ttl")) * time.Second,
	}

	if viper.GetBool("cache.redis") {
		opts.RedisURL = viper.GetString("cache.redis_url")
	}

	c, err := NewCache(opts)
	if err != nil {
		log.Error().Err(err).Msg("could not create response cache")
		return nil, err
	}

	return c, nil
}

func (c *Cache) Set(ctx context.Context, key string, val []byte) error {
	b2, err := Compress(val)
	if err != nil {
		return err
	}
	c.local.Add(key, b2)

	if c.rdb != nil {
		return c.rdb.Set(ctx, key, b2, c.ttl).Err()
	}
	return nil
}

// Get returns the decompressed value stored under key or ErrCacheMiss
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := c.local.Get(key); ok {
		return Decompress(v.([]byte))
	}

	if c.rdb == nil {
		return nil, ErrCacheMiss
	}

	val, err := c.rdb.GetEx(ctx, key, c.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	c.local.Add(key, val)
	return Decompress(val)
}

// Len reports the number of entries in the local cache
func (c *Cache) Len() int {
	return c.local.Len()
}

// CacheKey digests the parts into a stable hex key
func CacheKey(parts ...string) string {
	h := blake3.New()
	for _, part := range parts {
		_, _ = h.Write([]byte(part))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
