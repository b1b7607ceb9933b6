// Copyright 2025 CostPilot
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package engine

import (
	"context"
	"sync"
)

// Builder constructs and validates an engine client for a credential tuple.
type Builder func(ctx context.Context, creds Credentials) (QueryEngine, string, error)

type cacheEntry struct {
	engine  QueryEngine
	account string
}

// ClientCache holds one validated engine client per credential tuple.
// The mutex is held across the build so concurrent first requests for the
// same tuple validate exactly once; validation failures are never cached.
type ClientCache struct {
	mu      sync.Mutex
	entries map[Credentials]*cacheEntry
	build   Builder
}

// NewClientCache creates a cache. A nil builder uses the AWS Athena builder.
func NewClientCache(build Builder) *ClientCache {
	if build == nil {
		build = func(ctx context.Context, creds Credentials) (QueryEngine, string, error) {
			return Connect(ctx, creds)
		}
	}
	return &ClientCache{
		entries: make(map[Credentials]*cacheEntry),
		build:   build,
	}
}

// Get returns the cached engine for the tuple, building and validating it
// on first use. It also returns the caller account id captured at
// validation time.
func (c *ClientCache) Get(ctx context.Context, creds Credentials) (QueryEngine, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[creds]; ok {
		return entry.engine, entry.account, nil
	}

	eng, account, err := c.build(ctx, creds)
	if err != nil {
		return nil, "", err
	}

	c.entries[creds] = &cacheEntry{engine: eng, account: account}
	return eng, account, nil
}

// Invalidate drops the cached client for one tuple.
func (c *ClientCache) Invalidate(creds Credentials) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, creds)
}

// Close drops every cached client.
func (c *ClientCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Credentials]*cacheEntry)
}

// Size returns the number of cached clients.
func (c *ClientCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
