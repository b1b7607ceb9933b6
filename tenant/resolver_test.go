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

package tenant

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	mu       sync.Mutex
	accounts map[string]string
	lookups  int
}

func (f *fakeDirectory) Lookup(ctx context.Context, domain string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if acct, ok := f.accounts[domain]; ok {
		return acct, nil
	}
	return "", ErrNotFound
}

func (f *fakeDirectory) LookupMany(ctx context.Context, domains []string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	result := make(map[string]string)
	for _, domain := range domains {
		if acct, ok := f.accounts[domain]; ok {
			result[domain] = acct
		}
	}
	return result, nil
}

func (f *fakeDirectory) lookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups
}

func TestDomainForEmail(t *testing.T) {
	tests := []struct {
		email  string
		domain string
		err    error
	}{
		{"dana@Acme.IO", "acme.io", nil},
		{"weird@user@corp.example.com", "corp.example.com", nil},
		{"no-at-sign", "", ErrBadEmail},
		{"trailing@", "", ErrBadEmail},
	}
	for _, tt := range tests {
		domain, err := DomainForEmail(tt.email)
		assert.Equal(t, tt.err, err, tt.email)
		assert.Equal(t, tt.domain, domain, tt.email)
	}
}

func TestResolverMemoizesInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	dir := &fakeDirectory{accounts: map[string]string{"acme.io": "111122223333"}}
	r := NewResolver(dir, client, time.Minute)

	acct, err := r.AccountForEmail(context.Background(), "dana@acme.io")
	require.NoError(t, err)
	assert.Equal(t, "111122223333", acct)
	assert.Equal(t, 1, dir.lookupCount())

	// Second resolution is served from the cache.
	acct, err = r.AccountForDomain(context.Background(), "acme.io")
	require.NoError(t, err)
	assert.Equal(t, "111122223333", acct)
	assert.Equal(t, 1, dir.lookupCount())

	cached, err := mr.Get("tenant:domain:acme.io")
	require.NoError(t, err)
	assert.Equal(t, "111122223333", cached)
}

func TestResolverLocalFallback(t *testing.T) {
	dir := &fakeDirectory{accounts: map[string]string{"acme.io": "111122223333"}}
	r := NewResolver(dir, nil, time.Minute)

	for i := 0; i < 3; i++ {
		acct, err := r.AccountForDomain(context.Background(), "acme.io")
		require.NoError(t, err)
		assert.Equal(t, "111122223333", acct)
	}
	assert.Equal(t, 1, dir.lookupCount())
}

func TestResolverUnknownDomain(t *testing.T) {
	r := NewResolver(&fakeDirectory{accounts: map[string]string{}}, nil, time.Minute)

	_, err := r.AccountForDomain(context.Background(), "nowhere.io")
	assert.Equal(t, ErrNotFound, err)
}

func TestResolverBatchMixedHits(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	dir := &fakeDirectory{accounts: map[string]string{
		"acme.io": "111122223333",
		"beta.io": "444455556666",
	}}
	r := NewResolver(dir, client, time.Minute)

	// Seed one domain into the cache, then batch-resolve three.
	_, err := r.AccountForDomain(context.Background(), "acme.io")
	require.NoError(t, err)

	result, err := r.AccountsForDomains(context.Background(), []string{"acme.io", "beta.io", "nowhere.io"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"acme.io": "111122223333",
		"beta.io": "444455556666",
	}, result)
	// One single lookup plus one batch lookup for the misses.
	assert.Equal(t, 2, dir.lookupCount())
}

func TestResolverLocalFallbackConcurrent(t *testing.T) {
	accounts := make(map[string]string)
	for i := 0; i < 20; i++ {
		accounts[fmt.Sprintf("corp%d.io", i)] = fmt.Sprintf("%012d", i)
	}
	dir := &fakeDirectory{accounts: accounts}
	r := NewResolver(dir, nil, time.Minute)

	// Request-path resolution and the warmup goroutine share the local map.
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				domain := fmt.Sprintf("corp%d.io", i)
				acct, err := r.AccountForDomain(context.Background(), domain)
				assert.NoError(t, err)
				assert.Equal(t, accounts[domain], acct)
			}
		}()
	}
	wg.Wait()
}
