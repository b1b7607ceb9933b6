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
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"costpilot/platform/shared/logger"
)

const cacheKeyPrefix = "tenant:domain:"

// Resolver resolves email domains to tenant account ids, memoizing hits in
// Redis when a client is configured and in process memory otherwise. The
// local map is shared by request handlers and the warmup goroutine, so it
// is mutex-guarded.
type Resolver struct {
	directory Directory
	cache     *redis.Client
	ttl       time.Duration

	mu    sync.RWMutex
	local map[string]string

	log *logger.Logger
}

// NewResolver creates a resolver. The Redis client may be nil.
func NewResolver(directory Directory, cache *redis.Client, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Resolver{
		directory: directory,
		cache:     cache,
		ttl:       ttl,
		local:     make(map[string]string),
		log:       logger.New("tenant"),
	}
}

// AccountForEmail resolves the account registered for the email's domain.
func (r *Resolver) AccountForEmail(ctx context.Context, email string) (string, error) {
	domain, err := DomainForEmail(email)
	if err != nil {
		return "", err
	}
	return r.AccountForDomain(ctx, domain)
}

// AccountForDomain resolves a single domain, consulting the cache first.
func (r *Resolver) AccountForDomain(ctx context.Context, domain string) (string, error) {
	if acct, ok := r.cached(ctx, domain); ok {
		return acct, nil
	}

	acct, err := r.directory.Lookup(ctx, domain)
	if err != nil {
		return "", err
	}

	r.remember(ctx, domain, acct)
	return acct, nil
}

// AccountsForDomains resolves a set of domains. Unknown domains are simply
// absent from the result.
func (r *Resolver) AccountsForDomains(ctx context.Context, domains []string) (map[string]string, error) {
	result := make(map[string]string)
	var misses []string

	for _, domain := range domains {
		if acct, ok := r.cached(ctx, domain); ok {
			result[domain] = acct
		} else {
			misses = append(misses, domain)
		}
	}

	if len(misses) > 0 {
		resolved, err := r.directory.LookupMany(ctx, misses)
		if err != nil {
			return nil, err
		}
		for domain, acct := range resolved {
			result[domain] = acct
			r.remember(ctx, domain, acct)
		}
	}
	return result, nil
}

func (r *Resolver) cached(ctx context.Context, domain string) (string, bool) {
	if r.cache != nil {
		acct, err := r.cache.Get(ctx, cacheKeyPrefix+domain).Result()
		if err == nil && acct != "" {
			return acct, true
		}
		if err != nil && err != redis.Nil {
			r.log.Warn("", "", "tenant cache read failed", map[string]interface{}{
				"domain": domain,
				"error":  err.Error(),
			})
		}
		return "", false
	}

	r.mu.RLock()
	acct, ok := r.local[domain]
	r.mu.RUnlock()
	return acct, ok
}

func (r *Resolver) remember(ctx context.Context, domain, acct string) {
	if r.cache != nil {
		if err := r.cache.Set(ctx, cacheKeyPrefix+domain, acct, r.ttl).Err(); err != nil {
			r.log.Warn("", "", "tenant cache write failed", map[string]interface{}{
				"domain": domain,
				"error":  err.Error(),
			})
		}
		return
	}
	r.mu.Lock()
	r.local[domain] = acct
	r.mu.Unlock()
}
