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

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretSource fetches a named secret as a flat string map.
type SecretSource interface {
	GetSecret(ctx context.Context, arn string) (map[string]string, error)
}

// AWSSecretSource reads JSON secrets from AWS Secrets Manager. Values are
// cached for the configured TTL so config reloads do not hammer the API.
type AWSSecretSource struct {
	client *secretsmanager.Client
	ttl    time.Duration

	mu    sync.RWMutex
	cache map[string]secretEntry
}

type secretEntry struct {
	value     map[string]string
	expiresAt time.Time
}

// NewAWSSecretSource creates a secret source with the given cache TTL
func NewAWSSecretSource(client *secretsmanager.Client, ttl time.Duration) *AWSSecretSource {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AWSSecretSource{
		client: client,
		ttl:    ttl,
		cache:  make(map[string]secretEntry),
	}
}

// GetSecret retrieves and parses a JSON secret. A non-JSON secret string is
// returned under the single key "value".
func (s *AWSSecretSource) GetSecret(ctx context.Context, arn string) (map[string]string, error) {
	s.mu.RLock()
	entry, ok := s.cache[arn]
	s.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.value, nil
	}

	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(arn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get secret %s: %w", maskARN(arn), err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", maskARN(arn))
	}

	var values map[string]string
	if err := json.Unmarshal([]byte(*out.SecretString), &values); err != nil {
		values = map[string]string{"value": *out.SecretString}
	}

	s.mu.Lock()
	s.cache[arn] = secretEntry{value: values, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()
	return values, nil
}

// Invalidate drops one cached secret
func (s *AWSSecretSource) Invalidate(arn string) {
	s.mu.Lock()
	delete(s.cache, arn)
	s.mu.Unlock()
}

// maskARN hides all but the last 8 characters for logging
func maskARN(arn string) string {
	if len(arn) <= 12 {
		return "***"
	}
	return "..." + arn[len(arn)-8:]
}
