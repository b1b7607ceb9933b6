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

// Package tenant maps email domains to customer accounts and manages the
// per-tenant summary databases.
package tenant

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Directory looks up tenant account ids by email domain.
type Directory interface {
	Lookup(ctx context.Context, domain string) (string, error)
	LookupMany(ctx context.Context, domains []string) (map[string]string, error)
}

// DynamoDirectory reads the tenant registry table in DynamoDB. Each item
// carries a domain_name and an accountid attribute.
type DynamoDirectory struct {
	client *dynamodb.Client
	table  string
}

// NewDynamoDirectory creates a DynamoDB-backed directory
func NewDynamoDirectory(client *dynamodb.Client, table string) *DynamoDirectory {
	return &DynamoDirectory{client: client, table: table}
}

// Lookup scans for a single domain
func (d *DynamoDirectory) Lookup(ctx context.Context, domain string) (string, error) {
	out, err := d.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(d.table),
		FilterExpression: aws.String("domain_name = :domain"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":domain": &ddbtypes.AttributeValueMemberS{Value: domain},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to scan tenant registry: %w", err)
	}

	for _, item := range out.Items {
		if acct, ok := item["accountid"].(*ddbtypes.AttributeValueMemberS); ok {
			return acct.Value, nil
		}
	}
	return "", ErrNotFound
}

// LookupMany resolves a set of domains with one scan
func (d *DynamoDirectory) LookupMany(ctx context.Context, domains []string) (map[string]string, error) {
	if len(domains) == 0 {
		return map[string]string{}, nil
	}

	values := make(map[string]ddbtypes.AttributeValue, len(domains))
	placeholders := make([]string, len(domains))
	for i, domain := range domains {
		key := fmt.Sprintf(":d%d", i)
		values[key] = &ddbtypes.AttributeValueMemberS{Value: domain}
		placeholders[i] = key
	}

	out, err := d.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(d.table),
		FilterExpression:          aws.String("domain_name IN (" + strings.Join(placeholders, ", ") + ")"),
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan tenant registry: %w", err)
	}

	result := make(map[string]string)
	for _, item := range out.Items {
		domain, ok := item["domain_name"].(*ddbtypes.AttributeValueMemberS)
		if !ok {
			continue
		}
		if acct, ok := item["accountid"].(*ddbtypes.AttributeValueMemberS); ok {
			result[domain.Value] = acct.Value
		}
	}
	return result, nil
}

// DomainForEmail extracts the lowercased domain after the final @.
func DomainForEmail(email string) (string, error) {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return "", ErrBadEmail
	}
	return strings.ToLower(email[at+1:]), nil
}
