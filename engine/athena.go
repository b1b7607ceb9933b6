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
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	athenatypes "github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// AthenaEngine implements QueryEngine on AWS Athena
type AthenaEngine struct {
	client *athena.Client
}

// Connect builds an Athena client from static credentials and validates
// them with a single STS GetCallerIdentity call. The caller account id is
// returned alongside the engine.
func Connect(ctx context.Context, creds Credentials) (*AthenaEngine, string, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(creds.Region),
		awsconfig.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(creds.AccessKey, creds.SecretKey, creds.SessionToken),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load AWS config: %w", err)
	}

	ident, err := sts.NewFromConfig(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, "", ErrAuth
	}

	return &AthenaEngine{client: athena.NewFromConfig(cfg)}, aws.ToString(ident.Account), nil
}

// Submit starts a query execution
func (e *AthenaEngine) Submit(ctx context.Context, sub Submission) (string, error) {
	out, err := e.client.StartQueryExecution(ctx, &athena.StartQueryExecutionInput{
		QueryString: aws.String(sub.Query),
		QueryExecutionContext: &athenatypes.QueryExecutionContext{
			Database: aws.String(sub.Database),
		},
		ResultConfiguration: &athenatypes.ResultConfiguration{
			OutputLocation: aws.String(sub.OutputLocation),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to start query execution: %w", err)
	}
	return aws.ToString(out.QueryExecutionId), nil
}

// Poll returns the current execution state
func (e *AthenaEngine) Poll(ctx context.Context, executionID string) (Status, error) {
	out, err := e.client.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
		QueryExecutionId: aws.String(executionID),
	})
	if err != nil {
		return Status{}, fmt.Errorf("failed to get query execution: %w", err)
	}

	status := out.QueryExecution.Status
	return Status{
		State:  mapState(string(status.State)),
		Reason: aws.ToString(status.StateChangeReason),
	}, nil
}

// Fetch downloads the full result grid, following pagination
func (e *AthenaEngine) Fetch(ctx context.Context, executionID string) ([][]string, error) {
	var grid [][]string
	var nextToken *string

	for {
		out, err := e.client.GetQueryResults(ctx, &athena.GetQueryResultsInput{
			QueryExecutionId: aws.String(executionID),
			NextToken:        nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get query results: %w", err)
		}

		for _, row := range out.ResultSet.Rows {
			cells := make([]string, len(row.Data))
			for i, datum := range row.Data {
				cells[i] = aws.ToString(datum.VarCharValue)
			}
			grid = append(grid, cells)
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	return grid, nil
}

// mapState normalizes engine states to the ledger vocabulary. Queued
// executions are still pending from the ledger's point of view.
func mapState(state string) string {
	if state == "QUEUED" {
		return StatePending
	}
	return state
}
