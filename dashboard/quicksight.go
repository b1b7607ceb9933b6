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

package dashboard

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/quicksight"
	qstypes "github.com/aws/aws-sdk-go-v2/service/quicksight/types"
)

// Embedder generates embeddable dashboard URLs for registered users.
type Embedder interface {
	EmbedURL(ctx context.Context, userName, dashboardName string) (string, error)
}

// QuickSightEmbedder implements Embedder on AWS QuickSight. Account and
// region identify the QuickSight namespace; users live under the default
// namespace.
type QuickSightEmbedder struct {
	client  *quicksight.Client
	account string
	region  string
	session int64
}

// NewQuickSightEmbedder creates a QuickSight-backed embedder
func NewQuickSightEmbedder(client *quicksight.Client, account, region string) *QuickSightEmbedder {
	return &QuickSightEmbedder{
		client:  client,
		account: account,
		region:  region,
		session: 60,
	}
}

// EmbedURL generates a registered-user embed URL for one dashboard
func (e *QuickSightEmbedder) EmbedURL(ctx context.Context, userName, dashboardName string) (string, error) {
	userARN := fmt.Sprintf("arn:aws:quicksight:%s:%s:user/default/%s", e.region, e.account, userName)

	out, err := e.client.GenerateEmbedUrlForRegisteredUser(ctx, &quicksight.GenerateEmbedUrlForRegisteredUserInput{
		AwsAccountId:             aws.String(e.account),
		UserArn:                  aws.String(userARN),
		SessionLifetimeInMinutes: aws.Int64(e.session),
		ExperienceConfiguration: &qstypes.RegisteredUserEmbeddingExperienceConfiguration{
			Dashboard: &qstypes.RegisteredUserDashboardEmbeddingConfiguration{
				InitialDashboardId: aws.String(dashboardName),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate embed URL: %w", err)
	}
	return aws.ToString(out.EmbedUrl), nil
}
