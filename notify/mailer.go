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

// Package notify sends outbound email through AWS SES.
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// Mailer delivers one message to a set of recipients.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, textBody, htmlBody string) error
}

// SESMailer implements Mailer on AWS SES v2.
type SESMailer struct {
	client *sesv2.Client
	sender string
}

// NewSESMailer creates an SES-backed mailer sending from the given address
func NewSESMailer(client *sesv2.Client, sender string) *SESMailer {
	return &SESMailer{client: client, sender: sender}
}

// Send delivers one message with plain and HTML bodies
func (m *SESMailer) Send(ctx context.Context, to []string, subject, textBody, htmlBody string) error {
	body := &sestypes.Body{
		Text: &sestypes.Content{Data: aws.String(textBody)},
	}
	if htmlBody != "" {
		body.Html = &sestypes.Content{Data: aws.String(htmlBody)}
	}

	_, err := m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.sender),
		Destination:      &sestypes.Destination{ToAddresses: to},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(subject)},
				Body:    body,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
