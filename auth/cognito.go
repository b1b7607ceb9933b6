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

package auth

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	cognitotypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// IdentityProvider abstracts the hosted identity provider flows.
type IdentityProvider interface {
	SignUp(ctx context.Context, in RegisterInput) error
	Confirm(ctx context.Context, email, code string) error
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	RespondMFA(ctx context.Context, email, session, code string) (*Token, error)
}

// CognitoProvider implements IdentityProvider on AWS Cognito
type CognitoProvider struct {
	client   *cognitoidentityprovider.Client
	clientID string
}

// NewCognitoProvider creates a Cognito-backed identity provider
func NewCognitoProvider(client *cognitoidentityprovider.Client, clientID string) *CognitoProvider {
	return &CognitoProvider{client: client, clientID: clientID}
}

// SignUp registers the user with the pool
func (p *CognitoProvider) SignUp(ctx context.Context, in RegisterInput) error {
	attrs := []cognitotypes.AttributeType{
		{Name: aws.String("email"), Value: aws.String(in.Email)},
	}
	if in.FullName != "" {
		attrs = append(attrs, cognitotypes.AttributeType{Name: aws.String("name"), Value: aws.String(in.FullName)})
	}
	if in.PhoneNumber != "" {
		attrs = append(attrs, cognitotypes.AttributeType{Name: aws.String("phone_number"), Value: aws.String(in.PhoneNumber)})
	}

	_, err := p.client.SignUp(ctx, &cognitoidentityprovider.SignUpInput{
		ClientId:       aws.String(p.clientID),
		Username:       aws.String(in.Email),
		Password:       aws.String(in.Password),
		UserAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIdentityProvider, err)
	}
	return nil
}

// Confirm completes registration with the emailed code
func (p *CognitoProvider) Confirm(ctx context.Context, email, code string) error {
	_, err := p.client.ConfirmSignUp(ctx, &cognitoidentityprovider.ConfirmSignUpInput{
		ClientId:         aws.String(p.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIdentityProvider, err)
	}
	return nil
}

// Login starts a password auth flow. MFA-enabled users receive a challenge
// instead of a token.
func (p *CognitoProvider) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	out, err := p.client.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: cognitotypes.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(p.clientID),
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityProvider, err)
	}

	if out.ChallengeName != "" {
		return &LoginResult{
			Challenge: &MFAChallenge{
				ChallengeName: string(out.ChallengeName),
				Session:       aws.ToString(out.Session),
			},
		}, nil
	}

	return &LoginResult{
		Token: &Token{
			AccessToken: aws.ToString(out.AuthenticationResult.AccessToken),
			TokenType:   "bearer",
		},
	}, nil
}

// RespondMFA answers a software-token MFA challenge
func (p *CognitoProvider) RespondMFA(ctx context.Context, email, session, code string) (*Token, error) {
	out, err := p.client.RespondToAuthChallenge(ctx, &cognitoidentityprovider.RespondToAuthChallengeInput{
		ClientId:      aws.String(p.clientID),
		ChallengeName: cognitotypes.ChallengeNameTypeSoftwareTokenMfa,
		Session:       aws.String(session),
		ChallengeResponses: map[string]string{
			"USERNAME":                email,
			"SOFTWARE_TOKEN_MFA_CODE": code,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityProvider, err)
	}

	return &Token{
		AccessToken: aws.ToString(out.AuthenticationResult.AccessToken),
		TokenType:   "bearer",
	}, nil
}
