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

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier validates a bearer token and returns the email claim.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (string, error)
}

// OIDCVerifier validates tokens against an OIDC issuer's JWKS. The Cognito
// issuer URL is https://cognito-idp.<region>.amazonaws.com/<pool-id>.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the issuer and prepares a verifier bound to the
// app client id audience.
func NewOIDCVerifier(ctx context.Context, issuer, clientID string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC issuer: %w", err)
	}
	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// Verify checks signature, issuer, audience and expiry, then extracts the
// email claim.
func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (string, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return "", ErrInvalidToken
	}

	var claims struct {
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil || claims.Email == "" {
		return "", ErrInvalidToken
	}
	return claims.Email, nil
}

// StaticVerifier validates HS256 tokens signed with a shared secret. Used
// in self-hosted deployments and tests where no identity provider exists.
type StaticVerifier struct {
	secret []byte
}

// NewStaticVerifier creates a shared-secret verifier
func NewStaticVerifier(secret string) *StaticVerifier {
	return &StaticVerifier{secret: []byte(secret)}
}

// Verify parses and validates the token, returning its email claim
func (v *StaticVerifier) Verify(ctx context.Context, rawToken string) (string, error) {
	token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return "", ErrInvalidToken
	}
	return email, nil
}

// SignStatic mints an HS256 token for the static verifier. Intended for
// local development tooling.
func SignStatic(secret, email string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"email": email})
	return token.SignedString([]byte(secret))
}
