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

// Package server wires the platform services together and runs the HTTP API.
package server

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"costpilot/platform/tenant"
)

// Config carries everything Run needs, loaded from the environment with an
// optional AWS Secrets Manager overlay on top.
type Config struct {
	Port string

	// Central PostgreSQL connection string. Built from the DATABASE_*
	// variables; DATABASE_URL wins when set.
	DatabaseURL string

	// Tenant MySQL server admin connection
	TenantDB tenant.StoreConfig

	RedisAddr      string
	RedisPassword  string
	TenantCacheTTL time.Duration
	TenantTable    string

	AWSRegion         string
	CognitoUserPoolID string
	CognitoClientID   string

	// StaticAuthSecret backs the HS256 verifier when no Cognito pool is
	// configured. Self-hosted deployments use this path.
	StaticAuthSecret string

	SESSender          string
	ReportTemplatePath string

	// SecretsARN names a JSON secret whose fields overlay the config
	SecretsARN string

	AppInfoFile    string
	AllowedOrigins []string
}

// LoadConfig reads the configuration from environment variables
func LoadConfig() Config {
	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		TenantDB: tenant.StoreConfig{
			Host:      os.Getenv("TENANT_DB_HOST"),
			Port:      getEnv("TENANT_DB_PORT", "3306"),
			User:      getEnv("TENANT_DB_USER", "root"),
			Password:  os.Getenv("TENANT_DB_PASSWORD"),
			GrantUser: os.Getenv("TENANT_DB_GRANT_USER"),
		},
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		TenantCacheTTL:     durationEnv("TENANT_CACHE_TTL", time.Hour),
		TenantTable:        os.Getenv("TENANT_REGISTRY_TABLE"),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		CognitoUserPoolID:  os.Getenv("COGNITO_USER_POOL_ID"),
		CognitoClientID:    os.Getenv("COGNITO_CLIENT_ID"),
		StaticAuthSecret:   os.Getenv("AUTH_STATIC_SECRET"),
		SESSender:          os.Getenv("SES_SENDER"),
		ReportTemplatePath: os.Getenv("REPORT_TEMPLATE_PATH"),
		SecretsARN:         os.Getenv("APP_SECRETS_ARN"),
		AppInfoFile:        os.Getenv("APP_INFO_FILE"),
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = databaseURLFromParts()
	}
	return cfg
}

// databaseURLFromParts builds a postgres:// URL from the separate DATABASE_*
// variables. The password is URL-encoded so special characters survive the
// URI format.
func databaseURLFromParts() string {
	host := os.Getenv("DATABASE_HOST")
	if host == "" {
		return ""
	}
	port := getEnv("DATABASE_PORT", "5432")
	name := getEnv("DATABASE_NAME", "costpilot")
	user := getEnv("DATABASE_USER", "costpilot_app")
	password := os.Getenv("DATABASE_PASSWORD")
	sslMode := getEnv("DATABASE_SSLMODE", "require")

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(user), url.QueryEscape(password), host, port, name, sslMode)
}

// ApplySecrets overlays fields from the configured JSON secret. Unknown keys
// are ignored; absent keys leave the environment values in place.
func (c *Config) ApplySecrets(ctx context.Context, source SecretSource) error {
	if c.SecretsARN == "" {
		return nil
	}

	values, err := source.GetSecret(ctx, c.SecretsARN)
	if err != nil {
		return err
	}

	overlay := func(key string, dst *string) {
		if v, ok := values[key]; ok && v != "" {
			*dst = v
		}
	}
	overlay("database_url", &c.DatabaseURL)
	overlay("tenant_db_password", &c.TenantDB.Password)
	overlay("redis_password", &c.RedisPassword)
	overlay("auth_static_secret", &c.StaticAuthSecret)
	return nil
}

// AppInfo describes the running service for the health endpoint
type AppInfo struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// LoadAppInfo reads the optional service metadata file. A missing or broken
// file falls back to defaults.
func LoadAppInfo(path string) AppInfo {
	info := AppInfo{Name: "costpilot-platform", Version: "dev"}
	if path == "" {
		return info
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return info
	}
	if err := yaml.Unmarshal(data, &info); err != nil {
		return AppInfo{Name: "costpilot-platform", Version: "dev"}
	}
	if info.Name == "" {
		info.Name = "costpilot-platform"
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	return info
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
