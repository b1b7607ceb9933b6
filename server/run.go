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
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/quicksight"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"costpilot/platform/auth"
	"costpilot/platform/costdata"
	"costpilot/platform/dashboard"
	"costpilot/platform/engine"
	"costpilot/platform/globalsettings"
	"costpilot/platform/notify"
	"costpilot/platform/owner"
	"costpilot/platform/query"
	"costpilot/platform/report"
	"costpilot/platform/tagging"
	"costpilot/platform/tenant"
	"costpilot/platform/usersettings"
)

// Run is the exported entry point for the platform API server.
//
// It loads configuration, connects the central and tenant databases, wires
// every service, and serves HTTP until the process receives SIGINT or
// SIGTERM.
func Run() {
	if err := run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func run() error {
	cfg := LoadConfig()
	info := LoadAppInfo(cfg.AppInfoFile)
	log.Printf("Starting %s %s...", info.Name, info.Version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, awsErr := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if awsErr != nil {
		log.Printf("Warning: AWS configuration unavailable: %v", awsErr)
		log.Println("Identity, tenant directory, email, and embed features are disabled")
	}

	// Secrets Manager overlay runs before anything opens a connection
	if cfg.SecretsARN != "" && awsErr == nil {
		source := NewAWSSecretSource(secretsmanager.NewFromConfig(awsCfg), 5*time.Minute)
		if err := cfg.ApplySecrets(ctx, source); err != nil {
			return fmt.Errorf("failed to load secrets overlay: %w", err)
		}
		log.Println("Applied Secrets Manager configuration overlay")
	}

	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL or DATABASE_HOST must be set")
	}
	central, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open central database: %w", err)
	}
	defer central.Close()
	if err := pingWithRetry(ctx, central, 5); err != nil {
		return fmt.Errorf("central database unreachable: %w", err)
	}
	log.Println("Central database connected")

	// Tenant database server. Handles open lazily, so a missing host only
	// fails once a tenant operation runs.
	tenantStore, err := tenant.NewStore(cfg.TenantDB)
	if err != nil {
		return err
	}
	defer tenantStore.Close()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Warning: Redis unreachable, tenant cache degrades to process memory: %v", err)
			redisClient = nil
		} else {
			log.Println("Redis tenant cache connected")
		}
	}

	var resolver *tenant.Resolver
	var provisioner auth.TenantProvisioner
	if awsErr == nil && cfg.TenantTable != "" {
		directory := tenant.NewDynamoDirectory(dynamodb.NewFromConfig(awsCfg), cfg.TenantTable)
		resolver = tenant.NewResolver(directory, redisClient, cfg.TenantCacheTTL)
		provisioner = tenant.NewProvisioner(resolver, tenantStore)
		log.Printf("Tenant directory configured (table: %s)", cfg.TenantTable)
	} else {
		log.Println("Tenant directory not configured; account resolution disabled")
	}

	var idp auth.IdentityProvider
	if awsErr == nil && cfg.CognitoClientID != "" {
		idp = auth.NewCognitoProvider(cognitoidentityprovider.NewFromConfig(awsCfg), cfg.CognitoClientID)
		log.Println("Cognito identity provider configured")
	}

	verifier, err := buildVerifier(ctx, cfg)
	if err != nil {
		return err
	}

	var embedder dashboard.Embedder
	if awsErr == nil {
		identity, err := sts.NewFromConfig(awsCfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
		if err != nil {
			log.Printf("Warning: caller identity lookup failed, dashboard embedding disabled: %v", err)
		} else {
			embedder = dashboard.NewQuickSightEmbedder(quicksight.NewFromConfig(awsCfg), *identity.Account, cfg.AWSRegion)
			log.Println("QuickSight embedder configured")
		}
	}

	var mailer notify.Mailer
	if awsErr == nil && cfg.SESSender != "" {
		mailer = notify.NewSESMailer(sesv2.NewFromConfig(awsCfg), cfg.SESSender)
		log.Printf("SES mailer configured (sender: %s)", cfg.SESSender)
	}

	// Repositories over the central database
	userRepo := auth.NewPostgresRepository(central)
	queryRepo := query.NewPostgresRepository(central)
	settingsRepo := usersettings.NewPostgresRepository(central)
	reportRepo := report.NewPostgresRepository(central)
	dashboardRepo := dashboard.NewPostgresRepository(central)
	globalRepo := globalsettings.NewPostgresRepository(central)

	engines := engine.NewClientCache(nil)
	defer engines.Close()

	queries := query.NewService(queryRepo)
	profiles := usersettings.NewService(settingsRepo, usersettings.NewS3BucketChecker())
	globals := globalsettings.NewService(globalRepo)
	dashboards := dashboard.NewService(dashboardRepo, embedder)
	users := auth.NewService(userRepo, idp, provisioner, dashboards)
	reports := report.NewService(reportRepo, queries, profiles, engines)
	costs := costdata.NewService(tenantStore, globals, mailer)
	owners := owner.NewService(tenantStore, globals)
	tags := tagging.NewService(tenantStore, globals)

	if resolver != nil {
		go warmTenants(context.Background(), userRepo, resolver, tenantStore)
	}

	metrics := newMetrics()

	r := mux.NewRouter()
	r.Use(metrics.Middleware)

	r.HandleFunc("/health", healthHandler(info, central, redisClient)).Methods("GET")
	r.HandleFunc("/metrics", metrics.Snapshot).Methods("GET")
	r.Handle("/prometheus", promhttp.Handler()).Methods("GET")

	authHandler := auth.NewHandler(users)
	authHandler.RegisterPublicRoutes(r)

	api := r.PathPrefix("/").Subrouter()
	api.Use(auth.Middleware(verifier, userRepo))

	authHandler.RegisterRoutes(api)
	query.NewHandler(queries).RegisterRoutes(api)
	usersettings.NewHandler(profiles).RegisterRoutes(api)
	globalsettings.NewHandler(globals).RegisterRoutes(api)
	report.NewHandler(reports, cfg.ReportTemplatePath).RegisterRoutes(api)
	dashboard.NewHandler(dashboards).RegisterRoutes(api)
	costdata.NewHandler(costs).RegisterRoutes(api)
	owner.NewHandler(owners).RegisterRoutes(api)
	tagging.NewHandler(tags).RegisterRoutes(api)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("%s listening on port %s", info.Name, cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildVerifier prefers the Cognito user pool JWKS and falls back to the
// shared-secret verifier for self-hosted deployments.
func buildVerifier(ctx context.Context, cfg Config) (auth.TokenVerifier, error) {
	if cfg.CognitoUserPoolID != "" {
		issuer := fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", cfg.AWSRegion, cfg.CognitoUserPoolID)
		verifier, err := auth.NewOIDCVerifier(ctx, issuer, cfg.CognitoClientID)
		if err != nil {
			return nil, fmt.Errorf("failed to configure token verifier: %w", err)
		}
		log.Printf("Token verification against Cognito pool %s", cfg.CognitoUserPoolID)
		return verifier, nil
	}

	if cfg.StaticAuthSecret == "" {
		return nil, fmt.Errorf("COGNITO_USER_POOL_ID or AUTH_STATIC_SECRET must be set")
	}
	log.Println("Token verification with shared secret (self-hosted mode)")
	return auth.NewStaticVerifier(cfg.StaticAuthSecret), nil
}

func pingWithRetry(ctx context.Context, db *sql.DB, attempts int) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		if attempt < attempts {
			backoff := time.Duration(attempt*2) * time.Second
			log.Printf("Database connection failed (attempt %d/%d): %v, retrying in %v", attempt, attempts, err, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return err
}

// warmTenants resolves every registered email to its account and opens the
// tenant database handles ahead of the first request.
func warmTenants(ctx context.Context, repo auth.Repository, resolver *tenant.Resolver, store *tenant.Store) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	emails, err := repo.ListEmails(ctx)
	if err != nil {
		log.Printf("Warning: tenant warmup skipped, email listing failed: %v", err)
		return
	}

	domains := make(map[string]struct{})
	var unique []string
	for _, email := range emails {
		domain, err := tenant.DomainForEmail(email)
		if err != nil {
			continue
		}
		if _, seen := domains[domain]; !seen {
			domains[domain] = struct{}{}
			unique = append(unique, domain)
		}
	}
	if len(unique) == 0 {
		return
	}

	accounts, err := resolver.AccountsForDomains(ctx, unique)
	if err != nil {
		log.Printf("Warning: tenant warmup skipped, directory lookup failed: %v", err)
		return
	}

	ids := make([]string, 0, len(accounts))
	seen := make(map[string]struct{})
	for _, acct := range accounts {
		if _, dup := seen[acct]; !dup {
			seen[acct] = struct{}{}
			ids = append(ids, acct)
		}
	}

	store.Warm(ctx, ids)
	log.Printf("Tenant warmup finished (%d accounts)", len(ids))
}

func healthHandler(info AppInfo, central *sql.DB, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]bool{
			"database": central.PingContext(r.Context()) == nil,
		}
		if redisClient != nil {
			components["cache"] = redisClient.Ping(r.Context()).Err() == nil
		}

		status := "healthy"
		code := http.StatusOK
		if !components["database"] {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      status,
			"service":     info.Name,
			"version":     info.Version,
			"environment": info.Environment,
			"timestamp":   time.Now().UTC(),
			"components":  components,
		})
	}
}
