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
	"database/sql"
	"embed"
	"fmt"
	"regexp"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pressly/goose/v3"

	"costpilot/platform/shared/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

var dbNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// StoreConfig carries the MySQL admin connection details for the tenant
// database server.
type StoreConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	// GrantUser receives privileges on each provisioned database. Empty
	// skips the grant.
	GrantUser string
}

// Store provisions and hands out per-tenant MySQL summary databases. Handles
// are cached per database name for the life of the store.
type Store struct {
	admin   *sql.DB
	cfg     StoreConfig
	mu      sync.Mutex
	handles map[string]*sql.DB
	log     *logger.Logger

	// seams for tests
	open    func(name string) (*sql.DB, error)
	migrate func(ctx context.Context, db *sql.DB) error
}

// NewStore opens the admin connection and returns a store.
func NewStore(cfg StoreConfig) (*Store, error) {
	admin, err := sql.Open("mysql", fmt.Sprintf("%s:%s@tcp(%s:%s)/?parseTime=true",
		cfg.User, cfg.Password, cfg.Host, cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to open tenant admin connection: %w", err)
	}

	s := &Store{
		admin:   admin,
		cfg:     cfg,
		handles: make(map[string]*sql.DB),
		log:     logger.New("tenant"),
	}
	s.open = func(name string) (*sql.DB, error) {
		return sql.Open("mysql", fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, name))
	}
	s.migrate = func(ctx context.Context, db *sql.DB) error {
		provider, err := goose.NewProvider(goose.DialectMySQL, db, migrations)
		if err != nil {
			return err
		}
		_, err = provider.Up(ctx)
		return err
	}
	return s, nil
}

// DBName returns the summary database name for an account. Databases are
// keyed by the account id itself. When central mode is on the configured
// central name wins.
func DBName(accountID string, useCentral bool, centralName string) string {
	if useCentral && centralName != "" {
		return centralName
	}
	return accountID
}

// Provision creates the tenant database if needed, grants access, and brings
// the schema up to date.
func (s *Store) Provision(ctx context.Context, accountID string) error {
	return s.ProvisionDatabase(ctx, DBName(accountID, false, ""))
}

// ProvisionDatabase provisions a database by explicit name.
func (s *Store) ProvisionDatabase(ctx context.Context, name string) error {
	if !dbNamePattern.MatchString(name) {
		return ErrBadDatabaseName
	}

	if _, err := s.admin.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", name)); err != nil {
		return fmt.Errorf("failed to create tenant database %s: %w", name, err)
	}

	if s.cfg.GrantUser != "" {
		grant := fmt.Sprintf("GRANT ALL PRIVILEGES ON `%s`.* TO '%s'@'%%'", name, s.cfg.GrantUser)
		if _, err := s.admin.ExecContext(ctx, grant); err != nil {
			return fmt.Errorf("failed to grant on tenant database %s: %w", name, err)
		}
	}

	db, err := s.Handle(ctx, name)
	if err != nil {
		return err
	}
	if err := s.migrate(ctx, db); err != nil {
		return fmt.Errorf("failed to migrate tenant database %s: %w", name, err)
	}

	s.log.Info("", "", "tenant database provisioned", map[string]interface{}{"database": name})
	return nil
}

// Handle returns a cached connection to the named tenant database.
func (s *Store) Handle(ctx context.Context, name string) (*sql.DB, error) {
	if !dbNamePattern.MatchString(name) {
		return nil, ErrBadDatabaseName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if db, ok := s.handles[name]; ok {
		return db, nil
	}

	db, err := s.open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open tenant database %s: %w", name, err)
	}
	s.handles[name] = db
	return db, nil
}

// Warm provisions the databases for a set of accounts. Failures are logged
// and do not stop the sweep.
func (s *Store) Warm(ctx context.Context, accountIDs []string) {
	for _, acct := range accountIDs {
		if acct == "" {
			continue
		}
		if err := s.Provision(ctx, acct); err != nil {
			s.log.Warn("", acct, "tenant warm-up failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}

// Close closes the admin connection and every cached handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for name, db := range s.handles {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.handles, name)
	}
	if s.admin != nil {
		if err := s.admin.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
