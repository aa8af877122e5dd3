// Copyright (c) 2025 amidgo. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in the LICENSE file.

package postgresenv

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/amidgo/testboot"
	"github.com/amidgo/testboot/postgres/migrations"
	"github.com/testcontainers/testcontainers-go"
	pgcnt "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type Config struct {
	DBName               string
	DBUser               string
	DBPassword           string
	PostgresImage        string
	DriverName           string
	ContainerCustomizers []testcontainers.ContainerCustomizer
	DisableContainerLogs bool
}

func configDBName(cfg *Config) string {
	const defaultDBName = "test"

	if cfg != nil && cfg.DBName != "" {
		return cfg.DBName
	}

	return defaultDBName
}

func configDBUser(cfg *Config) string {
	const defaultDBUser = "admin"

	if cfg != nil && cfg.DBUser != "" {
		return cfg.DBUser
	}

	return defaultDBUser
}

func configDBPassword(cfg *Config) string {
	const defaultDBPassword = "admin"

	if cfg != nil && cfg.DBPassword != "" {
		return cfg.DBPassword
	}

	return defaultDBPassword
}

func configPostgresImage(cfg *Config) string {
	const defaultPostgresImage = "postgres:16-alpine"

	if cfg != nil && cfg.PostgresImage != "" {
		return cfg.PostgresImage
	}

	envPostgresImage := os.Getenv("TESTBOOT_POSTGRES_IMAGE")
	if envPostgresImage != "" {
		return envPostgresImage
	}

	return defaultPostgresImage
}

func configDriverName(cfg *Config) string {
	const defaultDriverName = "pgx"

	if cfg != nil && cfg.DriverName != "" {
		return cfg.DriverName
	}

	return defaultDriverName
}

// RunContainer provides an environment backed by a fresh postgres
// container.
func RunContainer(cfg *Config) ProvideEnvironmentFunc {
	return func(ctx context.Context) (Environment, error) {
		opts := []testcontainers.ContainerCustomizer{
			pgcnt.WithDatabase(configDBName(cfg)),
			pgcnt.WithUsername(configDBUser(cfg)),
			pgcnt.WithPassword(configDBPassword(cfg)),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2),
			),
		}

		if cfg != nil && cfg.DisableContainerLogs {
			opts = append(opts, testcontainers.WithLogger(noopLogger{}))
		}

		if cfg != nil {
			opts = append(opts, cfg.ContainerCustomizers...)
		}

		postgresContainer, err := pgcnt.Run(ctx,
			configPostgresImage(cfg),
			opts...,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres.Run: %w", err)
		}

		return containerEnvironment{
			driverName:        configDriverName(cfg),
			postgresContainer: postgresContainer,
		}, nil
	}
}

type noopLogger struct{}

func (noopLogger) Printf(string, ...interface{}) {}

type containerEnvironment struct {
	driverName        string
	postgresContainer *pgcnt.PostgresContainer
}

func (e containerEnvironment) Connect(ctx context.Context, args ...string) (*sql.DB, error) {
	connectionString, err := e.postgresContainer.ConnectionString(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("get container connection string, %w", err)
	}

	db, err := sql.Open(e.driverName, connectionString)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	return db, nil
}

func (e containerEnvironment) Terminate(ctx context.Context) error {
	err := e.postgresContainer.Terminate(ctx)
	if err != nil {
		return fmt.Errorf("terminate postgres container: %w", err)
	}

	return nil
}

func Run(
	ctx context.Context,
	mig migrations.Migrations,
	initialQueries ...migrations.Query,
) (*DB, error) {
	return RunConfig(ctx, nil, mig, initialQueries...)
}

func RunConfig(
	ctx context.Context,
	cfg *Config,
	mig migrations.Migrations,
	initialQueries ...migrations.Query,
) (*DB, error) {
	env, err := RunContainer(cfg)(ctx)
	if err != nil {
		return nil, err
	}

	return Init(ctx, env, mig, initialQueries...)
}

func RunForTesting(
	t *testing.T,
	mig migrations.Migrations,
	initialQueries ...migrations.Query,
) *sql.DB {
	return RunForTestingConfig(t, nil, mig, initialQueries...)
}

func RunForTestingConfig(
	t *testing.T,
	cfg *Config,
	mig migrations.Migrations,
	initialQueries ...migrations.Query,
) *sql.DB {
	testboot.SkipDisabled(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	db, err := RunConfig(ctx, cfg, mig, initialQueries...)
	if db != nil {
		t.Cleanup(func() { _ = db.Close() })
	}

	if err != nil {
		t.Fatal(err)

		return nil
	}

	return db.DB
}
