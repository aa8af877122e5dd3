// Copyright (c) 2025 amidgo. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in the LICENSE file.

package postgresenv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const connectionStringEnvName = "TESTBOOT_POSTGRES_CONNECTION_STRING"

var ErrNoConnectionString = errors.New("connection string is empty and environment variable " + connectionStringEnvName + " is empty")

type ExternalConfig struct {
	DriverName       string
	ConnectionString string
}

func externalDriverName(cfg *ExternalConfig) string {
	const defaultDriverName = "pgx"

	if cfg != nil && cfg.DriverName != "" {
		return cfg.DriverName
	}

	return defaultDriverName
}

func externalConnectionString(cfg *ExternalConfig) (string, error) {
	if cfg != nil && cfg.ConnectionString != "" {
		return cfg.ConnectionString, nil
	}

	connectionString := os.Getenv(connectionStringEnvName)
	if connectionString == "" {
		return "", ErrNoConnectionString
	}

	return connectionString, nil
}

// External provides an environment backed by an already running
// postgres instance, located via the config or the
// TESTBOOT_POSTGRES_CONNECTION_STRING environment variable.
// Terminate is a no op, the instance is not ours to stop.
func External(cfg *ExternalConfig) ProvideEnvironmentFunc {
	return func(context.Context) (Environment, error) {
		connectionString, err := externalConnectionString(cfg)
		if err != nil {
			return nil, err
		}

		return externalEnvironment{
			connectionString: connectionString,
			driverName:       externalDriverName(cfg),
		}, nil
	}
}

type externalEnvironment struct {
	connectionString string
	driverName       string
}

func (externalEnvironment) Terminate(context.Context) error {
	return nil
}

func (e externalEnvironment) Connect(_ context.Context, args ...string) (*sql.DB, error) {
	dataSourceName := e.connectionString

	if len(args) != 0 {
		dataSourceName += "?" + strings.Join(args, "&")
	}

	db, err := sql.Open(e.driverName, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	return db, nil
}
