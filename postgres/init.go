// Copyright (c) 2025 amidgo. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in the LICENSE file.

package postgresenv

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/amidgo/testboot/postgres/migrations"
)

// DB couples the opened database with its environment, Close releases
// both. The fixture cleanup convention destroys a DB through Close.
type DB struct {
	*sql.DB

	env Environment
}

func (d *DB) Close() error {
	err := d.DB.Close()

	terminateErr := d.env.Terminate(context.Background())
	if terminateErr != nil {
		log.Printf("failed to terminate postgres environment: %s", terminateErr)
	}

	return err
}

// Init connects to the environment and prepares it for tests, applying
// migrations and initial queries. Whenever a non nil *DB is returned
// the caller owns its Close, even on a non nil error.
func Init(
	ctx context.Context,
	env Environment,
	mig migrations.Migrations,
	initialQueries ...migrations.Query,
) (*DB, error) {
	sqlDB, err := env.Connect(ctx, "sslmode=disable")
	if err != nil {
		terminateErr := env.Terminate(ctx)
		if terminateErr != nil {
			log.Printf("failed to terminate postgres environment: %s", terminateErr)
		}

		return nil, fmt.Errorf("connect to db, %w", err)
	}

	db := &DB{DB: sqlDB, env: env}

	if mig != nil {
		err = mig.Up(ctx, sqlDB)
		if err != nil {
			return db, fmt.Errorf("up migrations, %w", err)
		}
	}

	for _, initialQuery := range initialQueries {
		err = migrations.ExecQuery(ctx, sqlDB, initialQuery)
		if err != nil {
			return db, err
		}
	}

	return db, nil
}
