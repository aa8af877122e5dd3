// Copyright (c) 2025 amidgo. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in the LICENSE file.

package postgresenv

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/amidgo/testboot"
	"github.com/amidgo/testboot/internal/share"
	"github.com/amidgo/testboot/postgres/migrations"
)

// SchemaDB is a connection scoped to a freshly created schema on a
// shared postgres instance. Close releases the connection and the
// instance share, the instance itself is terminated once nobody uses
// it.
type SchemaDB struct {
	*sql.DB

	Schema string

	release func()
}

func (d *SchemaDB) Close() error {
	err := d.DB.Close()

	d.release()

	return err
}

type ReusableOption func(*Reusable)

func WithWaitDuration(duration time.Duration) ReusableOption {
	return func(r *Reusable) {
		r.waitDuration = duration
	}
}

// Reusable shares one postgres environment between tests, every Reuse
// call gets its own schema on it.
type Reusable struct {
	pef          ProvideEnvironmentFunc
	waitDuration time.Duration

	sh *share.Share[Environment]
}

const defaultWaitDuration = time.Second

func NewReusable(pef ProvideEnvironmentFunc, opts ...ReusableOption) *Reusable {
	r := &Reusable{
		pef:          pef,
		waitDuration: defaultWaitDuration,
	}

	for _, op := range opts {
		op(r)
	}

	r.sh = share.Run(
		func() (Environment, error) {
			return r.pef(context.Background())
		},
		share.WithWaitUntilCleanup[Environment](r.waitDuration),
	)

	return r
}

// Shutdown terminates the shared environment. Safe to call multiple
// times.
func (r *Reusable) Shutdown() {
	r.sh.Shutdown()
}

func ReuseForTesting(
	t *testing.T,
	reusable *Reusable,
	mig migrations.Migrations,
	initialQueries ...migrations.Query,
) *sql.DB {
	testboot.SkipDisabled(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	db, err := Reuse(ctx, reusable, mig, initialQueries...)
	if db != nil {
		t.Cleanup(func() { _ = db.Close() })
	}

	if err != nil {
		t.Fatalf("Reuse: %s", err)

		return nil
	}

	return db.DB
}

func Reuse(
	ctx context.Context,
	reusable *Reusable,
	mig migrations.Migrations,
	initialQueries ...migrations.Query,
) (*SchemaDB, error) {
	handle, err := reusable.sh.Acquire()
	if err != nil {
		return nil, fmt.Errorf("acquire shared environment: %w", err)
	}

	db, err := reuseOnEnvironment(ctx, handle.Value(), handle.Release, mig, initialQueries...)
	if err != nil {
		if db == nil {
			handle.Release()
		}

		return db, err
	}

	return db, nil
}

func reuseOnEnvironment(
	ctx context.Context,
	env Environment,
	release func(),
	mig migrations.Migrations,
	initialQueries ...migrations.Query,
) (*SchemaDB, error) {
	schemaName, err := createNewSchema(ctx, env)
	if err != nil {
		return nil, err
	}

	db, err := connectToSchema(ctx, env, schemaName)
	if err != nil {
		return nil, err
	}

	schemaDB := &SchemaDB{
		DB:      db,
		Schema:  schemaName,
		release: release,
	}

	if mig != nil {
		err = mig.Up(ctx, db)
		if err != nil {
			return schemaDB, fmt.Errorf("migrations.Up: %w", err)
		}
	}

	for _, initialQuery := range initialQueries {
		err = migrations.ExecQuery(ctx, db, initialQuery)
		if err != nil {
			return schemaDB, err
		}
	}

	return schemaDB, nil
}

func createNewSchema(ctx context.Context, env Environment) (schemaName string, err error) {
	baseDB, err := env.Connect(ctx, "sslmode=disable")
	if err != nil {
		return "", fmt.Errorf("environment.Connect: %w", err)
	}

	defer baseDB.Close()

	schemaName = fmt.Sprintf("public%d", rand.Int64())

	query := fmt.Sprintf("CREATE SCHEMA %s", schemaName)

	_, err = baseDB.ExecContext(ctx, query)
	if err != nil {
		return "", fmt.Errorf("db.ExecContext(CREATE SCHEMA %s), %w", schemaName, err)
	}

	return schemaName, nil
}

func connectToSchema(ctx context.Context, env Environment, schemaName string) (*sql.DB, error) {
	db, err := env.Connect(ctx, "sslmode=disable", "search_path="+schemaName)
	if err != nil {
		return nil, fmt.Errorf("environment.Connect(sslmode=disable, search_path=%s): %w", schemaName, err)
	}

	return db, nil
}
