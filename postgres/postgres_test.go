// Copyright (c) 2025 amidgo. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in the LICENSE file.

package postgresenv_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/Masterminds/squirrel"
	postgresenv "github.com/amidgo/testboot/postgres"
	goosemigrations "github.com/amidgo/testboot/postgres/migrations/goose"
	testmigrations "github.com/amidgo/testboot/postgres/testdata/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func Test_Postgres_Migrations_WithInitialQuery(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	db := postgresenv.RunForTesting(
		t,
		goosemigrations.New(testmigrations.Embed()),
		`INSERT INTO users (name) VALUES ('Dima')`,
		squirrel.Insert("users").Columns("name").Values("amidman").PlaceholderFormat(squirrel.Dollar),
	)

	assertUserExists(t, ctx, db, "Dima")
	assertUserExists(t, ctx, db, "amidman")
}

func Test_Postgres_Reuse_separate_schemas(t *testing.T) {
	t.Parallel()

	reusable := postgresenv.NewReusable(postgresenv.RunContainer(nil))
	t.Cleanup(reusable.Shutdown)

	mig := goosemigrations.New(testmigrations.Embed())

	schemas := make(chan string, 2)

	t.Run("first", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		t.Cleanup(cancel)

		db := postgresenv.ReuseForTesting(t, reusable, mig,
			`INSERT INTO users (name) VALUES ('first')`,
		)

		assertUserExists(t, ctx, db, "first")
		assertUserMissing(t, ctx, db, "second")

		schemas <- currentSchema(t, ctx, db)
	})

	t.Run("second", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		t.Cleanup(cancel)

		db := postgresenv.ReuseForTesting(t, reusable, mig,
			`INSERT INTO users (name) VALUES ('second')`,
		)

		assertUserExists(t, ctx, db, "second")
		assertUserMissing(t, ctx, db, "first")

		schemas <- currentSchema(t, ctx, db)
	})

	t.Cleanup(func() {
		close(schemas)

		first, second := <-schemas, <-schemas

		if first != "" && first == second {
			t.Errorf("expected distinct schemas, both tests got %s", first)
		}
	})
}

func currentSchema(t *testing.T, ctx context.Context, db *sql.DB) string {
	var schema string

	err := db.QueryRowContext(ctx, "SELECT current_schema()").Scan(&schema)
	if err != nil {
		t.Errorf("select current schema, %s", err)

		return ""
	}

	return schema
}

func assertUserExists(t *testing.T, ctx context.Context, db *sql.DB, name string) {
	var userName string

	err := db.QueryRowContext(ctx, "SELECT name FROM users WHERE name = $1", name).Scan(&userName)
	if err != nil {
		t.Errorf("assert user by %q name, %s", name, err)

		return
	}

	if userName != name {
		t.Errorf("assert user by %q name, wrong name %s", name, userName)
	}
}

func assertUserMissing(t *testing.T, ctx context.Context, db *sql.DB, name string) {
	var userName string

	err := db.QueryRowContext(ctx, "SELECT name FROM users WHERE name = $1", name).Scan(&userName)
	if err != sql.ErrNoRows {
		t.Errorf("assert user %q missing, expected sql.ErrNoRows, actual %v", name, err)
	}
}
