// Copyright (c) 2025 amidgo. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in the LICENSE file.

package goosemigrations

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/amidgo/testboot/postgres/migrations"
	"github.com/pressly/goose/v3"
)

type gooseMigrations struct {
	fsys fs.FS
}

// New builds Migrations over goose .sql files from fsys.
func New(fsys fs.FS) migrations.Migrations {
	return gooseMigrations{
		fsys: fsys,
	}
}

func (g gooseMigrations) Up(ctx context.Context, db *sql.DB) error {
	gooseProvider, err := goose.NewProvider(goose.DialectPostgres, db, g.fsys)
	if err != nil {
		return fmt.Errorf("goose.NewProvider: %w", err)
	}

	report, err := gooseProvider.Up(ctx)
	if err != nil {
		return fmt.Errorf("gooseProvider.Up: %w", err)
	}

	return reportError(report)
}

func (g gooseMigrations) Down(ctx context.Context, db *sql.DB) error {
	gooseProvider, err := goose.NewProvider(goose.DialectPostgres, db, g.fsys)
	if err != nil {
		return fmt.Errorf("goose.NewProvider: %w", err)
	}

	report, err := gooseProvider.DownTo(ctx, 0)
	if err != nil {
		return fmt.Errorf("gooseProvider.DownTo(0): %w", err)
	}

	return reportError(report)
}

func reportError(report []*goose.MigrationResult) error {
	for _, r := range report {
		if r.Error == nil {
			continue
		}

		return fmt.Errorf("migration %s: %w", r.Source.Path, r.Error)
	}

	return nil
}
