// Copyright (c) 2025 amidgo. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in the LICENSE file.

package postgresenv

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/amidgo/testboot"
	"github.com/amidgo/testboot/fixture"
	"github.com/amidgo/testboot/plugin"
	"github.com/amidgo/testboot/postgres/migrations"
)

const (
	PluginName = "testboot/postgres"

	// FixtureDB resolves to a *SchemaDB, a fresh schema per test on a
	// shared container.
	FixtureDB = PluginName + ".db"
)

func init() {
	plugin.Register(Plugin(nil))
}

type PluginConfig struct {
	// Name overrides PluginName, register several differently
	// configured postgres plugins under distinct names.
	Name string

	// Environment overrides the containerized environment, pass
	// External(nil) to reuse an already running server from
	// TESTBOOT_POSTGRES_CONNECTION_STRING. When set, Config is ignored.
	Environment ProvideEnvironmentFunc

	Config         *Config
	Migrations     migrations.Migrations
	InitialQueries []migrations.Query
}

func pluginName(cfg *PluginConfig) string {
	if cfg != nil && cfg.Name != "" {
		return cfg.Name
	}

	return PluginName
}

// Plugin builds the postgres fixture plugin. The nil config variant is
// registered into the default registry on import.
func Plugin(cfg *PluginConfig) plugin.Plugin {
	name := pluginName(cfg)

	var (
		reusableOnce sync.Once
		reusable     *Reusable
	)

	setup := func(ctx context.Context) (any, error) {
		reusableOnce.Do(func() {
			pef := RunContainer(nil)

			switch {
			case cfg != nil && cfg.Environment != nil:
				pef = cfg.Environment
			case cfg != nil && cfg.Config != nil:
				pef = RunContainer(cfg.Config)
			}

			reusable = NewReusable(pef)
		})

		var (
			mig     migrations.Migrations
			queries []migrations.Query
		)

		if cfg != nil {
			mig = cfg.Migrations
			queries = cfg.InitialQueries
		}

		db, err := Reuse(ctx, reusable, mig, queries...)
		if err != nil {
			if db != nil {
				_ = db.Close()
			}

			return nil, err
		}

		return db, nil
	}

	teardown := func() {
		// sync with a setup that created the reusable.
		reusableOnce.Do(func() {})

		if reusable != nil {
			reusable.Shutdown()
		}
	}

	return plugin.Func(name,
		fixture.Definition{
			Name:     name + ".db",
			Scope:    fixture.ScopeFunction,
			Setup:    setup,
			Teardown: teardown,
		},
	)
}

// UseDB resolves the plugin provided database for t.
func UseDB(t *testing.T) *sql.DB {
	testboot.SkipDisabled(t)

	value := testboot.Use(t, FixtureDB)

	db, ok := value.(*SchemaDB)
	if !ok {
		t.Fatalf("unexpected %s fixture value of type %T", FixtureDB, value)

		return nil
	}

	return db.DB
}
