// Copyright (c) 2025 amidgo. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in the LICENSE file.

package redisenv

import (
	"context"
	"testing"

	"github.com/amidgo/testboot"
	"github.com/amidgo/testboot/fixture"
	"github.com/amidgo/testboot/plugin"
	redis "github.com/redis/go-redis/v9"
)

const (
	PluginName = "testboot/redis"

	// FixtureClient resolves to a *Client on a redis container shared
	// by the whole session.
	FixtureClient = PluginName + ".client"
)

func init() {
	plugin.Register(Plugin(nil))
}

type PluginConfig struct {
	Name string

	// Initial keys are set right after the container starts.
	Initial map[string]any
}

func pluginName(cfg *PluginConfig) string {
	if cfg != nil && cfg.Name != "" {
		return cfg.Name
	}

	return PluginName
}

func Plugin(cfg *PluginConfig) plugin.Plugin {
	name := pluginName(cfg)

	setup := func(ctx context.Context) (any, error) {
		var initial map[string]any

		if cfg != nil {
			initial = cfg.Initial
		}

		client, err := Run(ctx, initial)
		if err != nil {
			if client != nil {
				_ = client.Close()
			}

			return nil, err
		}

		return client, nil
	}

	return plugin.Func(name,
		fixture.Definition{
			Name:  name + ".client",
			Scope: fixture.ScopeSession,
			Setup: setup,
		},
	)
}

// UseClient resolves the plugin provided redis client for t.
func UseClient(t *testing.T) *redis.Client {
	testboot.SkipDisabled(t)

	value := testboot.Use(t, FixtureClient)

	client, ok := value.(*Client)
	if !ok {
		t.Fatalf("unexpected %s fixture value of type %T", FixtureClient, value)

		return nil
	}

	return client.Client
}
