// Copyright (c) 2025 amidgo. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in the LICENSE file.

package minioenv

import (
	"context"
	"testing"

	"github.com/amidgo/testboot"
	"github.com/amidgo/testboot/fixture"
	"github.com/amidgo/testboot/plugin"
	"github.com/minio/minio-go/v7"
)

const (
	PluginName = "testboot/minio"

	// FixtureClient resolves to a *Client on a minio container shared
	// by the whole session.
	FixtureClient = PluginName + ".client"
)

func init() {
	plugin.Register(Plugin(nil))
}

type PluginConfig struct {
	Name string

	Config *Config

	// Buckets are created and seeded right after the container starts.
	Buckets []Bucket
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
		var (
			containerCfg *Config
			buckets      []Bucket
		)

		if cfg != nil {
			containerCfg = cfg.Config
			buckets = cfg.Buckets
		}

		client, err := RunConfig(ctx, containerCfg, buckets...)
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

// UseClient resolves the plugin provided minio client for t.
func UseClient(t *testing.T) *minio.Client {
	testboot.SkipDisabled(t)

	value := testboot.Use(t, FixtureClient)

	client, ok := value.(*Client)
	if !ok {
		t.Fatalf("unexpected %s fixture value of type %T", FixtureClient, value)

		return nil
	}

	return client.Client
}
