// Copyright (c) 2025 amidgo. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in the LICENSE file.

package plugin_test

import (
	"context"
	"errors"
	"testing"

	"github.com/amidgo/testboot/fixture"
	"github.com/amidgo/testboot/plugin"
)

func valueSetup(value any) fixture.SetupFunc {
	return func(context.Context) (any, error) { return value, nil }
}

func Test_Registry_Register_Lookup(t *testing.T) {
	t.Parallel()

	registry := plugin.NewRegistry()

	p := plugin.Func("testboot/example",
		fixture.Definition{
			Name:  "testboot/example.value",
			Scope: fixture.ScopeSession,
			Setup: valueSetup(1),
		},
	)

	err := registry.Register(p)
	if err != nil {
		t.Fatal(err)
	}

	found, err := registry.Lookup("testboot/example")
	if err != nil {
		t.Fatal(err)
	}

	if found.Name() != "testboot/example" {
		t.Fatalf("unexpected plugin name: %s", found.Name())
	}

	if len(found.Fixtures()) != 1 {
		t.Fatalf("unexpected fixtures count: %d", len(found.Fixtures()))
	}
}

func Test_Registry_Lookup_unknown(t *testing.T) {
	t.Parallel()

	registry := plugin.NewRegistry()

	_, err := registry.Lookup("testboot/missing")
	if !errors.Is(err, plugin.ErrUnknownPlugin) {
		t.Fatalf("expected ErrUnknownPlugin, actual %v", err)
	}
}

func Test_Registry_Register_duplicate(t *testing.T) {
	t.Parallel()

	registry := plugin.NewRegistry()

	p := plugin.Func("testboot/example")

	err := registry.Register(p)
	if err != nil {
		t.Fatal(err)
	}

	err = registry.Register(p)
	if !errors.Is(err, plugin.ErrDuplicatePlugin) {
		t.Fatalf("expected ErrDuplicatePlugin, actual %v", err)
	}
}

func Test_Registry_Names_sorted(t *testing.T) {
	t.Parallel()

	registry := plugin.NewRegistry()

	for _, name := range []string{"testboot/b", "testboot/a", "testboot/c"} {
		err := registry.Register(plugin.Func(name))
		if err != nil {
			t.Fatal(err)
		}
	}

	names := registry.Names()

	expected := []string{"testboot/a", "testboot/b", "testboot/c"}

	for i, name := range expected {
		if names[i] != name {
			t.Fatalf("unexpected names order: %v", names)
		}
	}
}
