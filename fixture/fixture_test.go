// Copyright (c) 2025 amidgo. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in the LICENSE file.

package fixture_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/amidgo/testboot/fixture"
	"github.com/stretchr/testify/require"
)

func countingSetup(counter *atomic.Int64) fixture.SetupFunc {
	return func(context.Context) (any, error) {
		return counter.Add(1), nil
	}
}

func Test_NewSet_duplicate_name(t *testing.T) {
	t.Parallel()

	counter := atomic.Int64{}

	_, err := fixture.NewSet(
		fixture.Definition{Name: "db", Scope: fixture.ScopeSession, Setup: countingSetup(&counter)},
		fixture.Definition{Name: "db", Scope: fixture.ScopeFunction, Setup: countingSetup(&counter)},
	)

	require.ErrorIs(t, err, fixture.ErrDuplicateFixture)
}

func Test_NewSet_invalid_definition(t *testing.T) {
	t.Parallel()

	counter := atomic.Int64{}

	_, err := fixture.NewSet(
		fixture.Definition{Name: "", Scope: fixture.ScopeSession, Setup: countingSetup(&counter)},
	)
	require.ErrorIs(t, err, fixture.ErrInvalidFixture)

	_, err = fixture.NewSet(
		fixture.Definition{Name: "db", Scope: fixture.ScopeSession, Setup: nil},
	)
	require.ErrorIs(t, err, fixture.ErrInvalidFixture)
}

func Test_Set_session_scope_shared_between_tests(t *testing.T) {
	t.Parallel()

	counter := atomic.Int64{}

	set, err := fixture.NewSet(
		fixture.Definition{Name: "session.value", Scope: fixture.ScopeSession, Setup: countingSetup(&counter)},
	)
	require.NoError(t, err)

	t.Cleanup(set.Teardown)

	var first, second any

	t.Run("first", func(t *testing.T) {
		first = set.UseForTesting(t, "session.value")
	})

	t.Run("second", func(t *testing.T) {
		second = set.UseForTesting(t, "session.value")
	})

	require.Equal(t, first, second)
	require.Equal(t, int64(1), counter.Load())
}

func Test_Set_function_scope_fresh_per_test(t *testing.T) {
	t.Parallel()

	counter := atomic.Int64{}

	set, err := fixture.NewSet(
		fixture.Definition{Name: "function.value", Scope: fixture.ScopeFunction, Setup: countingSetup(&counter)},
	)
	require.NoError(t, err)

	t.Cleanup(set.Teardown)

	var first, second any

	t.Run("first", func(t *testing.T) {
		first = set.UseForTesting(t, "function.value")
	})

	t.Run("second", func(t *testing.T) {
		second = set.UseForTesting(t, "function.value")
	})

	require.NotEqual(t, first, second)
	require.Equal(t, int64(2), counter.Load())
}

func Test_Set_suite_scope_shared_inside_suite(t *testing.T) {
	t.Parallel()

	counter := atomic.Int64{}

	set, err := fixture.NewSet(
		fixture.Definition{Name: "suite.value", Scope: fixture.ScopeSuite, Setup: countingSetup(&counter)},
	)
	require.NoError(t, err)

	t.Cleanup(set.Teardown)

	var first, second any

	t.Run("first", func(t *testing.T) {
		first = set.UseForTesting(t, "suite.value")
	})

	t.Run("second", func(t *testing.T) {
		second = set.UseForTesting(t, "suite.value")
	})

	// both subtests belong to one top level test, the value is shared
	require.Equal(t, first, second)
	require.Equal(t, int64(1), counter.Load())
}

func Test_Set_unknown_fixture(t *testing.T) {
	t.Parallel()

	set, err := fixture.NewSet()
	require.NoError(t, err)

	_, err = set.Use(t, "missing")
	require.ErrorIs(t, err, fixture.ErrUnknownFixture)
}

func Test_Set_setup_error(t *testing.T) {
	t.Parallel()

	errSetup := errors.New("setup failed")

	set, err := fixture.NewSet(
		fixture.Definition{
			Name:  "broken",
			Scope: fixture.ScopeSession,
			Setup: func(context.Context) (any, error) { return nil, errSetup },
		},
	)
	require.NoError(t, err)

	t.Cleanup(set.Teardown)

	_, err = set.Use(t, "broken")
	require.ErrorIs(t, err, errSetup)
}

type closableValue struct {
	closed atomic.Bool
}

func (c *closableValue) Close() error {
	c.closed.Store(true)

	return nil
}

func Test_Set_function_scope_cleanup_on_test_end(t *testing.T) {
	t.Parallel()

	value := &closableValue{}

	set, err := fixture.NewSet(
		fixture.Definition{
			Name:  "closable",
			Scope: fixture.ScopeFunction,
			Setup: func(context.Context) (any, error) { return value, nil },
		},
	)
	require.NoError(t, err)

	t.Run("use", func(t *testing.T) {
		used := set.UseForTesting(t, "closable")

		require.Same(t, value, used)
		require.False(t, value.closed.Load())
	})

	require.True(t, value.closed.Load(), "function scoped fixture must be cleaned up with its test")
}

func Test_Set_Teardown_runs_definition_teardown(t *testing.T) {
	t.Parallel()

	counter := atomic.Int64{}

	used := atomic.Int64{}
	unused := atomic.Int64{}

	set, err := fixture.NewSet(
		fixture.Definition{
			Name:     "used.value",
			Scope:    fixture.ScopeFunction,
			Setup:    countingSetup(&counter),
			Teardown: func() { used.Add(1) },
		},
		fixture.Definition{
			Name:     "unused.value",
			Scope:    fixture.ScopeSession,
			Setup:    countingSetup(&counter),
			Teardown: func() { unused.Add(1) },
		},
	)
	require.NoError(t, err)

	t.Run("use", func(t *testing.T) {
		set.UseForTesting(t, "used.value")
	})

	set.Teardown()

	require.Equal(t, int64(1), used.Load())
	require.Equal(t, int64(1), unused.Load(), "teardown runs even for a never used fixture")
}

func Test_Scope_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "function", fixture.ScopeFunction.String())
	require.Equal(t, "suite", fixture.ScopeSuite.String())
	require.Equal(t, "package", fixture.ScopePackage.String())
	require.Equal(t, "session", fixture.ScopeSession.String())
}
