// Copyright (c) 2025 amidgo. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in the LICENSE file.

package fixture

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/amidgo/testboot/internal/share"
)

// Scope defines how long a fixture value lives and which tests share
// it. ScopeSession and ScopePackage values are shared by every test in
// the binary, ScopeSuite values by subtests of one top level test,
// ScopeFunction values are created per call.
type Scope uint8

const (
	ScopeFunction Scope = iota
	ScopeSuite
	ScopePackage
	ScopeSession
)

func (s Scope) String() string {
	switch s {
	case ScopeFunction:
		return "function"
	case ScopeSuite:
		return "suite"
	case ScopePackage:
		return "package"
	case ScopeSession:
		return "session"
	default:
		return "unknown scope " + strconv.FormatUint(uint64(s), 10)
	}
}

type SetupFunc func(ctx context.Context) (any, error)

type Definition struct {
	Name  string
	Scope Scope
	Setup SetupFunc

	// Teardown runs once on Set.Teardown, whether or not the fixture
	// was ever used. Plugins holding infrastructure behind Setup
	// release it here.
	Teardown func()
}

var (
	ErrUnknownFixture   = errors.New("unknown fixture")
	ErrDuplicateFixture = errors.New("duplicate fixture")
	ErrInvalidFixture   = errors.New("invalid fixture definition")
)

// Set resolves fixture values for tests, caching them per scope.
type Set struct {
	defs map[string]Definition

	mu     sync.Mutex
	shared map[string]*share.Share[any]
}

func NewSet(defs ...Definition) (*Set, error) {
	set := &Set{
		defs:   make(map[string]Definition, len(defs)),
		shared: make(map[string]*share.Share[any]),
	}

	for _, def := range defs {
		err := set.add(def)
		if err != nil {
			return nil, err
		}
	}

	return set, nil
}

func (s *Set) add(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidFixture)
	}

	if def.Setup == nil {
		return fmt.Errorf("%w: %s has nil setup", ErrInvalidFixture, def.Name)
	}

	_, exists := s.defs[def.Name]
	if exists {
		return fmt.Errorf("%w: %s", ErrDuplicateFixture, def.Name)
	}

	s.defs[def.Name] = def

	return nil
}

func (s *Set) Names() []string {
	names := make([]string, 0, len(s.defs))

	for name := range s.defs {
		names = append(names, name)
	}

	return names
}

func (s *Set) UseForTesting(t *testing.T, name string) any {
	value, err := s.Use(t, name)
	if err != nil {
		t.Fatalf("use %q fixture: %s", name, err)

		return nil
	}

	return value
}

// Use resolves the named fixture value for t. Shared values are
// released via t.Cleanup, the backing share keeps them alive between
// quickly following tests.
func (s *Set) Use(t *testing.T, name string) (any, error) {
	def, exists := s.defs[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFixture, name)
	}

	switch def.Scope {
	case ScopeFunction:
		return s.setupFunctionScoped(t, def)
	case ScopeSuite:
		return s.acquireShared(t, def, suiteKey(def.Name, t))
	case ScopePackage, ScopeSession:
		return s.acquireShared(t, def, def.Name)
	default:
		return nil, fmt.Errorf("%w: %s has invalid scope %s", ErrInvalidFixture, def.Name, def.Scope)
	}
}

func (s *Set) setupFunctionScoped(t *testing.T, def Definition) (any, error) {
	value, err := def.Setup(t.Context())
	if err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}

	t.Cleanup(func() {
		_, err := share.Cleanup(context.Background(), value)
		if err != nil {
			t.Logf("failed cleanup %q fixture: %s", def.Name, err)
		}
	})

	return value, nil
}

func (s *Set) acquireShared(t *testing.T, def Definition, key string) (any, error) {
	sh := s.sharedFor(def, key)

	handle, err := sh.Acquire()
	if err != nil {
		return nil, err
	}

	t.Cleanup(handle.Release)

	return handle.Value(), nil
}

func (s *Set) sharedFor(def Definition, key string) *share.Share[any] {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, exists := s.shared[key]
	if exists {
		return sh
	}

	sh = share.Run(func() (any, error) {
		return def.Setup(context.Background())
	})

	s.shared[key] = sh

	return sh
}

// Teardown destroys every live shared value and runs every definition
// teardown. The session bootstrapper calls it once after the suite
// finishes, before the process exits.
func (s *Set) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sh := range s.shared {
		sh.Shutdown()
	}

	for _, def := range s.defs {
		if def.Teardown != nil {
			def.Teardown()
		}
	}
}

func suiteKey(name string, t *testing.T) string {
	suite, _, _ := strings.Cut(t.Name(), "/")

	return name + "@" + suite
}
