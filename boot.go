// Copyright (c) 2025 amidgo. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in the LICENSE file.

package testboot

import (
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
	"testing"

	"github.com/amidgo/testboot/fixture"
	"github.com/amidgo/testboot/plugin"
)

const (
	// ExitCodeSkipped reports a deliberately skipped session, zero
	// tests executed, not a failure.
	ExitCodeSkipped = 0

	// ExitCodeBootstrapFailed reports a fatal session startup
	// failure, before any test ran.
	ExitCodeBootstrapFailed = 2
)

type Config struct {
	plugins    []string
	detector   Detector
	skipReason string
	registry   *plugin.Registry
	output     io.Writer
}

type Option func(cfg *Config)

// WithPlugins names the fixture plugins the session requires. Every
// name must resolve in the registry, an unknown name fails the whole
// session before any test runs.
func WithPlugins(names ...string) Option {
	return func(cfg *Config) {
		cfg.plugins = append(cfg.plugins, names...)
	}
}

func WithDetector(detector Detector) Option {
	return func(cfg *Config) {
		cfg.detector = detector
	}
}

func WithSkipReason(reason string) Option {
	return func(cfg *Config) {
		cfg.skipReason = reason
	}
}

func WithRegistry(registry *plugin.Registry) Option {
	return func(cfg *Config) {
		cfg.registry = registry
	}
}

func WithOutput(output io.Writer) Option {
	return func(cfg *Config) {
		cfg.output = output
	}
}

func newConfig(opts ...Option) Config {
	cfg := Config{
		detector:   GithubActions,
		skipReason: "Skipping tests in GitHub Actions",
		registry:   plugin.Default(),
		output:     os.Stderr,
	}

	for _, op := range opts {
		op(&cfg)
	}

	return cfg
}

// Main bootstraps the test session, use it from TestMain:
//
//	func TestMain(m *testing.M) {
//		testboot.Main(m, testboot.WithPlugins(postgres.PluginName))
//	}
//
// It registers the requested fixture plugins, evaluates the CI guard
// once, and either skips the whole session or runs the suite and
// tears the shared fixtures down afterwards.
func Main(m *testing.M, opts ...Option) {
	os.Exit(Run(m.Run, opts...))
}

// Run is the decision core of Main with the suite run injected, it
// returns the process exit code.
func Run(run func() int, opts ...Option) int {
	cfg := newConfig(opts...)

	set, err := assembleFixtures(cfg)
	if err != nil {
		fmt.Fprintf(cfg.output, "testboot: bootstrap failed: %s\n", err)

		return ExitCodeBootstrapFailed
	}

	setCurrent(set)

	if Disabled() {
		fmt.Fprintf(cfg.output, "testboot: session skipped, %s is set\n", disableEnvName)

		return ExitCodeSkipped
	}

	if cfg.detector != nil && cfg.detector() {
		fmt.Fprintf(cfg.output, "testboot: session skipped, %s\n", cfg.skipReason)

		return ExitCodeSkipped
	}

	defer set.Teardown()

	return run()
}

func assembleFixtures(cfg Config) (*fixture.Set, error) {
	defs := make([]fixture.Definition, 0)

	seen := make([]string, 0, len(cfg.plugins))

	for _, name := range cfg.plugins {
		if slices.Contains(seen, name) {
			continue
		}

		seen = append(seen, name)

		p, err := cfg.registry.Lookup(name)
		if err != nil {
			return nil, err
		}

		defs = append(defs, p.Fixtures()...)
	}

	set, err := fixture.NewSet(defs...)
	if err != nil {
		return nil, err
	}

	return set, nil
}

var (
	currentMu  sync.RWMutex
	currentSet *fixture.Set
)

func setCurrent(set *fixture.Set) {
	currentMu.Lock()
	defer currentMu.Unlock()

	currentSet = set
}

// Use resolves a fixture registered by one of the session plugins.
// The session must be bootstrapped via Main or Run first.
func Use(t *testing.T, name string) any {
	currentMu.RLock()
	set := currentSet
	currentMu.RUnlock()

	if set == nil {
		t.Fatalf("use %q fixture: session is not bootstrapped, call testboot.Main from TestMain", name)

		return nil
	}

	return set.UseForTesting(t, name)
}
