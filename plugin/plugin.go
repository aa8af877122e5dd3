// Copyright (c) 2025 amidgo. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in the LICENSE file.

package plugin

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/amidgo/testboot/fixture"
)

// Plugin supplies shared fixtures under a fixed name. Shipped plugins
// register themselves into the default registry from their package
// init, so importing a plugin package makes its name resolvable.
type Plugin interface {
	Name() string
	Fixtures() []fixture.Definition
}

var (
	ErrUnknownPlugin   = errors.New("unknown plugin")
	ErrDuplicatePlugin = errors.New("duplicate plugin")
	ErrInvalidPlugin   = errors.New("invalid plugin")
)

type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

func NewRegistry() *Registry {
	return &Registry{
		plugins: make(map[string]Plugin),
	}
}

func (r *Registry) Register(p Plugin) error {
	name := p.Name()
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidPlugin)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.plugins[name]
	if exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePlugin, name)
	}

	r.plugins[name] = p

	return nil
}

func (r *Registry) Lookup(name string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.plugins[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlugin, name)
	}

	return p, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.plugins))

	for name := range r.plugins {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

var defaultRegistry = NewRegistry()

func Default() *Registry {
	return defaultRegistry
}

// Register adds p to the default registry, panicking on a duplicate
// name. Meant to be called from a plugin package init.
func Register(p Plugin) {
	err := defaultRegistry.Register(p)
	if err != nil {
		panic("register plugin: " + err.Error())
	}
}

func Lookup(name string) (Plugin, error) {
	return defaultRegistry.Lookup(name)
}

// Func builds a Plugin from a name and a list of fixture definitions.
func Func(name string, defs ...fixture.Definition) Plugin {
	return funcPlugin{name: name, defs: defs}
}

type funcPlugin struct {
	name string
	defs []fixture.Definition
}

func (p funcPlugin) Name() string {
	return p.name
}

func (p funcPlugin) Fixtures() []fixture.Definition {
	return p.defs
}
