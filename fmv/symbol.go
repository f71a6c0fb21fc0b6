// Copyright 2025 go-fmv Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fmv

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrDuplicateSymbol is returned when a (level, function) pair is
	// registered twice in one registry.
	ErrDuplicateSymbol = errors.New("duplicate symbol")

	// ErrMissingSymbol is returned when resolution selects a level whose
	// variant was never registered.
	ErrMissingSymbol = errors.New("missing symbol")
)

// SymbolName returns the external name binding a level and a function:
// the level tag, an underscore, and the function name.
//
// This is the one contract shared by the build side (fmvgen emits variants
// under these names) and the runtime side (the resolver looks them up);
// any tooling producing variants by other means must match it exactly.
func SymbolName(level Level, fn string) string {
	return level.Tag() + "_" + fn
}

// Registry is a process-local symbol table mapping exported symbol names to
// variant callables. Generated variant units register into the package
// default registry from init; tests and embedders may use their own.
type Registry struct {
	mu   sync.RWMutex
	syms map[string]any
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{syms: make(map[string]any)}
}

// Register adds the variant callable for (level, fn). Registering the same
// pair twice returns ErrDuplicateSymbol: the in-process analog of a
// duplicate-symbol link error, caused by two generator runs exporting the
// same function into one package.
func (r *Registry) Register(level Level, fn string, callable any) error {
	if callable == nil {
		return fmt.Errorf("register %s: nil callable", SymbolName(level, fn))
	}
	sym := SymbolName(level, fn)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.syms[sym]; ok {
		return fmt.Errorf("register %s: %w", sym, ErrDuplicateSymbol)
	}
	r.syms[sym] = callable
	return nil
}

// MustRegister is Register for generated init functions, where a duplicate
// must abort startup rather than surface later as wrong dispatch.
func (r *Registry) MustRegister(level Level, fn string, callable any) {
	if err := r.Register(level, fn, callable); err != nil {
		panic(err)
	}
}

// Symbols returns the registered symbol names, sorted.
func (r *Registry) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.syms))
	for sym := range r.syms {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) lookup(sym string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.syms[sym]
	return c, ok
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry generated variant units register into.
func DefaultRegistry() *Registry { return defaultRegistry }

// MustRegister registers into the default registry.
func MustRegister(level Level, fn string, callable any) {
	defaultRegistry.MustRegister(level, fn, callable)
}
