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
	"fmt"
	"runtime"
)

// Resolve returns the variant callable for fn at the best level the
// detected level satisfies.
//
// levels is walked in its given highest-first order and the first entry at
// or below detected wins. Canonical lists terminate in the family baseline,
// which every detected level satisfies, so the walk always matches; if a
// caller-supplied list is malformed (no entry matches, or detected belongs
// to another family) the last entry is used as the safety net.
//
// The returned callable's signature is fixed by construction: every variant
// is generated from the same source declaration. Asserting it to the wrong
// type is a caller bug, not a runtime condition. Use Lookup for the typed
// path.
func (r *Registry) Resolve(levels []Level, detected Level, fn string) (any, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("resolve %s: empty level list", fn)
	}
	chosen := baseline(levels)
	for _, l := range levels {
		if l.AtMost(detected) {
			chosen = l
			break
		}
	}
	c, ok := r.lookup(SymbolName(chosen, fn))
	if !ok {
		return nil, fmt.Errorf("resolve %s at %s: %w: %s",
			fn, detected.Tag(), ErrMissingSymbol, SymbolName(chosen, fn))
	}
	return c, nil
}

// Lookup is the explicit-signature resolution path: it resolves fn against
// the registry and asserts the callable to F.
func Lookup[F any](r *Registry, levels []Level, detected Level, fn string) (F, error) {
	var zero F
	c, err := r.Resolve(levels, detected, fn)
	if err != nil {
		return zero, err
	}
	typed, ok := c.(F)
	if !ok {
		return zero, fmt.Errorf("resolve %s: symbol has type %T, want %T", fn, c, zero)
	}
	return typed, nil
}

// Resolve resolves fn through the default detector and registry, using the
// current architecture's canonical level list. This is the entry point for
// call sites without a constructed Detector, such as init functions of
// generated dispatch units.
func Resolve(fn string) (any, error) {
	return defaultRegistry.Resolve(LevelsFor(runtime.GOARCH), Detect(), fn)
}

// Func is the typed form of Resolve. It panics on a missing symbol or a
// signature mismatch, both of which are generation-time defects that must
// abort startup; generated dispatch units call it from init.
func Func[F any](fn string) F {
	return FuncIn[F](LevelsFor(runtime.GOARCH), fn)
}

// FuncIn is Func with a caller-supplied level list. Dispatch units built
// from a subset of the canonical levels resolve through the subset they
// actually registered variants for.
func FuncIn[F any](levels []Level, fn string) F {
	f, err := Lookup[F](defaultRegistry, levels, Detect(), fn)
	if err != nil {
		panic(err)
	}
	return f
}
