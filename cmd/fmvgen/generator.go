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

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ajroetker/go-fmv/fmv"
)

// Generator orchestrates variant generation for one source unit.
//
// Per-level emission is independent (each level reads the shared parse
// result and writes its own file), so levels could be generated
// concurrently; they are emitted in list order instead to keep the output
// set deterministic and because generation is far from the bottleneck of
// any build.
type Generator struct {
	InputFile    string      // Input Go source file
	OutputDir    string      // Output directory
	OutputPrefix string      // Output file prefix (defaults to input file name without .go)
	Levels       []fmv.Level // Requested capability levels across families
	PackageOut   string      // Output package name (defaults to input package)
	FuncName     string      // Explicit single function to export (empty: directive scan)
	ExtraImports []string    // Extra import paths visible to generated units
}

// Run executes the generation pipeline: parse the source unit, validate the
// requested levels, then emit one variant unit per level, one dispatch
// unit, and one fallback unit.
func (g *Generator) Run() error {
	result, err := Parse(g.InputFile, g.FuncName)
	if err != nil {
		return err
	}

	pkg := g.PackageOut
	if pkg == "" {
		pkg = result.PackageName
	}

	prefix := g.OutputPrefix
	if prefix == "" {
		prefix = strings.TrimSuffix(filepath.Base(g.InputFile), ".go")
	}

	groups, err := groupByFamily(g.Levels)
	if err != nil {
		return err
	}

	em := &Emitter{
		OutDir:       g.OutputDir,
		Prefix:       prefix,
		Package:      pkg,
		ExtraImports: g.ExtraImports,
		Source:       result,
	}

	for _, group := range groups {
		for _, level := range group.levels {
			if err := em.EmitVariantUnit(level); err != nil {
				return err
			}
		}
		// One dispatch unit per family, not per level: it carries the typed
		// dispatch variables whose signatures are derived from the source
		// declarations, and a second copy in the same package would be the
		// duplicate-symbol case.
		if err := em.EmitDispatchUnit(group); err != nil {
			return err
		}
	}

	return em.EmitFallbackUnit(groups)
}

// variantName returns the Go identifier a clone is declared under, which is
// also its exported symbol name.
func variantName(level fmv.Level, fn string) string {
	return fmv.SymbolName(level, fn)
}

func levelVarName(level fmv.Level) string {
	name, ok := levelVarNames[level.Tag()]
	if !ok {
		// parseLevelList only admits known tags.
		panic(fmt.Sprintf("no fmv identifier for level %q", level.Tag()))
	}
	return name
}
