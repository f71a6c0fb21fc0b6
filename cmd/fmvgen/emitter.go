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
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/tools/imports"

	"github.com/ajroetker/go-fmv/fmv"
)

const generatedHeader = "// Code generated by fmvgen. DO NOT EDIT.\n\n"

const fmvImportPath = "github.com/ajroetker/go-fmv/fmv"

// Emitter writes the generated units for one source unit.
type Emitter struct {
	OutDir       string
	Prefix       string
	Package      string
	ExtraImports []string
	Source       *ParseResult
}

// EmitVariantUnit writes <prefix>_<tag>.gen.go: one clone of every exported
// function under the level's symbol name. The build tag pins the unit to the
// level's architecture, so a linked artifact only carries the variants its
// target family can name. Registration lives in the dispatch unit, not here:
// init order across files follows file-name order, and the variants must be
// registered before the dispatch init resolves them.
func (e *Emitter) EmitVariantUnit(level fmv.Level) error {
	var buf bytes.Buffer
	buf.WriteString(generatedHeader)
	fmt.Fprintf(&buf, "//go:build %s\n\n", level.Family())
	fmt.Fprintf(&buf, "package %s\n\n", e.Package)
	e.writeImports(&buf)

	for _, fn := range e.Source.Funcs {
		clone, err := e.Source.renderVariant(fn.Decl, variantName(level, fn.Name))
		if err != nil {
			return err
		}
		fmt.Fprintf(&buf, "// %s is %s compiled for the %s %s capability level.\n",
			variantName(level, fn.Name), fn.Decl.Name.Name, level.Family(), level.Tag())
		buf.WriteString(clone)
		buf.WriteString("\n\n")
	}

	return e.write(fmt.Sprintf("%s_%s.gen.go", e.Prefix, level.Tag()), buf.Bytes())
}

// EmitDispatchUnit writes <prefix>_dispatch_<goarch>.gen.go for one family:
// one typed package-level variable per exported function, bound in init to
// the variant matching the detected level. The variable's type is derived
// from the source declaration, so call sites never restate the signature.
// Resolution walks the generated level list, which may be a subset of the
// family's canonical list. The same init also registers every variant,
// above the bindings: init functions run in file-name order across a
// package, so registration split into the variant units could run after
// the resolve here.
func (e *Emitter) EmitDispatchUnit(group familyGroup) error {
	var buf bytes.Buffer
	buf.WriteString(generatedHeader)
	fmt.Fprintf(&buf, "//go:build %s\n\n", group.family)
	fmt.Fprintf(&buf, "package %s\n\n", e.Package)
	fmt.Fprintf(&buf, "import (\n\t%q\n)\n\n", fmvImportPath)

	levelsVar := identPrefix(e.Prefix) + "Levels"
	var levelRefs []string
	for _, l := range group.levels {
		levelRefs = append(levelRefs, "fmv."+levelVarName(l))
	}
	fmt.Fprintf(&buf, "var %s = []fmv.Level{%s}\n\n", levelsVar, strings.Join(levelRefs, ", "))

	for _, fn := range e.Source.Funcs {
		fmt.Fprintf(&buf, "// %s dispatches to the best %s variant for the detected CPU level.\n", fn.Name, fn.Decl.Name.Name)
		fmt.Fprintf(&buf, "var %s %s\n\n", fn.Name, fn.SigText)
	}

	buf.WriteString("func init() {\n")
	for _, fn := range e.Source.Funcs {
		for _, l := range group.levels {
			fmt.Fprintf(&buf, "\tfmv.MustRegister(fmv.%s, %q, %s)\n",
				levelVarName(l), fn.Name, variantName(l, fn.Name))
		}
	}
	for _, fn := range e.Source.Funcs {
		fmt.Fprintf(&buf, "\t%s = fmv.FuncIn[%s](%s, %q)\n", fn.Name, fn.SigText, levelsVar, fn.Name)
	}
	buf.WriteString("}\n")

	return e.write(fmt.Sprintf("%s_dispatch_%s.gen.go", e.Prefix, group.family), buf.Bytes())
}

// EmitFallbackUnit writes <prefix>_fallback.gen.go for architectures
// outside every generated family: the dispatch variables bind straight to
// the portable source functions, with no registry involved.
func (e *Emitter) EmitFallbackUnit(groups []familyGroup) error {
	var buf bytes.Buffer
	buf.WriteString(generatedHeader)
	fmt.Fprintf(&buf, "//go:build %s\n\n", fallbackTag(groups))
	fmt.Fprintf(&buf, "package %s\n\n", e.Package)

	for _, fn := range e.Source.Funcs {
		fmt.Fprintf(&buf, "// %s falls back to the portable %s on architectures without variants.\n", fn.Name, fn.Decl.Name.Name)
		fmt.Fprintf(&buf, "var %s %s = %s\n\n", fn.Name, fn.SigText, fn.Decl.Name.Name)
	}

	return e.write(e.Prefix+"_fallback.gen.go", buf.Bytes())
}

func (e *Emitter) writeImports(buf *bytes.Buffer) {
	buf.WriteString("import (\n")
	fmt.Fprintf(buf, "\t%q\n", fmvImportPath)
	for _, imp := range e.Source.ImportDecls {
		fmt.Fprintf(buf, "\t%s\n", imp)
	}
	for _, imp := range e.ExtraImports {
		fmt.Fprintf(buf, "\t%q\n", imp)
	}
	buf.WriteString(")\n\n")
}

// fallbackTag renders the build constraint excluding every generated
// family, so the fallback unit covers exactly the architectures that got no
// variants.
func fallbackTag(groups []familyGroup) string {
	var parts []string
	for _, g := range groups {
		parts = append(parts, "!"+g.family.String())
	}
	return strings.Join(parts, " && ")
}

// identPrefix converts the unit prefix into an unexported Go identifier for
// the generated level-list variable. Prefixes default from file names, which
// may carry runes ('-', '.') that identifiers cannot.
func identPrefix(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return '_'
	}, s)
	if mapped == "" || unicode.IsDigit(rune(mapped[0])) {
		mapped = "x" + mapped
	}
	return lowerFirst(mapped)
}

// lowerFirst lowercases the leading rune so generated package-level helper
// identifiers stay unexported.
func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// write formats src with goimports (pruning any carried-over import the
// generated unit does not use) and writes it under the output directory.
func (e *Emitter) write(name string, src []byte) error {
	path := filepath.Join(e.OutDir, name)
	formatted, err := imports.Process(path, src, nil)
	if err != nil {
		return fmt.Errorf("format %s: %w", name, err)
	}
	if err := os.WriteFile(path, formatted, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
