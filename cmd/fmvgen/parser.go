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
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"strings"
)

// exportDirective marks a top-level function as eligible for
// multiversioning. Undecorated functions stay internal to the source unit:
// they are never cloned or exported, but variant clones in the same package
// may still call them.
const exportDirective = "//fmv:export"

// basePrefix is the naming convention for portable source functions.
// BaseDot is exported under the function name Dot.
const basePrefix = "Base"

// ExportedFunc is one function selected for multiversioning.
type ExportedFunc struct {
	// Decl is the parsed declaration, named with the Base prefix.
	Decl *ast.FuncDecl

	// Name is the exported function name: the declared name without the
	// Base prefix. It forms the second half of every variant symbol and
	// names the generated dispatch variable.
	Name string

	// SigText is the function's type rendered as Go source, e.g.
	// "func(a, b []float32) float32". Dispatch variables take this type,
	// so callers never restate the signature.
	SigText string
}

// ParseResult holds everything the emitters need from the input unit.
type ParseResult struct {
	PackageName string
	Funcs       []ExportedFunc

	// ImportDecls are the input file's import specs rendered as source,
	// carried into variant units so cloned bodies keep resolving.
	ImportDecls []string

	fset *token.FileSet
}

// Parse reads the input unit and selects the functions to multiversion:
// every top-level function carrying //fmv:export, or only funcName if it is
// non-empty (the explicit mode, where the directive is not required).
func Parse(filename, funcName string) (*ParseResult, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	result := &ParseResult{
		PackageName: file.Name.Name,
		fset:        fset,
	}

	for _, imp := range file.Imports {
		var buf strings.Builder
		if err := printer.Fprint(&buf, fset, imp); err != nil {
			return nil, fmt.Errorf("render import: %w", err)
		}
		result.ImportDecls = append(result.ImportDecls, buf.String())
	}

	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv != nil {
			continue
		}
		if funcName != "" {
			if fd.Name.Name != funcName {
				continue
			}
		} else if !hasExportDirective(fd) {
			continue
		}

		ef, err := newExportedFunc(fset, fd)
		if err != nil {
			return nil, err
		}
		result.Funcs = append(result.Funcs, ef)
	}

	if funcName != "" && len(result.Funcs) == 0 {
		return nil, fmt.Errorf("function %s not found in %s", funcName, filename)
	}
	if len(result.Funcs) == 0 {
		return nil, fmt.Errorf("no functions marked %s found in %s", exportDirective, filename)
	}
	return result, nil
}

func newExportedFunc(fset *token.FileSet, fd *ast.FuncDecl) (ExportedFunc, error) {
	name := strings.TrimPrefix(fd.Name.Name, basePrefix)
	if name == fd.Name.Name || name == "" {
		return ExportedFunc{}, fmt.Errorf("exported function %s must be named %s<Name>", fd.Name.Name, basePrefix)
	}
	if fd.Type.TypeParams != nil {
		return ExportedFunc{}, fmt.Errorf("exported function %s is generic; export concrete instantiations instead", fd.Name.Name)
	}
	if fd.Body == nil {
		return ExportedFunc{}, fmt.Errorf("exported function %s has no body", fd.Name.Name)
	}

	var sig strings.Builder
	if err := printer.Fprint(&sig, fset, fd.Type); err != nil {
		return ExportedFunc{}, fmt.Errorf("render signature of %s: %w", fd.Name.Name, err)
	}

	return ExportedFunc{Decl: fd, Name: name, SigText: sig.String()}, nil
}

// hasExportDirective reports whether the declaration's doc group contains
// the export directive. Directive comments are not part of
// CommentGroup.Text, so the raw list is scanned.
func hasExportDirective(fd *ast.FuncDecl) bool {
	if fd.Doc == nil {
		return false
	}
	for _, c := range fd.Doc.List {
		if c.Text == exportDirective || strings.HasPrefix(c.Text, exportDirective+" ") {
			return true
		}
	}
	return false
}

// renderVariant prints the declaration under a variant name. The shared
// AST is renamed in place for the duration of the print, which keeps the
// emitted signature and body byte-identical to the source declaration.
func (p *ParseResult) renderVariant(fd *ast.FuncDecl, variantName string) (string, error) {
	orig := fd.Name
	fd.Name = ast.NewIdent(variantName)
	defer func() { fd.Name = orig }()

	var buf strings.Builder
	if err := printer.Fprint(&buf, p.fset, fd); err != nil {
		return "", fmt.Errorf("render variant %s: %w", variantName, err)
	}
	return buf.String(), nil
}
