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

// Command fmvgen generates per-CPU-level variants of multiversioned functions.
//
// Usage:
//
//	fmvgen -input dot.go -output . -levels all
//	fmvgen -input dot.go -levels v3,v1              # amd64 subset
//	fmvgen -input dot.go -func BaseDot              # explicit single function
//
// Or via go:generate:
//
//	//go:generate fmvgen -input $GOFILE -output . -levels all
//
// The input unit declares portable functions named Base<Name>. Functions
// carrying a //fmv:export directive (or the one named by -func) are cloned
// once per requested capability level under the exported symbol name
// <levelTag>_<Name> and registered with the fmv runtime; a dispatch unit
// binds a package-level variable <Name> to the best variant for the
// detected level at process start. The input unit itself is never edited
// and stays unaware of the multiversioning mechanism.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

var (
	inputFile    = flag.String("input", "", "Input Go source file (required)")
	outputDir    = flag.String("output", ".", "Output directory (default: current directory)")
	outputPrefix = flag.String("output_prefix", "", "Output file prefix, the default (if empty) is the input file name without .go")
	levels       = flag.String("levels", "all", "Comma-separated level tags ("+strings.Join(availableLevelTags(), ",")+") or 'all'")
	packageOut   = flag.String("pkg", "", "Output package name (default: same as input)")
	funcName     = flag.String("func", "", "Export a single named function instead of scanning for //fmv:export directives")
	extraImports = flag.String("imports", "", "Comma-separated extra import paths made visible to generated units")
)

func main() {
	flag.Parse()

	if *inputFile == "" {
		fmt.Fprintf(os.Stderr, "Error: -input flag is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	levelList, err := parseLevelList(*levels)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	gen := &Generator{
		InputFile:    *inputFile,
		OutputDir:    *outputDir,
		OutputPrefix: *outputPrefix,
		Levels:       levelList,
		PackageOut:   *packageOut,
		FuncName:     *funcName,
		ExtraImports: splitList(*extraImports),
	}

	if err := gen.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully generated variants for levels: %s\n", strings.Join(levelTags(levelList), ", "))
}

func splitList(s string) []string {
	var result []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
