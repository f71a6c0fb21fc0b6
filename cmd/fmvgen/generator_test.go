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
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-fmv/fmv"
)

func runGenerator(t *testing.T, levels []fmv.Level) string {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "kernels.go")
	require.NoError(t, os.WriteFile(input, []byte(fixtureSource), 0o644))

	gen := &Generator{
		InputFile: input,
		OutputDir: dir,
		Levels:    levels,
	}
	require.NoError(t, gen.Run())
	return dir
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err, "expected generated file %s", name)
	return string(data)
}

func generatedFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.gen.go"))
	require.NoError(t, err)
	for i, m := range matches {
		matches[i] = filepath.Base(m)
	}
	sort.Strings(matches)
	return matches
}

func TestGenerateAllLevels(t *testing.T) {
	levels, err := parseLevelList("all")
	require.NoError(t, err)
	dir := runGenerator(t, levels)

	assert.Equal(t, []string{
		"kernels_dispatch_amd64.gen.go",
		"kernels_dispatch_arm64.gen.go",
		"kernels_fallback.gen.go",
		"kernels_neon.gen.go",
		"kernels_sve.gen.go",
		"kernels_sve2.gen.go",
		"kernels_v1.gen.go",
		"kernels_v2.gen.go",
		"kernels_v3.gen.go",
		"kernels_v4.gen.go",
	}, generatedFiles(t, dir))
}

func TestGenerateVariantUnit(t *testing.T) {
	levels, err := parseLevelList("v3,v1")
	require.NoError(t, err)
	dir := runGenerator(t, levels)

	v3 := readFile(t, dir, "kernels_v3.gen.go")
	assert.Contains(t, v3, "// Code generated by fmvgen. DO NOT EDIT.")
	assert.Contains(t, v3, "//go:build amd64")
	assert.Contains(t, v3, "package kernels")

	// One clone per exported function under the symbol naming contract.
	assert.Contains(t, v3, "func v3_Dot(a, b []float32) float32")
	assert.Contains(t, v3, "func v3_Norm(a []float32) float32")
	assert.Contains(t, v3, "func v3_ScaleSum(a []float32, s float32) float32")

	// Internal helpers are not cloned; clones call the shared ones.
	assert.NotContains(t, v3, "func v3_scale")
	assert.Contains(t, v3, "scale(a, s)")

	// Registration lives in the dispatch unit, where init order pins it
	// before the resolve; a variant unit carries clones only.
	assert.NotContains(t, v3, "func init()")

	v1 := readFile(t, dir, "kernels_v1.gen.go")
	assert.Contains(t, v1, "func v1_Dot(a, b []float32) float32")
	assert.NotContains(t, v1, "func init()")
}

func TestGenerateDispatchUnit(t *testing.T) {
	levels, err := parseLevelList("v3,v1")
	require.NoError(t, err)
	dir := runGenerator(t, levels)

	dispatch := readFile(t, dir, "kernels_dispatch_amd64.gen.go")
	assert.Contains(t, dispatch, "//go:build amd64")

	// Signatures are derived from the source declarations.
	assert.Contains(t, dispatch, "var Dot func(a, b []float32) float32")
	assert.Contains(t, dispatch, "var Norm func(a []float32) float32")

	// Resolution walks the generated subset, not the canonical list.
	assert.Contains(t, dispatch, "var kernelsLevels = []fmv.Level{fmv.AMD64v3, fmv.AMD64v1}")
	assert.Contains(t, dispatch, `Dot = fmv.FuncIn[func(a, b []float32) float32](kernelsLevels, "Dot")`)

	// Every variant of the subset is registered in the same init, above the
	// resolve. Init functions run in file-name order across a package, so
	// registration anywhere else could run after the binding.
	for _, line := range []string{
		`fmv.MustRegister(fmv.AMD64v3, "Dot", v3_Dot)`,
		`fmv.MustRegister(fmv.AMD64v1, "Dot", v1_Dot)`,
		`fmv.MustRegister(fmv.AMD64v3, "Norm", v3_Norm)`,
	} {
		reg := strings.Index(dispatch, line)
		bind := strings.Index(dispatch, "Dot = fmv.FuncIn")
		require.GreaterOrEqual(t, reg, 0, "missing %s", line)
		assert.Less(t, reg, bind, "registration must precede binding: %s", line)
	}
}

func TestGenerateDispatchPrefixSanitized(t *testing.T) {
	levels, err := parseLevelList("v2,v1")
	require.NoError(t, err)

	dir := t.TempDir()
	input := filepath.Join(dir, "my-kernels.go")
	require.NoError(t, os.WriteFile(input, []byte(fixtureSource), 0o644))

	gen := &Generator{InputFile: input, OutputDir: dir, Levels: levels}
	require.NoError(t, gen.Run())

	// The prefix defaults from the file name, which is no Go identifier.
	dispatch := readFile(t, dir, "my-kernels_dispatch_amd64.gen.go")
	assert.Contains(t, dispatch, "var my_kernelsLevels = []fmv.Level{")
	assert.NotContains(t, dispatch, "my-kernelsLevels")
}

func TestGenerateFallbackUnit(t *testing.T) {
	levels, err := parseLevelList("all")
	require.NoError(t, err)
	dir := runGenerator(t, levels)

	fallback := readFile(t, dir, "kernels_fallback.gen.go")
	assert.Contains(t, fallback, "//go:build !amd64 && !arm64")
	assert.Contains(t, fallback, "var Dot func(a, b []float32) float32 = BaseDot")
	assert.Contains(t, fallback, "var Norm func(a []float32) float32 = BaseNorm")
}

func TestGenerateSingleFamilyFallbackTag(t *testing.T) {
	levels, err := parseLevelList("v2,v1")
	require.NoError(t, err)
	dir := runGenerator(t, levels)

	fallback := readFile(t, dir, "kernels_fallback.gen.go")
	assert.Contains(t, fallback, "//go:build !amd64")
	assert.NotContains(t, fallback, "arm64")
}

func TestGenerateRequiresFamilyBaseline(t *testing.T) {
	// v3 without the v1 baseline would leave older hosts with no symbol.
	levels, err := parseLevelList("v4,v3")
	require.NoError(t, err)

	dir := t.TempDir()
	input := filepath.Join(dir, "kernels.go")
	require.NoError(t, os.WriteFile(input, []byte(fixtureSource), 0o644))

	gen := &Generator{InputFile: input, OutputDir: dir, Levels: levels}
	err = gen.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "baseline")
}

func TestParseLevelListUnknownLevelIsFatal(t *testing.T) {
	_, err := parseLevelList("v3,v9,v1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown level "v9"`)
}

func TestGenerateDeterministic(t *testing.T) {
	levels, err := parseLevelList("all")
	require.NoError(t, err)

	dirA := runGenerator(t, levels)
	dirB := runGenerator(t, levels)

	for _, name := range generatedFiles(t, dirA) {
		assert.Equal(t, readFile(t, dirA, name), readFile(t, dirB, name), "file %s", name)
	}
}

func TestGenerateLevelOrderInsensitive(t *testing.T) {
	// The flag order does not matter; emission follows the canonical
	// highest-first order.
	a, err := parseLevelList("v1,v3")
	require.NoError(t, err)
	b, err := parseLevelList("v3,v1")
	require.NoError(t, err)

	dirA := runGenerator(t, a)
	dirB := runGenerator(t, b)
	assert.Equal(t,
		readFile(t, dirA, "kernels_dispatch_amd64.gen.go"),
		readFile(t, dirB, "kernels_dispatch_amd64.gen.go"))
}

// execTestSource exercises a generated package from inside: package init must
// complete without panicking and the dispatch variables must invoke the
// variant selected for the host.
const execTestSource = `package kernels

import (
	"math"
	"testing"
)

func TestDispatch(t *testing.T) {
	if got := Dot([]float32{1, 2, 3, 4}, []float32{5, 6, 7, 8}); got != 70 {
		t.Fatalf("Dot = %v, want 70", got)
	}
	if got := Norm([]float32{3, 4}); got != 5 {
		t.Fatalf("Norm = %v, want 5", got)
	}
	if got := ScaleSum([]float32{1, 2}, 3); math.Abs(float64(got-9)) > 1e-6 {
		t.Fatalf("ScaleSum = %v, want 9", got)
	}
}
`

func TestGeneratedPackageExecutes(t *testing.T) {
	if testing.Short() {
		t.Skip("builds and runs a generated package")
	}
	goTool, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go tool not on PATH")
	}

	levels, err := parseLevelList("all")
	require.NoError(t, err)
	dir := runGenerator(t, levels)

	mod := strings.TrimSuffix(fmvImportPath, "/fmv")
	gomod := fmt.Sprintf("module example.com/kernels\n\ngo 1.21\n\nrequire %s v0.0.0\n\nreplace %s => %s\n",
		mod, mod, moduleRoot(t))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte(gomod), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kernels_test.go"), []byte(execTestSource), 0o644))

	cmd := exec.Command(goTool, "test", ".")
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GOFLAGS=-mod=mod", "GOPRIVATE=*")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "go test in generated module failed:\n%s", out)
}

// moduleRoot walks up from the test's working directory to the enclosing
// go.mod, which the generated module's replace directive points at.
func moduleRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		require.NotEqual(t, dir, parent, "no go.mod above %s", dir)
		dir = parent
	}
}
