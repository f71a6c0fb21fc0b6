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

// Command fmvinfo prints the CPU capability information fmv dispatch is
// based on: the compile-time level, the detected level, and the raw feature
// flags behind the decision.
package main

import (
	"fmt"
	"runtime"

	"github.com/klauspost/cpuid/v2"
	"golang.org/x/sys/cpu"

	"github.com/ajroetker/go-fmv/fmv"
)

func main() {
	fmt.Printf("GOOS: %s\n", runtime.GOOS)
	fmt.Printf("GOARCH: %s\n", runtime.GOARCH)
	fmt.Printf("NumCPU: %d\n", runtime.NumCPU())
	fmt.Println()

	detected := fmv.Detect()
	fmt.Printf("Compile-time level: %s\n", fmv.CompileTimeLevel())
	fmt.Printf("Detected level: %s\n", detected)
	fmt.Printf("Level features: %s\n", detected.Required())

	fmt.Println()
	fmt.Println("Dispatch order:")
	for _, l := range fmv.LevelsFor(runtime.GOARCH) {
		marker := " "
		if l.AtMost(detected) {
			marker = "*"
		}
		fmt.Printf("  %s %-5s requires %s\n", marker, l.Tag(), l.Required())
	}
	fmt.Println()

	switch runtime.GOARCH {
	case "amd64":
		printAMD64Features()
	case "arm64":
		printARM64Features()
	default:
		fmt.Printf("No capability family for %s; dispatch stays on the baseline fallback.\n", runtime.GOARCH)
	}
}

func printAMD64Features() {
	fmt.Println("=== github.com/klauspost/cpuid/v2 ===")
	fmt.Printf("  Vendor:     %s\n", cpuid.CPU.VendorString)
	fmt.Printf("  Brand:      %s\n", cpuid.CPU.BrandName)
	fmt.Printf("  X64Level:   %d\n", cpuid.CPU.X64Level())
	fmt.Printf("  SSE4.2:     %v\n", cpuid.CPU.Supports(cpuid.SSE42))
	fmt.Printf("  POPCNT:     %v\n", cpuid.CPU.Supports(cpuid.POPCNT))
	fmt.Printf("  AVX:        %v\n", cpuid.CPU.Supports(cpuid.AVX))
	fmt.Printf("  AVX2:       %v\n", cpuid.CPU.Supports(cpuid.AVX2))
	fmt.Printf("  FMA3:       %v\n", cpuid.CPU.Supports(cpuid.FMA3))
	fmt.Printf("  BMI2:       %v\n", cpuid.CPU.Supports(cpuid.BMI2))
	fmt.Printf("  AVX512F:    %v\n", cpuid.CPU.Supports(cpuid.AVX512F))
	fmt.Printf("  AVX512BW:   %v\n", cpuid.CPU.Supports(cpuid.AVX512BW))
	fmt.Printf("  AVX512VL:   %v\n", cpuid.CPU.Supports(cpuid.AVX512VL))
}

func printARM64Features() {
	fmt.Println("=== golang.org/x/sys/cpu.ARM64 ===")
	fmt.Printf("  HasASIMD: %v (NEON baseline)\n", cpu.ARM64.HasASIMD)
	fmt.Printf("  HasSVE:   %v (Scalable Vector Extension)\n", cpu.ARM64.HasSVE)
	fmt.Printf("  HasSVE2:  %v (SVE2)\n", cpu.ARM64.HasSVE2)
}
