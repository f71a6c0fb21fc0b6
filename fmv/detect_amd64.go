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

//go:build amd64

package fmv

import (
	"errors"

	"github.com/klauspost/cpuid/v2"
)

// cpuidFeatures maps each Feature to the CPUID flag that reports it.
var cpuidFeatures = map[Feature]cpuid.FeatureID{
	FeatSSE2:     cpuid.SSE2,
	FeatSSE3:     cpuid.SSE3,
	FeatSSSE3:    cpuid.SSSE3,
	FeatSSE41:    cpuid.SSE4,
	FeatSSE42:    cpuid.SSE42,
	FeatPOPCNT:   cpuid.POPCNT,
	FeatCX16:     cpuid.CX16,
	FeatLAHF:     cpuid.LAHF,
	FeatAVX:      cpuid.AVX,
	FeatAVX2:     cpuid.AVX2,
	FeatBMI1:     cpuid.BMI1,
	FeatBMI2:     cpuid.BMI2,
	FeatFMA:      cpuid.FMA3,
	FeatF16C:     cpuid.F16C,
	FeatMOVBE:    cpuid.MOVBE,
	FeatOSXSAVE:  cpuid.OSXSAVE,
	FeatAVX512F:  cpuid.AVX512F,
	FeatAVX512BW: cpuid.AVX512BW,
	FeatAVX512CD: cpuid.AVX512CD,
	FeatAVX512DQ: cpuid.AVX512DQ,
	FeatAVX512VL: cpuid.AVX512VL,
}

// hostProbe reads the host feature flags via CPUID. SSE2 is architecturally
// guaranteed on amd64; its absence means CPUID itself could not be trusted
// (emulator, restricted sandbox), which is reported as a probe failure.
func hostProbe() (FeatureSet, error) {
	var set FeatureSet
	for feat, id := range cpuidFeatures {
		if cpuid.CPU.Supports(id) {
			set |= 1 << feat
		}
	}
	if !set.Has(FeatSSE2) {
		return 0, errors.New("cpuid reports no sse2 on amd64")
	}
	return set, nil
}
