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

// Package fmv provides runtime selection between multiple compiled variants
// of a function, one per CPU capability level.
//
// A binary built with fmvgen contains one variant of each multiversioned
// function per capability level of the target architecture. At process start
// a Detector probes the host CPU once and the resolver binds each dispatch
// variable to the best variant the host can execute. After that first
// resolution a call costs exactly one indirect function call.
package fmv

import "strings"

// Feature is a single hardware capability a Level may require.
type Feature uint

const (
	// amd64 features, grouped by the x86-64 microarchitecture level that
	// first requires them.
	FeatSSE2 Feature = iota // v1 baseline

	FeatSSE3 // v2
	FeatSSSE3
	FeatSSE41
	FeatSSE42
	FeatPOPCNT
	FeatCX16
	FeatLAHF

	FeatAVX // v3
	FeatAVX2
	FeatBMI1
	FeatBMI2
	FeatFMA
	FeatF16C
	FeatMOVBE
	FeatOSXSAVE

	FeatAVX512F // v4
	FeatAVX512BW
	FeatAVX512CD
	FeatAVX512DQ
	FeatAVX512VL

	// arm64 features.
	FeatASIMD // NEON, ARMv8-A baseline
	FeatSVE
	FeatSVE2

	numFeatures
)

var featureNames = [...]string{
	FeatSSE2:     "sse2",
	FeatSSE3:     "sse3",
	FeatSSSE3:    "ssse3",
	FeatSSE41:    "sse4.1",
	FeatSSE42:    "sse4.2",
	FeatPOPCNT:   "popcnt",
	FeatCX16:     "cx16",
	FeatLAHF:     "lahf",
	FeatAVX:      "avx",
	FeatAVX2:     "avx2",
	FeatBMI1:     "bmi1",
	FeatBMI2:     "bmi2",
	FeatFMA:      "fma",
	FeatF16C:     "f16c",
	FeatMOVBE:    "movbe",
	FeatOSXSAVE:  "osxsave",
	FeatAVX512F:  "avx512f",
	FeatAVX512BW: "avx512bw",
	FeatAVX512CD: "avx512cd",
	FeatAVX512DQ: "avx512dq",
	FeatAVX512VL: "avx512vl",
	FeatASIMD:    "asimd",
	FeatSVE:      "sve",
	FeatSVE2:     "sve2",
}

// String returns the conventional lowercase name of the feature.
func (f Feature) String() string {
	if int(f) < len(featureNames) {
		return featureNames[f]
	}
	return "unknown"
}

// FeatureSet is a bitmask over Feature values.
type FeatureSet uint64

// NewFeatureSet returns a set containing the given features.
func NewFeatureSet(feats ...Feature) FeatureSet {
	var s FeatureSet
	for _, f := range feats {
		s |= 1 << f
	}
	return s
}

// Has reports whether f is in the set.
func (s FeatureSet) Has(f Feature) bool {
	return s&(1<<f) != 0
}

// HasAll reports whether every feature in req is in the set.
func (s FeatureSet) HasAll(req FeatureSet) bool {
	return s&req == req
}

// Union returns the union of s and other.
func (s FeatureSet) Union(other FeatureSet) FeatureSet {
	return s | other
}

// Features returns the members of the set in declaration order.
func (s FeatureSet) Features() []Feature {
	var feats []Feature
	for f := Feature(0); f < numFeatures; f++ {
		if s.Has(f) {
			feats = append(feats, f)
		}
	}
	return feats
}

// String returns a comma-separated list of feature names.
func (s FeatureSet) String() string {
	var names []string
	for _, f := range s.Features() {
		names = append(names, f.String())
	}
	return strings.Join(names, ",")
}

// Family identifies one architecture's set of capability levels.
// Levels of different families are never comparable.
type Family uint8

const (
	FamilyAMD64 Family = iota
	FamilyARM64
)

// String returns the GOARCH value the family corresponds to.
func (f Family) String() string {
	switch f {
	case FamilyAMD64:
		return "amd64"
	case FamilyARM64:
		return "arm64"
	default:
		return "unknown"
	}
}

// Level is one point on a family's ordered capability scale.
//
// The zero value is the amd64 baseline. Within a family, a higher ordinal
// requires a strict superset of the features of every lower ordinal.
type Level struct {
	family   Family
	ord      uint8
	tag      string
	required FeatureSet
}

// Family returns the architecture family the level belongs to.
func (l Level) Family() Family { return l.family }

// Tag returns the level's canonical short name, e.g. "v3" or "sve2".
// Tags are single tokens with no underscores; they form the level half of
// the exported symbol name.
func (l Level) Tag() string { return l.tag }

// Required returns the full feature set a host must have to run code
// compiled for this level.
func (l Level) Required() FeatureSet { return l.required }

// AtMost reports whether l is at or below other on the same family's scale.
// Levels of different families are incomparable and AtMost returns false.
func (l Level) AtMost(other Level) bool {
	return l.family == other.family && l.ord <= other.ord
}

// String returns the level's tag.
func (l Level) String() string { return l.tag }

// Feature sets per level. Each level unions the previous level's set, which
// is what makes the within-family ordering a chain of strict supersets.
var (
	amd64v1Features = NewFeatureSet(FeatSSE2)
	amd64v2Features = amd64v1Features.Union(NewFeatureSet(
		FeatSSE3, FeatSSSE3, FeatSSE41, FeatSSE42, FeatPOPCNT, FeatCX16, FeatLAHF))
	amd64v3Features = amd64v2Features.Union(NewFeatureSet(
		FeatAVX, FeatAVX2, FeatBMI1, FeatBMI2, FeatFMA, FeatF16C, FeatMOVBE, FeatOSXSAVE))
	amd64v4Features = amd64v3Features.Union(NewFeatureSet(
		FeatAVX512F, FeatAVX512BW, FeatAVX512CD, FeatAVX512DQ, FeatAVX512VL))

	arm64NeonFeatures = NewFeatureSet(FeatASIMD)
	arm64SVEFeatures  = arm64NeonFeatures.Union(NewFeatureSet(FeatSVE))
	arm64SVE2Features = arm64SVEFeatures.Union(NewFeatureSet(FeatSVE2))
)

// The amd64 levels mirror the x86-64 microarchitecture levels (the GOAMD64
// values): v1 is the universal SSE2 baseline, v2 adds the Nehalem-era
// extensions, v3 the Haswell-era AVX2 group, v4 the AVX-512 group.
var (
	AMD64v1 = Level{FamilyAMD64, 0, "v1", amd64v1Features}
	AMD64v2 = Level{FamilyAMD64, 1, "v2", amd64v2Features}
	AMD64v3 = Level{FamilyAMD64, 2, "v3", amd64v3Features}
	AMD64v4 = Level{FamilyAMD64, 3, "v4", amd64v4Features}
)

// The arm64 levels start at NEON, which is unconditional in ARMv8-A, and
// step through the scalable vector extensions.
var (
	ARM64Neon = Level{FamilyARM64, 0, "neon", arm64NeonFeatures}
	ARM64SVE  = Level{FamilyARM64, 1, "sve", arm64SVEFeatures}
	ARM64SVE2 = Level{FamilyARM64, 2, "sve2", arm64SVE2Features}
)

// AMD64Levels is the canonical amd64 dispatch order, highest first,
// ending in the v1 baseline.
var AMD64Levels = []Level{AMD64v4, AMD64v3, AMD64v2, AMD64v1}

// ARM64Levels is the canonical arm64 dispatch order, highest first,
// ending in the NEON baseline.
var ARM64Levels = []Level{ARM64SVE2, ARM64SVE, ARM64Neon}

// LevelsFor returns a copy of the canonical highest-first level list for a
// GOARCH value.
//
// An unrecognized architecture returns the amd64 list so that callers
// always have an ordered list ending in a baseline. Detection on such an
// architecture never reports above that baseline, so dispatch degrades to
// the fallback variant rather than selecting a mismatched symbol.
func LevelsFor(goarch string) []Level {
	var levels []Level
	switch goarch {
	case "arm64":
		levels = ARM64Levels
	default:
		levels = AMD64Levels
	}
	out := make([]Level, len(levels))
	copy(out, levels)
	return out
}

// ParseLevel parses a canonical level tag such as "v3" or "sve2".
func ParseLevel(tag string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "v1":
		return AMD64v1, true
	case "v2":
		return AMD64v2, true
	case "v3":
		return AMD64v3, true
	case "v4":
		return AMD64v4, true
	case "neon":
		return ARM64Neon, true
	case "sve":
		return ARM64SVE, true
	case "sve2":
		return ARM64SVE2, true
	default:
		return Level{}, false
	}
}

// baseline returns the last (lowest) entry of a non-empty level list.
func baseline(levels []Level) Level {
	return levels[len(levels)-1]
}
