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

//go:build arm64

package fmv

import "golang.org/x/sys/cpu"

// hostProbe reads the host feature flags via golang.org/x/sys/cpu.
//
// ASIMD (NEON) is part of the ARMv8-A base architecture and is set
// unconditionally; on some OSes the cpu package cannot read HWCAP and
// reports every flag false, which would otherwise drop us below the
// architectural baseline.
func hostProbe() (FeatureSet, error) {
	set := NewFeatureSet(FeatASIMD)
	if cpu.ARM64.HasSVE {
		set |= 1 << FeatSVE
	}
	if cpu.ARM64.HasSVE2 {
		set |= 1 << FeatSVE2
	}
	return set, nil
}
