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

// CompileTimeLevel returns the capability level implied by the build's own
// target configuration rather than a runtime probe.
//
// On amd64 this is the GOAMD64 microarchitecture level the binary was
// compiled for, read from the amd64.vN build tags. On arm64 it is the NEON
// baseline (Go has no build-time SVE selection). On other architectures it
// is the default family's baseline.
//
// The detected level on a correctly deployed host is always at or above
// this value; code generated for CompileTimeLevel is the binary's true
// unconditional floor.
func CompileTimeLevel() Level { return compileTimeLevel }
