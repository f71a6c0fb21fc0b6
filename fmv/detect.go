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

import (
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"sync"
)

// Detector resolves the best capability Level the running host satisfies.
//
// The probe runs at most once, on the first call to Level; every later call
// is a pure read of the memoized result. Concurrent first calls are safe
// and all observe the same value. A Detector never fails: any probe error
// degrades to the architecture baseline.
type Detector struct {
	arch  string
	probe func() (FeatureSet, error)
	log   *slog.Logger

	once  sync.Once
	level Level
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithArch overrides the GOARCH value the detector resolves levels for.
// Used together with WithProbe to exercise another family's level list.
func WithArch(goarch string) DetectorOption {
	return func(d *Detector) { d.arch = goarch }
}

// WithProbe replaces the hardware feature probe. The probe is called at
// most once, on first detection; concurrent first callers block until it
// returns.
func WithProbe(probe func() (FeatureSet, error)) DetectorOption {
	return func(d *Detector) { d.probe = probe }
}

// WithLogger sets the logger used for the probe-failure warning.
func WithLogger(log *slog.Logger) DetectorOption {
	return func(d *Detector) { d.log = log }
}

// NewDetector returns a Detector for the current GOARCH using the native
// hardware probe.
func NewDetector(opts ...DetectorOption) *Detector {
	d := &Detector{
		arch:  runtime.GOARCH,
		probe: hostProbe,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Level returns the detected capability level, probing the host on first use.
func (d *Detector) Level() Level {
	d.once.Do(d.detect)
	return d.level
}

// Baseline returns the unconditional fallback level of the detector's family.
func (d *Detector) Baseline() Level {
	return baseline(LevelsFor(d.arch))
}

func (d *Detector) detect() {
	levels := LevelsFor(d.arch)
	base := baseline(levels)

	if noSIMDEnv() {
		d.level = base
		return
	}

	set, err := d.probe()
	if err != nil {
		d.log.Warn("cpu feature probe failed, using baseline",
			"arch", d.arch,
			"baseline", base.Tag(),
			"error", err,
		)
		d.level = base
		return
	}

	level := base
	for _, l := range levels {
		if set.HasAll(l.Required()) {
			level = l
			break
		}
	}

	// FMV_LEVEL caps the detected level. It can only lower it: forcing a
	// level the host does not support would move the failure from startup
	// to an illegal instruction mid-call.
	if tag := os.Getenv("FMV_LEVEL"); tag != "" {
		if forced, ok := ParseLevel(tag); ok && forced.AtMost(level) {
			level = forced
		}
	}

	d.level = level
}

// noSIMDEnv reports whether FMV_NO_SIMD requests baseline-only dispatch.
// Any non-empty value that does not parse as false counts.
func noSIMDEnv() bool {
	val := os.Getenv("FMV_NO_SIMD")
	if val == "" {
		return false
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}

// defaultDetector serves call sites without access to a constructed
// Detector, such as init functions of generated dispatch units.
var defaultDetector = NewDetector()

// DefaultDetector returns the process-wide detector backing Detect and the
// package-level resolver entry points.
func DefaultDetector() *Detector { return defaultDetector }

// Detect returns the capability level of the running host, probing on
// first use.
func Detect() Level { return defaultDetector.Level() }
