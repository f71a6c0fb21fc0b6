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
	"strings"

	"github.com/ajroetker/go-fmv/fmv"
)

// levelVarNames maps each level tag to the fmv package identifier that
// generated registration code references.
var levelVarNames = map[string]string{
	"v1":   "AMD64v1",
	"v2":   "AMD64v2",
	"v3":   "AMD64v3",
	"v4":   "AMD64v4",
	"neon": "ARM64Neon",
	"sve":  "ARM64SVE",
	"sve2": "ARM64SVE2",
}

func availableLevelTags() []string {
	var tags []string
	for _, l := range fmv.AMD64Levels {
		tags = append(tags, l.Tag())
	}
	for _, l := range fmv.ARM64Levels {
		tags = append(tags, l.Tag())
	}
	return tags
}

// parseLevelList parses the -levels flag. "all" expands to the canonical
// lists of every supported family. An unknown tag is a fatal configuration
// error: a level the toolchain does not know must never be skipped silently.
func parseLevelList(s string) ([]fmv.Level, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "all" {
		return append(append([]fmv.Level{}, fmv.AMD64Levels...), fmv.ARM64Levels...), nil
	}

	var levels []fmv.Level
	seen := make(map[string]bool)
	for _, tag := range strings.Split(s, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		l, ok := fmv.ParseLevel(tag)
		if !ok {
			return nil, fmt.Errorf("unknown level %q (available: %s)", tag, strings.Join(availableLevelTags(), ","))
		}
		if seen[l.Tag()] {
			return nil, fmt.Errorf("level %q requested twice", tag)
		}
		seen[l.Tag()] = true
		levels = append(levels, l)
	}
	if len(levels) == 0 {
		return nil, fmt.Errorf("no levels requested")
	}
	return levels, nil
}

// familyGroup is the per-architecture slice of a requested level list,
// ordered highest first.
type familyGroup struct {
	family fmv.Family
	levels []fmv.Level
}

// groupByFamily splits requested levels into per-family groups, orders each
// group highest first, and checks that each group terminates in its
// family's baseline. Without the baseline variant, a host below the highest
// generated level would have no symbol to fall back to and dispatch would
// fail at startup.
func groupByFamily(levels []fmv.Level) ([]familyGroup, error) {
	byFamily := make(map[fmv.Family][]fmv.Level)
	var order []fmv.Family
	for _, l := range levels {
		if _, ok := byFamily[l.Family()]; !ok {
			order = append(order, l.Family())
		}
		byFamily[l.Family()] = append(byFamily[l.Family()], l)
	}

	var groups []familyGroup
	for _, fam := range order {
		group := byFamily[fam]

		// Keep the family's canonical highest-first order regardless of
		// how the flags were spelled.
		var ordered []fmv.Level
		for _, l := range canonicalLevels(fam) {
			for _, g := range group {
				if g.Tag() == l.Tag() {
					ordered = append(ordered, l)
				}
			}
		}

		base := canonicalLevels(fam)[len(canonicalLevels(fam))-1]
		if ordered[len(ordered)-1].Tag() != base.Tag() {
			return nil, fmt.Errorf("level list for %s must include the %s baseline", fam, base.Tag())
		}
		groups = append(groups, familyGroup{family: fam, levels: ordered})
	}
	return groups, nil
}

func canonicalLevels(fam fmv.Family) []fmv.Level {
	return fmv.LevelsFor(fam.String())
}

func levelTags(levels []fmv.Level) []string {
	tags := make([]string, len(levels))
	for i, l := range levels {
		tags[i] = l.Tag()
	}
	return tags
}
