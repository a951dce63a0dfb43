// Copyright 2025 The Witness Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package detector defines the pluggable secret detection capabilities run
// against every added line of a patch, along with the built-in detectors
// and a catalog that builds configured instances by name.
package detector

import (
	"context"
	"regexp"
)

// VerifyResult is the outcome of confirming a candidate secret.
type VerifyResult int

const (
	Unverified VerifyResult = iota
	VerifiedFalse
	VerifiedTrue
)

func (r VerifyResult) String() string {
	switch r {
	case VerifiedTrue:
		return "verified-true"
	case VerifiedFalse:
		return "verified-false"
	default:
		return "unverified"
	}
}

// Candidate is a potential secret found on one line.
type Candidate struct {
	Type     string
	FilePath string
	Line     int
	Value    string
}

// Detector is one secret detection capability.
//
// Analyze must be a pure function of the detector configuration and its
// arguments. Verify may be expensive (network calls) and is only invoked for
// candidates that survived blacklist filtering. Implementations must be safe
// for concurrent use.
type Detector interface {
	Name() string
	Analyze(text string, lineNumber int, filePath string) ([]Candidate, error)
	Verify(ctx context.Context, value, content string) (VerifyResult, error)
}

// Initializer is implemented by detectors that need work after their options
// were applied, such as compiling configured patterns.
type Initializer interface {
	Init() error
}

// patternSet finds secrets with a list of regular expressions. The first
// capture group is the secret when present, otherwise the whole match.
type patternSet []*regexp.Regexp

func (ps patternSet) find(name, text string, lineNumber int, filePath string) []Candidate {
	var candidates []Candidate
	seen := make(map[string]struct{})
	for _, re := range ps {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			value := m[0]
			if len(m) > 1 && m[1] != "" {
				value = m[1]
			}

			if _, ok := seen[value]; ok {
				continue
			}
			seen[value] = struct{}{}

			candidates = append(candidates, Candidate{
				Type:     name,
				FilePath: filePath,
				Line:     lineNumber,
				Value:    value,
			})
		}
	}

	return candidates
}
