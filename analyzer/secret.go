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

package analyzer

import (
	"fmt"
	"time"

	"github.com/in-toto/go-patchscan/detector"
)

// Secret is a candidate that survived blacklist filtering. Verified is true
// only when the owning detector confirmed the value.
type Secret struct {
	Type     string `json:"type" jsonschema:"title=Type,description=Name of the detector (or detector rule) that found the secret"`
	FilePath string `json:"filePath" jsonschema:"title=File Path,description=Path of the file in the patch"`
	Line     int    `json:"line" jsonschema:"title=Line,description=1-based line number in the new version of the file"`
	Value    string `json:"value" jsonschema:"title=Value,description=The secret value"`
	Verified bool   `json:"verified" jsonschema:"title=Verified,description=Whether the detector confirmed the secret is live"`
}

// Status tells an empty scan apart from one that could not run.
type Status int

const (
	StatusOK Status = iota
	StatusParseFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusParseFailed:
		return "parse-failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Stage is the detector call a Failure happened in.
type Stage string

const (
	StageAnalyze Stage = "analyze"
	StageVerify  Stage = "verify"
)

// Failure records a detector error that was isolated from the rest of the
// scan. Analyze failures skip the detector for that line; verify failures
// leave the secret unverified.
type Failure struct {
	Detector string
	FilePath string
	Line     int
	Stage    Stage
	Err      error
}

func (f Failure) Error() string {
	return fmt.Sprintf("detector %s failed to %s %s:%d: %v", f.Detector, f.Stage, f.FilePath, f.Line, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Observer receives scan events. Implementations must be safe for
// concurrent use when the analyzer is shared.
type Observer interface {
	ParseFailed(err error)
	SecretFound(s Secret)
	CandidateBlacklisted(c detector.Candidate)
	DetectorFailed(f Failure)
	VerifyCompleted(detectorName string, result detector.VerifyResult, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ParseFailed(error) {}
func (nopObserver) SecretFound(Secret) {}
func (nopObserver) CandidateBlacklisted(detector.Candidate) {}
func (nopObserver) DetectorFailed(Failure) {}
func (nopObserver) VerifyCompleted(string, detector.VerifyResult, time.Duration) {}
