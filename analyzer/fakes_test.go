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
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/in-toto/go-patchscan/detector"
)

// fakeDetector reports every match of pattern and answers Verify with
// result, recording the calls it receives.
type fakeDetector struct {
	name       string
	pattern    *regexp.Regexp
	result     detector.VerifyResult
	verifyErr  error
	analyzeErr error
	panicOn    string
	verifyWait time.Duration

	mu          sync.Mutex
	analyzed    []string
	verifyCalls []string
}

func newFake(name, pattern string) *fakeDetector {
	return &fakeDetector{name: name, pattern: regexp.MustCompile(pattern)}
}

func (f *fakeDetector) Name() string {
	return f.name
}

func (f *fakeDetector) Analyze(text string, lineNumber int, filePath string) ([]detector.Candidate, error) {
	f.mu.Lock()
	f.analyzed = append(f.analyzed, text)
	f.mu.Unlock()

	if f.panicOn != "" && strings.Contains(text, f.panicOn) {
		panic("unexpected input")
	}

	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}

	var out []detector.Candidate
	for _, m := range f.pattern.FindAllString(text, -1) {
		out = append(out, detector.Candidate{Type: f.name, FilePath: filePath, Line: lineNumber, Value: m})
	}

	return out, nil
}

func (f *fakeDetector) Verify(ctx context.Context, value, content string) (detector.VerifyResult, error) {
	f.mu.Lock()
	f.verifyCalls = append(f.verifyCalls, value+"|"+content)
	f.mu.Unlock()

	if f.verifyWait > 0 {
		// ignores ctx on purpose
		time.Sleep(f.verifyWait)
	}

	if f.verifyErr != nil {
		return detector.Unverified, f.verifyErr
	}

	return f.result, nil
}

func (f *fakeDetector) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.verifyCalls...)
}

func (f *fakeDetector) lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.analyzed...)
}

type recordingObserver struct {
	mu          sync.Mutex
	parseFailed []error
	found       []Secret
	blacklisted []detector.Candidate
	failures    []Failure
	verified    map[detector.VerifyResult]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{verified: make(map[detector.VerifyResult]int)}
}

func (o *recordingObserver) ParseFailed(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.parseFailed = append(o.parseFailed, err)
}

func (o *recordingObserver) SecretFound(s Secret) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.found = append(o.found, s)
}

func (o *recordingObserver) CandidateBlacklisted(c detector.Candidate) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.blacklisted = append(o.blacklisted, c)
}

func (o *recordingObserver) DetectorFailed(f Failure) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures = append(o.failures, f)
}

func (o *recordingObserver) VerifyCompleted(_ string, result detector.VerifyResult, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.verified[result]++
}

var errBoom = errors.New("boom")

func diff(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

var configPatch = diff(
	"diff --git a/config.py b/config.py",
	"index 1111111..2222222 100644",
	"--- a/config.py",
	"+++ b/config.py",
	"@@ -10,3 +10,4 @@ class Config:",
	" DEBUG = False",
	" NAME = \"app\"",
	"+API_KEY = \"AKIA1234567890\"",
	" PORT = 8080",
)

var twoFilePatch = diff(
	"diff --git a/a.py b/a.py",
	"--- a/a.py",
	"+++ b/a.py",
	"@@ -1,2 +1,4 @@",
	" import os",
	"+KEY_A = \"AKIA111\"",
	"+TOKEN_A = \"tok_aaa\"",
	" print(os)",
	"diff --git a/b.py b/b.py",
	"new file mode 100644",
	"--- /dev/null",
	"+++ b/b.py",
	"@@ -0,0 +1,2 @@",
	"+TOKEN_B = \"tok_bbb\"",
	"+KEY_B = \"AKIA222\"",
)
