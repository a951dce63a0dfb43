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
	"fmt"
	"iter"
	"strings"
	"sync"
	"time"

	"github.com/in-toto/go-patchscan/detector"
	"github.com/in-toto/go-patchscan/log"
	"github.com/in-toto/go-patchscan/patch"
)

// Scan is one lazy analysis of a patch.
type Scan struct {
	analyzer *Analyzer
	ctx      context.Context
	text     string

	parseOnce sync.Once
	patch     *patch.Patch
	parseErr  error

	mu       sync.Mutex
	failures []Failure
}

func (s *Scan) parse() (*patch.Patch, error) {
	s.parseOnce.Do(func() {
		s.patch, s.parseErr = patch.Parse(s.text)
		if s.parseErr != nil {
			log.Warnf("(analyzer) could not parse patch, no secrets will be reported: %v", s.parseErr)
			s.analyzer.observer.ParseFailed(s.parseErr)
		}
	})

	return s.patch, s.parseErr
}

// Status parses the patch if that has not happened yet and reports whether
// it could be analyzed.
func (s *Scan) Status() Status {
	if _, err := s.parse(); err != nil {
		return StatusParseFailed
	}

	return StatusOK
}

// Err returns the *patch.ParseError when Status is StatusParseFailed.
func (s *Scan) Err() error {
	_, err := s.parse()
	return err
}

// Failures returns the detector failures of the most recent pass over
// Secrets.
func (s *Scan) Failures() []Failure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Failure(nil), s.failures...)
}

func (s *Scan) recordFailure(f Failure) {
	log.Warnf("(analyzer) %v", f)
	s.analyzer.observer.DetectorFailed(f)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, f)
}

// Secrets returns the secrets of the patch. Secrets are produced one at a
// time as the sequence is pulled: every added line is run through the
// first detector, then every added line through the second, and so on, in
// file, hunk and line order. A patch that cannot be parsed yields nothing;
// see Status. Iteration stops before the next line once the scan's context
// is done.
func (s *Scan) Secrets() iter.Seq[Secret] {
	return func(yield func(Secret) bool) {
		p, err := s.parse()
		if err != nil {
			return
		}

		s.mu.Lock()
		s.failures = nil
		s.mu.Unlock()

		for _, d := range s.analyzer.detectors {
			for _, f := range p.Files {
				for _, h := range f.Hunks {
					for _, l := range h.Lines {
						if l.Kind != patch.Added {
							continue
						}

						if s.ctx.Err() != nil {
							log.Debugf("(analyzer) scan stopped: %v", s.ctx.Err())
							return
						}

						if !s.scanLine(d, f.Path, l, yield) {
							return
						}
					}
				}
			}
		}
	}
}

// scanLine runs one detector over one added line. It returns false when the
// consumer stopped pulling.
func (s *Scan) scanLine(d detector.Detector, filePath string, l patch.Line, yield func(Secret) bool) bool {
	a := s.analyzer
	text := strings.TrimSpace(l.Text)

	candidates, err := analyze(d, text, l.Number, filePath)
	if err != nil {
		s.recordFailure(Failure{Detector: d.Name(), FilePath: filePath, Line: l.Number, Stage: StageAnalyze, Err: err})
		return true
	}

	for _, c := range candidates {
		if a.matcher.IsBlacklisted(text, c.FilePath, c.Value) {
			log.Debugf("(analyzer) %s candidate on %s:%d is blacklisted", c.Type, c.FilePath, c.Line)
			a.observer.CandidateBlacklisted(c)
			continue
		}

		result, err := s.verify(d, c.Value, text)
		if err != nil {
			s.recordFailure(Failure{Detector: d.Name(), FilePath: c.FilePath, Line: c.Line, Stage: StageVerify, Err: err})
		}

		secret := Secret{
			Type:     c.Type,
			FilePath: c.FilePath,
			Line:     c.Line,
			Value:    c.Value,
			Verified: result == detector.VerifiedTrue,
		}

		a.observer.SecretFound(secret)
		if !yield(secret) {
			return false
		}
	}

	return true
}

func analyze(d detector.Detector, text string, lineNumber int, filePath string) (candidates []detector.Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return d.Analyze(text, lineNumber, filePath)
}

var errVerifyTimeout = errors.New("verification timed out")

type verifyOutcome struct {
	result detector.VerifyResult
	err    error
}

// verify calls d.Verify bounded by the verify timeout. The call runs on its
// own goroutine so a detector ignoring its context cannot stall the scan;
// any error or timeout is reported with an Unverified result.
func (s *Scan) verify(d detector.Detector, value, content string) (detector.VerifyResult, error) {
	a := s.analyzer
	ctx := s.ctx
	if a.verifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.verifyTimeout)
		defer cancel()
	}

	start := time.Now()
	done := make(chan verifyOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- verifyOutcome{result: detector.Unverified, err: fmt.Errorf("panic: %v", r)}
			}
		}()

		result, err := d.Verify(ctx, value, content)
		done <- verifyOutcome{result: result, err: err}
	}()

	var out verifyOutcome
	select {
	case out = <-done:
	case <-ctx.Done():
		out = verifyOutcome{result: detector.Unverified, err: ctx.Err()}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && s.ctx.Err() == nil {
			out.err = fmt.Errorf("%w after %s", errVerifyTimeout, a.verifyTimeout)
		}
	}

	a.observer.VerifyCompleted(d.Name(), out.result, time.Since(start))

	if out.err != nil {
		return detector.Unverified, out.err
	}

	return out.result, nil
}
