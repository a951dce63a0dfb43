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

// Package analyzer finds secrets introduced by a patch. It parses the diff,
// runs every configured detector over each added line, drops blacklisted
// candidates and verifies the rest.
package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/in-toto/go-patchscan/blacklist"
	"github.com/in-toto/go-patchscan/detector"
)

const defaultVerifyTimeout = 10 * time.Second

// Analyzer holds a fixed, ordered set of detectors and a blacklist. It keeps
// no per-scan state and may be shared by concurrent scans as long as its
// detectors are safe for concurrent use.
type Analyzer struct {
	detectors     []detector.Detector
	matcher       *blacklist.Matcher
	verifyTimeout time.Duration
	observer      Observer
}

type Option func(*Analyzer)

// WithVerifyTimeout bounds each Verify call. A verification that does not
// finish in time counts as unverified. Zero or less disables the bound.
func WithVerifyTimeout(d time.Duration) Option {
	return func(a *Analyzer) {
		a.verifyTimeout = d
	}
}

// WithObserver reports scan events to o.
func WithObserver(o Observer) Option {
	return func(a *Analyzer) {
		if o == nil {
			o = nopObserver{}
		}
		a.observer = o
	}
}

// New returns an Analyzer running detectors in the given order. A nil
// matcher blacklists nothing.
func New(detectors []detector.Detector, matcher *blacklist.Matcher, opts ...Option) *Analyzer {
	a := &Analyzer{
		detectors:     append([]detector.Detector(nil), detectors...),
		matcher:       matcher,
		verifyTimeout: defaultVerifyTimeout,
		observer:      nopObserver{},
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// NewFromBlacklistFile loads the blacklist at path and returns an Analyzer
// using it. It fails when the blacklist cannot be loaded.
func NewFromBlacklistFile(detectors []detector.Detector, path string, opts ...Option) (*Analyzer, error) {
	matcher, err := blacklist.Load(path)
	if err != nil {
		return nil, fmt.Errorf("error creating analyzer: %w", err)
	}

	return New(detectors, matcher, opts...), nil
}

// Detectors returns the names of the configured detectors in run order.
func (a *Analyzer) Detectors() []string {
	names := make([]string, 0, len(a.detectors))
	for _, d := range a.detectors {
		names = append(names, d.Name())
	}

	return names
}

// FindSecrets prepares a scan of patchText. Nothing is parsed or analyzed
// until the scan's secrets are ranged over or its status is requested.
func (a *Analyzer) FindSecrets(ctx context.Context, patchText string) *Scan {
	return &Scan{
		analyzer: a,
		ctx:      ctx,
		text:     patchText,
	}
}

// Collect runs a scan to completion and returns every secret found along
// with the scan for status and failure inspection.
func (a *Analyzer) Collect(ctx context.Context, patchText string) ([]Secret, *Scan) {
	scan := a.FindSecrets(ctx, patchText)
	var secrets []Secret
	for s := range scan.Secrets() {
		secrets = append(secrets, s)
	}

	return secrets, scan
}
