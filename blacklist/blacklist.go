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

// Package blacklist decides whether a candidate secret is a known false
// positive. A blacklist holds exact (line, file, secret) triples recorded
// from earlier triage and pattern rules covering whole classes of findings.
package blacklist

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/in-toto/go-patchscan/log"
	"github.com/mitchellh/go-homedir"
	"go.yaml.in/yaml/v3"
)

// ErrLoad is wrapped by every error returned from Load.
var ErrLoad = errors.New("cannot load blacklist")

// Entry is one exact false positive. All three fields must be equal for a
// candidate to match.
type Entry struct {
	Line   string `json:"line" yaml:"line" jsonschema:"title=Line,description=Stripped text of the added line"`
	File   string `json:"file" yaml:"file" jsonschema:"title=File,description=Path of the file in the patch"`
	Secret string `json:"secret" yaml:"secret" jsonschema:"title=Secret,description=Reported secret value"`
}

// Rule blacklists every candidate matching all of its present conditions.
// File, Line and Secret are regular expressions. StopWords match when any
// of them occurs in the line, ignoring case.
type Rule struct {
	File      string   `json:"file,omitempty" yaml:"file,omitempty" jsonschema:"title=File,description=Regular expression matched against the file path"`
	Line      string   `json:"line,omitempty" yaml:"line,omitempty" jsonschema:"title=Line,description=Regular expression matched against the stripped line"`
	Secret    string   `json:"secret,omitempty" yaml:"secret,omitempty" jsonschema:"title=Secret,description=Regular expression matched against the secret value"`
	StopWords []string `json:"stopWords,omitempty" yaml:"stopWords,omitempty" jsonschema:"title=Stop Words,description=Words whose presence in the line marks a false positive"`
}

// File is the on-disk blacklist format.
type File struct {
	Entries []Entry `json:"entries,omitempty" yaml:"entries,omitempty" jsonschema:"title=Entries,description=Exact false positives"`
	Rules   []Rule  `json:"rules,omitempty" yaml:"rules,omitempty" jsonschema:"title=Rules,description=Pattern based false positives"`
}

type compiledRule struct {
	file      *regexp.Regexp
	line      *regexp.Regexp
	secret    *regexp.Regexp
	stopWords []string
}

// Matcher answers blacklist queries. It is immutable once built and safe for
// concurrent use. A nil *Matcher blacklists nothing.
type Matcher struct {
	entries map[Entry]struct{}
	rules   []compiledRule
}

// New builds a Matcher from entries and rules. It fails when a rule has an
// invalid regular expression or no condition at all.
func New(entries []Entry, rules []Rule) (*Matcher, error) {
	m := &Matcher{
		entries: make(map[Entry]struct{}, len(entries)),
		rules:   make([]compiledRule, 0, len(rules)),
	}

	for _, e := range entries {
		m.entries[e] = struct{}{}
	}

	for i, r := range rules {
		cr, err := compileRule(r)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		m.rules = append(m.rules, cr)
	}

	return m, nil
}

func compileRule(r Rule) (compiledRule, error) {
	var (
		cr  compiledRule
		err error
	)

	if cr.file, err = compileOptional("file", r.File); err != nil {
		return cr, err
	}
	if cr.line, err = compileOptional("line", r.Line); err != nil {
		return cr, err
	}
	if cr.secret, err = compileOptional("secret", r.Secret); err != nil {
		return cr, err
	}

	for _, w := range r.StopWords {
		if w = strings.TrimSpace(w); w != "" {
			cr.stopWords = append(cr.stopWords, strings.ToLower(w))
		}
	}

	// blank stop words are dropped above and do not count as a condition
	if cr.file == nil && cr.line == nil && cr.secret == nil && len(cr.stopWords) == 0 {
		return cr, errors.New("rule has no conditions")
	}

	return cr, nil
}

func compileOptional(field, pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid %s pattern %q: %w", field, pattern, err)
	}

	return re, nil
}

// Load reads a blacklist file. YAML and JSON are both accepted and a
// leading ~ in path is expanded to the home directory.
func Load(path string) (*Matcher, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrLoad, path, err)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrLoad, path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrLoad, path, err)
	}

	m, err := New(f.Entries, f.Rules)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrLoad, path, err)
	}

	log.Debugf("(blacklist) loaded %d entries and %d rules from %s", len(f.Entries), len(f.Rules), expanded)
	return m, nil
}

// IsBlacklisted reports whether the candidate is a known false positive.
func (m *Matcher) IsBlacklisted(line, file, secret string) bool {
	if m == nil {
		return false
	}

	if _, ok := m.entries[Entry{Line: line, File: file, Secret: secret}]; ok {
		return true
	}

	lowerLine := ""
	for _, r := range m.rules {
		if len(r.stopWords) > 0 && lowerLine == "" {
			lowerLine = strings.ToLower(line)
		}

		if r.matches(line, lowerLine, file, secret) {
			return true
		}
	}

	return false
}

func (r compiledRule) matches(line, lowerLine, file, secret string) bool {
	if r.file != nil && !r.file.MatchString(file) {
		return false
	}
	if r.line != nil && !r.line.MatchString(line) {
		return false
	}
	if r.secret != nil && !r.secret.MatchString(secret) {
		return false
	}

	if len(r.stopWords) == 0 {
		return true
	}

	for _, w := range r.stopWords {
		if strings.Contains(lowerLine, w) {
			return true
		}
	}

	return false
}

// Len returns the number of exact entries and rules.
func (m *Matcher) Len() (entries, rules int) {
	if m == nil {
		return 0, 0
	}

	return len(m.entries), len(m.rules)
}
