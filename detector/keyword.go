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

package detector

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

const KeywordName = "KeywordDetector"

var keywordDenylist = []string{
	"api_?key",
	"auth_?key",
	"service_?key",
	"account_?key",
	"db_?key",
	"database_?key",
	"priv_?key",
	"private_?key",
	"client_?key",
	"db_?pass",
	"database_?pass",
	"key_?pass",
	"password",
	"passwd",
	"pwd",
	"secret",
	"contraseña",
	"contrasena",
}

var keywordPatterns = func() patternSet {
	words := `(?:` + strings.Join(keywordDenylist, "|") + `)`
	return patternSet{
		// password = "value", "password": "value", password := 'value'
		regexp.MustCompile(`(?i)` + words + `[\w\-.]*["']?\s*(?::=|=>|==|=|:)\s*["']([^"'\s]+)["']`),
		// password=value
		regexp.MustCompile(`(?i)` + words + `[\w\-.]*\s*(?::=|=)\s*([^\s"'$(){}\[\],;]{4,})(?:\s|;|,|$)`),
	}
}()

var keywordPlaceholders = map[string]struct{}{
	"true":  {},
	"false": {},
	"null":  {},
	"none":  {},
	"nil":   {},
}

// Keyword finds values assigned to secret-sounding names.
type Keyword struct {
	exclude    string
	excludeReg *regexp.Regexp
}

func NewKeyword() *Keyword {
	return &Keyword{}
}

// WithExclude skips every line matching the regular expression.
func (d *Keyword) WithExclude(pattern string) *Keyword {
	d.exclude = pattern
	d.excludeReg = nil
	return d
}

func (d *Keyword) Init() error {
	if d.exclude == "" {
		d.excludeReg = nil
		return nil
	}

	reg, err := regexp.Compile(d.exclude)
	if err != nil {
		return fmt.Errorf("invalid keyword exclude pattern %q: %w", d.exclude, err)
	}

	d.excludeReg = reg
	return nil
}

func (d *Keyword) Name() string {
	return KeywordName
}

func (d *Keyword) Analyze(text string, lineNumber int, filePath string) ([]Candidate, error) {
	if d.exclude != "" && d.excludeReg == nil {
		return nil, fmt.Errorf("keyword: %w", errNotInitialized)
	}

	if d.excludeReg != nil && d.excludeReg.MatchString(text) {
		return nil, nil
	}

	var candidates []Candidate
	for _, c := range keywordPatterns.find(KeywordName, text, lineNumber, filePath) {
		if _, ok := keywordPlaceholders[strings.ToLower(c.Value)]; ok {
			continue
		}

		candidates = append(candidates, c)
	}

	return candidates, nil
}

func (d *Keyword) Verify(context.Context, string, string) (VerifyResult, error) {
	return Unverified, nil
}
