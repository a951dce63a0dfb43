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
	"math"
	"regexp"
	"strings"
)

const (
	Base64EntropyName = "Base64HighEntropyString"
	HexEntropyName    = "HexHighEntropyString"

	base64Charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/-_="
	hexCharset    = "0123456789abcdefABCDEF"

	base64Class = `[A-Za-z0-9+/\-_=]+`
	hexClass    = `[0-9a-fA-F]+`

	defaultBase64Limit = 4.5
	defaultHexLimit    = 3.0
)

// HighEntropyString reports quoted strings drawn from one charset whose
// Shannon entropy exceeds a limit.
type HighEntropyString struct {
	name     string
	charset  string
	limit    float64
	patterns patternSet
	// adjust lowers the entropy of some values, such as all-digit hex strings.
	adjust func(value string, entropy float64) float64
}

func NewBase64HighEntropyString() *HighEntropyString {
	return newHighEntropyString(Base64EntropyName, base64Charset, base64Class, defaultBase64Limit, nil)
}

func NewHexHighEntropyString() *HighEntropyString {
	return newHighEntropyString(HexEntropyName, hexCharset, hexClass, defaultHexLimit, adjustNumericHex)
}

func newHighEntropyString(name, charset, class string, limit float64, adjust func(string, float64) float64) *HighEntropyString {
	return &HighEntropyString{
		name:    name,
		charset: charset,
		limit:   limit,
		patterns: patternSet{
			regexp.MustCompile(`"(` + class + `)"`),
			regexp.MustCompile(`'(` + class + `)'`),
		},
		adjust: adjust,
	}
}

// WithLimit sets the entropy above which a string is reported. Limits are
// bounded by log2 of the charset size.
func (d *HighEntropyString) WithLimit(limit float64) (*HighEntropyString, error) {
	if limit < 0 || limit > 8 {
		return d, fmt.Errorf("entropy limit must be between 0 and 8, got %v", limit)
	}

	d.limit = limit
	return d, nil
}

func (d *HighEntropyString) Name() string {
	return d.name
}

func (d *HighEntropyString) Analyze(text string, lineNumber int, filePath string) ([]Candidate, error) {
	var candidates []Candidate
	for _, c := range d.patterns.find(d.name, text, lineNumber, filePath) {
		if d.Entropy(c.Value) > d.limit {
			candidates = append(candidates, c)
		}
	}

	return candidates, nil
}

func (d *HighEntropyString) Verify(context.Context, string, string) (VerifyResult, error) {
	return Unverified, nil
}

// Entropy returns the Shannon entropy of value over the detector's charset,
// after any adjustment.
func (d *HighEntropyString) Entropy(value string) float64 {
	entropy := shannonEntropy(value, d.charset)
	if d.adjust != nil {
		entropy = d.adjust(value, entropy)
	}

	return entropy
}

func shannonEntropy(data, charset string) float64 {
	if data == "" {
		return 0
	}

	entropy := 0.0
	length := float64(len(data))
	for _, c := range charset {
		count := strings.Count(data, string(c))
		if count == 0 {
			continue
		}

		p := float64(count) / length
		entropy -= p * math.Log2(p)
	}

	return entropy
}

// adjustNumericHex penalises hex strings made only of digits, which are far
// more likely to be ids or timestamps than keys.
func adjustNumericHex(value string, entropy float64) float64 {
	if len(value) <= 1 {
		return entropy
	}

	for _, c := range value {
		if c < '0' || c > '9' {
			return entropy
		}
	}

	return entropy - 1.2/math.Log2(float64(len(value)))
}
