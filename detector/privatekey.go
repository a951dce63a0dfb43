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
	"regexp"
)

const PrivateKeyName = "PrivateKeyDetector"

var privateKeyPatterns = patternSet{
	regexp.MustCompile(`BEGIN DSA PRIVATE KEY`),
	regexp.MustCompile(`BEGIN EC PRIVATE KEY`),
	regexp.MustCompile(`BEGIN OPENSSH PRIVATE KEY`),
	regexp.MustCompile(`BEGIN PGP PRIVATE KEY BLOCK`),
	regexp.MustCompile(`BEGIN PRIVATE KEY`),
	regexp.MustCompile(`BEGIN RSA PRIVATE KEY`),
	regexp.MustCompile(`BEGIN SSH2 ENCRYPTED PRIVATE KEY`),
	regexp.MustCompile(`PuTTY-User-Key-File-2`),
}

// PrivateKey flags the armor lines of private key files. The value reported
// is the marker itself since the key material spans several lines.
type PrivateKey struct{}

func NewPrivateKey() *PrivateKey {
	return &PrivateKey{}
}

func (d *PrivateKey) Name() string {
	return PrivateKeyName
}

func (d *PrivateKey) Analyze(text string, lineNumber int, filePath string) ([]Candidate, error) {
	return privateKeyPatterns.find(PrivateKeyName, text, lineNumber, filePath), nil
}

func (d *PrivateKey) Verify(context.Context, string, string) (VerifyResult, error) {
	return Unverified, nil
}
