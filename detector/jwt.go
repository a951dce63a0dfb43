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
	"strings"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/in-toto/go-patchscan/log"
)

const JWTName = "JwtTokenDetector"

var jwtPatterns = patternSet{
	regexp.MustCompile(`eyJ[A-Za-z0-9\-_=]+\.[A-Za-z0-9\-_=]+\.?[A-Za-z0-9\-_=]*`),
}

var jwtAlgorithms = []jose.SignatureAlgorithm{
	jose.EdDSA,
	jose.HS256, jose.HS384, jose.HS512,
	jose.RS256, jose.RS384, jose.RS512,
	jose.ES256, jose.ES384, jose.ES512,
	jose.PS256, jose.PS384, jose.PS512,
}

// JWT finds JSON web tokens. Verification is local: a token that does not
// parse as a compact JWS with JSON claims is reported as a false positive.
type JWT struct{}

func NewJWT() *JWT {
	return &JWT{}
}

func (d *JWT) Name() string {
	return JWTName
}

func (d *JWT) Analyze(text string, lineNumber int, filePath string) ([]Candidate, error) {
	return jwtPatterns.find(JWTName, text, lineNumber, filePath), nil
}

func (d *JWT) Verify(_ context.Context, value, _ string) (VerifyResult, error) {
	tok, err := jwt.ParseSigned(trimJWTPadding(value), jwtAlgorithms)
	if err != nil {
		log.Debugf("(detector/jwt) token does not parse: %v", err)
		return VerifiedFalse, nil
	}

	// the signing key is unknown, so only the claims are decoded
	var claims map[string]any
	if err := tok.UnsafeClaimsWithoutVerification(&claims); err != nil {
		log.Debugf("(detector/jwt) claims do not decode: %v", err)
		return VerifiedFalse, nil
	}

	return Unverified, nil
}

// trimJWTPadding drops base64 padding from each segment, which compact
// serialization forbids but some encoders emit anyway.
func trimJWTPadding(token string) string {
	parts := strings.Split(token, ".")
	for i, part := range parts {
		parts[i] = strings.TrimRight(part, "=")
	}

	return strings.Join(parts, ".")
}
