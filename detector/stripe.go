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
	"net/http"
	"regexp"
	"strings"
)

const (
	StripeName = "StripeDetector"

	defaultStripeAPIURL = "https://api.stripe.com"
)

var stripePatterns = patternSet{
	regexp.MustCompile(`(?:r|s)k_live_[0-9a-zA-Z]{24}`),
}

// Stripe finds live Stripe secret and restricted keys.
type Stripe struct {
	remote remoteVerifier
}

func NewStripe() *Stripe {
	return &Stripe{remote: newRemoteVerifier(defaultStripeAPIURL)}
}

func (d *Stripe) Name() string {
	return StripeName
}

func (d *Stripe) Analyze(text string, lineNumber int, filePath string) ([]Candidate, error) {
	return stripePatterns.find(StripeName, text, lineNumber, filePath), nil
}

func (d *Stripe) Verify(ctx context.Context, value, _ string) (VerifyResult, error) {
	if !d.remote.enabled {
		return Unverified, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.remote.baseURL+"/v1/charges", nil)
	if err != nil {
		return Unverified, fmt.Errorf("error creating stripe request: %w", err)
	}
	req.SetBasicAuth(value, "")

	status, _, err := d.remote.do(ctx, req)
	if err != nil {
		return Unverified, fmt.Errorf("error calling stripe: %w", err)
	}

	switch {
	case status == http.StatusOK:
		return VerifiedTrue, nil
	case status == http.StatusUnauthorized:
		return VerifiedFalse, nil
	case status == http.StatusForbidden && strings.HasPrefix(value, "rk_live"):
		// restricted keys may simply lack access to charges
		return Unverified, nil
	default:
		return Unverified, fmt.Errorf("unexpected stripe response status %d", status)
	}
}
