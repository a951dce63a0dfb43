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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

const (
	SlackName = "SlackDetector"

	defaultSlackAPIURL     = "https://slack.com/api"
	defaultSlackWebhookURL = "https://hooks.slack.com"
)

var slackPatterns = patternSet{
	// tokens
	regexp.MustCompile(`(?i)xox(?:a|b|p|o|s|r)-(?:\d+-)+[a-z0-9]+`),
	// incoming webhooks
	regexp.MustCompile(`https://hooks\.slack\.com/services/T[a-zA-Z0-9_]+/B[a-zA-Z0-9_]+/[a-zA-Z0-9_]+`),
}

// Slack finds Slack tokens and incoming webhook URLs. Tokens are verified
// with auth.test, webhooks by posting an empty message which Slack rejects
// with a distinctive error only for live hooks.
type Slack struct {
	remote     remoteVerifier
	webhookURL string
}

func NewSlack() *Slack {
	return &Slack{
		remote:     newRemoteVerifier(defaultSlackAPIURL),
		webhookURL: defaultSlackWebhookURL,
	}
}

func (d *Slack) Name() string {
	return SlackName
}

func (d *Slack) Analyze(text string, lineNumber int, filePath string) ([]Candidate, error) {
	return slackPatterns.find(SlackName, text, lineNumber, filePath), nil
}

func (d *Slack) Verify(ctx context.Context, value, _ string) (VerifyResult, error) {
	if !d.remote.enabled {
		return Unverified, nil
	}

	if strings.HasPrefix(value, defaultSlackWebhookURL+"/services/T") {
		return d.verifyWebhook(ctx, value)
	}

	return d.verifyToken(ctx, value)
}

func (d *Slack) verifyWebhook(ctx context.Context, hook string) (VerifyResult, error) {
	target := d.webhookURL + strings.TrimPrefix(hook, defaultSlackWebhookURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewBufferString(`{"text": ""}`))
	if err != nil {
		return Unverified, fmt.Errorf("error creating slack webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	_, body, err := d.remote.do(ctx, req)
	if err != nil {
		return Unverified, fmt.Errorf("error calling slack webhook: %w", err)
	}

	switch strings.TrimSpace(string(body)) {
	case "missing_text_or_fallback_or_attachments", "no_text":
		return VerifiedTrue, nil
	}

	return VerifiedFalse, nil
}

type slackAuthTestResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func (d *Slack) verifyToken(ctx context.Context, token string) (VerifyResult, error) {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.remote.baseURL+"/auth.test", strings.NewReader(form.Encode()))
	if err != nil {
		return Unverified, fmt.Errorf("error creating slack auth.test request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	status, body, err := d.remote.do(ctx, req)
	if err != nil {
		return Unverified, fmt.Errorf("error calling slack auth.test: %w", err)
	}

	if status != http.StatusOK {
		return Unverified, fmt.Errorf("unexpected status from slack auth.test: %d", status)
	}

	var resp slackAuthTestResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Unverified, fmt.Errorf("error decoding slack auth.test response: %w", err)
	}

	if resp.OK {
		return VerifiedTrue, nil
	}

	return VerifiedFalse, nil
}
