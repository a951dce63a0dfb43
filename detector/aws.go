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
	"errors"
	"fmt"
	"regexp"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"github.com/in-toto/go-patchscan/log"
)

const (
	AWSKeyName       = "AWSKeyDetector"
	defaultAWSRegion = "us-east-1"
)

var (
	awsAccessKeyPatterns = patternSet{
		regexp.MustCompile(`(?:A3T[A-Z0-9]|ABIA|ACCA|AKIA|ASIA)[0-9A-Z]{16}`),
	}

	// secret access keys are only recognised next to an aws-ish keyword, a
	// bare 40 character base64 string is far too common.
	awsSecretKeyPattern = regexp.MustCompile(`(?i)aws.{0,20}?(?:key|pwd|pw|password|pass|token).{0,20}?['"]([0-9a-zA-Z/+]{40})['"]`)
)

// callerIdentityFunc succeeds when keyID/secret are live AWS credentials.
type callerIdentityFunc func(ctx context.Context, region, keyID, secret string) error

// AWSKey finds AWS access key ids. Verification needs the matching secret
// access key on the same line and calls STS GetCallerIdentity with the pair.
type AWSKey struct {
	verify         bool
	region         string
	callerIdentity callerIdentityFunc
}

func NewAWSKey() *AWSKey {
	return &AWSKey{
		verify:         true,
		region:         defaultAWSRegion,
		callerIdentity: stsCallerIdentity,
	}
}

func (d *AWSKey) Name() string {
	return AWSKeyName
}

func (d *AWSKey) Analyze(text string, lineNumber int, filePath string) ([]Candidate, error) {
	return awsAccessKeyPatterns.find(AWSKeyName, text, lineNumber, filePath), nil
}

func (d *AWSKey) Verify(ctx context.Context, value, content string) (VerifyResult, error) {
	if !d.verify {
		return Unverified, nil
	}

	matches := awsSecretKeyPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return Unverified, nil
	}

	for _, m := range matches {
		err := d.callerIdentity(ctx, d.region, value, m[1])
		if err == nil {
			return VerifiedTrue, nil
		}

		if !isInvalidCredentials(err) {
			return Unverified, fmt.Errorf("error verifying aws key: %w", err)
		}

		log.Debugf("(detector/aws) secret key candidate rejected for %s", value)
	}

	return VerifiedFalse, nil
}

func isInvalidCredentials(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	switch apiErr.ErrorCode() {
	case "InvalidClientTokenId", "SignatureDoesNotMatch", "UnrecognizedClientException":
		return true
	}

	return false
}

func stsCallerIdentity(ctx context.Context, region, keyID, secret string) error {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(keyID, secret, "")),
	)
	if err != nil {
		return fmt.Errorf("loading AWS config: %w", err)
	}

	_, err = sts.NewFromConfig(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	return err
}
