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

const ArtifactoryName = "ArtifactoryDetector"

var artifactoryPatterns = patternSet{
	// API tokens
	regexp.MustCompile(`(?:\s|=|:|"|^)(AKC[a-zA-Z0-9]{10,})(?:\s|"|$)`),
	// encrypted passwords
	regexp.MustCompile(`(?:\s|=|:|"|^)(AP[\dABCDEF][a-zA-Z0-9]{8,})(?:\s|"|$)`),
}

type Artifactory struct{}

func NewArtifactory() *Artifactory {
	return &Artifactory{}
}

func (d *Artifactory) Name() string {
	return ArtifactoryName
}

func (d *Artifactory) Analyze(text string, lineNumber int, filePath string) ([]Candidate, error) {
	return artifactoryPatterns.find(ArtifactoryName, text, lineNumber, filePath), nil
}

func (d *Artifactory) Verify(context.Context, string, string) (VerifyResult, error) {
	return Unverified, nil
}
