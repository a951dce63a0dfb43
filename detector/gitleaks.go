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
	"os"
	"strings"

	"github.com/in-toto/go-patchscan/log"
	"github.com/spf13/viper"
	"github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
)

const (
	GitleaksName = "Gitleaks"

	defaultMaxDecodeLayers = 3
)

var errNotInitialized = errors.New("detector used before Init")

// Gitleaks runs the gitleaks rule set against each line. Candidate types
// carry the gitleaks rule id, e.g. "Gitleaks:github-pat". Base64, hex and
// url encoded substrings are decoded and rescanned up to maxDecodeLayers
// deep; a finding inside a decoded layer reports the decoded secret.
type Gitleaks struct {
	configPath      string
	maxDecodeLayers int
	detector        *detect.Detector
}

func NewGitleaks() *Gitleaks {
	return &Gitleaks{maxDecodeLayers: defaultMaxDecodeLayers}
}

// WithConfigPath replaces the built-in gitleaks rules with those of a TOML
// configuration file.
func (d *Gitleaks) WithConfigPath(path string) *Gitleaks {
	d.configPath = path
	return d
}

// WithMaxDecodeLayers sets how many nested encodings are unwrapped. Zero
// scans the line as written only; negative values are ignored.
func (d *Gitleaks) WithMaxDecodeLayers(layers int) *Gitleaks {
	if layers >= 0 {
		d.maxDecodeLayers = layers
	}
	return d
}

func (d *Gitleaks) Init() error {
	var (
		detector *detect.Detector
		err      error
	)

	if d.configPath != "" {
		detector, err = loadGitleaksConfig(d.configPath)
	} else {
		log.Debugf("(detector/gitleaks) using default gitleaks configuration")
		detector, err = detect.NewDetectorDefaultConfig()
		if err != nil {
			err = fmt.Errorf("error creating default gitleaks detector: %w", err)
		}
	}

	if err != nil {
		return err
	}

	d.detector = detector
	return nil
}

func loadGitleaksConfig(path string) (*detect.Detector, error) {
	log.Debugf("(detector/gitleaks) loading gitleaks configuration from: %s", path)

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("gitleaks config file not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("error reading gitleaks config file %s: %w", path, err)
	}

	var viperConfig config.ViperConfig
	if err := v.Unmarshal(&viperConfig); err != nil {
		return nil, fmt.Errorf("error unmarshaling gitleaks config from %s: %w", path, err)
	}

	cfg, err := viperConfig.Translate()
	if err != nil {
		return nil, fmt.Errorf("error translating gitleaks config from %s: %w", path, err)
	}

	if len(cfg.Rules) == 0 {
		log.Warnf("(detector/gitleaks) gitleaks config from %s contains no rules", path)
	}

	return detect.NewDetector(cfg), nil
}

func (d *Gitleaks) Name() string {
	return GitleaksName
}

func (d *Gitleaks) Analyze(text string, lineNumber int, filePath string) ([]Candidate, error) {
	if d.detector == nil {
		return nil, fmt.Errorf("gitleaks: %w", errNotInitialized)
	}

	var candidates []Candidate
	d.scan([]byte(text), lineNumber, filePath, 0, make(map[string]struct{}), &candidates)
	return candidates, nil
}

func (d *Gitleaks) scan(content []byte, lineNumber int, filePath string, depth int, seen map[string]struct{}, candidates *[]Candidate) {
	for _, f := range d.detector.DetectBytes(content) {
		if f.Secret == "" {
			continue
		}

		typ := GitleaksName + ":" + f.RuleID
		key := typ + "\x00" + f.Secret
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		*candidates = append(*candidates, Candidate{
			Type:     typ,
			FilePath: filePath,
			Line:     lineNumber,
			Value:    f.Secret,
		})
	}

	if depth >= d.maxDecodeLayers {
		return
	}

	text := string(content)
	for _, enc := range encodings {
		for _, encoded := range enc.find(text) {
			decoded, err := enc.decode(encoded)
			if err != nil || len(decoded) < decodedMinLength {
				continue
			}

			// echo $TOKEN | base64 leaves a trailing newline in the payload
			decoded = []byte(strings.TrimSpace(string(decoded)))
			log.Debugf("(detector/gitleaks) rescanning %s decoded value at depth %d in %s:%d", enc.name, depth+1, filePath, lineNumber)
			d.scan(decoded, lineNumber, filePath, depth+1, seen, candidates)
		}
	}
}

func (d *Gitleaks) Verify(context.Context, string, string) (VerifyResult, error) {
	return Unverified, nil
}
