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
	"fmt"
	"time"

	"github.com/in-toto/go-patchscan/registry"
)

// DefaultNames is the detector set, in run order, used when none is
// configured. Gitleaks overlaps with most of them and is opt-in.
var DefaultNames = []string{
	AWSKeyName,
	ArtifactoryName,
	Base64EntropyName,
	BasicAuthName,
	HexEntropyName,
	JWTName,
	KeywordName,
	PrivateKeyName,
	SlackName,
	StripeName,
}

// NewCatalog returns a registry holding every built-in detector and its
// options. Each call returns an independent registry.
func NewCatalog() registry.Registry[Detector] {
	r := registry.New[Detector]()

	r.Register(AWSKeyName, "AWS access key ids, verified with STS when the secret key is on the same line",
		func() Detector { return NewAWSKey() },
		registry.BoolConfigOption("verify", "Verify keys with STS GetCallerIdentity", true,
			func(d Detector, v bool) (Detector, error) {
				aws, ok := d.(*AWSKey)
				if !ok {
					return d, unexpectedType(d, AWSKeyName)
				}
				aws.verify = v
				return aws, nil
			}),
		registry.StringConfigOption("region", "AWS region used for STS calls", defaultAWSRegion,
			func(d Detector, v string) (Detector, error) {
				aws, ok := d.(*AWSKey)
				if !ok {
					return d, unexpectedType(d, AWSKeyName)
				}
				aws.region = v
				return aws, nil
			}),
	)

	r.Register(ArtifactoryName, "Artifactory API tokens and encrypted passwords",
		func() Detector { return NewArtifactory() })

	r.Register(Base64EntropyName, "Quoted base64 strings with high Shannon entropy",
		func() Detector { return NewBase64HighEntropyString() },
		entropyLimitOption("base64-limit", Base64EntropyName, defaultBase64Limit))

	r.Register(BasicAuthName, "Passwords embedded in URLs",
		func() Detector { return NewBasicAuth() })

	r.Register(HexEntropyName, "Quoted hex strings with high Shannon entropy",
		func() Detector { return NewHexHighEntropyString() },
		entropyLimitOption("hex-limit", HexEntropyName, defaultHexLimit))

	r.Register(JWTName, "JSON web tokens",
		func() Detector { return NewJWT() })

	r.Register(KeywordName, "Values assigned to secret-sounding names",
		func() Detector { return NewKeyword() },
		registry.StringConfigOption("keyword-exclude", "Skip lines matching this regular expression", "",
			func(d Detector, v string) (Detector, error) {
				kw, ok := d.(*Keyword)
				if !ok {
					return d, unexpectedType(d, KeywordName)
				}
				return kw.WithExclude(v), nil
			}),
	)

	r.Register(PrivateKeyName, "Private key armor headers",
		func() Detector { return NewPrivateKey() })

	r.Register(SlackName, "Slack tokens and incoming webhooks",
		func() Detector { return NewSlack() },
		remoteOptions(SlackName, defaultSlackAPIURL, func(d Detector) (*remoteVerifier, bool) {
			s, ok := d.(*Slack)
			if !ok {
				return nil, false
			}
			return &s.remote, true
		})...,
	)

	r.Register(StripeName, "Live Stripe secret and restricted keys",
		func() Detector { return NewStripe() },
		remoteOptions(StripeName, defaultStripeAPIURL, func(d Detector) (*remoteVerifier, bool) {
			s, ok := d.(*Stripe)
			if !ok {
				return nil, false
			}
			return &s.remote, true
		})...,
	)

	r.Register(GitleaksName, "The gitleaks rule set",
		func() Detector { return NewGitleaks() },
		registry.StringConfigOption("config-path", "Path to a gitleaks TOML configuration replacing the built-in rules", "",
			func(d Detector, v string) (Detector, error) {
				gl, ok := d.(*Gitleaks)
				if !ok {
					return d, unexpectedType(d, GitleaksName)
				}
				return gl.WithConfigPath(v), nil
			}),
		registry.IntConfigOption("max-decode-layers", "Nested base64, hex and url encodings unwrapped before rescanning a line", defaultMaxDecodeLayers,
			func(d Detector, v int) (Detector, error) {
				gl, ok := d.(*Gitleaks)
				if !ok {
					return d, unexpectedType(d, GitleaksName)
				}
				if v < 0 {
					return d, fmt.Errorf("max-decode-layers must not be negative, got %d", v)
				}
				return gl.WithMaxDecodeLayers(v), nil
			}),
	)

	return r
}

func entropyLimitOption(name, detector string, defaultVal float64) registry.Configurer {
	return registry.FloatConfigOption(name, "Minimum Shannon entropy for a string to be reported", defaultVal,
		func(d Detector, v float64) (Detector, error) {
			he, ok := d.(*HighEntropyString)
			if !ok {
				return d, unexpectedType(d, detector)
			}
			return he.WithLimit(v)
		})
}

func remoteOptions(detector, defaultURL string, remote func(Detector) (*remoteVerifier, bool)) []registry.Configurer {
	return []registry.Configurer{
		registry.BoolConfigOption("verify", "Verify candidates against the issuing service", true,
			func(d Detector, v bool) (Detector, error) {
				rv, ok := remote(d)
				if !ok {
					return d, unexpectedType(d, detector)
				}
				rv.enabled = v
				return d, nil
			}),
		registry.StringConfigOption("api-url", "Base URL of the verification API", defaultURL,
			func(d Detector, v string) (Detector, error) {
				rv, ok := remote(d)
				if !ok {
					return d, unexpectedType(d, detector)
				}
				rv.baseURL = v
				return d, nil
			}),
		registry.FloatConfigOption("verify-rate", "Maximum verification requests per second", defaultVerifyRate,
			func(d Detector, v float64) (Detector, error) {
				rv, ok := remote(d)
				if !ok {
					return d, unexpectedType(d, detector)
				}
				return d, rv.setRate(v)
			}),
	}
}

func unexpectedType(d Detector, name string) error {
	return fmt.Errorf("unexpected detector type: %T is not a %s detector", d, name)
}

// Build creates the named detectors in order, applying options[name] to
// each and running Init where implemented. A positive cacheTTL wraps every
// detector with WithVerificationCache.
func Build(catalog registry.Registry[Detector], names []string, options map[string]map[string]any, cacheTTL time.Duration) ([]Detector, error) {
	if len(names) == 0 {
		names = DefaultNames
	}

	seen := make(map[string]struct{}, len(names))
	detectors := make([]Detector, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("detector %s listed more than once", name)
		}
		seen[name] = struct{}{}

		d, err := catalog.NewEntityFromConfigMap(name, options[name])
		if err != nil {
			return nil, fmt.Errorf("error creating detector %s: %w", name, err)
		}

		if i, ok := d.(Initializer); ok {
			if err := i.Init(); err != nil {
				return nil, fmt.Errorf("error initializing detector %s: %w", name, err)
			}
		}

		if cacheTTL > 0 {
			d = WithVerificationCache(d, cacheTTL)
		}

		detectors = append(detectors, d)
	}

	return detectors, nil
}
