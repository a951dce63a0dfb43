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

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/in-toto/go-patchscan/analyzer"
	"github.com/in-toto/go-patchscan/detector"
	"github.com/in-toto/go-patchscan/log"
	"github.com/in-toto/go-patchscan/metrics"
	"github.com/in-toto/go-patchscan/registry"
	"github.com/in-toto/go-patchscan/report"
	gitsource "github.com/in-toto/go-patchscan/source/git"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	exitSecretsFound = 1
	exitParseFailed  = 2

	defaultVerifyTimeout = 10 * time.Second
)

type scanConfig struct {
	Blacklist        string
	Detectors        []string
	DetectorOptions  map[string]map[string]any
	Format           report.Format
	Output           string
	VerifyTimeout    time.Duration
	CacheTTL         time.Duration
	FailOnDetection  bool
	FailOnParseError bool
	MetricsFile      string
	IncludeValues    bool
	Repo             string
	From             string
	To               string
}

func newScanCmd(v *viper.Viper) *cobra.Command {
	var optionFlags []string

	cmd := &cobra.Command{
		Use:   "scan [patch-file|-]",
		Short: "Scan a patch for secrets",
		Long: `Scan reads a unified diff from a file, from stdin, or from the difference
between two revisions of a git repository, and reports the secrets found
in added lines.`,
		Example: `  git diff HEAD~1 | patchscan scan
  patchscan scan --format sarif --output results.sarif changes.patch
  patchscan scan --repo . --from main --to HEAD --fail-on-detection`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := detector.NewCatalog()
			cfg, err := loadScanConfig(v, catalog, optionFlags)
			if err != nil {
				return err
			}

			return runScan(cmd, cfg, catalog, args)
		},
	}

	flags := cmd.Flags()
	flags.String("blacklist", "", "YAML file of known false positives")
	flags.StringArray("detector", nil, "Detector to run, repeatable and run in the order given (default: all default detectors)")
	flags.StringArrayVar(&optionFlags, "detector-option", nil, "Detector option as DETECTOR.OPTION=VALUE, repeatable")
	flags.String("format", string(report.FormatText), "Output format (text, json, sarif)")
	flags.StringP("output", "o", "", "File to write the report to (default: stdout)")
	flags.Duration("verify-timeout", defaultVerifyTimeout, "Time allowed for each verification call, 0 for no limit")
	flags.Duration("cache-ttl", 0, "Cache verification results for this long, 0 to disable")
	flags.Bool("fail-on-detection", false, "Exit with status 1 when secrets are found")
	flags.Bool("fail-on-parse-error", false, "Exit with status 2 when the patch cannot be parsed")
	flags.String("metrics-file", "", "Write prometheus metrics for the scan to this file")
	flags.Bool("include-values", false, "Include raw secret values in JSON reports")
	flags.String("repo", "", "Scan the diff between two revisions of this git repository")
	flags.String("from", "", "Base revision for --repo (default: first parent of --to)")
	flags.String("to", "", "Head revision for --repo (default: HEAD)")

	for _, name := range []string{"blacklist", "format", "output", "verify-timeout", "cache-ttl", "fail-on-detection",
		"fail-on-parse-error", "metrics-file", "include-values", "repo", "from", "to"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}
	_ = v.BindPFlag("detectors", flags.Lookup("detector"))

	return cmd
}

func loadScanConfig(v *viper.Viper, catalog registry.Registry[detector.Detector], optionFlags []string) (*scanConfig, error) {
	format, err := report.ParseFormat(v.GetString("format"))
	if err != nil {
		return nil, err
	}

	names, err := canonicalNames(catalog, v.GetStringSlice("detectors"))
	if err != nil {
		return nil, err
	}

	options, err := detectorOptions(catalog, v.Get("detector-options"), optionFlags)
	if err != nil {
		return nil, err
	}

	return &scanConfig{
		Blacklist:        v.GetString("blacklist"),
		Detectors:        names,
		DetectorOptions:  options,
		Format:           format,
		Output:           v.GetString("output"),
		VerifyTimeout:    v.GetDuration("verify-timeout"),
		CacheTTL:         v.GetDuration("cache-ttl"),
		FailOnDetection:  v.GetBool("fail-on-detection"),
		FailOnParseError: v.GetBool("fail-on-parse-error"),
		MetricsFile:      v.GetString("metrics-file"),
		IncludeValues:    v.GetBool("include-values"),
		Repo:             v.GetString("repo"),
		From:             v.GetString("from"),
		To:               v.GetString("to"),
	}, nil
}

// canonicalNames maps detector names to their catalog spelling. Config
// keys read by viper are lower-cased, so names match ignoring case.
func canonicalNames(catalog registry.Registry[detector.Detector], names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, name := range names {
		canonical, err := canonicalName(catalog, name)
		if err != nil {
			return nil, err
		}
		out = append(out, canonical)
	}

	return out, nil
}

func canonicalName(catalog registry.Registry[detector.Detector], name string) (string, error) {
	for _, known := range catalog.Names() {
		if strings.EqualFold(known, strings.TrimSpace(name)) {
			return known, nil
		}
	}

	return "", fmt.Errorf("unknown detector %q, available detectors: %s", name, strings.Join(catalog.Names(), ", "))
}

// detectorOptions merges the detector-options config map with
// DETECTOR.OPTION=VALUE flags. Flags win.
func detectorOptions(catalog registry.Registry[detector.Detector], fromConfig any, optionFlags []string) (map[string]map[string]any, error) {
	options := make(map[string]map[string]any)
	set := func(name, option string, value any) error {
		canonical, err := canonicalName(catalog, name)
		if err != nil {
			return err
		}

		if options[canonical] == nil {
			options[canonical] = make(map[string]any)
		}

		options[canonical][strings.ToLower(option)] = value
		return nil
	}

	if fromConfig != nil {
		byDetector, ok := fromConfig.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("detector-options must be a map of detector names to options, got %T", fromConfig)
		}

		for name, raw := range byDetector {
			opts, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("options for detector %s must be a map, got %T", name, raw)
			}

			for option, value := range opts {
				if err := set(name, option, value); err != nil {
					return nil, err
				}
			}
		}
	}

	for _, flag := range optionFlags {
		key, raw, ok := strings.Cut(flag, "=")
		if !ok {
			return nil, fmt.Errorf("detector option %q is not in the form DETECTOR.OPTION=VALUE", flag)
		}

		name, option, ok := strings.Cut(key, ".")
		if !ok {
			return nil, fmt.Errorf("detector option %q is not in the form DETECTOR.OPTION=VALUE", flag)
		}

		canonical, err := canonicalName(catalog, name)
		if err != nil {
			return nil, err
		}

		configurer, err := findOption(catalog, canonical, option)
		if err != nil {
			return nil, err
		}

		value, err := registry.ParseValue(configurer, raw)
		if err != nil {
			return nil, err
		}

		if err := set(canonical, configurer.Name(), value); err != nil {
			return nil, err
		}
	}

	return options, nil
}

func findOption(catalog registry.Registry[detector.Detector], name, option string) (registry.Configurer, error) {
	opts, _ := catalog.Options(name)
	for _, opt := range opts {
		if strings.EqualFold(opt.Name(), option) {
			return opt, nil
		}
	}

	return nil, fmt.Errorf("detector %s has no option %q", name, option)
}

func runScan(cmd *cobra.Command, cfg *scanConfig, catalog registry.Registry[detector.Detector], args []string) error {
	ctx := cmd.Context()

	detectors, err := detector.Build(catalog, cfg.Detectors, cfg.DetectorOptions, cfg.CacheTTL)
	if err != nil {
		return err
	}

	opts := []analyzer.Option{analyzer.WithVerifyTimeout(cfg.VerifyTimeout)}
	var collector *metrics.Collector
	if cfg.MetricsFile != "" {
		collector = metrics.NewCollector()
		opts = append(opts, analyzer.WithObserver(collector))
	}

	a := analyzer.New(detectors, nil, opts...)
	if cfg.Blacklist != "" {
		a, err = analyzer.NewFromBlacklistFile(detectors, cfg.Blacklist, opts...)
		if err != nil {
			return err
		}
	}

	text, err := readPatch(cmd, cfg, args)
	if err != nil {
		return err
	}

	log.Debugf("(cli) scanning patch with detectors %s", strings.Join(a.Detectors(), ", "))
	secrets, scan := a.Collect(ctx, text)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("scan interrupted: %w", err)
	}

	w, closeOutput, err := openOutput(cfg.Output, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	reportOpts := []report.Option{report.WithToolVersion(Version)}
	if cfg.IncludeValues {
		reportOpts = append(reportOpts, report.WithValues())
	}

	if err := report.Write(w, cfg.Format, secrets, scan, reportOpts...); err != nil {
		_ = closeOutput()
		return fmt.Errorf("could not write report: %w", err)
	}

	if err := closeOutput(); err != nil {
		return fmt.Errorf("could not write report: %w", err)
	}

	if collector != nil {
		path, err := homedir.Expand(cfg.MetricsFile)
		if err != nil {
			return fmt.Errorf("could not expand metrics file path: %w", err)
		}

		if err := collector.WriteTextfile(path); err != nil {
			return fmt.Errorf("could not write metrics: %w", err)
		}
	}

	if scan.Status() == analyzer.StatusParseFailed && cfg.FailOnParseError {
		return &ExitError{Code: exitParseFailed, Message: fmt.Sprintf("patch could not be parsed: %v", scan.Err())}
	}

	if len(secrets) > 0 && cfg.FailOnDetection {
		return &ExitError{Code: exitSecretsFound, Message: fmt.Sprintf("%d secret(s) found", len(secrets))}
	}

	return nil
}

func readPatch(cmd *cobra.Command, cfg *scanConfig, args []string) (string, error) {
	if cfg.Repo != "" {
		if len(args) > 0 {
			return "", fmt.Errorf("a patch file cannot be combined with --repo")
		}

		repo, err := homedir.Expand(cfg.Repo)
		if err != nil {
			return "", fmt.Errorf("could not expand repository path: %w", err)
		}

		return gitsource.Patch(cmd.Context(), repo, cfg.From, cfg.To)
	}

	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("could not read patch from stdin: %w", err)
		}
		return string(data), nil
	}

	path, err := homedir.Expand(args[0])
	if err != nil {
		return "", fmt.Errorf("could not expand patch path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("could not read patch file: %w", err)
	}

	return string(data), nil
}
