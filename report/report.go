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

// Package report renders scan results as text, JSON or SARIF.
package report

import (
	"crypto"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/in-toto/go-patchscan/analyzer"
	"github.com/in-toto/go-patchscan/cryptoutil"
	"github.com/owenrumney/go-sarif/v2/sarif"
)

type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatSARIF Format = "sarif"

	toolName           = "patchscan"
	toolInformationURI = "https://github.com/in-toto/go-patchscan"

	previewSegmentLength = 4
)

// Formats lists the supported output formats.
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatSARIF}
}

// ParseFormat returns the Format named by s.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats() {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}

	return "", fmt.Errorf("unknown report format %q", s)
}

type options struct {
	includeValues bool
	toolVersion   string
}

type Option func(*options)

// WithValues includes raw secret values in JSON output. Values are omitted
// by default; text and SARIF output never contain them.
func WithValues() Option {
	return func(o *options) {
		o.includeValues = true
	}
}

func WithToolVersion(version string) Option {
	return func(o *options) {
		o.toolVersion = version
	}
}

// Document is the JSON report.
type Document struct {
	Status   string          `json:"status"`
	Error    string          `json:"error,omitempty"`
	Secrets  []Finding       `json:"secrets"`
	Failures []FailureRecord `json:"failures,omitempty"`
}

// Finding is one secret in the JSON report. The value is identified by its
// digest and a truncated preview.
type Finding struct {
	Type     string               `json:"type"`
	FilePath string               `json:"filePath"`
	Line     int                  `json:"line"`
	Verified bool                 `json:"verified"`
	Digest   cryptoutil.DigestSet `json:"digest"`
	Preview  string               `json:"preview"`
	Value    string               `json:"value,omitempty"`
}

type FailureRecord struct {
	Detector string `json:"detector"`
	FilePath string `json:"filePath"`
	Line     int    `json:"line"`
	Stage    string `json:"stage"`
	Error    string `json:"error"`
}

// Write renders secrets in the given format. scan may be nil when the
// status of the scan is not known; it is then reported as ok.
func Write(w io.Writer, format Format, secrets []analyzer.Secret, scan *analyzer.Scan, opts ...Option) error {
	o := &options{toolVersion: "dev"}
	for _, opt := range opts {
		opt(o)
	}

	switch format {
	case FormatText:
		return writeText(w, secrets, scan)
	case FormatJSON:
		return writeJSON(w, secrets, scan, o)
	case FormatSARIF:
		return writeSARIF(w, secrets, scan, o)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// Preview keeps the first and last characters of a secret and hides the
// rest. Short values are fully hidden.
func Preview(value string) string {
	runes := []rune(value)
	if len(runes) > 2*previewSegmentLength {
		return string(runes[:previewSegmentLength]) + "..." + string(runes[len(runes)-previewSegmentLength:])
	}

	if len(runes) > 0 {
		return "..."
	}

	return ""
}

func scanState(scan *analyzer.Scan) (analyzer.Status, []analyzer.Failure, error) {
	if scan == nil {
		return analyzer.StatusOK, nil, nil
	}

	return scan.Status(), scan.Failures(), scan.Err()
}

func writeText(w io.Writer, secrets []analyzer.Secret, scan *analyzer.Scan) error {
	status, failures, scanErr := scanState(scan)
	if status == analyzer.StatusParseFailed {
		_, err := fmt.Fprintf(w, "patch could not be parsed: %v\n", scanErr)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if len(secrets) > 0 {
		fmt.Fprintln(tw, "LOCATION\tTYPE\tVERIFIED\tPREVIEW")
	}

	for _, s := range secrets {
		fmt.Fprintf(tw, "%s:%d\t%s\t%t\t%s\n", s.FilePath, s.Line, s.Type, s.Verified, Preview(s.Value))
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	for _, f := range failures {
		if _, err := fmt.Fprintf(w, "warning: %v\n", f); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "%d secret(s) found\n", len(secrets))
	return err
}

func writeJSON(w io.Writer, secrets []analyzer.Secret, scan *analyzer.Scan, o *options) error {
	status, failures, scanErr := scanState(scan)
	doc := Document{
		Status:  status.String(),
		Secrets: make([]Finding, 0, len(secrets)),
	}

	if scanErr != nil {
		doc.Error = scanErr.Error()
	}

	for _, s := range secrets {
		digest, err := cryptoutil.CalculateDigestSetFromBytes([]byte(s.Value), []cryptoutil.DigestValue{{Hash: crypto.SHA256}})
		if err != nil {
			return fmt.Errorf("error calculating digest for secret: %w", err)
		}

		f := Finding{
			Type:     s.Type,
			FilePath: s.FilePath,
			Line:     s.Line,
			Verified: s.Verified,
			Digest:   digest,
			Preview:  Preview(s.Value),
		}

		if o.includeValues {
			f.Value = s.Value
		}

		doc.Secrets = append(doc.Secrets, f)
	}

	for _, f := range failures {
		doc.Failures = append(doc.Failures, FailureRecord{
			Detector: f.Detector,
			FilePath: f.FilePath,
			Line:     f.Line,
			Stage:    string(f.Stage),
			Error:    f.Err.Error(),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func writeSARIF(w io.Writer, secrets []analyzer.Secret, scan *analyzer.Scan, o *options) error {
	status, failures, scanErr := scanState(scan)

	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("could not create sarif report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(toolName, toolInformationURI)
	run.Tool.Driver.WithVersion(o.toolVersion)

	for _, s := range secrets {
		run.AddRule(s.Type).
			WithName(s.Type).
			WithDescription(fmt.Sprintf("Secret reported by %s", s.Type))

		digest, err := cryptoutil.CalculateDigestSetFromBytes([]byte(s.Value), []cryptoutil.DigestValue{{Hash: crypto.SHA256}})
		if err != nil {
			return fmt.Errorf("error calculating digest for secret: %w", err)
		}

		names, err := digest.ToNameMap()
		if err != nil {
			return err
		}

		level := "warning"
		if s.Verified {
			level = "error"
		}

		pb := sarif.NewPropertyBag()
		pb.AddBoolean("verified", s.Verified)
		pb.AddString("sha256", names["sha256"])

		result := run.CreateResultForRule(s.Type).
			WithLevel(level).
			WithMessage(sarif.NewTextMessage(fmt.Sprintf("%s found a secret: %s", s.Type, Preview(s.Value))))
		result.AddLocation(sarif.NewLocationWithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewSimpleArtifactLocation(s.FilePath)).
				WithRegion(sarif.NewSimpleRegion(s.Line, s.Line)),
		))
		result.AttachPropertyBag(pb)
	}

	invocation := run.AddInvocation(status == analyzer.StatusOK)
	if scanErr != nil {
		invocation.AddTToolExecutionNotification(sarif.NewNotification().
			WithLevel("error").
			WithTextMessage(scanErr.Error()))
	}

	for _, f := range failures {
		invocation.AddTToolExecutionNotification(sarif.NewNotification().
			WithLevel("warning").
			WithTextMessage(f.Error()))
	}

	report.AddRun(run)
	return report.PrettyWrite(w)
}
