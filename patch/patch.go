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

// Package patch turns unified diff text into per-file hunks whose lines are
// classified as added, removed or context and carry their line numbers.
package patch

import "fmt"

// Kind classifies a line of a hunk.
type Kind int

const (
	Context Kind = iota
	Added
	Removed
)

func (k Kind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "context"
	}
}

// Line is one line of a hunk. Number is the 1-based line number in the new
// version of the file for added and context lines, and in the old version for
// removed lines. Text excludes the diff marker and the trailing newline.
type Line struct {
	FilePath string
	Number   int
	Text     string
	Kind     Kind
}

// Hunk is a contiguous block of lines anchored at OldStart/NewStart.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Section  string
	Lines    []Line
}

// AddedLines returns the added lines of the hunk in order.
func (h *Hunk) AddedLines() []Line {
	added := make([]Line, 0, len(h.Lines))
	for _, l := range h.Lines {
		if l.Kind == Added {
			added = append(added, l)
		}
	}

	return added
}

// File is the set of hunks touching one file.
type File struct {
	Path     string
	OldPath  string
	IsNew    bool
	IsDelete bool
	IsBinary bool
	Hunks    []*Hunk
}

// Patch is a parsed diff.
type Patch struct {
	Files []*File
}

// AddedLineCount returns the number of added lines across every file.
func (p *Patch) AddedLineCount() int {
	n := 0
	for _, f := range p.Files {
		for _, h := range f.Hunks {
			n += len(h.AddedLines())
		}
	}

	return n
}

// ParseError reports diff text that could not be parsed.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed patch: %s: %v", e.Reason, e.Err)
	}

	return fmt.Sprintf("malformed patch: %s", e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
