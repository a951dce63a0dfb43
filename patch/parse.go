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

package patch

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

var hunkHeaderRegex = regexp.MustCompile(`^@@ -\d+(,\d+)? \+\d+(,\d+)? @@`)

// Parse parses unified diff text. Both git style and traditional ---/+++
// headers are accepted. Text that contains no file header parses to an
// empty Patch. Any malformed header or hunk fails the whole parse with a
// *ParseError; no partial result is returned.
func Parse(text string) (*Patch, error) {
	if err := checkHunkHeaders(text); err != nil {
		return nil, &ParseError{Reason: "invalid hunk header", Err: err}
	}

	files, _, err := gitdiff.Parse(strings.NewReader(text))
	if err != nil {
		return nil, &ParseError{Reason: "could not parse diff", Err: err}
	}

	p := &Patch{Files: make([]*File, 0, len(files))}
	for _, gf := range files {
		f := &File{
			Path:     filePath(gf),
			OldPath:  gf.OldName,
			IsNew:    gf.IsNew,
			IsDelete: gf.IsDelete,
			IsBinary: gf.IsBinary,
		}

		for _, frag := range gf.TextFragments {
			f.Hunks = append(f.Hunks, convertFragment(f.Path, frag))
		}

		p.Files = append(p.Files, f)
	}

	return p, nil
}

// checkHunkHeaders rejects lines that open a hunk without valid ranges. The
// diff parser skips such lines as preamble, which would hide the hunk body.
func checkHunkHeaders(text string) error {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), len(text)+1)
	for n := 1; scanner.Scan(); n++ {
		line := scanner.Text()
		if strings.HasPrefix(line, "@@") && !hunkHeaderRegex.MatchString(line) {
			return fmt.Errorf("line %d: %q", n, line)
		}
	}

	return scanner.Err()
}

// filePath picks the reported path of a file. Git headers arrive with their
// a/ and b/ prefixes already removed by the parser, so only traditional
// headers are trimmed, and only when the name carries the prefix.
func filePath(gf *gitdiff.File) string {
	if gf.IsDelete {
		if isTraditional(gf) {
			return strings.TrimPrefix(gf.OldName, "a/")
		}
		return gf.OldName
	}

	if isTraditional(gf) {
		return strings.TrimPrefix(gf.NewName, "b/")
	}

	return gf.NewName
}

// isTraditional reports whether a file came from a ---/+++ header with no
// git extended header lines. Git headers nearly always carry an index line,
// a mode or a rename marker; the parser fills none of these for ---/+++
// headers.
func isTraditional(gf *gitdiff.File) bool {
	return gf.OldMode == 0 && gf.NewMode == 0 &&
		gf.OldOIDPrefix == "" && gf.NewOIDPrefix == "" &&
		!gf.IsRename && !gf.IsCopy && !gf.IsBinary
}

func convertFragment(path string, frag *gitdiff.TextFragment) *Hunk {
	h := &Hunk{
		OldStart: int(frag.OldPosition),
		OldLines: int(frag.OldLines),
		NewStart: int(frag.NewPosition),
		NewLines: int(frag.NewLines),
		Section:  frag.Comment,
		Lines:    make([]Line, 0, len(frag.Lines)),
	}

	newLine, oldLine := h.NewStart, h.OldStart
	for _, fl := range frag.Lines {
		text := strings.TrimSuffix(strings.TrimSuffix(fl.Line, "\n"), "\r")
		switch fl.Op {
		case gitdiff.OpAdd:
			h.Lines = append(h.Lines, Line{FilePath: path, Number: newLine, Text: text, Kind: Added})
			newLine++
		case gitdiff.OpDelete:
			h.Lines = append(h.Lines, Line{FilePath: path, Number: oldLine, Text: text, Kind: Removed})
			oldLine++
		default:
			h.Lines = append(h.Lines, Line{FilePath: path, Number: newLine, Text: text, Kind: Context})
			newLine++
			oldLine++
		}
	}

	return h
}
