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
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"regexp"
)

// decodedMinLength is the shortest decoded value worth rescanning.
const decodedMinLength = 4

// encoding finds strings in one encoding and decodes them.
type encoding struct {
	name   string
	find   func(content string) []string
	decode func(encoded string) ([]byte, error)
}

var encodings = []encoding{
	{"base64", findBase64, decodeBase64},
	{"hex", findHex, hex.DecodeString},
	{"url", findURLEncoded, decodeURLEncoded},
}

var (
	// standard and url-safe alphabets, at least 15 characters
	base64Regex = regexp.MustCompile(`[A-Za-z0-9+/]{15,}={0,2}|[A-Za-z0-9_-]{15,}={0,2}`)

	hexRegex = regexp.MustCompile(`[0-9a-fA-F]{16,}`)

	// three or more escaped bytes in a row, or a token with an escaped =
	urlEncodedRegex   = regexp.MustCompile(`(%[0-9a-fA-F]{2}){3,}`)
	urlEqualSignRegex = regexp.MustCompile(`[A-Za-z0-9_-]{2,}%3D[A-Za-z0-9_%\-]{2,}`)
)

func findBase64(content string) []string {
	return base64Regex.FindAllString(content, -1)
}

func findHex(content string) []string {
	var found []string
	for _, m := range hexRegex.FindAllString(content, -1) {
		if len(m)%2 == 0 {
			found = append(found, m)
		}
	}

	return found
}

func findURLEncoded(content string) []string {
	matches := append(urlEncodedRegex.FindAllString(content, -1), urlEqualSignRegex.FindAllString(content, -1)...)

	seen := make(map[string]struct{}, len(matches))
	unique := matches[:0]
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		unique = append(unique, m)
	}

	return unique
}

func decodeBase64(encoded string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err == nil {
		return decoded, nil
	}

	return base64.RawURLEncoding.DecodeString(encoded)
}

func decodeURLEncoded(encoded string) ([]byte, error) {
	decoded, err := url.QueryUnescape(encoded)
	if err != nil {
		return nil, err
	}

	return []byte(decoded), nil
}
