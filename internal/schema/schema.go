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

// Package schema generates JSON schemas for the documents patchscan reads
// and writes.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/in-toto/go-patchscan/analyzer"
	"github.com/in-toto/go-patchscan/blacklist"
	"github.com/invopop/jsonschema"
)

const idPrefix = "https://github.com/in-toto/go-patchscan/schemas/"

// Document is a named schema.
type Document struct {
	Name   string
	Schema *jsonschema.Schema
}

// All returns the schema of every document type, in a stable order.
func All() []Document {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}

	items := []struct {
		name        string
		description string
		value       any
	}{
		{"secret", "A secret found in an added line of a patch", &analyzer.Secret{}},
		{"blacklist", "Known false positives skipped by patchscan", &blacklist.File{}},
	}

	docs := make([]Document, 0, len(items))
	for _, item := range items {
		s := reflector.Reflect(item.value)
		s.ID = jsonschema.ID(idPrefix + item.name + ".json")
		s.Title = item.name
		s.Description = item.description
		docs = append(docs, Document{Name: item.name, Schema: s})
	}

	return docs
}

// Indented renders a schema as indented JSON.
func Indented(s *jsonschema.Schema) ([]byte, error) {
	raw, err := s.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("error marshalling JSON schema: %w", err)
	}

	var indented bytes.Buffer
	if err := json.Indent(&indented, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("error indenting JSON schema: %w", err)
	}

	return indented.Bytes(), nil
}
