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

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/in-toto/go-patchscan/internal/schema"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: schemagen <schema directory>")
		os.Exit(1)
	}

	outputDir := os.Args[1]
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	for _, doc := range schema.All() {
		out, err := schema.Indented(doc.Schema)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		filename := filepath.Join(outputDir, doc.Name+".json")
		fmt.Printf("Writing schema for %s to %s\n", doc.Name, filename)
		if err := os.WriteFile(filename, out, 0644); err != nil {
			fmt.Println("Error writing to file:", err)
			os.Exit(1)
		}
	}
}
