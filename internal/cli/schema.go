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

	"github.com/in-toto/go-patchscan/internal/schema"
	"github.com/spf13/cobra"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "schema [secret|blacklist]",
		Short:     "Print the JSON schema of a patchscan document",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"secret", "blacklist"},
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "secret"
			if len(args) == 1 {
				name = args[0]
			}

			for _, doc := range schema.All() {
				if doc.Name != name {
					continue
				}

				out, err := schema.Indented(doc.Schema)
				if err != nil {
					return err
				}

				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return err
			}

			return fmt.Errorf("unknown schema %q", name)
		},
	}
}
