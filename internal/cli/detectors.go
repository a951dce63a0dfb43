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
	"slices"
	"text/tabwriter"

	"github.com/in-toto/go-patchscan/detector"
	"github.com/in-toto/go-patchscan/registry"
	"github.com/spf13/cobra"
)

func newDetectorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detectors",
		Short: "List the available detectors and their options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, entry := range detector.NewCatalog().AllEntries() {
				name := entry.Name
				if slices.Contains(detector.DefaultNames, entry.Name) {
					name += " (default)"
				}

				fmt.Fprintf(tw, "%s\t%s\n", name, entry.Description)
				for _, opt := range entry.Options {
					fmt.Fprintf(tw, "  %s.%s=%s\t%s\n", entry.Name, opt.Name(), registry.DefaultString(opt), opt.Description())
				}
			}

			return tw.Flush()
		},
	}
}
