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

// Package cli implements the patchscan command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/in-toto/go-patchscan/log"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time.
var Version = "dev"

const envPrefix = "PATCHSCAN"

// ExitError carries the process exit code for results that are not
// failures of patchscan itself, such as secrets being found.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// ExitCode maps an error returned by the root command to a process exit
// code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	return 1
}

// New returns the root command. Each call has its own configuration state.
func New() *cobra.Command {
	v := viper.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "patchscan",
		Short: "Find secrets introduced by a patch",
		Long: `patchscan reads a unified diff and reports secrets found in the lines it
adds. Known false positives can be suppressed with a blacklist file, and
detectors that support it check whether a secret is live.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(v, cfgFile); err != nil {
				return err
			}

			logger, err := newLogger(v.GetString("log-level"), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			log.SetLogger(logger)
			if used := v.ConfigFileUsed(); used != "" {
				log.Debugf("(cli) using config file %s", used)
			}

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: $HOME/.patchscan/config.yaml)")
	cmd.PersistentFlags().String("log-level", "info", "Level of logging to output (debug, info, warn, error)")
	_ = v.BindPFlag("log-level", cmd.PersistentFlags().Lookup("log-level"))

	cmd.AddCommand(
		newScanCmd(v),
		newDetectorsCmd(),
		newSchemaCmd(),
		newVersionCmd(),
	)

	return cmd
}

func initConfig(v *viper.Viper, cfgFile string) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		path, err := homedir.Expand(cfgFile)
		if err != nil {
			return fmt.Errorf("could not expand config path: %w", err)
		}

		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("could not read config file %s: %w", path, err)
		}

		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home + "/.patchscan")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("could not read config file: %w", err)
		}
	}

	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the patchscan version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "patchscan %s\n", Version)
			return err
		},
	}
}

func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}

	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, nil, fmt.Errorf("could not expand output path: %w", err)
	}

	f, err := os.Create(expanded)
	if err != nil {
		return nil, nil, fmt.Errorf("could not create output file: %w", err)
	}

	return f, f.Close, nil
}
