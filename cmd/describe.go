// Copyright 2026 Google LLC
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

package cmd

import (
	"strings"
	"time"

	"cw-cli/pkg/status"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// outputFormat is a pflag.Value restricted to status.Formats.
type outputFormat status.Format

func (f *outputFormat) String() string { return string(*f) }

func (f *outputFormat) Set(v string) error {
	for _, known := range status.Formats {
		if status.Format(strings.ToLower(v)) == known {
			*f = outputFormat(known)
			return nil
		}
	}
	names := make([]string, len(status.Formats))
	for i, known := range status.Formats {
		names[i] = string(known)
	}
	return errors.Errorf("must be one of %s", strings.Join(names, ", "))
}

func (f *outputFormat) Type() string { return "format" }

var (
	describeWatch  bool
	describeOutput = outputFormat(status.FormatTable)
)

var describeCmd = &cobra.Command{
	Use:   "describe [job]",
	Short: "Show the status, conditions and pods of a job",
	Long: `Shows a status dashboard for a cw job. With -w the dashboard refreshes
until interrupted. -o yaml and -o json print the raw job and pod documents once.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		exec := newClient()
		var named string
		if len(args) == 1 {
			named = args[0]
		}
		job, err := pickJob(ctx, exec, newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr()), named, "describe")
		if err != nil {
			return err
		}
		if err := requireManaged(job); err != nil {
			return err
		}
		return status.NewDashboard(exec, cmd.OutOrStdout()).Run(ctx, job, status.RunOptions{
			Watch:    describeWatch,
			Output:   status.Format(describeOutput),
			Interval: cfg.WatchInterval,
		})
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().BoolVarP(&describeWatch, "watch", "w", false, "Refresh the dashboard until interrupted.")
	describeCmd.Flags().VarP(&describeOutput, "output", "o", "Output format: table, yaml or json.")
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
