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
	"cw-cli/pkg/status"

	"github.com/spf13/cobra"
)

var (
	logsJob      string
	logsNoFollow bool
	logsTail     int
	logsPrevious bool
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show or follow the logs of a training job",
	Long: `Shows the logs of a cw job. Without -j the job is chosen interactively.
By default the logs are followed once the job's pod is running; --tail and
--previous imply --no-follow.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		exec := newClient()
		job, err := pickJob(ctx, exec, newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr()), logsJob, "view")
		if err != nil {
			return err
		}
		if err := requireManaged(job); err != nil {
			return err
		}
		f := newFollower(exec, cmd.OutOrStdout())
		if logsNoFollow || logsTail > 0 || logsPrevious {
			return f.Show(ctx, job, logsTail, logsPrevious)
		}
		return f.Follow(ctx, job)
	},
}

var gpuInterval int

var gpuCmd = &cobra.Command{
	Use:   "gpu [job]",
	Short: "Watch nvidia-smi on a job's running pod",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		exec := newClient()
		var named string
		if len(args) == 1 {
			named = args[0]
		}
		job, err := pickJob(ctx, exec, newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr()), named, "watch")
		if err != nil {
			return err
		}
		if err := requireManaged(job); err != nil {
			return err
		}
		return status.NewGPUWatch(exec, cmd.OutOrStdout()).Run(ctx, job, seconds(gpuInterval))
	},
}

func init() {
	rootCmd.AddCommand(logsCmd, gpuCmd)

	logsCmd.Flags().StringVarP(&logsJob, "job", "j", "", "Job to show logs for.")
	logsCmd.Flags().BoolVar(&logsNoFollow, "no-follow", false, "Print the current logs and exit.")
	logsCmd.Flags().IntVar(&logsTail, "tail", 0, "Only print the last N lines.")
	logsCmd.Flags().BoolVar(&logsPrevious, "previous", false, "Print the logs of the previous container instance.")

	gpuCmd.Flags().IntVarP(&gpuInterval, "interval", "i", 2, "Refresh interval in seconds.")
}
