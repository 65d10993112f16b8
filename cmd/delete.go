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
	"fmt"

	"cw-cli/pkg/errs"

	"github.com/spf13/cobra"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete [job]",
	Short: "Delete a training job and its services",
	Long: `Deletes a cw job. Jobs created by a multi-service layout also lose their
supporting Deployments and Services; the job's config artifact is removed too.
Without a job name the job is chosen interactively.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		exec := newClient()
		p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
		var named string
		if len(args) == 1 {
			named = args[0]
		}
		job, err := pickJob(ctx, exec, p, named, "delete")
		if err != nil {
			return err
		}
		if err := requireManaged(job); err != nil {
			return err
		}
		if !deleteYes {
			ok, err := p.confirm(deletePrompt(job))
			if err != nil {
				return err
			}
			if !ok {
				return errs.ErrCancelled
			}
		}
		return newOrchestrator(exec).DeleteJob(ctx, job)
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation.")
}

func deletePrompt(job string) string {
	for _, desc := range registry.All() {
		if layout, ok := desc.LayoutForJob(job); ok && layout.MultiService() {
			return fmt.Sprintf("Delete job %s and all associated services?", job)
		}
	}
	return fmt.Sprintf("Delete job %s?", job)
}
