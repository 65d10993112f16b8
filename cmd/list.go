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
	listNamespace     string
	listAllNamespaces bool
	podsResources     bool
	podsWatch         bool
	nodesShowOS       bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cw jobs in the current namespace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return status.NewLister(newClient(), cmd.OutOrStdout()).Managed(cmd.Context())
	},
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List all jobs with their status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return status.NewLister(newClient(), cmd.OutOrStdout()).Jobs(cmd.Context(), scope(listNamespace, listAllNamespaces))
	},
}

var podsCmd = &cobra.Command{
	Use:   "pods",
	Short: "List pods grouped by owner",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return status.NewLister(newClient(), cmd.OutOrStdout()).Pods(cmd.Context(), scope(listNamespace, listAllNamespaces), status.PodsOptions{
			Resources: podsResources,
			Watch:     podsWatch,
			Interval:  cfg.WatchInterval,
		})
	},
}

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "Show cluster capacity and node details",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return status.NewLister(newClient(), cmd.OutOrStdout()).Nodes(cmd.Context(), nodesShowOS)
	},
}

func init() {
	rootCmd.AddCommand(listCmd, jobsCmd, podsCmd, nodesCmd)

	// The local --namespace shadows the global one for listings only.
	for _, c := range []*cobra.Command{jobsCmd, podsCmd} {
		c.Flags().StringVarP(&listNamespace, "namespace", "n", "", "Namespace to list.")
		c.Flags().BoolVarP(&listAllNamespaces, "all-namespaces", "A", false, "List across all namespaces.")
	}
	podsCmd.Flags().BoolVarP(&podsResources, "resources", "r", false, "Show container resource requests.")
	podsCmd.Flags().BoolVarP(&podsWatch, "watch", "w", false, "Refresh until interrupted.")
	nodesCmd.Flags().BoolVarP(&nodesShowOS, "os", "n", false, "Show each node's OS image.")
}
