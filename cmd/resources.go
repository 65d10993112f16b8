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
	"cw-cli/pkg/inventory"

	"github.com/spf13/cobra"
)

var (
	fullNodeGPUs     int
	inventoryWorkers int
)

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "Show free GPUs per node",
	Long: `Describes every GPU node concurrently and classifies it as a full node,
partially available, fully occupied, CPU only or unavailable.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r := inventory.NewReporter(newClient())
		r.FullNodeThreshold = cfg.FullNodeGPUs
		r.Workers = cfg.InventoryWorkers
		if cmd.Flags().Changed("full-node-gpus") {
			r.FullNodeThreshold = fullNodeGPUs
		}
		if cmd.Flags().Changed("workers") {
			r.Workers = inventoryWorkers
		}
		inv, err := r.Report(cmd.Context())
		if err != nil {
			return err
		}
		return inv.Render(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(resourcesCmd)
	resourcesCmd.Flags().IntVar(&fullNodeGPUs, "full-node-gpus", inventory.DefaultFullNodeThreshold, "Free GPUs that make a node a full node (CW_FULL_NODE_GPUS).")
	resourcesCmd.Flags().IntVar(&inventoryWorkers, "workers", inventory.DefaultWorkers, "Concurrent node describes (CW_INVENTORY_WORKERS).")
}
