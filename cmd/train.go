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
	"cw-cli/pkg/framework"
	"cw-cli/pkg/logging"

	"github.com/spf13/cobra"
)

var axolotlCmd = &cobra.Command{
	Use:   "axolotl",
	Short: "Train with Axolotl",
}

var axolotlGRPOCmd = &cobra.Command{
	Use:   "grpo",
	Short: "GRPO training with vLLM and reward services",
}

var verifiersCmd = &cobra.Command{
	Use:   "verifiers",
	Short: "GRPO training with the verifiers library",
}

func init() {
	rootCmd.AddCommand(axolotlCmd, verifiersCmd)

	axolotlCmd.AddCommand(
		newSubmitCmd("sft", "Submit a supervised fine-tuning job", "axolotl", framework.ModeSFT, false, ""),
		axolotlGRPOCmd,
	)
	axolotlGRPOCmd.AddCommand(
		newSubmitCmd("train", "Deploy the GRPO services and training job", "axolotl", framework.ModeGRPO, true, "cw axolotl grpo cleanup"),
		newRestartCmd("axolotl"),
		newCleanupCmd("axolotl"),
	)

	verifiersCmd.AddCommand(
		newSubmitCmd("grpo", "Deploy the GRPO services and training job", "verifiers", framework.ModeGRPO, true, "cw verifiers cleanup"),
		newCleanupCmd("verifiers"),
	)
}

func newRestartCmd(key string) *cobra.Command {
	var wait bool
	c := &cobra.Command{
		Use:       "restart <vllm|rewards>",
		Short:     "Restart a supporting service",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"vllm", "rewards"},
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := registry.Get(key)
			if err != nil {
				return err
			}
			if wait {
				cfg.WaitForRollout = true
			}
			return newOrchestrator(newClient()).RestartService(cmd.Context(), desc, args[0])
		},
	}
	c.Flags().BoolVar(&wait, "wait", false, "Wait for the restarted rollout to finish.")
	return c
}

func newCleanupCmd(key string) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete the supporting services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := registry.Get(key)
			if err != nil {
				return err
			}
			deleted, err := newOrchestrator(newClient()).CleanupServices(cmd.Context(), desc)
			if err != nil {
				return err
			}
			if len(deleted) == 0 {
				logging.Info("No %s services found", key)
				return nil
			}
			logging.Success("Cleaned up %d resources", len(deleted))
			return nil
		},
	}
}
