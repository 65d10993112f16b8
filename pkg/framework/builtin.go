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

package framework

import (
	"cw-cli/pkg/config"
	"cw-cli/pkg/errs"
)

// DefaultImage is the training image used when a config names none.
const DefaultImage = "ghcr.io/tcapelle/triton_eval:1906"

const (
	VLLMDeployment    = "cw-vllm-server"
	RewardsDeployment = "cw-rewards-server"
)

var servicePrefixes = []string{"cw-vllm", "cw-rewards"}

// Builtins lists the frameworks compiled into cw. Adding a framework means
// adding it here.
func Builtins() []Descriptor {
	return []Descriptor{Axolotl(), Verifiers()}
}

func grpoSteps(dir string) []Step {
	return []Step{
		{Label: "VLLM Server", Template: dir + "/vllm-deployment.yaml", Deployment: VLLMDeployment},
		{Label: "Rewards Server", Template: dir + "/rewards-deployment.yaml", Deployment: RewardsDeployment},
		{Label: "Training Job", Template: dir + "/training-job.yaml", Training: true},
	}
}

func restartable() map[string]string {
	return map[string]string{"vllm": VLLMDeployment, "rewards": RewardsDeployment}
}

// Axolotl supports SFT as a single job and GRPO as a multi-service deployment.
func Axolotl() Descriptor {
	return Descriptor{
		Key:          "axolotl",
		DefaultImage: DefaultImage,
		Layouts: map[TrainingMode]Layout{
			ModeSFT: {
				ConfigMapName: "cw-axolotl-train-sft-config",
				JobName:       "cw-axolotl-train-sft",
				Steps:         []Step{{Label: "Training Job", Template: "axolotl/sft_job.yaml", Training: true}},
				Sizing:        SizeFromConfig,
			},
			ModeGRPO: {
				ConfigMapName: "cw-axolotl-train-grpo-config",
				JobName:       "cw-axolotl-train-grpo",
				Steps:         grpoSteps("axolotl/grpo"),
				Sizing:        SizeFullNode,
			},
		},
		Validate: func(doc config.Document, mode TrainingMode) error {
			if mode == ModeGRPO && doc["rl"] != "grpo" {
				return &errs.ConfigurationError{
					Reason:     "config must set 'rl: grpo' for GRPO training",
					Suggestion: "Add 'rl: grpo' to your config, or use 'cw axolotl sft' for supervised fine-tuning.",
				}
			}
			return nil
		},
		ServicePrefixes: servicePrefixes,
		Services:        restartable(),
	}
}

// Verifiers supports GRPO only and has no config predicate.
func Verifiers() Descriptor {
	return Descriptor{
		Key:          "verifiers",
		DefaultImage: DefaultImage,
		Layouts: map[TrainingMode]Layout{
			ModeGRPO: {
				ConfigMapName: "cw-verifiers-train-grpo-config",
				JobName:       "cw-verifiers-train-grpo",
				Steps:         grpoSteps("verifiers"),
				Sizing:        SizeFullNode,
			},
		},
		ServicePrefixes: servicePrefixes,
		Services:        restartable(),
	}
}
