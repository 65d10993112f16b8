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

// Package framework holds the per-framework naming and manifest tables.
package framework

import (
	"fmt"
	"sort"
	"strings"

	"cw-cli/pkg/config"
	"cw-cli/pkg/errs"
)

// TrainingMode selects between a single job and a multi-service deployment.
type TrainingMode string

const (
	ModeSFT  TrainingMode = "sft"
	ModeGRPO TrainingMode = "grpo"
)

// SizingPolicy decides how container resources are derived from a config.
type SizingPolicy int

const (
	// SizeFromConfig replaces resources with the config's explicit block, or
	// with gpu/cpu/memory applied to both tiers. Containers are left alone
	// when the config names none of them.
	SizeFromConfig SizingPolicy = iota
	// SizeFullNode sizes every container that declares resources to a full
	// node: the config's gpu/cpu/memory, defaulting to 8 GPUs, 32 CPUs and
	// 1000Gi of memory.
	SizeFullNode
)

// Step is one manifest applied during a deployment.
type Step struct {
	// Label is the human-readable name, e.g. "VLLM Server".
	Label string
	// Template is the path of the manifest template.
	Template string
	// Deployment names the Deployment the step creates, if any.
	Deployment string
	// Training marks the step that launches the training job.
	Training bool
}

// Layout describes the objects created for one training mode.
type Layout struct {
	ConfigMapName string
	JobName       string
	Steps         []Step
	Sizing        SizingPolicy
}

// MultiService reports whether the layout deploys supporting services.
func (l Layout) MultiService() bool {
	return len(l.Steps) > 1
}

// Descriptor is the static table for one framework.
type Descriptor struct {
	Key          string
	DefaultImage string
	Layouts      map[TrainingMode]Layout
	// Validate is checked before any cluster mutation. Nil accepts everything.
	Validate func(doc config.Document, mode TrainingMode) error
	// ServicePrefixes are name prefixes of the Deployments and Services that
	// cleanup removes.
	ServicePrefixes []string
	// Services maps a restartable service name to its Deployment.
	Services map[string]string
}

// Layout returns the layout for mode.
func (d Descriptor) Layout(mode TrainingMode) (Layout, error) {
	l, ok := d.Layouts[mode]
	if !ok {
		return Layout{}, &errs.FrameworkError{
			Framework:  d.Key,
			Reason:     fmt.Sprintf("training mode %q is not supported", mode),
			Suggestion: fmt.Sprintf("Supported modes: %s", strings.Join(d.Modes(), ", ")),
		}
	}
	return l, nil
}

// Modes lists the supported training modes in sorted order.
func (d Descriptor) Modes() []string {
	var modes []string
	for m := range d.Layouts {
		modes = append(modes, string(m))
	}
	sort.Strings(modes)
	return modes
}

// Check runs the validation predicate for mode.
func (d Descriptor) Check(doc config.Document, mode TrainingMode) error {
	if d.Validate == nil {
		return nil
	}
	return d.Validate(doc, mode)
}

// ServiceDeployment resolves a restartable service name to its Deployment.
func (d Descriptor) ServiceDeployment(service string) (string, error) {
	if dep, ok := d.Services[strings.ToLower(service)]; ok {
		return dep, nil
	}
	var names []string
	for n := range d.Services {
		names = append(names, n)
	}
	sort.Strings(names)
	return "", &errs.FrameworkError{
		Framework:  d.Key,
		Reason:     fmt.Sprintf("unknown service %q", service),
		Suggestion: fmt.Sprintf("Service must be one of: %s", strings.Join(names, ", ")),
	}
}

// LayoutForJob finds the layout that creates job.
func (d Descriptor) LayoutForJob(job string) (Layout, bool) {
	for _, l := range d.Layouts {
		if l.JobName == job {
			return l, true
		}
	}
	return Layout{}, false
}
