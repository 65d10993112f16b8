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

package orchestrator

import (
	"context"
	"fmt"
	"time"

	"cw-cli/pkg/config"
	"cw-cli/pkg/framework"
)

// TrainingJob identifies one deployment attempt. It is built once per
// invocation and not modified afterwards.
type TrainingJob struct {
	Name       string
	ConfigPath string
	Framework  string
	Mode       framework.TrainingMode
	Config     config.Document

	// PullLatest asks the containers to refresh their code before running.
	PullLatest bool
	// ServicesOnly deploys the supporting services without the training job.
	ServicesOnly bool

	// RunID labels every object applied by this attempt.
	RunID string
}

// State is the progress of a deployment.
type State int

const (
	NotStarted State = iota
	ConfigMapCreated
	ServiceDeployed
	Complete
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case ConfigMapCreated:
		return "ConfigMapCreated"
	case ServiceDeployed:
		return "ServiceDeployed"
	case Complete:
		return "Complete"
	case Failed:
		return "Failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// DeploymentResult is the outcome of SubmitJob.
type DeploymentResult struct {
	Success bool
	State   State
	// JobName is set when a training job was submitted.
	JobName string
	// Services lists, in order, the steps that were applied successfully.
	Services []string
	// FailedStep is the label of the attempted step that failed. It is empty
	// when the deployment was interrupted or failed before applying anything.
	FailedStep string
	Err        error
}

// Orchestrator defines the interface for submitting training jobs to a cluster.
type Orchestrator interface {
	// SubmitJob deploys job and reports how far it got.
	SubmitJob(ctx context.Context, job TrainingJob) DeploymentResult
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
