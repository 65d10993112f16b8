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

package status

import (
	"context"
	"fmt"
	"io"
	"time"

	"cw-cli/pkg/errs"
	"cw-cli/pkg/kubectl"
	"cw-cli/pkg/logging"
	"cw-cli/pkg/orchestrator"

	corev1 "k8s.io/api/core/v1"
)

// DefaultGPUInterval is the nvidia-smi refresh period.
const DefaultGPUInterval = 2 * time.Second

// GPUWatch runs nvidia-smi inside the running pod of a job.
type GPUWatch struct {
	exec  kubectl.Executor
	out   io.Writer
	sleep func(context.Context, time.Duration) error
}

func NewGPUWatch(exec kubectl.Executor, out io.Writer) *GPUWatch {
	return &GPUWatch{exec: exec, out: out, sleep: orchestrator.Sleep}
}

// RunningPod returns the first running pod of job.
func (g *GPUWatch) RunningPod(ctx context.Context, job string) (string, error) {
	var pods corev1.PodList
	if err := kubectl.GetJSON(ctx, g.exec, &pods, "get", "pods", "-l", jobSelector(job)); err != nil {
		return "", err
	}
	for _, p := range pods.Items {
		if p.Status.Phase == corev1.PodRunning {
			return p.Name, nil
		}
	}
	return "", &errs.NotFoundError{Kind: "running pod for job", Name: job}
}

// Run refreshes nvidia-smi output every interval until ctx is cancelled.
func (g *GPUWatch) Run(ctx context.Context, job string, interval time.Duration) error {
	pod, err := g.RunningPod(ctx, job)
	if err != nil {
		return err
	}
	if interval <= 0 {
		interval = DefaultGPUInterval
	}
	logging.Info("Watching GPUs of %s every %s (Press Ctrl+C to stop)", pod, interval)
	for {
		fmt.Fprint(g.out, "\033[H\033[2J")
		if err := g.exec.Stream(ctx, g.out, "exec", pod, "--", "nvidia-smi"); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if g.sleep(ctx, interval) != nil {
			return nil
		}
	}
}
