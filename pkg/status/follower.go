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

// Package status follows job logs and renders job, pod and node state.
package status

import (
	"context"
	"io"
	"strconv"
	"time"

	"cw-cli/pkg/kubectl"
	"cw-cli/pkg/logging"
	"cw-cli/pkg/orchestrator"

	"github.com/pkg/errors"
	corev1 "k8s.io/api/core/v1"
)

// Polling defaults of Follow.
const (
	DefaultFollowInterval = 5 * time.Second
	DefaultFollowTimeout  = 300 * time.Second
)

// ErrFollowTimeout is returned when no pod of the job became ready in time.
var ErrFollowTimeout = errors.New("timeout waiting for pod to be ready; try 'cw logs' later")

// Follower streams the logs of a job once its pod is running.
type Follower struct {
	exec     kubectl.Executor
	out      io.Writer
	Interval time.Duration
	Timeout  time.Duration
	sleep    func(context.Context, time.Duration) error
}

// NewFollower returns a Follower writing logs to out.
func NewFollower(exec kubectl.Executor, out io.Writer) *Follower {
	return &Follower{
		exec:     exec,
		out:      out,
		Interval: DefaultFollowInterval,
		Timeout:  DefaultFollowTimeout,
		sleep:    orchestrator.Sleep,
	}
}

func jobSelector(job string) string {
	return "job-name=" + job
}

func (f *Follower) podPhase(ctx context.Context, job string) (corev1.PodPhase, error) {
	var pods corev1.PodList
	if err := kubectl.GetJSON(ctx, f.exec, &pods, "get", "pods", "-l", jobSelector(job)); err != nil {
		return "", err
	}
	if len(pods.Items) == 0 {
		return "", nil
	}
	return pods.Items[0].Status.Phase, nil
}

// Follow polls the job's pod every Interval. A running pod switches to
// "kubectl logs -f"; a pod that finished before it was seen running gets its
// logs printed once. After Timeout it gives up with ErrFollowTimeout.
// Cancelling ctx stops following without an error.
func (f *Follower) Follow(ctx context.Context, job string) error {
	logging.Info("Waiting for pod to be ready...")
	for waited := time.Duration(0); waited < f.Timeout; waited += f.Interval {
		phase, err := f.podPhase(ctx, job)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil:
			logging.Warn("Waiting for pod... (%v)", err)
		case phase == corev1.PodRunning:
			logging.Info("Following logs... (Press Ctrl+C to stop)")
			return f.stream(ctx, "logs", "-f", "job/"+job)
		case phase == corev1.PodSucceeded || phase == corev1.PodFailed:
			logging.Warn("Pod finished with status: %s. Showing logs...", phase)
			return f.stream(ctx, "logs", "job/"+job)
		case phase != "":
			logging.Warn("Pod status: %s, waiting...", phase)
		}

		if err := f.sleep(ctx, f.Interval); err != nil {
			return nil
		}
	}
	return ErrFollowTimeout
}

// Show prints the job's logs once. tail <= 0 prints everything; previous
// selects the last terminated container instance.
func (f *Follower) Show(ctx context.Context, job string, tail int, previous bool) error {
	args := []string{"logs", "job/" + job}
	if tail > 0 {
		args = append(args, "--tail", strconv.Itoa(tail))
	}
	if previous {
		args = append(args, "--previous")
	}
	return f.stream(ctx, args...)
}

func (f *Follower) stream(ctx context.Context, args ...string) error {
	err := f.exec.Stream(ctx, f.out, args...)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
