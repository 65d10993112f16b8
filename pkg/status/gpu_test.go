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
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"cw-cli/pkg/errs"
	"cw-cli/pkg/kubectl/kubectltest"

	"github.com/pkg/errors"
)

func TestGPUWatch(t *testing.T) {
	fake := kubectltest.New()
	fake.Responses[podsOfJob] = podList("Pending", "Running")
	fake.Responses["exec pod-1 -- nvidia-smi"] = "| NVIDIA H100 80GB HBM3 |\n"
	var out bytes.Buffer
	g := NewGPUWatch(fake, &out)
	ctx, cancel := context.WithCancel(context.Background())
	var intervals []time.Duration
	g.sleep = func(ctx context.Context, d time.Duration) error {
		intervals = append(intervals, d)
		if len(intervals) == 2 {
			cancel()
		}
		return ctx.Err()
	}

	if err := g.Run(ctx, "cw-axolotl-train-sft", 5*time.Second); err != nil {
		t.Errorf("Expected nil on interrupt, got %v", err)
	}
	if n := fake.Count("exec pod-1 -- nvidia-smi"); n != 2 {
		t.Errorf("Expected nvidia-smi on the running pod twice, got %v", fake.Lines())
	}
	if strings.Count(out.String(), "H100") != 2 {
		t.Errorf("Expected the output of every refresh:\n%q", out.String())
	}
	if intervals[0] != 5*time.Second {
		t.Errorf("Expected the requested interval, got %s", intervals[0])
	}
}

func TestGPUWatchNoRunningPod(t *testing.T) {
	fake := kubectltest.New()
	fake.Responses[podsOfJob] = podList("Pending")
	err := NewGPUWatch(fake, &bytes.Buffer{}).Run(context.Background(), "cw-axolotl-train-sft", 0)
	var nf *errs.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("Expected NotFoundError, got %v", err)
	}
	if fake.Count("exec") != 0 {
		t.Error("Expected no exec without a running pod")
	}
}
