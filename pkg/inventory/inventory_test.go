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

package inventory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cw-cli/pkg/kubectl/kubectltest"
	"cw-cli/pkg/logging"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	logging.SetOutput(io.Discard)
	color.NoColor = true
	goleak.VerifyTestMain(m)
}

func describeOutput(allocated int) string {
	return fmt.Sprintf(`Name:               node
Roles:              <none>
Capacity:
  nvidia.com/gpu:     8
Allocated resources:
  (Total limits may be over 100 percent, i.e., overcommitted.)
  Resource           Requests      Limits
  --------           --------      ------
  cpu                12 (9%%)       0 (0%%)
  memory             64Gi (3%%)     64Gi (3%%)
  nvidia.com/gpu     %d             %d
Events:              <none>
`, allocated, allocated)
}

type nodeSpec struct {
	name   string
	gpus   int
	ready  bool
	cordon bool
}

func nodeList(specs ...nodeSpec) string {
	var items []string
	for _, s := range specs {
		capacity := `"cpu":"96","memory":"1Ti"`
		if s.gpus > 0 {
			capacity += fmt.Sprintf(`,"nvidia.com/gpu":"%d"`, s.gpus)
		}
		status := "False"
		if s.ready {
			status = "True"
		}
		items = append(items, fmt.Sprintf(`{"metadata":{"name":%q},"spec":{"unschedulable":%t},
 "status":{"capacity":{%s},"conditions":[{"type":"Ready","status":%q}]}}`, s.name, s.cordon, capacity, status))
	}
	return `{"apiVersion":"v1","kind":"List","items":[` + strings.Join(items, ",") + `]}`
}

func TestReportThreeNodeCluster(t *testing.T) {
	fake := kubectltest.New()
	fake.Responses["get nodes -o json"] = nodeList(
		nodeSpec{name: "node-a", gpus: 8, ready: true},
		nodeSpec{name: "node-b", gpus: 8, ready: true},
		nodeSpec{name: "node-c", ready: true},
	)
	fake.Responses["describe node node-a"] = describeOutput(0)
	fake.Responses["describe node node-b"] = describeOutput(6)

	inv, err := NewReporter(fake).Report(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	type row struct {
		Name       string
		Tier       Tier
		Free, Used int
	}
	var got []row
	for _, n := range inv.Nodes {
		got = append(got, row{n.Name, n.Tier, n.FreeGPUs, n.UsedGPUs})
	}
	want := []row{
		{"node-a", FullNode, 8, 0},
		{"node-b", Partial, 2, 6},
		{"node-c", CPUOnly, 0, 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
	if inv.FreeGPUs != 10 || inv.TotalGPUs != 16 || inv.FullNodes != 1 {
		t.Errorf("Unexpected totals: free=%d total=%d full=%d", inv.FreeGPUs, inv.TotalGPUs, inv.FullNodes)
	}
	if n := fake.Count("describe node node-c"); n != 0 {
		t.Error("Expected CPU-only nodes not to be described")
	}
	if n := fake.Count("get nodes"); n != 1 {
		t.Errorf("Expected a single node listing, got %d", n)
	}
}

func TestReportTiers(t *testing.T) {
	fake := kubectltest.New()
	fake.Responses["get nodes -o json"] = nodeList(
		nodeSpec{name: "busy", gpus: 8, ready: true},
		nodeSpec{name: "down", gpus: 8},
		nodeSpec{name: "cordoned", gpus: 8, ready: true, cordon: true},
		nodeSpec{name: "broken", gpus: 8, ready: true},
		nodeSpec{name: "small", gpus: 4, ready: true},
	)
	fake.Responses["describe node busy"] = describeOutput(8)
	fake.Responses["describe node down"] = describeOutput(0)
	fake.Responses["describe node cordoned"] = describeOutput(0)
	fake.Errors["describe node broken"] = errors.New("forbidden")
	fake.Responses["describe node small"] = describeOutput(0)

	r := NewReporter(fake)
	r.FullNodeThreshold = 4
	inv, err := r.Report(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	tiers := map[string]Tier{}
	for _, n := range inv.Nodes {
		tiers[n.Name] = n.Tier
	}
	want := map[string]Tier{
		"busy":     FullyOccupied,
		"down":     Unavailable,
		"cordoned": Unavailable,
		"broken":   Unavailable,
		"small":    FullNode,
	}
	if diff := cmp.Diff(want, tiers); diff != "" {
		t.Errorf("tiers mismatch (-want +got):\n%s", diff)
	}
	if inv.FreeGPUs != 4 {
		t.Errorf("Expected only schedulable free GPUs to count, got %d", inv.FreeGPUs)
	}
}

func TestReportBoundsConcurrency(t *testing.T) {
	var specs []nodeSpec
	for i := 0; i < 12; i++ {
		specs = append(specs, nodeSpec{name: fmt.Sprintf("gpu-%02d", i), gpus: 8, ready: true})
	}
	nodes := nodeList(specs...)

	var inFlight, peak int32
	var mu sync.Mutex
	described := map[string]bool{}
	fake := kubectltest.New()
	fake.Handler = func(args []string, input string) (string, error) {
		if args[0] == "get" {
			return nodes, nil
		}
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		mu.Lock()
		described[args[2]] = true
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		return describeOutput(2), nil
	}

	r := NewReporter(fake)
	r.Workers = 3
	inv, err := r.Report(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if peak > 3 {
		t.Errorf("Expected at most 3 concurrent describes, saw %d", peak)
	}
	if len(described) != 12 {
		t.Errorf("Expected every GPU node described once, got %d", len(described))
	}
	if inv.FreeGPUs != 12*6 {
		t.Errorf("Expected %d free GPUs, got %d", 12*6, inv.FreeGPUs)
	}
}

func TestReportCancelled(t *testing.T) {
	fake := kubectltest.New()
	ctx, cancel := context.WithCancel(context.Background())
	fake.Handler = func(args []string, input string) (string, error) {
		if args[0] == "get" {
			return nodeList(nodeSpec{name: "a", gpus: 8, ready: true}, nodeSpec{name: "b", gpus: 8, ready: true}), nil
		}
		cancel()
		return "", context.Canceled
	}
	r := NewReporter(fake)
	if _, err := r.Report(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestAllocatedGPUs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"allocated", describeOutput(3), 3},
		{"no section", "Name: node\nCapacity:\n  nvidia.com/gpu: 8\n", 0},
		{"no gpu row", "Allocated resources:\n  cpu  1 (1%)  0 (0%)\nEvents: <none>\n", 0},
		{"row after section", "Allocated resources:\n  cpu 1 1\nEvents:\n  nvidia.com/gpu 4 4\n", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := AllocatedGPUs(tc.in); got != tc.want {
				t.Errorf("AllocatedGPUs() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestRender(t *testing.T) {
	inv := &Inventory{
		Nodes:     []Node{{Name: "node-a", Tier: FullNode, TotalGPUs: 8, FreeGPUs: 8}},
		TotalGPUs: 8, FreeGPUs: 8, FullNodes: 1,
	}
	var buf bytes.Buffer
	if err := inv.Render(&buf); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"node-a", "Full node available", "GPUs: 8 free of 8 total, 1 full nodes available"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("Expected %q in:\n%s", want, buf.String())
		}
	}
}
