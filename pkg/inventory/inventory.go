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

// Package inventory reports how many accelerators are free on each node.
package inventory

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cw-cli/pkg/display"
	"cw-cli/pkg/kubectl"
	"cw-cli/pkg/logging"
	"cw-cli/pkg/resources"

	"golang.org/x/sync/errgroup"
	corev1 "k8s.io/api/core/v1"
)

const (
	// DefaultWorkers bounds concurrent describe calls.
	DefaultWorkers = 10
	// DefaultFullNodeThreshold is the free GPU count that makes a node a full node.
	DefaultFullNodeThreshold = resources.FullNodeGPUs
)

// Tier is the availability class of a node.
type Tier int

const (
	Unavailable Tier = iota
	CPUOnly
	FullyOccupied
	Partial
	FullNode
)

func (t Tier) String() string {
	switch t {
	case FullNode:
		return "Full node available"
	case Partial:
		return "Partially available"
	case FullyOccupied:
		return "Fully occupied"
	case CPUOnly:
		return "CPU only"
	}
	return "Unavailable"
}

// Node is the accelerator availability of one node.
type Node struct {
	Name      string
	Tier      Tier
	TotalGPUs int
	UsedGPUs  int
	FreeGPUs  int
	// Err is set when the node could not be described.
	Err error
}

// Inventory is the availability of every node plus cluster totals.
type Inventory struct {
	Nodes     []Node
	TotalGPUs int
	FreeGPUs  int
	FullNodes int
}

// Reporter builds an Inventory from kubectl.
type Reporter struct {
	exec              kubectl.Executor
	Workers           int
	FullNodeThreshold int
}

// NewReporter returns a Reporter with the default worker bound and threshold.
func NewReporter(exec kubectl.Executor) *Reporter {
	return &Reporter{exec: exec, Workers: DefaultWorkers, FullNodeThreshold: DefaultFullNodeThreshold}
}

// Report lists the nodes once, then describes every GPU node with at most
// min(Workers, GPU nodes) calls in flight. Each call fills its own slot.
func (r *Reporter) Report(ctx context.Context) (*Inventory, error) {
	var list corev1.NodeList
	if err := kubectl.GetJSON(ctx, r.exec, &list, "get", "nodes"); err != nil {
		return nil, err
	}

	nodes := make([]Node, len(list.Items))
	var gpuNodes []int
	for i, n := range list.Items {
		nodes[i] = Node{Name: n.Name, TotalGPUs: gpuCapacity(n)}
		if nodes[i].TotalGPUs > 0 {
			gpuNodes = append(gpuNodes, i)
		}
	}

	if len(gpuNodes) > 0 {
		workers := r.Workers
		if workers <= 0 {
			workers = DefaultWorkers
		}
		if workers > len(gpuNodes) {
			workers = len(gpuNodes)
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for _, i := range gpuNodes {
			slot := &nodes[i]
			g.Go(func() error {
				out, err := r.exec.Run(gctx, "describe", "node", slot.Name)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					slot.Err = err
					return nil
				}
				slot.UsedGPUs = AllocatedGPUs(out)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	threshold := r.FullNodeThreshold
	if threshold <= 0 {
		threshold = DefaultFullNodeThreshold
	}
	inv := &Inventory{Nodes: nodes}
	for i, n := range list.Items {
		slot := &inv.Nodes[i]
		slot.FreeGPUs = slot.TotalGPUs - slot.UsedGPUs
		if slot.FreeGPUs < 0 {
			slot.FreeGPUs = 0
		}
		if slot.Err != nil {
			logging.Warn("Could not describe node %s: %v", slot.Name, slot.Err)
			slot.FreeGPUs = 0
		}
		slot.Tier = classify(n, *slot, threshold)

		inv.TotalGPUs += slot.TotalGPUs
		if slot.Tier != Unavailable {
			inv.FreeGPUs += slot.FreeGPUs
		}
		if slot.Tier == FullNode {
			inv.FullNodes++
		}
	}
	return inv, nil
}

func gpuCapacity(n corev1.Node) int {
	q, ok := n.Status.Capacity[resources.GPU]
	if !ok {
		return 0
	}
	return int(q.Value())
}

func ready(n corev1.Node) bool {
	for _, c := range n.Status.Conditions {
		if c.Type == corev1.NodeReady {
			return c.Status == corev1.ConditionTrue
		}
	}
	return false
}

func classify(n corev1.Node, a Node, threshold int) Tier {
	switch {
	case !ready(n) || n.Spec.Unschedulable || a.Err != nil:
		return Unavailable
	case a.TotalGPUs == 0:
		return CPUOnly
	case a.FreeGPUs >= threshold:
		return FullNode
	case a.FreeGPUs > 0:
		return Partial
	}
	return FullyOccupied
}

// AllocatedGPUs reads the nvidia.com/gpu request from the "Allocated
// resources" section of "kubectl describe node" output.
func AllocatedGPUs(describe string) int {
	sc := bufio.NewScanner(strings.NewReader(describe))
	in := false
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "Allocated resources:") {
			in = true
			continue
		}
		if !in {
			continue
		}
		if line != "" && line[0] != ' ' && line[0] != '\t' {
			break
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == resources.GPU {
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return 0
			}
			return n
		}
	}
	return 0
}

// Render writes the per-node table and the cluster totals.
func (inv *Inventory) Render(w io.Writer) error {
	t := display.NewTable(w, "GPU Availability", "NODE", "AVAILABILITY", "FREE", "USED", "TOTAL")
	for _, n := range inv.Nodes {
		t.Row(n.Name, n.Tier.String(), strconv.Itoa(n.FreeGPUs), strconv.Itoa(n.UsedGPUs), strconv.Itoa(n.TotalGPUs))
	}
	if err := t.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "GPUs: %d free of %d total, %d full nodes available\n", inv.FreeGPUs, inv.TotalGPUs, inv.FullNodes)
	return err
}
