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
	"sort"
	"strconv"
	"strings"
	"time"

	"cw-cli/pkg/display"
	"cw-cli/pkg/kubectl"
	"cw-cli/pkg/logging"
	"cw-cli/pkg/orchestrator"
	"cw-cli/pkg/resources"

	"github.com/pkg/errors"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
)

// ManagedPrefix marks the jobs cw created.
const ManagedPrefix = "cw-"

// IsManaged reports whether job was created by cw.
func IsManaged(job string) bool {
	return strings.HasPrefix(job, ManagedPrefix)
}

// Scope selects the namespaces a listing covers. An empty Namespace means
// the kubeconfig default.
type Scope struct {
	Namespace     string
	AllNamespaces bool
}

func (s Scope) args() []string {
	if s.AllNamespaces {
		return []string{"--all-namespaces"}
	}
	if s.Namespace != "" {
		return []string{"-n", s.Namespace}
	}
	return nil
}

func (s Scope) describe() string {
	if s.AllNamespaces {
		return "all namespaces"
	}
	if s.Namespace == "" {
		return "the current namespace"
	}
	return fmt.Sprintf("namespace '%s'", s.Namespace)
}

// Lister prints jobs, pods and nodes.
type Lister struct {
	exec  kubectl.Executor
	out   io.Writer
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

func NewLister(exec kubectl.Executor, out io.Writer) *Lister {
	return &Lister{exec: exec, out: out, now: time.Now, sleep: orchestrator.Sleep}
}

func (l *Lister) jobs(ctx context.Context, scope Scope) ([]batchv1.Job, error) {
	var list batchv1.JobList
	args := append([]string{"get", "jobs"}, scope.args()...)
	if err := kubectl.GetJSON(ctx, l.exec, &list, args...); err != nil {
		return nil, err
	}
	return list.Items, nil
}

// ManagedJobs returns the names of cw jobs in the current namespace.
func (l *Lister) ManagedJobs(ctx context.Context) ([]string, error) {
	jobs, err := l.jobs(ctx, Scope{})
	if err != nil {
		return nil, err
	}
	var names []string
	for _, j := range jobs {
		if IsManaged(j.Name) {
			names = append(names, j.Name)
		}
	}
	return names, nil
}

// Managed prints the cw jobs of the current namespace.
func (l *Lister) Managed(ctx context.Context) error {
	jobs, err := l.jobs(ctx, Scope{})
	if err != nil {
		return err
	}
	var managed []batchv1.Job
	for _, j := range jobs {
		if IsManaged(j.Name) {
			managed = append(managed, j)
		}
	}
	if len(managed) == 0 {
		logging.Warn("No CW-managed jobs found")
		return nil
	}
	t := display.NewTable(l.out, "CW-Managed Jobs", "JOB", "STATUS", "ACTIVE", "SUCCEEDED", "FAILED", "AGE")
	for _, j := range managed {
		st := j.Status
		t.Row(j.Name, display.JobStatus(st),
			strconv.Itoa(int(st.Active)), strconv.Itoa(int(st.Succeeded)), strconv.Itoa(int(st.Failed)),
			display.Age(j.CreationTimestamp, l.now()))
	}
	return t.Flush()
}

// Jobs prints every job in scope with its completions and a summary line.
func (l *Lister) Jobs(ctx context.Context, scope Scope) error {
	jobs, err := l.jobs(ctx, scope)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		logging.Warn("No jobs found in %s", scope.describe())
		return nil
	}

	cols := []string{"JOB", "STATUS", "COMPLETIONS", "AGE"}
	if scope.AllNamespaces {
		cols = append([]string{"NAMESPACE"}, cols...)
	}
	t := display.NewTable(l.out, "Cluster Jobs", cols...)
	running, completed, failed := 0, 0, 0
	for _, j := range jobs {
		completions := int32(1)
		if j.Spec.Completions != nil {
			completions = *j.Spec.Completions
		}
		row := []string{j.Name, display.JobStatus(j.Status),
			fmt.Sprintf("%d/%d", j.Status.Succeeded, completions),
			display.Age(j.CreationTimestamp, l.now())}
		if scope.AllNamespaces {
			row = append([]string{j.Namespace}, row...)
		}
		t.Row(row...)

		switch display.JobPhase(j.Status) {
		case "Running":
			running++
		case "Complete":
			completed++
		case "Failed":
			failed++
		}
	}
	if err := t.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(l.out, display.Summary("Jobs in "+scope.describe(), len(jobs), running, completed, failed))
	return nil
}

// PodsOptions controls Pods.
type PodsOptions struct {
	Resources bool
	Watch     bool
	Interval  time.Duration
}

// Pods prints the pods in scope grouped by owner kind. With Watch it redraws
// every Interval until ctx is cancelled.
func (l *Lister) Pods(ctx context.Context, scope Scope, opts PodsOptions) error {
	if !opts.Watch {
		return l.pods(ctx, scope, opts)
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	for {
		fmt.Fprint(l.out, "\033[H\033[2J")
		fmt.Fprintln(l.out, "Watching pods... (Press Ctrl+C to stop)")
		if err := l.pods(ctx, scope, opts); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if l.sleep(ctx, interval) != nil {
			return nil
		}
	}
}

func (l *Lister) pods(ctx context.Context, scope Scope, opts PodsOptions) error {
	var list corev1.PodList
	args := append([]string{"get", "pods"}, scope.args()...)
	if err := kubectl.GetJSON(ctx, l.exec, &list, args...); err != nil {
		return err
	}
	if len(list.Items) == 0 {
		logging.Warn("No pods found in %s", scope.describe())
		return nil
	}

	cols := []string{"POD", "STATUS", "READY", "AGE", "NODE"}
	if scope.AllNamespaces {
		cols = append([]string{"NAMESPACE"}, cols...)
	}
	if opts.Resources {
		cols = append(cols, "RESOURCES")
	}
	counts := map[corev1.PodPhase]int{}
	for _, g := range display.GroupPods(list.Items) {
		t := display.NewTable(l.out, fmt.Sprintf("%s (%d pods)", g.Name, len(g.Pods)), cols...)
		for _, p := range g.Pods {
			counts[p.Status.Phase]++
			row := []string{p.Name, display.PodStatus(p.Status.Phase), display.Ready(p),
				display.Age(p.CreationTimestamp, l.now()), display.OrNA(p.Spec.NodeName)}
			if scope.AllNamespaces {
				row = append([]string{p.Namespace}, row...)
			}
			if opts.Resources {
				row = append(row, display.Resources(p.Spec.Containers))
			}
			t.Row(row...)
		}
		if err := t.Flush(); err != nil {
			return err
		}
	}
	summary := display.Summary("Pods in "+scope.describe(), len(list.Items),
		counts[corev1.PodRunning], counts[corev1.PodSucceeded], counts[corev1.PodFailed])
	fmt.Fprintf(l.out, "%s (Updated: %s)\n", summary, l.now().Format("15:04:05"))
	return nil
}

// NodeInfo is the capacity summary of one node.
type NodeInfo struct {
	Name     string
	Ready    bool
	GPUs     int64
	GPUType  string
	CPUs     int64
	MemoryGB int64
	OS       string
}

// ClusterOverview aggregates NodeInfo over the cluster.
type ClusterOverview struct {
	Nodes      []NodeInfo
	ReadyNodes int
	GPUs       int64
	GPUTypes   []string
	CPUs       int64
	MemoryGB   int64
}

var gpuModels = []string{"H100", "A100", "V100", "RTX"}

// gpuType reads the accelerator model from the first gpu or accelerator
// label, in key order.
func gpuType(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lk := strings.ToLower(k)
		if !strings.Contains(lk, "gpu") && !strings.Contains(lk, "accelerator") {
			continue
		}
		v := strings.ToUpper(labels[k])
		for _, m := range gpuModels {
			if strings.Contains(v, m) {
				return m
			}
		}
		return ""
	}
	return ""
}

func nodeReady(n corev1.Node) bool {
	for _, c := range n.Status.Conditions {
		if c.Type == corev1.NodeReady {
			return c.Status == corev1.ConditionTrue
		}
	}
	return false
}

// Overview summarizes node capacity.
func Overview(nodes []corev1.Node) ClusterOverview {
	var o ClusterOverview
	types := map[string]bool{}
	for _, n := range nodes {
		info := NodeInfo{Name: n.Name, Ready: nodeReady(n), GPUType: gpuType(n.Labels)}
		if q, ok := n.Status.Capacity[resources.GPU]; ok {
			info.GPUs = q.Value()
		}
		info.CPUs = n.Status.Capacity.Cpu().Value()
		info.MemoryGB = n.Status.Capacity.Memory().Value() >> 30
		if fields := strings.Fields(n.Status.NodeInfo.OSImage); len(fields) > 0 {
			info.OS = fields[0]
		}

		if info.Ready {
			o.ReadyNodes++
		}
		o.GPUs += info.GPUs
		o.CPUs += info.CPUs
		o.MemoryGB += info.MemoryGB
		switch {
		case info.GPUType != "":
			types[info.GPUType] = true
		case info.GPUs > 0:
			types["GPU"] = true
		}
		o.Nodes = append(o.Nodes, info)
	}
	for t := range types {
		o.GPUTypes = append(o.GPUTypes, t)
	}
	sort.Strings(o.GPUTypes)
	return o
}

// Nodes prints the cluster overview and a node table; showOS adds the OS column.
func (l *Lister) Nodes(ctx context.Context, showOS bool) error {
	var list corev1.NodeList
	if err := kubectl.GetJSON(ctx, l.exec, &list, "get", "nodes"); err != nil {
		return err
	}
	if len(list.Items) == 0 {
		return errors.New("no nodes found in cluster")
	}
	o := Overview(list.Items)

	gpuTypes := "None"
	if len(o.GPUTypes) > 0 {
		gpuTypes = strings.Join(o.GPUTypes, ", ")
	}
	fmt.Fprintln(l.out, "Cluster Overview")
	fmt.Fprintf(l.out, "  Nodes: %d/%d ready\n", o.ReadyNodes, len(o.Nodes))
	fmt.Fprintf(l.out, "  GPUs: %d total (%s)\n", o.GPUs, gpuTypes)
	fmt.Fprintf(l.out, "  CPUs: %d total\n", o.CPUs)
	fmt.Fprintf(l.out, "  Memory: %dGB total\n\n", o.MemoryGB)

	cols := []string{"NODE", "STATUS", "GPU", "CPU", "MEMORY"}
	if showOS {
		cols = append(cols, "OS")
	}
	t := display.NewTable(l.out, "Nodes", cols...)
	for _, n := range o.Nodes {
		status := "NotReady"
		if n.Ready {
			status = "Ready"
		}
		gpu := strconv.FormatInt(n.GPUs, 10)
		if n.GPUType != "" {
			gpu += " " + n.GPUType
		}
		row := []string{n.Name, status, gpu, strconv.FormatInt(n.CPUs, 10), fmt.Sprintf("%dGB", n.MemoryGB)}
		if showOS {
			row = append(row, display.OrNA(n.OS))
		}
		t.Row(row...)
	}
	return t.Flush()
}
