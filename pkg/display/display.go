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

// Package display formats cluster objects as aligned text tables.
package display

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"cw-cli/pkg/resources"

	"github.com/fatih/color"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	green      = color.New(color.FgGreen)
	red        = color.New(color.FgRed)
	cyan       = color.New(color.FgCyan)
	yellow     = color.New(color.FgYellow)
	white      = color.New(color.FgWhite)
)

// Table writes a titled, tab-aligned table.
type Table struct {
	out   io.Writer
	w     *tabwriter.Writer
	title string
	rows  int
}

// NewTable starts a table on out with a title line and a header row.
func NewTable(out io.Writer, title string, columns ...string) *Table {
	t := &Table{
		out:   out,
		w:     tabwriter.NewWriter(out, 0, 0, 2, ' ', 0),
		title: title,
	}
	if title != "" {
		fmt.Fprintln(out, titleColor.Sprint(title))
	}
	t.line(columns)
	dashes := make([]string, len(columns))
	for i, c := range columns {
		dashes[i] = strings.Repeat("-", len(c))
	}
	t.line(dashes)
	return t
}

func (t *Table) line(cells []string) {
	fmt.Fprintln(t.w, strings.Join(cells, "\t"))
}

// Row appends a row.
func (t *Table) Row(cells ...string) {
	t.line(cells)
	t.rows++
}

// Len is the number of rows written so far.
func (t *Table) Len() int { return t.rows }

// Flush aligns and writes the buffered rows.
func (t *Table) Flush() error {
	if err := t.w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(t.out)
	return err
}

// Age formats the time elapsed since created as minutes, hours or days.
func Age(created metav1.Time, now time.Time) string {
	if created.IsZero() {
		return "Unknown"
	}
	d := now.Sub(created.Time)
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// JobPhase summarizes a job status. Succeeded wins over failed, which wins
// over active.
func JobPhase(s batchv1.JobStatus) string {
	switch {
	case s.Succeeded > 0:
		return "Complete"
	case s.Failed > 0:
		return "Failed"
	case s.Active > 0:
		return "Running"
	}
	return "Pending"
}

// JobStatus is JobPhase colored for a terminal.
func JobStatus(s batchv1.JobStatus) string {
	return paint(JobPhase(s))
}

// PodStatus colors a pod phase; Succeeded is shown as Completed.
func PodStatus(phase corev1.PodPhase) string {
	switch phase {
	case corev1.PodSucceeded:
		return paint("Completed")
	case "":
		return paint("Unknown")
	}
	return paint(string(phase))
}

// paint applies one foreground color per label so escape sequences have the
// same width in every cell of a column.
func paint(label string) string {
	switch label {
	case "Complete", "Completed":
		return green.Sprint(label)
	case "Failed":
		return red.Sprint(label)
	case "Running":
		return cyan.Sprint(label)
	case "Pending":
		return yellow.Sprint(label)
	}
	return white.Sprint(label)
}

// Resources renders container requests compactly, e.g. "8G, 32C, 1000G".
// Requests take precedence over limits.
func Resources(containers []corev1.Container) string {
	var parts []string
	for _, c := range containers {
		get := func(name corev1.ResourceName) string {
			if q, ok := c.Resources.Requests[name]; ok {
				return q.String()
			}
			if q, ok := c.Resources.Limits[name]; ok {
				return q.String()
			}
			return ""
		}
		if gpu := get(resources.GPU); gpu != "" && gpu != "0" {
			parts = append(parts, gpu+"G")
		}
		if cpu := get(corev1.ResourceCPU); cpu != "" {
			parts = append(parts, cpu+"C")
		}
		if mem := get(corev1.ResourceMemory); mem != "" {
			mem = strings.NewReplacer("Gi", "G", "Mi", "M").Replace(mem)
			parts = append(parts, mem)
		}
	}
	if len(parts) == 0 {
		return "N/A"
	}
	return strings.Join(parts, ", ")
}

// Summary is the one-line count shown under listings.
func Summary(context string, total, running, completed, failed int) string {
	s := fmt.Sprintf("%s: %d total, %d running, %d completed", context, total, running, completed)
	if failed > 0 {
		s += fmt.Sprintf(", %d failed", failed)
	}
	return s
}

// Pod groups, in display order.
const (
	GroupJobs         = "Jobs"
	GroupDeployments  = "Deployments"
	GroupDaemonSets   = "DaemonSets"
	GroupStatefulSets = "StatefulSets"
	GroupStandalone   = "Standalone"
)

var groupOrder = []string{GroupJobs, GroupDeployments, GroupDaemonSets, GroupStatefulSets, GroupStandalone}

// PodGroup is a set of pods sharing an owner kind.
type PodGroup struct {
	Name string
	Pods []corev1.Pod
}

// OwnerGroup classifies a pod by the kind of its first owner reference.
func OwnerGroup(pod corev1.Pod) string {
	if len(pod.OwnerReferences) == 0 {
		return GroupStandalone
	}
	switch pod.OwnerReferences[0].Kind {
	case "Job":
		return GroupJobs
	case "ReplicaSet", "Deployment":
		return GroupDeployments
	case "DaemonSet":
		return GroupDaemonSets
	case "StatefulSet":
		return GroupStatefulSets
	}
	return GroupStandalone
}

// GroupPods returns the non-empty groups in display order, keeping the input
// order of pods inside a group.
func GroupPods(pods []corev1.Pod) []PodGroup {
	byName := map[string][]corev1.Pod{}
	for _, p := range pods {
		g := OwnerGroup(p)
		byName[g] = append(byName[g], p)
	}
	var groups []PodGroup
	for _, name := range groupOrder {
		if len(byName[name]) > 0 {
			groups = append(groups, PodGroup{Name: name, Pods: byName[name]})
		}
	}
	return groups
}

// Ready is "ready/total" over the pod's container statuses.
func Ready(pod corev1.Pod) string {
	ready := 0
	for _, cs := range pod.Status.ContainerStatuses {
		if cs.Ready {
			ready++
		}
	}
	return fmt.Sprintf("%d/%d", ready, len(pod.Status.ContainerStatuses))
}

// OrNA substitutes "N/A" for an empty string.
func OrNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
