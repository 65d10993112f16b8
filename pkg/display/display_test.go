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

package display

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestAge(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Second, "0m"},
		{59 * time.Minute, "59m"},
		{90 * time.Minute, "1h"},
		{23 * time.Hour, "23h"},
		{49 * time.Hour, "2d"},
	}
	for _, tc := range tests {
		if got := Age(metav1.NewTime(now.Add(-tc.ago)), now); got != tc.want {
			t.Errorf("Age(%v) = %q, want %q", tc.ago, got, tc.want)
		}
	}
	if got := Age(metav1.Time{}, now); got != "Unknown" {
		t.Errorf("Age(zero) = %q, want Unknown", got)
	}
}

func TestJobPhase(t *testing.T) {
	tests := []struct {
		status batchv1.JobStatus
		want   string
	}{
		{batchv1.JobStatus{Succeeded: 1, Failed: 1}, "Complete"},
		{batchv1.JobStatus{Failed: 1, Active: 1}, "Failed"},
		{batchv1.JobStatus{Active: 1}, "Running"},
		{batchv1.JobStatus{}, "Pending"},
	}
	for _, tc := range tests {
		if got := JobPhase(tc.status); got != tc.want {
			t.Errorf("JobPhase(%+v) = %q, want %q", tc.status, got, tc.want)
		}
	}
	if got := PodStatus(corev1.PodSucceeded); got != "Completed" {
		t.Errorf("PodStatus(Succeeded) = %q", got)
	}
}

func container(req, lim corev1.ResourceList) corev1.Container {
	return corev1.Container{Resources: corev1.ResourceRequirements{Requests: req, Limits: lim}}
}

func TestResources(t *testing.T) {
	c := container(
		corev1.ResourceList{
			"nvidia.com/gpu":      resource.MustParse("8"),
			corev1.ResourceMemory: resource.MustParse("1000Gi"),
		},
		corev1.ResourceList{corev1.ResourceCPU: resource.MustParse("32")},
	)
	if got, want := Resources([]corev1.Container{c}), "8G, 32C, 1000G"; got != want {
		t.Errorf("Resources() = %q, want %q", got, want)
	}
	if got := Resources([]corev1.Container{container(nil, nil)}); got != "N/A" {
		t.Errorf("Resources(empty) = %q, want N/A", got)
	}
	zero := container(corev1.ResourceList{"nvidia.com/gpu": resource.MustParse("0")}, nil)
	if got := Resources([]corev1.Container{zero}); got != "N/A" {
		t.Errorf("Expected a zero GPU request to be hidden, got %q", got)
	}
}

func pod(name, ownerKind string) corev1.Pod {
	p := corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: name}}
	if ownerKind != "" {
		p.OwnerReferences = []metav1.OwnerReference{{Kind: ownerKind}}
	}
	return p
}

func TestGroupPods(t *testing.T) {
	pods := []corev1.Pod{
		pod("bare", ""),
		pod("vllm", "ReplicaSet"),
		pod("train", "Job"),
		pod("agent", "DaemonSet"),
		pod("other", "Node"),
		pod("train-2", "Job"),
	}
	var got [][]string
	for _, g := range GroupPods(pods) {
		names := []string{g.Name}
		for _, p := range g.Pods {
			names = append(names, p.Name)
		}
		got = append(got, names)
	}
	want := [][]string{
		{"Jobs", "train", "train-2"},
		{"Deployments", "vllm"},
		{"DaemonSets", "agent"},
		{"Standalone", "bare", "other"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GroupPods mismatch (-want +got):\n%s", diff)
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, "Jobs", "NAME", "STATUS")
	tbl.Row("cw-axolotl-train-sft", "Running")
	tbl.Row("x", "Pending")
	if err := tbl.Flush(); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("Expected title, header, rule and 2 rows, got %q", buf.String())
	}
	col := strings.Index(lines[3], "Running")
	if col < 0 || strings.Index(lines[4], "Pending") != col {
		t.Errorf("Expected aligned columns:\n%s", buf.String())
	}
	if tbl.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tbl.Len())
	}
}

func TestSummary(t *testing.T) {
	if got := Summary("Jobs in 'default'", 3, 1, 2, 0); got != "Jobs in 'default': 3 total, 1 running, 2 completed" {
		t.Errorf("unexpected summary %q", got)
	}
	if got := Summary("Pods", 3, 1, 1, 1); !strings.HasSuffix(got, ", 1 failed") {
		t.Errorf("Expected failed count, got %q", got)
	}
}
