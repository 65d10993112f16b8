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
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"cw-cli/pkg/display"
	"cw-cli/pkg/errs"
	"cw-cli/pkg/kubectl"
	"cw-cli/pkg/orchestrator"

	"github.com/pkg/errors"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/yaml"
)

// DefaultWatchInterval is the dashboard refresh period.
const DefaultWatchInterval = 2 * time.Second

// Format selects how the dashboard is written.
type Format string

const (
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
	FormatJSON  Format = "json"
)

// Formats lists the accepted output formats.
var Formats = []Format{FormatTable, FormatYAML, FormatJSON}

// Snapshot is the state of a job and its pods at one point in time. The raw
// documents are kept as kubectl returned them.
type Snapshot struct {
	JobDoc  map[string]interface{}
	PodsDoc map[string]interface{}
	Job     batchv1.Job
	Pods    corev1.PodList
}

// RunOptions controls Dashboard.Run.
type RunOptions struct {
	Watch    bool
	Output   Format
	Interval time.Duration
}

// Dashboard renders job status.
type Dashboard struct {
	exec  kubectl.Executor
	out   io.Writer
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewDashboard returns a Dashboard writing to out.
func NewDashboard(exec kubectl.Executor, out io.Writer) *Dashboard {
	return &Dashboard{exec: exec, out: out, now: time.Now, sleep: orchestrator.Sleep}
}

// Snapshot fetches the job and its pods. A job the API server reports as
// missing becomes a NotFoundError; any other kubectl failure is returned as is.
func (d *Dashboard) Snapshot(ctx context.Context, job string) (*Snapshot, error) {
	s := &Snapshot{}
	if err := kubectl.GetJSON(ctx, d.exec, &s.JobDoc, "get", "job", job); err != nil {
		if isNotFound(err) {
			return nil, errors.Wrap(&errs.NotFoundError{Kind: "job", Name: job}, err.Error())
		}
		return nil, errors.Wrapf(err, "getting job %s", job)
	}
	if err := kubectl.GetJSON(ctx, d.exec, &s.PodsDoc, "get", "pods", "-l", jobSelector(job)); err != nil {
		return nil, err
	}
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(s.JobDoc, &s.Job); err != nil {
		return nil, errors.Wrapf(err, "decoding job %s", job)
	}
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(s.PodsDoc, &s.Pods); err != nil {
		return nil, errors.Wrapf(err, "decoding pods of job %s", job)
	}
	return s, nil
}

// Run shows the status of job. Structured output prints both raw documents
// once and ignores Watch. Watch redraws the table every Interval until ctx is
// cancelled.
func (d *Dashboard) Run(ctx context.Context, job string, opts RunOptions) error {
	snap, err := d.Snapshot(ctx, job)
	if err != nil {
		return err
	}

	switch opts.Output {
	case FormatYAML, FormatJSON:
		return d.writeDocuments(snap, opts.Output)
	}

	if !opts.Watch {
		return d.Render(snap)
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	for {
		fmt.Fprint(d.out, "\033[H\033[2J")
		fmt.Fprintln(d.out, "Watching job status... (Press Ctrl+C to stop)")
		if err := d.Render(snap); err != nil {
			return err
		}
		if d.sleep(ctx, interval) != nil {
			return nil
		}
		if snap, err = d.Snapshot(ctx, job); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (d *Dashboard) writeDocuments(snap *Snapshot, format Format) error {
	for _, part := range []struct {
		title string
		doc   map[string]interface{}
	}{{"# Job Data", snap.JobDoc}, {"# Pod Data", snap.PodsDoc}} {
		var out []byte
		var err error
		if format == FormatJSON {
			out, err = json.MarshalIndent(part.doc, "", "  ")
		} else {
			out, err = yaml.Marshal(part.doc)
		}
		if err != nil {
			return errors.Wrapf(err, "encoding %s", format)
		}
		fmt.Fprintln(d.out, part.title)
		fmt.Fprintln(d.out, string(out))
	}
	return nil
}

// Render writes the job table, its conditions and its pods.
func (d *Dashboard) Render(snap *Snapshot) error {
	st := snap.Job.Status
	t := display.NewTable(d.out, "Job Status", "METRIC", "VALUE")
	t.Row("Job Name", snap.Job.Name)
	t.Row("Status", display.JobStatus(st))
	t.Row("Active", strconv.Itoa(int(st.Active)))
	t.Row("Succeeded", strconv.Itoa(int(st.Succeeded)))
	t.Row("Failed", strconv.Itoa(int(st.Failed)))
	t.Row("Updated", d.now().Format("15:04:05"))
	if err := t.Flush(); err != nil {
		return err
	}

	if len(st.Conditions) > 0 {
		t = display.NewTable(d.out, "Job Conditions", "TYPE", "STATUS", "REASON")
		for _, c := range st.Conditions {
			t.Row(string(c.Type), string(c.Status), display.OrNA(c.Reason))
		}
		if err := t.Flush(); err != nil {
			return err
		}
	}

	if len(snap.Pods.Items) > 0 {
		t = display.NewTable(d.out, "Pods", "POD", "STATUS", "NODE", "RESOURCES")
		for _, p := range snap.Pods.Items {
			t.Row(p.Name, display.PodStatus(p.Status.Phase), display.OrNA(p.Spec.NodeName), display.Resources(p.Spec.Containers))
		}
		return t.Flush()
	}
	return nil
}

func isNotFound(err error) bool {
	var cmdErr *errs.ClusterCommandError
	return errors.As(err, &cmdErr) && strings.Contains(cmdErr.Stderr, "NotFound")
}
