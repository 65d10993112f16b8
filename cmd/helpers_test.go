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

package cmd

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"cw-cli/pkg/errs"
	"cw-cli/pkg/logging"
	"cw-cli/pkg/status"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
)

func TestMain(m *testing.M) {
	logging.SetOutput(io.Discard)
	color.NoColor = true
	os.Exit(m.Run())
}

func TestChooseJob(t *testing.T) {
	jobs := []string{"cw-axolotl-train-sft", "cw-axolotl-train-grpo", "cw-verifiers-train-grpo"}
	tests := []struct {
		name    string
		jobs    []string
		input   string
		want    string
		wantErr bool
	}{
		{name: "single job needs no answer", jobs: jobs[:1], want: "cw-axolotl-train-sft"},
		{name: "by number", jobs: jobs, input: "2\n", want: "cw-axolotl-train-grpo"},
		{name: "by name", jobs: jobs, input: "cw-verifiers-train-grpo\n", want: "cw-verifiers-train-grpo"},
		{name: "unambiguous part", jobs: jobs, input: "verifiers\n", want: "cw-verifiers-train-grpo"},
		{name: "ambiguous part", jobs: jobs, input: "grpo\n", wantErr: true},
		{name: "out of range", jobs: jobs, input: "4\n", wantErr: true},
		{name: "no match", jobs: jobs, input: "dpo\n", wantErr: true},
		{name: "no jobs", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := newPrompter(strings.NewReader(tc.input), io.Discard)
			got, err := p.chooseJob(tc.jobs, "view")
			if tc.wantErr {
				if err == nil {
					t.Errorf("Expected an error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("chooseJob() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestChooseJobEmptyAnswerCancels(t *testing.T) {
	for _, input := range []string{"\n", ""} {
		p := newPrompter(strings.NewReader(input), io.Discard)
		if _, err := p.chooseJob([]string{"cw-a", "cw-b"}, "delete"); err != errs.ErrCancelled {
			t.Errorf("input %q: expected ErrCancelled, got %v", input, err)
		}
	}
}

func TestConfirm(t *testing.T) {
	tests := map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false, "": false, "maybe\n": false}
	for input, want := range tests {
		var prompt strings.Builder
		got, err := newPrompter(strings.NewReader(input), &prompt).confirm("Delete job cw-x?")
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("confirm(%q) = %t, want %t", input, got, want)
		}
		if prompt.String() != "Delete job cw-x? (y/N): " {
			t.Errorf("Unexpected prompt %q", prompt.String())
		}
	}
}

func TestRequireManaged(t *testing.T) {
	if err := requireManaged("cw-axolotl-train-sft"); err != nil {
		t.Errorf("Expected cw- jobs to pass, got %v", err)
	}
	err := requireManaged("kube-proxy")
	if _, ok := err.(*errs.UnmanagedJobError); !ok {
		t.Errorf("Expected UnmanagedJobError, got %v", err)
	}
}

func TestDeletePrompt(t *testing.T) {
	if p := deletePrompt("cw-axolotl-train-grpo"); !strings.Contains(p, "associated services") {
		t.Errorf("Expected services in the GRPO prompt, got %q", p)
	}
	if p := deletePrompt("cw-axolotl-train-sft"); strings.Contains(p, "services") {
		t.Errorf("Expected no services in the SFT prompt, got %q", p)
	}
}

func TestOutputFormat(t *testing.T) {
	f := outputFormat(status.FormatTable)
	if err := f.Set("YAML"); err != nil {
		t.Fatal(err)
	}
	if f.String() != "yaml" {
		t.Errorf("Expected yaml, got %q", f.String())
	}
	if err := f.Set("xml"); err == nil {
		t.Error("Expected xml to be rejected")
	}
	if f.String() != "yaml" {
		t.Errorf("Expected a rejected value to leave the format unchanged, got %q", f.String())
	}
}

func TestExitCode(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want int
	}{
		{"success", context.Background(), nil, 0},
		{"declined prompt", context.Background(), errs.ErrCancelled, 0},
		{"interrupted", cancelled, &errs.ClusterCommandError{Args: []string{"logs"}, ExitCode: -1}, 0},
		{"failure", context.Background(), &errs.ConfigurationError{Reason: "bad"}, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := exitCode(tc.ctx, tc.err); got != tc.want {
				t.Errorf("exitCode() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestCommandTree(t *testing.T) {
	var got []string
	for _, path := range [][]string{
		{"axolotl", "sft"},
		{"axolotl", "grpo", "train"},
		{"axolotl", "grpo", "restart"},
		{"axolotl", "grpo", "cleanup"},
		{"verifiers", "grpo"},
		{"verifiers", "cleanup"},
		{"logs"}, {"describe"}, {"delete"}, {"list"}, {"jobs"}, {"pods"}, {"nodes"}, {"resources"}, {"gpu"},
	} {
		c, rest, err := rootCmd.Find(path)
		if err != nil || len(rest) != 0 || c.Name() != path[len(path)-1] {
			got = append(got, strings.Join(path, " "))
		}
	}
	if diff := cmp.Diff([]string(nil), got); diff != "" {
		t.Errorf("commands not found (-want +got):\n%s", diff)
	}
}
