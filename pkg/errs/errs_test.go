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

package errs

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "configuration with path",
			err:  &ConfigurationError{Path: "sft.yaml", Reason: "base_model is required"},
			want: "configuration error in sft.yaml: base_model is required",
		},
		{
			name: "unknown framework",
			err:  &FrameworkError{Framework: "trl"},
			want: `unknown framework "trl"`,
		},
		{
			name: "deployment",
			err:  &DeploymentError{Step: "Rewards Server", Err: errors.New("boom")},
			want: "failed to deploy Rewards Server: boom",
		},
		{
			name: "cluster command",
			err:  &ClusterCommandError{Args: []string{"apply", "-f", "-"}, ExitCode: 1, Stderr: "forbidden\n"},
			want: "kubectl apply -f - failed with exit code 1: forbidden",
		},
		{
			name: "resource",
			err:  &ResourceError{Reason: "gpu limit 8 != request 4"},
			want: "invalid resources: gpu limit 8 != request 4",
		},
		{
			name: "not found",
			err:  &NotFoundError{Kind: "job", Name: "cw-x"},
			want: `job "cw-x" not found`,
		},
		{
			name: "unmanaged",
			err:  &UnmanagedJobError{Name: "etl"},
			want: `"etl" is not a cw-managed job`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.Error(); got != tc.want {
				t.Errorf("Expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cmdErr := &ClusterCommandError{Args: []string{"apply"}, ExitCode: 1}
	err := errors.Wrap(&DeploymentError{Step: "VLLM Server", Err: cmdErr}, "grpo")

	var got *ClusterCommandError
	if !errors.As(err, &got) || got != cmdErr {
		t.Error("Expected ClusterCommandError to be reachable through the chain")
	}

	tplErr := &TemplateError{Path: "axolotl/sft_job.yaml", Err: ErrTemplateNotFound}
	if !errors.Is(tplErr, ErrTemplateNotFound) {
		t.Error("Expected TemplateError to wrap ErrTemplateNotFound")
	}
}

func TestSuggestion(t *testing.T) {
	if got := Suggestion(&ConfigurationError{Err: ErrConfigNotFound}); !strings.Contains(got, "path") {
		t.Errorf("Expected a path hint, got %q", got)
	}
	if got := Suggestion(&ConfigurationError{Reason: "bad"}); !strings.Contains(got, "YAML") {
		t.Errorf("Expected a YAML hint, got %q", got)
	}
	if got := Suggestion(&FrameworkError{Framework: "axolot", Suggestion: "Did you mean \"axolotl\"?"}); got != "Did you mean \"axolotl\"?" {
		t.Errorf("Expected the carried suggestion, got %q", got)
	}
	if got := Suggestion(errors.Wrap(&NotFoundError{Kind: "job", Name: "x"}, "describe")); !strings.Contains(got, "cw list") {
		t.Errorf("Expected a listing hint, got %q", got)
	}
	if got := Suggestion(errors.New("plain")); got != "" {
		t.Errorf("Expected no suggestion for a plain error, got %q", got)
	}
}
