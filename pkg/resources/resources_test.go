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

package resources

import (
	"testing"

	"cw-cli/pkg/errs"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Requirements
		wantErr bool
	}{
		{"equal gpu counts", Requirements{Limits: List{GPU: "8"}, Requests: List{GPU: "8"}}, false},
		{"different gpu counts", Requirements{Limits: List{GPU: "8"}, Requests: List{GPU: "4"}}, true},
		{"limits only", Requirements{Limits: List{GPU: "2", CPU: "16"}}, false},
		{"requests only", Requirements{Requests: List{Memory: "64Gi"}}, false},
		{"empty", Requirements{}, true},
		{"fractional gpu", Requirements{Limits: List{GPU: "0.5"}}, true},
		{"non-numeric gpu in requests", Requirements{Limits: List{GPU: "8"}, Requests: List{GPU: "eight"}}, true},
		{"bad memory", Requirements{Limits: List{Memory: "lots"}}, true},
		{"millicores", Requirements{Requests: List{CPU: "500m"}}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr {
				var resErr *errs.ResourceError
				if !errors.As(err, &resErr) {
					t.Errorf("Expected ResourceError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Expected valid resources, got %v", err)
			}
		})
	}
}

func TestFromValue(t *testing.T) {
	v := map[string]interface{}{
		"limits":   map[string]interface{}{GPU: 8, CPU: "32", Memory: "1000Gi"},
		"requests": map[string]interface{}{GPU: 8, CPU: 32.5},
	}
	got, err := FromValue(v)
	if err != nil {
		t.Fatalf("FromValue failed: %v", err)
	}
	want := Requirements{
		Limits:   List{GPU: "8", CPU: "32", Memory: "1000Gi"},
		Requests: List{GPU: "8", CPU: "32.5"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FromValue mismatch (-want +got):\n%s", diff)
	}

	if _, err := FromValue("8 gpus"); err == nil {
		t.Error("Expected an error for a scalar resources block")
	}
	if _, err := FromValue(map[string]interface{}{"claims": map[string]interface{}{}}); err == nil {
		t.Error("Expected an error for an unknown tier")
	}
}

func TestUniformAndMerge(t *testing.T) {
	u := Uniform("4", "", "200Gi")
	want := Requirements{Limits: List{GPU: "4", Memory: "200Gi"}, Requests: List{GPU: "4", Memory: "200Gi"}}
	if diff := cmp.Diff(want, u); diff != "" {
		t.Errorf("Uniform mismatch (-want +got):\n%s", diff)
	}
	if !Uniform("", "", "").IsZero() {
		t.Error("Expected an empty Uniform to be zero")
	}

	merged := FullNode().Merge(Uniform("2", "", "512Gi"))
	want = Uniform("2", FullNodeCPU, "512Gi")
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Errorf("Merge mismatch (-want +got):\n%s", diff)
	}
	if FullNode().Limits[GPU] != "8" {
		t.Error("Merge must not mutate its receiver")
	}
	if diff := cmp.Diff(FullNode(), FullNode().Merge(Requirements{})); diff != "" {
		t.Errorf("Merging nothing must keep the block (-want +got):\n%s", diff)
	}
}

func TestFullNodeIsValid(t *testing.T) {
	if err := FullNode().Validate(); err != nil {
		t.Errorf("FullNode() invalid: %v", err)
	}
}

func TestString(t *testing.T) {
	got := Uniform("8", "32", "1000Gi").String()
	if got != "gpu=8 cpu=32 memory=1000Gi" {
		t.Errorf("Unexpected String(): %q", got)
	}
}
