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

package shell

import (
	"bytes"
	"context"
	"testing"
)

func TestExecuteContextCapturesOutputAndExitCode(t *testing.T) {
	res := NewCommand("sh", "-c", "echo out; echo err 1>&2; exit 3").ExecuteContext(context.Background())
	if res.ExitCode != 3 {
		t.Errorf("Expected exit code 3, got %d", res.ExitCode)
	}
	if res.Stdout != "out\n" {
		t.Errorf("Expected stdout %q, got %q", "out\n", res.Stdout)
	}
	if res.Stderr != "err\n" {
		t.Errorf("Expected stderr %q, got %q", "err\n", res.Stderr)
	}
}

func TestSetInputFeedsStdin(t *testing.T) {
	res := NewCommand("cat").SetInput("kind: ConfigMap\n").ExecuteContext(context.Background())
	if res.ExitCode != 0 {
		t.Fatalf("cat failed: %s", res.Stderr)
	}
	if res.Stdout != "kind: ConfigMap\n" {
		t.Errorf("Expected stdin to be echoed, got %q", res.Stdout)
	}
}

func TestSetOutputStreams(t *testing.T) {
	var out bytes.Buffer
	res := NewCommand("sh", "-c", "echo streamed").SetOutput(&out, nil).ExecuteContext(context.Background())
	if res.ExitCode != 0 {
		t.Fatalf("unexpected exit code %d", res.ExitCode)
	}
	if out.String() != "streamed\n" {
		t.Errorf("Expected streamed output, got %q", out.String())
	}
	if res.Stdout != "" {
		t.Errorf("Expected nothing captured when streaming, got %q", res.Stdout)
	}
}

func TestMissingBinary(t *testing.T) {
	res := NewCommand("definitely-not-a-real-binary-cw").ExecuteContext(context.Background())
	if res.ExitCode != -1 {
		t.Errorf("Expected exit code -1 for missing binary, got %d", res.ExitCode)
	}
	if res.Stderr == "" {
		t.Error("Expected the start error in Stderr")
	}
}

func TestExecuteContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := NewCommand("sleep", "5").ExecuteContext(ctx)
	if res.ExitCode == 0 {
		t.Error("Expected a cancelled command to fail")
	}
}

func TestString(t *testing.T) {
	got := NewCommand("kubectl", "get", "pods").String()
	if got != "kubectl get pods" {
		t.Errorf("Expected %q, got %q", "kubectl get pods", got)
	}
}
