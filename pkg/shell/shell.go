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
	"io"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// CommandResult holds the captured outcome of a process.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Command is a process invocation under construction.
type Command struct {
	name   string
	args   []string
	input  string
	stdout io.Writer
	stderr io.Writer
}

// NewCommand returns a command for name with args.
func NewCommand(name string, args ...string) *Command {
	return &Command{name: name, args: args}
}

// SetInput feeds s to the process on stdin.
func (c *Command) SetInput(s string) *Command {
	c.input = s
	return c
}

// SetOutput streams stdout and stderr to the given writers instead of
// capturing them. Either may be nil to keep capturing that stream.
func (c *Command) SetOutput(stdout, stderr io.Writer) *Command {
	c.stdout = stdout
	c.stderr = stderr
	return c
}

// String renders the command line as typed by a user.
func (c *Command) String() string {
	return strings.Join(append([]string{c.name}, c.args...), " ")
}

// ExecuteContext runs the command and waits for it. A process that cannot be
// started, or is killed through ctx, is reported with ExitCode -1 and the
// cause in Stderr.
func (c *Command) ExecuteContext(ctx context.Context) CommandResult {
	cmd := exec.CommandContext(ctx, c.name, c.args...)
	if c.input != "" {
		cmd.Stdin = strings.NewReader(c.input)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if c.stdout != nil {
		cmd.Stdout = c.stdout
	}
	cmd.Stderr = &stderr
	if c.stderr != nil {
		cmd.Stderr = io.MultiWriter(c.stderr, &stderr)
	}

	err := cmd.Run()
	res := CommandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		res.ExitCode = exitErr.ExitCode()
		return res
	}
	res.ExitCode = -1
	if res.Stderr == "" {
		res.Stderr = err.Error()
	}
	return res
}
