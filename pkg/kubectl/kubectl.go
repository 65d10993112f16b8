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

// Package kubectl runs cluster commands through the kubectl binary. Every
// invocation is echoed to the log stream before it runs.
package kubectl

import (
	"context"
	"io"
	"os"
	"strings"

	"cw-cli/pkg/errs"
	"cw-cli/pkg/logging"
	"cw-cli/pkg/shell"

	"github.com/pkg/errors"
	utiljson "k8s.io/apimachinery/pkg/util/json"
	"k8s.io/client-go/tools/clientcmd"
)

// previewLimit bounds how much of a stdin payload is echoed.
const previewLimit = 100

// Executor runs kubectl subcommands.
type Executor interface {
	// Run executes args and returns stdout.
	Run(ctx context.Context, args ...string) (string, error)
	// RunWithInput executes args with input on stdin and returns stdout.
	RunWithInput(ctx context.Context, input string, args ...string) (string, error)
	// Stream executes args writing stdout to out as it is produced.
	Stream(ctx context.Context, out io.Writer, args ...string) error
}

// Options configures a Client. Empty fields fall back to kubectl's own defaults.
type Options struct {
	Binary     string
	Kubeconfig string
	Context    string
	Namespace  string
}

// Client is the Executor backed by the kubectl binary.
type Client struct {
	opts Options
}

// New returns a Client for opts.
func New(opts Options) *Client {
	if opts.Binary == "" {
		opts.Binary = "kubectl"
	}
	return &Client{opts: opts}
}

// Namespace is the namespace commands are scoped to, or "" for the kubeconfig default.
func (c *Client) Namespace() string {
	return c.opts.Namespace
}

func (c *Client) args(args []string) []string {
	var global []string
	if c.opts.Kubeconfig != "" {
		global = append(global, "--kubeconfig", c.opts.Kubeconfig)
	}
	if c.opts.Context != "" {
		global = append(global, "--context", c.opts.Context)
	}
	if c.opts.Namespace != "" && !hasNamespaceFlag(args) {
		global = append(global, "--namespace", c.opts.Namespace)
	}
	return append(global, args...)
}

func hasNamespaceFlag(args []string) bool {
	for _, a := range args {
		if a == "--" {
			return false
		}
		if a == "-n" || a == "-A" || a == "--all-namespaces" || strings.HasPrefix(a, "--namespace") {
			return true
		}
	}
	return false
}

func (c *Client) Run(ctx context.Context, args ...string) (string, error) {
	return c.RunWithInput(ctx, "", args...)
}

func (c *Client) RunWithInput(ctx context.Context, input string, args ...string) (string, error) {
	full := c.args(args)
	Echo(c.opts.Binary, full, input)
	res := shell.NewCommand(c.opts.Binary, full...).SetInput(input).ExecuteContext(ctx)
	if res.ExitCode != 0 {
		return res.Stdout, &errs.ClusterCommandError{Args: args, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return res.Stdout, nil
}

func (c *Client) Stream(ctx context.Context, out io.Writer, args ...string) error {
	full := c.args(args)
	Echo(c.opts.Binary, full, "")
	res := shell.NewCommand(c.opts.Binary, full...).SetOutput(out, os.Stderr).ExecuteContext(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if res.ExitCode != 0 {
		return &errs.ClusterCommandError{Args: args, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return nil
}

// Echo writes the command line to the log stream, followed by a bounded
// preview of the stdin payload when there is one.
func Echo(binary string, args []string, input string) {
	line := "$ " + shell.NewCommand(binary, args...).String()
	if input != "" {
		line += " <<< " + Preview(input)
	}
	logging.Command(line)
}

// Preview truncates input to its first 100 characters, appending "..." when
// truncated, and flattens newlines to spaces.
func Preview(input string) string {
	r := []rune(input)
	p := input
	if len(r) > previewLimit {
		p = string(r[:previewLimit]) + "..."
	}
	return strings.ReplaceAll(p, "\n", " ")
}

// Apply pipes manifest to "kubectl apply -f -".
func Apply(ctx context.Context, e Executor, manifest string) (string, error) {
	return e.RunWithInput(ctx, manifest, "apply", "-f", "-")
}

// Delete pipes manifest to "kubectl delete -f -".
func Delete(ctx context.Context, e Executor, manifest string) (string, error) {
	return e.RunWithInput(ctx, manifest, "delete", "-f", "-")
}

// GetJSON runs a "get ... -o json" style command and decodes stdout into into.
func GetJSON(ctx context.Context, e Executor, into interface{}, args ...string) error {
	full := append(append([]string{}, args...), "-o", "json")
	out, err := e.Run(ctx, full...)
	if err != nil {
		return err
	}
	if err := utiljson.Unmarshal([]byte(out), into); err != nil {
		return errors.Wrapf(err, "decoding output of kubectl %s", strings.Join(args, " "))
	}
	return nil
}

// CurrentNamespace resolves the namespace of the active (or named) kubeconfig
// context, defaulting to "default".
func CurrentNamespace(kubeconfig, kubeContext string) (string, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfig != "" {
		rules.ExplicitPath = kubeconfig
	}
	overrides := &clientcmd.ConfigOverrides{CurrentContext: kubeContext}
	ns, _, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).Namespace()
	if err != nil {
		return "", errors.Wrap(err, "resolving kubeconfig namespace")
	}
	return ns, nil
}
