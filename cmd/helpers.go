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
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cw-cli/pkg/errs"
	"cw-cli/pkg/framework"
	"cw-cli/pkg/kubectl"
	"cw-cli/pkg/logging"
	"cw-cli/pkg/manifest"
	"cw-cli/pkg/orchestrator/kube"
	"cw-cli/pkg/status"

	"github.com/pkg/errors"
)

var registry = framework.NewDefaultRegistry()

func newClient() *kubectl.Client {
	return kubectl.New(kubectl.Options{
		Binary:     cfg.Kubectl,
		Kubeconfig: cfg.Kubeconfig,
		Context:    cfg.Context,
		Namespace:  cfg.Namespace,
	})
}

func newOrchestrator(exec kubectl.Executor) *kube.KubeOrchestrator {
	builder := manifest.NewBuilder(manifest.TemplateFS(cfg.TemplateDir))
	return kube.NewKubeOrchestrator(exec, registry, builder, kube.Options{
		SettleDelay:    cfg.SettleDelay,
		WaitForRollout: cfg.WaitForRollout,
		RolloutTimeout: cfg.RolloutTimeout,
		Namespace:      cfg.Namespace,
	})
}

func newFollower(exec kubectl.Executor, out io.Writer) *status.Follower {
	f := status.NewFollower(exec, out)
	f.Interval = cfg.FollowInterval
	f.Timeout = cfg.FollowTimeout
	return f
}

// scope resolves the namespace a listing covers: the command's own flag, then
// the global setting, then the kubeconfig context.
func scope(ns string, all bool) status.Scope {
	if all {
		return status.Scope{AllNamespaces: true}
	}
	if ns == "" {
		ns = cfg.Namespace
	}
	if ns == "" {
		current, err := kubectl.CurrentNamespace(cfg.Kubeconfig, cfg.Context)
		if err != nil {
			logging.Debug("Falling back to the default namespace: %v", err)
			current = "default"
		}
		ns = current
	}
	return status.Scope{Namespace: ns}
}

// requireManaged refuses to act on jobs cw did not create.
func requireManaged(job string) error {
	if !status.IsManaged(job) {
		return &errs.UnmanagedJobError{Name: job}
	}
	return nil
}

// prompter asks questions on an interactive terminal.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// ask prints question and returns the trimmed answer. End of input reads as
// an empty answer.
func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.Wrap(err, "reading answer")
	}
	return strings.TrimSpace(line), nil
}

// confirm defaults to no.
func (p *prompter) confirm(question string) (bool, error) {
	answer, err := p.ask(question + " (y/N): ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// chooseJob picks one of jobs. A single job is taken as is; otherwise the
// user answers with a number, a name or an unambiguous part of a name. An
// empty answer cancels.
func (p *prompter) chooseJob(jobs []string, verb string) (string, error) {
	switch len(jobs) {
	case 0:
		return "", errors.New("no cw jobs found in the current namespace")
	case 1:
		logging.Info("Using job %s", jobs[0])
		return jobs[0], nil
	}

	logging.Info("Available jobs:")
	for i, j := range jobs {
		logging.Plain("  %d. %s", i+1, j)
	}
	answer, err := p.ask(fmt.Sprintf("Select a job to %s (number or name, empty to cancel): ", verb))
	if err != nil {
		return "", err
	}
	if answer == "" {
		return "", errs.ErrCancelled
	}
	if n, err := strconv.Atoi(answer); err == nil {
		if n < 1 || n > len(jobs) {
			return "", errors.Errorf("selection %d is out of range 1-%d", n, len(jobs))
		}
		return jobs[n-1], nil
	}
	var matches []string
	for _, j := range jobs {
		if j == answer {
			return j, nil
		}
		if strings.Contains(j, answer) {
			matches = append(matches, j)
		}
	}
	switch len(matches) {
	case 0:
		return "", errors.Errorf("no job matches %q", answer)
	case 1:
		return matches[0], nil
	}
	return "", errors.Errorf("%q matches several jobs: %s", answer, strings.Join(matches, ", "))
}

// pickJob returns named when given, otherwise asks the user to choose among
// the managed jobs.
func pickJob(ctx context.Context, exec kubectl.Executor, p *prompter, named, verb string) (string, error) {
	if named != "" {
		return named, nil
	}
	jobs, err := status.NewLister(exec, io.Discard).ManagedJobs(ctx)
	if err != nil {
		return "", err
	}
	return p.chooseJob(jobs, verb)
}
