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

package kube

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cw-cli/pkg/config"
	"cw-cli/pkg/errs"
	"cw-cli/pkg/framework"
	"cw-cli/pkg/kubectl"
	"cw-cli/pkg/logging"
	"cw-cli/pkg/manifest"
	"cw-cli/pkg/orchestrator"

	"github.com/pkg/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// DefaultSettleDelay is the wait between consecutive services.
const DefaultSettleDelay = 10 * time.Second

// Options tunes a KubeOrchestrator.
type Options struct {
	// SettleDelay is the blind wait between consecutive steps.
	SettleDelay time.Duration
	// WaitForRollout replaces the blind wait after a Deployment step with
	// "kubectl rollout status".
	WaitForRollout bool
	RolloutTimeout time.Duration
	Namespace      string
}

// KubeOrchestrator implements orchestrator.Orchestrator with kubectl.
type KubeOrchestrator struct {
	exec     kubectl.Executor
	registry *framework.Registry
	builder  *manifest.Builder
	opts     Options
	sleep    func(context.Context, time.Duration) error
}

// NewKubeOrchestrator returns an orchestrator applying manifests through exec.
func NewKubeOrchestrator(exec kubectl.Executor, registry *framework.Registry, builder *manifest.Builder, opts Options) *KubeOrchestrator {
	if opts.RolloutTimeout <= 0 {
		opts.RolloutTimeout = 10 * time.Minute
	}
	return &KubeOrchestrator{
		exec:     exec,
		registry: registry,
		builder:  builder,
		opts:     opts,
		sleep:    orchestrator.Sleep,
	}
}

// PlannedStep is a step with its rendered manifest.
type PlannedStep struct {
	framework.Step
	Manifest string
}

// Plan is everything a submission would apply, in order.
type Plan struct {
	Descriptor framework.Descriptor
	Layout     framework.Layout
	ConfigMap  string
	Steps      []PlannedStep
}

// Plan validates job and renders its config artifact and manifests without
// touching the cluster. In services-only mode the training step is left out.
func (g *KubeOrchestrator) Plan(job orchestrator.TrainingJob) (*Plan, error) {
	desc, err := g.registry.Get(job.Framework)
	if err != nil {
		return nil, err
	}
	layout, err := desc.Layout(job.Mode)
	if err != nil {
		return nil, err
	}

	servicesOnly := job.ServicesOnly && layout.MultiService()
	if !servicesOnly {
		if err := desc.Check(job.Config, job.Mode); err != nil {
			return nil, err
		}
	}

	labels := map[string]string{
		"app.kubernetes.io/managed-by": "cw",
		"cw.training/framework":        desc.Key,
	}
	if job.RunID != "" {
		labels[manifest.RunIDLabel] = job.RunID
	}
	cm, err := config.BuildArtifact(layout.ConfigMapName, labels, job.Config)
	if err != nil {
		return nil, err
	}

	plan := &Plan{Descriptor: desc, Layout: layout, ConfigMap: cm}
	for _, step := range layout.Steps {
		if servicesOnly && step.Training {
			continue
		}
		out, err := g.builder.Build(manifest.BuildOptions{
			Template:      step.Template,
			Framework:     desc.Key,
			TrainingMode:  string(job.Mode),
			JobName:       layout.JobName,
			ConfigMapName: layout.ConfigMapName,
			DefaultImage:  desc.DefaultImage,
			Namespace:     g.opts.Namespace,
			RunID:         job.RunID,
			Config:        job.Config,
			Sizing:        layout.Sizing,
			PullLatest:    job.PullLatest,
		})
		if err != nil {
			return nil, err
		}
		plan.Steps = append(plan.Steps, PlannedStep{Step: step, Manifest: out})
	}
	return plan, nil
}

// SubmitJob applies the config artifact and then every planned step in
// order. The first failing step halts the deployment; steps already applied
// are left running.
func (g *KubeOrchestrator) SubmitJob(ctx context.Context, job orchestrator.TrainingJob) orchestrator.DeploymentResult {
	res := orchestrator.DeploymentResult{State: orchestrator.NotStarted}
	fail := func(step string, err error) orchestrator.DeploymentResult {
		res.State = orchestrator.Failed
		res.FailedStep = step
		res.Err = err
		return res
	}

	plan, err := g.Plan(job)
	if err != nil {
		return fail("", err)
	}
	multi := plan.Layout.MultiService()

	logging.Info("Creating ConfigMap %s...", plan.Layout.ConfigMapName)
	if _, err := kubectl.Apply(ctx, g.exec, plan.ConfigMap); err != nil {
		return fail("ConfigMap", &errs.DeploymentError{Step: "ConfigMap", Err: err})
	}
	res.State = orchestrator.ConfigMapCreated

	for i, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return fail("", err)
		}
		logging.Info("Deploying %s...", step.Label)
		if _, err := kubectl.Apply(ctx, g.exec, step.Manifest); err != nil {
			if !multi {
				g.deleteConfigMap(ctx, plan.Layout.ConfigMapName, plan.ConfigMap)
			}
			return fail(step.Label, &errs.DeploymentError{Step: step.Label, Err: err})
		}
		logging.Success("%s deployed successfully", step.Label)
		if multi {
			res.Services = append(res.Services, step.Label)
		}
		if step.Training {
			res.JobName = plan.Layout.JobName
		}
		res.State = orchestrator.ServiceDeployed

		if i < len(plan.Steps)-1 {
			if err := g.settle(ctx, step.Step); err != nil {
				// Interrupted between steps: nothing failed, so no step is blamed.
				if ctx.Err() != nil {
					return fail("", ctx.Err())
				}
				return fail(step.Label, &errs.DeploymentError{Step: step.Label + " readiness", Err: err})
			}
		}
	}

	res.State = orchestrator.Complete
	res.Success = true
	return res
}

// settle waits between steps: a rollout status check when enabled and the
// step created a Deployment, otherwise the blind settle delay.
func (g *KubeOrchestrator) settle(ctx context.Context, step framework.Step) error {
	if g.opts.WaitForRollout && step.Deployment != "" {
		logging.Info("Waiting for %s to become ready...", step.Label)
		_, err := g.exec.Run(ctx, "rollout", "status", "deployment/"+step.Deployment,
			fmt.Sprintf("--timeout=%s", g.opts.RolloutTimeout))
		return err
	}
	if g.opts.SettleDelay <= 0 {
		return nil
	}
	logging.Info("Waiting %s for service to initialize...", g.opts.SettleDelay)
	return g.sleep(ctx, g.opts.SettleDelay)
}

// deleteConfigMap removes the artifact applied for a failed single-job
// submission using the same manifest.
func (g *KubeOrchestrator) deleteConfigMap(ctx context.Context, name, cm string) {
	logging.Warn("Job creation failed, cleaning up ConfigMap %s...", name)
	if _, err := kubectl.Delete(ctx, g.exec, cm); err != nil {
		logging.Info("Could not delete ConfigMap %s: %v", name, err)
	}
}

// CleanupServices deletes the Deployments and Services whose names start
// with one of the framework's service prefixes. It returns what was deleted.
func (g *KubeOrchestrator) CleanupServices(ctx context.Context, desc framework.Descriptor) ([]string, error) {
	var deleted, failed []string
	for _, kind := range []string{"deployment", "service"} {
		var list metav1.PartialObjectMetadataList
		if err := kubectl.GetJSON(ctx, g.exec, &list, "get", kind); err != nil {
			logging.Info("No %ss found: %v", kind, err)
			continue
		}
		for _, item := range list.Items {
			if !hasAnyPrefix(item.Name, desc.ServicePrefixes) {
				continue
			}
			if _, err := g.exec.Run(ctx, "delete", kind, item.Name); err != nil {
				logging.Warn("Failed to delete %s %s: %v", kind, item.Name, err)
				failed = append(failed, kind+"/"+item.Name)
				continue
			}
			logging.Success("Deleted %s %s", kind, item.Name)
			deleted = append(deleted, kind+"/"+item.Name)
		}
	}
	if len(failed) > 0 {
		return deleted, errors.Errorf("failed to delete %s", strings.Join(failed, ", "))
	}
	return deleted, nil
}

// RestartService restarts the Deployment behind a named service.
func (g *KubeOrchestrator) RestartService(ctx context.Context, desc framework.Descriptor, service string) error {
	dep, err := desc.ServiceDeployment(service)
	if err != nil {
		return err
	}
	logging.Info("Restarting %s...", dep)
	if _, err := g.exec.Run(ctx, "rollout", "restart", "deployment/"+dep); err != nil {
		return err
	}
	if g.opts.WaitForRollout {
		if _, err := g.exec.Run(ctx, "rollout", "status", "deployment/"+dep,
			fmt.Sprintf("--timeout=%s", g.opts.RolloutTimeout)); err != nil {
			return err
		}
	}
	logging.Success("%s restarted", dep)
	return nil
}

// DeleteJob deletes job and, when a framework layout created it, that
// layout's services and config artifact. Deleting the artifact is best effort.
func (g *KubeOrchestrator) DeleteJob(ctx context.Context, job string) error {
	logging.Info("Deleting job %s...", job)
	if _, err := g.exec.Run(ctx, "delete", "job", job); err != nil {
		return err
	}
	logging.Success("Job %s deleted", job)

	for _, desc := range g.registry.All() {
		layout, ok := desc.LayoutForJob(job)
		if !ok {
			continue
		}
		if layout.MultiService() {
			if _, err := g.CleanupServices(ctx, desc); err != nil {
				logging.Warn("Service cleanup incomplete: %v", err)
			}
		}
		if _, err := g.exec.Run(ctx, "delete", "configmap", layout.ConfigMapName, "--ignore-not-found"); err != nil {
			logging.Info("ConfigMap %s not deleted: %v", layout.ConfigMapName, err)
		}
		break
	}
	return nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
