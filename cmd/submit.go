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
	"strings"
	"time"

	"cw-cli/pkg/config"
	"cw-cli/pkg/errs"
	"cw-cli/pkg/framework"
	"cw-cli/pkg/kubectl"
	"cw-cli/pkg/logging"
	"cw-cli/pkg/orchestrator"
	"cw-cli/pkg/orchestrator/kube"
	"cw-cli/pkg/status"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// submitRequest is one "train" invocation after argument parsing.
type submitRequest struct {
	Framework      string
	Mode           framework.TrainingMode
	ConfigPath     string
	Overrides      map[string]interface{}
	PullLatest     bool
	ServicesOnly   bool
	NoFollow       bool
	OutputManifest string
	// CleanupCommand is shown when a multi-service deployment stops halfway.
	CleanupCommand string
}

// newSubmitCmd builds a command that submits key's mode layout. Unknown
// "--key value" arguments after the config path override config fields, so
// flag parsing is done by splitArgs instead of cobra.
func newSubmitCmd(use, short, key string, mode framework.TrainingMode, services bool, cleanup string) *cobra.Command {
	var (
		pullLatest     bool
		servicesOnly   bool
		noFollow       bool
		waitForRollout bool
		outputManifest string
		settleDelay    time.Duration
	)
	c := &cobra.Command{
		Use:   use + " <config> [--key value ...]",
		Short: short,
		Long: short + `.

Any argument of the form --key value (or --key=value) that is not a cw flag
overrides the matching top-level field of the config file, e.g.
  --learning_rate 2e-5 --num_epochs 3 --gpu 4`,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, args []string) error {
			positional, overrides, err := parseSubmitArgs(cmd, args)
			if err != nil {
				return err
			}
			if help, _ := cmd.Flags().GetBool("help"); help {
				return cmd.Help()
			}
			if len(positional) != 1 {
				return errors.Errorf("expected exactly one config file, got %d arguments", len(positional))
			}
			if err := setup(); err != nil {
				return err
			}
			if cmd.Flags().Changed("settle-delay") {
				cfg.SettleDelay = settleDelay
			}
			if waitForRollout {
				cfg.WaitForRollout = true
			}
			return runSubmit(cmd.Context(), newClient(), cmd.OutOrStdout(), submitRequest{
				Framework:      key,
				Mode:           mode,
				ConfigPath:     positional[0],
				Overrides:      overrides,
				PullLatest:     pullLatest,
				ServicesOnly:   servicesOnly,
				NoFollow:       noFollow,
				OutputManifest: outputManifest,
				CleanupCommand: cleanup,
			})
		},
	}
	f := c.Flags()
	f.BoolVar(&pullLatest, "pull-latest", false, "Always pull the container image.")
	f.BoolVar(&noFollow, "no-follow", false, "Do not follow the training logs after submission.")
	f.StringVar(&outputManifest, "output-manifest", "", "Write the generated manifests to this file instead of applying them.")
	f.DurationVar(&settleDelay, "settle-delay", kube.DefaultSettleDelay, "Wait between consecutive services (CW_SETTLE_DELAY).")
	if services {
		f.BoolVar(&servicesOnly, "services", false, "Deploy only the supporting services, not the training job.")
		f.BoolVar(&waitForRollout, "wait-for-rollout", false, "Wait for each service rollout instead of a fixed delay (CW_WAIT_FOR_ROLLOUT).")
	}
	return c
}

// parseSubmitArgs separates cw's own flags, which are parsed into the
// command's flag set, from positional arguments and config overrides.
func parseSubmitArgs(cmd *cobra.Command, args []string) ([]string, map[string]interface{}, error) {
	fs := cmd.Flags()
	fs.AddFlagSet(cmd.InheritedFlags())
	known, positional, rest := splitArgs(fs, args)
	if err := fs.Parse(known); err != nil {
		return nil, nil, err
	}
	return positional, config.ParseOverrides(rest), nil
}

// splitArgs sorts args into flags defined in fs (with their values),
// positional arguments and unknown flags (with their values).
func splitArgs(fs *pflag.FlagSet, args []string) (known, positional, unknown []string) {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(a, "-") || a == "-" {
			positional = append(positional, a)
			continue
		}
		name, _, inline := strings.Cut(strings.TrimLeft(a, "-"), "=")
		var flag *pflag.Flag
		if strings.HasPrefix(a, "--") {
			flag = fs.Lookup(name)
		} else if len(name) == 1 {
			flag = fs.ShorthandLookup(name)
		}
		if flag != nil {
			known = append(known, a)
			if !inline && flag.NoOptDefVal == "" && i+1 < len(args) {
				known = append(known, args[i+1])
				i++
			}
			continue
		}
		unknown = append(unknown, a)
		if !inline && i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") {
			unknown = append(unknown, args[i+1])
			i++
		}
	}
	return known, positional, unknown
}

func runSubmit(ctx context.Context, exec kubectl.Executor, out io.Writer, req submitRequest) error {
	doc, err := config.NewManager(afero.NewOsFs()).Load(req.ConfigPath)
	if err != nil {
		return err
	}
	if _, err := config.Validate(doc); err != nil {
		return withPath(err, req.ConfigPath)
	}
	if len(req.Overrides) > 0 {
		doc = config.MergeOverrides(doc, req.Overrides)
		if _, err := config.Validate(doc); err != nil {
			return errors.Wrap(withPath(err, req.ConfigPath), "after applying overrides")
		}
	}
	desc, err := registry.Get(req.Framework)
	if err != nil {
		return err
	}
	layout, err := desc.Layout(req.Mode)
	if err != nil {
		return err
	}

	job := orchestrator.TrainingJob{
		Name:         layout.JobName,
		ConfigPath:   req.ConfigPath,
		Framework:    desc.Key,
		Mode:         req.Mode,
		Config:       doc,
		PullLatest:   req.PullLatest,
		ServicesOnly: req.ServicesOnly,
		RunID:        uuid.NewString(),
	}
	orch := newOrchestrator(exec)
	if req.OutputManifest != "" {
		return writePlan(orch, job, req.OutputManifest)
	}

	printSummary(config.Summarize(doc), req.ConfigPath)
	res := orch.SubmitJob(ctx, job)
	if !res.Success {
		if len(res.Services) > 0 {
			stopped := "Deployment interrupted"
			if res.FailedStep != "" {
				stopped = "Deployment stopped at " + res.FailedStep
			}
			logging.Warn("%s. Already running: %s", stopped, strings.Join(res.Services, ", "))
			if req.CleanupCommand != "" {
				logging.Info("Remove them with '%s'", req.CleanupCommand)
			}
		}
		return res.Err
	}

	if res.JobName == "" {
		logging.Success("Services deployed: %s", strings.Join(res.Services, ", "))
		logging.Info("Check them with 'cw pods'")
		return nil
	}
	logging.Success("Job %s submitted (run %s)", res.JobName, job.RunID)
	logging.Info("Follow logs with 'cw logs -j %s'", res.JobName)
	logging.Info("Inspect it with 'cw describe %s'", res.JobName)
	if req.NoFollow {
		return nil
	}
	err = newFollower(exec, out).Follow(ctx, res.JobName)
	if errors.Is(err, status.ErrFollowTimeout) {
		logging.Warn("%v. The job keeps running; retry with 'cw logs -j %s'", err, res.JobName)
		return nil
	}
	return err
}

// withPath names the config file in a validation error.
func withPath(err error, path string) error {
	var cfgErr *errs.ConfigurationError
	if errors.As(err, &cfgErr) && cfgErr.Path == "" {
		cfgErr.Path = path
	}
	return err
}

func printSummary(s config.Summary, path string) {
	logging.Info("Submitting %s", path)
	logging.Plain("  Model:         %s", s.Model)
	logging.Plain("  Training type: %s", s.TrainingType)
	for _, f := range []struct {
		label string
		value interface{}
	}{
		{"Learning rate", s.LearningRate},
		{"Epochs", s.Epochs},
		{"Batch size", s.BatchSize},
	} {
		if f.value != nil {
			logging.Plain("  %-14s %v", f.label+":", f.value)
		}
	}
	if s.Image != "" {
		logging.Plain("  Image:         %s", s.Image)
	}
	if s.Resources != "" {
		logging.Plain("  Resources:     %s", s.Resources)
	}
}

// writePlan saves every manifest a submission would apply as one multi-document file.
func writePlan(orch *kube.KubeOrchestrator, job orchestrator.TrainingJob, path string) error {
	plan, err := orch.Plan(job)
	if err != nil {
		return err
	}
	docs := []string{strings.TrimSpace(plan.ConfigMap)}
	for _, s := range plan.Steps {
		docs = append(docs, strings.TrimSpace(s.Manifest))
	}
	logging.Info("Saving %d manifests to %s", len(docs), path)
	content := strings.Join(docs, "\n---\n") + "\n"
	if err := afero.WriteFile(afero.NewOsFs(), path, []byte(content), 0o644); err != nil {
		return errors.Wrapf(err, "writing manifests to %s", path)
	}
	logging.Success("Manifests written to %s", path)
	return nil
}
