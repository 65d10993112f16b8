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

// Package cmd defines the cw command tree.
package cmd

import (
	"context"
	"os"
	"os/signal"

	"cw-cli/pkg/errs"
	"cw-cli/pkg/logging"
	"cw-cli/pkg/settings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

var (
	envFile     string
	kubectlBin  string
	kubeconfig  string
	kubeContext string
	namespace   string
	templateDir string
	verbose     bool
	noColor     bool

	// cfg is resolved once per invocation before any command runs.
	cfg *settings.Settings
)

var rootCmd = &cobra.Command{
	Use:   "cw",
	Short: "Submit and manage ML training jobs on Kubernetes",
	Long: `cw submits fine-tuning and reinforcement-learning jobs to a Kubernetes
cluster through kubectl and helps follow, inspect and clean them up.

Settings are read from CW_* environment variables (optionally from --env-file)
and can be overridden with the flags below.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Commands that parse their own arguments call setup themselves.
		if cmd.DisableFlagParsing {
			return nil
		}
		return setup()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&envFile, "env-file", "", "Load CW_* settings from this .env file.")
	pf.StringVar(&kubectlBin, "kubectl", "", "kubectl binary to run (CW_KUBECTL).")
	pf.StringVar(&kubeconfig, "kubeconfig", "", "Path to the kubeconfig file (CW_KUBECONFIG).")
	pf.StringVar(&kubeContext, "context", "", "kubeconfig context to use (CW_CONTEXT).")
	pf.StringVar(&namespace, "namespace", "", "Namespace for every cluster command (CW_NAMESPACE).")
	pf.StringVar(&templateDir, "template-dir", "", "Directory overriding the bundled manifest templates (CW_TEMPLATE_DIR).")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Show debug output.")
	pf.BoolVar(&noColor, "no-color", false, "Disable colored output.")
}

// setup loads the settings and applies the global flags on top of them.
func setup() error {
	logging.SetVerbose(verbose)
	if noColor {
		logging.SetColor(false)
	}
	s, err := settings.Load(envFile)
	if err != nil {
		return err
	}
	for _, o := range []struct {
		flag string
		into *string
	}{
		{kubectlBin, &s.Kubectl},
		{kubeconfig, &s.Kubeconfig},
		{kubeContext, &s.Context},
		{namespace, &s.Namespace},
		{templateDir, &s.TemplateDir},
	} {
		if o.flag != "" {
			*o.into = o.flag
		}
	}
	cfg = s
	logging.Debug("Settings: %+v", *cfg)
	return nil
}

// Execute runs the command tree and exits. SIGINT and SIGTERM cancel the
// context handed to every command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	code := exitCode(ctx, err)
	stop()
	os.Exit(code)
}

// exitCode reports err and maps it to the process status. Interrupts and
// declined prompts are not failures.
func exitCode(ctx context.Context, err error) int {
	switch {
	case err == nil:
		return 0
	case ctx.Err() != nil, errors.Is(err, context.Canceled), errors.Is(err, errs.ErrCancelled):
		logging.Warn("Cancelled.")
		return 0
	}
	logging.Error("Error: %v", err)
	if s := errs.Suggestion(err); s != "" {
		logging.Plain("Suggestion: %s", s)
	}
	return 1
}
