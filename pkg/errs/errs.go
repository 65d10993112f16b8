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

// Package errs defines the error taxonomy reported at the command boundary.
// Every type can carry a suggestion that is printed below the message.
package errs

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrTemplateNotFound is wrapped by TemplateError when a manifest template does not exist.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrConfigNotFound is wrapped by ConfigurationError when the config file does not exist.
	ErrConfigNotFound = errors.New("config file not found")
	// ErrCancelled marks an operation the user declined or interrupted.
	ErrCancelled = errors.New("cancelled")
)

// ConfigurationError reports a missing, malformed or invalid configuration document.
type ConfigurationError struct {
	Path       string
	Reason     string
	Suggestion string
	Err        error
}

func (e *ConfigurationError) Error() string {
	msg := "configuration error"
	if e.Path != "" {
		msg = fmt.Sprintf("configuration error in %s", e.Path)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// FrameworkError reports an unknown framework or an unsupported training mode.
type FrameworkError struct {
	Framework  string
	Reason     string
	Suggestion string
}

func (e *FrameworkError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("framework %q: %s", e.Framework, e.Reason)
	}
	return fmt.Sprintf("unknown framework %q", e.Framework)
}

// DeploymentError reports a failed step of a deployment.
type DeploymentError struct {
	Step string
	Err  error
}

func (e *DeploymentError) Error() string {
	return fmt.Sprintf("failed to deploy %s: %v", e.Step, e.Err)
}

func (e *DeploymentError) Unwrap() error { return e.Err }

// TemplateError reports a manifest template that could not be read or rendered.
type TemplateError struct {
	Path string
	Err  error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template %s: %v", e.Path, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// ResourceError reports resource quantities that fail validation.
type ResourceError struct {
	Reason string
}

func (e *ResourceError) Error() string {
	return "invalid resources: " + e.Reason
}

// ClusterCommandError reports a cluster command that exited non-zero.
// Stderr is kept verbatim.
type ClusterCommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *ClusterCommandError) Error() string {
	msg := fmt.Sprintf("kubectl %s failed with exit code %d", strings.Join(e.Args, " "), e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// NotFoundError reports a named cluster object that does not exist.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// UnmanagedJobError rejects an operation on a job cw did not create.
type UnmanagedJobError struct {
	Name string
}

func (e *UnmanagedJobError) Error() string {
	return fmt.Sprintf("%q is not a cw-managed job", e.Name)
}

// Suggestion returns the hint attached to the first error in the chain that
// carries one, or a default hint for its kind.
func Suggestion(err error) string {
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		if cfgErr.Suggestion != "" {
			return cfgErr.Suggestion
		}
		if errors.Is(err, ErrConfigNotFound) {
			return "Check that the config file path is correct."
		}
		return "Check your YAML configuration file syntax and required fields."
	}
	var fwErr *FrameworkError
	if errors.As(err, &fwErr) {
		if fwErr.Suggestion != "" {
			return fwErr.Suggestion
		}
		return "Run 'cw --help' to see the available frameworks."
	}
	var tplErr *TemplateError
	if errors.As(err, &tplErr) {
		return "Check the --template-dir setting or reinstall cw to restore the bundled templates."
	}
	var resErr *ResourceError
	if errors.As(err, &resErr) {
		return "GPU limits and requests must be equal integers."
	}
	var cmdErr *ClusterCommandError
	if errors.As(err, &cmdErr) {
		return "Check that kubectl is installed and your kubeconfig points at the right cluster."
	}
	var nfErr *NotFoundError
	if errors.As(err, &nfErr) {
		return "Try 'cw list' to see available jobs."
	}
	var umErr *UnmanagedJobError
	if errors.As(err, &umErr) {
		return "cw only operates on jobs whose name starts with 'cw-'."
	}
	var depErr *DeploymentError
	if errors.As(err, &depErr) {
		return "Services deployed before the failure are still running; inspect them with 'cw pods' and remove them with the framework cleanup command."
	}
	return ""
}
