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

// Package settings holds process-wide options read from CW_* environment
// variables and an optional .env file. Command-line flags override them.
package settings

import (
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Settings struct {
	Kubectl     string `env:"CW_KUBECTL" envDefault:"kubectl"`
	Kubeconfig  string `env:"CW_KUBECONFIG"`
	Context     string `env:"CW_CONTEXT"`
	Namespace   string `env:"CW_NAMESPACE"`
	TemplateDir string `env:"CW_TEMPLATE_DIR"`

	SettleDelay    time.Duration `env:"CW_SETTLE_DELAY" envDefault:"10s"`
	WaitForRollout bool          `env:"CW_WAIT_FOR_ROLLOUT" envDefault:"false"`
	RolloutTimeout time.Duration `env:"CW_ROLLOUT_TIMEOUT" envDefault:"10m"`

	FullNodeGPUs     int `env:"CW_FULL_NODE_GPUS" envDefault:"8"`
	InventoryWorkers int `env:"CW_INVENTORY_WORKERS" envDefault:"10"`

	FollowInterval time.Duration `env:"CW_FOLLOW_INTERVAL" envDefault:"5s"`
	FollowTimeout  time.Duration `env:"CW_FOLLOW_TIMEOUT" envDefault:"300s"`
	WatchInterval  time.Duration `env:"CW_WATCH_INTERVAL" envDefault:"2s"`
}

// Load parses the process environment. Variables from envFile, when given,
// fill in whatever the environment does not already set.
func Load(envFile string) (*Settings, error) {
	return load(envFile, os.Environ())
}

func load(envFile string, environ []string) (*Settings, error) {
	vars := map[string]string{}
	if envFile != "" {
		fileVars, err := godotenv.Read(envFile)
		if err != nil {
			return nil, errors.Wrapf(err, "reading env file %s", envFile)
		}
		for k, v := range fileVars {
			vars[k] = v
		}
	}
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}

	s := &Settings{}
	if err := env.ParseWithOptions(s, env.Options{Environment: vars}); err != nil {
		return nil, errors.Wrap(err, "parsing CW_* environment")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate rejects values no command can work with.
func (s *Settings) Validate() error {
	switch {
	case s.Kubectl == "":
		return errors.New("kubectl binary must not be empty")
	case s.FullNodeGPUs <= 0:
		return errors.Errorf("full node GPU threshold must be positive, got %d", s.FullNodeGPUs)
	case s.InventoryWorkers <= 0:
		return errors.Errorf("inventory workers must be positive, got %d", s.InventoryWorkers)
	case s.SettleDelay < 0:
		return errors.Errorf("settle delay must not be negative, got %s", s.SettleDelay)
	case s.FollowInterval <= 0 || s.WatchInterval <= 0:
		return errors.New("poll intervals must be positive")
	}
	return nil
}
