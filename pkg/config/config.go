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

// Package config loads training configuration documents and derives the
// config artifact and placement settings from them.
package config

import (
	"fmt"
	"os"

	"cw-cli/pkg/errs"
	"cw-cli/pkg/resources"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ArtifactKey is the ConfigMap data key holding the training config.
const ArtifactKey = "config.yaml"

// PlacementKeys are consumed by the CLI to place the workload and never
// reach the training process.
var PlacementKeys = []string{"image", "gpu", "cpu", "memory", "resources"}

// Document is an open key/value training configuration.
type Document map[string]interface{}

// Clone returns a shallow copy of d.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// String returns the value of key if it is a string.
func (d Document) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// TrainingConfig is the typed view of the recognized keys. Unknown keys are
// kept in Extra.
type TrainingConfig struct {
	BaseModel                 string                   `yaml:"base_model"`
	ModelType                 string                   `yaml:"model_type,omitempty"`
	TokenizerType             string                   `yaml:"tokenizer_type,omitempty"`
	Datasets                  []map[string]interface{} `yaml:"datasets,omitempty"`
	LearningRate              *float64                 `yaml:"learning_rate,omitempty"`
	LRScheduler               string                   `yaml:"lr_scheduler,omitempty"`
	NumEpochs                 *int                     `yaml:"num_epochs,omitempty"`
	MicroBatchSize            *int                     `yaml:"micro_batch_size,omitempty"`
	GradientAccumulationSteps *int                     `yaml:"gradient_accumulation_steps,omitempty"`
	OutputDir                 string                   `yaml:"output_dir,omitempty"`
	Image                     string                   `yaml:"image,omitempty"`
	GPU                       *int                     `yaml:"gpu,omitempty"`
	CPU                       string                   `yaml:"cpu,omitempty"`
	Memory                    string                   `yaml:"memory,omitempty"`
	Resources                 *resources.Requirements  `yaml:"resources,omitempty"`
	RL                        string                   `yaml:"rl,omitempty"`
	Extra                     map[string]interface{}   `yaml:",inline"`
}

// Manager reads configuration documents from a filesystem.
type Manager struct {
	fs afero.Fs
}

// NewManager returns a Manager over fs.
func NewManager(fs afero.Fs) *Manager {
	return &Manager{fs: fs}
}

// Load reads and parses the YAML document at path.
func (m *Manager) Load(path string) (Document, error) {
	data, err := afero.ReadFile(m.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errs.ConfigurationError{Path: path, Err: errs.ErrConfigNotFound}
		}
		return nil, &errs.ConfigurationError{Path: path, Err: err}
	}
	return Parse(path, data)
}

// Parse decodes a YAML configuration document.
func Parse(path string, data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &errs.ConfigurationError{
			Path:       path,
			Reason:     "invalid YAML",
			Err:        err,
			Suggestion: "Check your YAML syntax (indentation, colons, quoting).",
		}
	}
	if doc == nil {
		return nil, &errs.ConfigurationError{Path: path, Reason: "document is empty"}
	}
	return doc, nil
}

// Validate checks the recognized keys of doc against their types and
// returns the typed view.
func Validate(doc Document) (*TrainingConfig, error) {
	raw, err := yaml.Marshal(map[string]interface{}(doc))
	if err != nil {
		return nil, &errs.ConfigurationError{Reason: "cannot encode document", Err: err}
	}
	var tc TrainingConfig
	if err := yaml.Unmarshal(raw, &tc); err != nil {
		return nil, &errs.ConfigurationError{Reason: "schema validation failed", Err: err}
	}
	if tc.BaseModel == "" {
		return nil, &errs.ConfigurationError{
			Reason:     "base_model is required",
			Suggestion: "Add a base_model entry, e.g. base_model: Qwen/Qwen2.5-7B-Instruct",
		}
	}
	if tc.Image != "" {
		if _, err := name.ParseReference(tc.Image); err != nil {
			return nil, &errs.ConfigurationError{Reason: fmt.Sprintf("invalid image %q", tc.Image), Err: err}
		}
	}
	if _, ok := doc["resources"]; ok {
		req, err := resources.FromValue(doc["resources"])
		if err != nil {
			return nil, &errs.ConfigurationError{Reason: "invalid resources block", Err: err}
		}
		if err := req.Validate(); err != nil {
			return nil, &errs.ConfigurationError{Reason: "invalid resources block", Err: err}
		}
	}
	return &tc, nil
}

// PrepareForDeployment returns a copy of doc with the placement keys removed.
func PrepareForDeployment(doc Document) Document {
	out := doc.Clone()
	for _, k := range PlacementKeys {
		delete(out, k)
	}
	return out
}

// ExtractResources returns the explicit resources block of doc, or one
// synthesized from gpu/cpu/memory with equal limits and requests. ok is false
// when doc specifies none of them.
func ExtractResources(doc Document) (req resources.Requirements, ok bool, err error) {
	if v, present := doc["resources"]; present {
		req, err = resources.FromValue(v)
		return req, err == nil, err
	}
	var gpu, cpu, memory string
	if v, present := doc["gpu"]; present {
		gpu = resources.Quantity(v)
	}
	if v, present := doc["cpu"]; present {
		cpu = resources.Quantity(v)
	}
	if v, present := doc["memory"]; present {
		memory = resources.Quantity(v)
	}
	req = resources.Uniform(gpu, cpu, memory)
	return req, !req.IsZero(), nil
}

// Summary is a short description of a document for display.
type Summary struct {
	Model        string
	TrainingType string
	LearningRate interface{}
	Epochs       interface{}
	BatchSize    interface{}
	Image        string
	Resources    string
}

// Summarize extracts the fields shown before a submission.
func Summarize(doc Document) Summary {
	s := Summary{
		Model:        doc.String("base_model"),
		TrainingType: "SFT",
		LearningRate: doc["learning_rate"],
		Epochs:       doc["num_epochs"],
		BatchSize:    doc["micro_batch_size"],
		Image:        doc.String("image"),
	}
	if s.Model == "" {
		s.Model = "Unknown"
	}
	if doc.String("rl") == "grpo" {
		s.TrainingType = "GRPO"
	}
	if req, ok, err := ExtractResources(doc); err == nil && ok {
		s.Resources = req.String()
	}
	return s
}

// MarshalArtifact renders the training-facing part of doc as YAML.
func MarshalArtifact(doc Document) (string, error) {
	out, err := yaml.Marshal(map[string]interface{}(PrepareForDeployment(doc)))
	if err != nil {
		return "", errors.Wrap(err, "encoding config artifact")
	}
	return string(out), nil
}
