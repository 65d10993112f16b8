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

// Package manifest renders the Kubernetes manifests of a training job from
// templates and a configuration document.
package manifest

import (
	"bytes"
	"embed"
	"io"
	"io/fs"
	"os"
	"strings"
	"text/template"

	"cw-cli/pkg/config"
	"cw-cli/pkg/errs"
	"cw-cli/pkg/framework"
	"cw-cli/pkg/resources"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
	"sigs.k8s.io/yaml"
)

// RunIDLabel is stamped on every object applied by one submission.
const RunIDLabel = "cw.training/run-id"

//go:embed templates
var embedded embed.FS

// DefaultTemplates returns the templates compiled into cw.
func DefaultTemplates() afero.Fs {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return afero.NewReadOnlyFs(afero.FromIOFS{FS: sub})
}

// TemplateFS layers dir, when set, over the bundled templates so that a
// template present in dir replaces the bundled one of the same path.
func TemplateFS(dir string) afero.Fs {
	if dir == "" {
		return DefaultTemplates()
	}
	layer := afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), dir))
	return afero.NewCopyOnWriteFs(DefaultTemplates(), layer)
}

// BuildOptions holds the inputs of one manifest.
type BuildOptions struct {
	Template      string
	Framework     string
	TrainingMode  string
	JobName       string
	ConfigMapName string
	DefaultImage  string
	Namespace     string
	RunID         string
	Config        config.Document
	Sizing        framework.SizingPolicy
	PullLatest    bool
}

// templateData is what manifest templates can reference.
type templateData struct {
	JobName       string
	ConfigMapName string
	Framework     string
	TrainingMode  string
	Image         string
	RunID         string
	Namespace     string
}

// Builder renders manifests from templates on a filesystem.
type Builder struct {
	fs afero.Fs
}

// NewBuilder returns a Builder reading templates from fs.
func NewBuilder(fs afero.Fs) *Builder {
	return &Builder{fs: fs}
}

// Build renders the template of opts, then rewrites every Job and Deployment
// container: image, resources according to opts.Sizing, and PULL_LATEST when
// requested. Documents are returned joined by "---".
func (b *Builder) Build(opts BuildOptions) (string, error) {
	raw, err := afero.ReadFile(b.fs, opts.Template)
	if err != nil {
		if os.IsNotExist(err) || errors.Is(err, fs.ErrNotExist) {
			return "", &errs.TemplateError{Path: opts.Template, Err: errs.ErrTemplateNotFound}
		}
		return "", &errs.TemplateError{Path: opts.Template, Err: err}
	}

	image := opts.Config.String("image")
	if image == "" {
		image = opts.DefaultImage
	}

	tmpl, err := template.New(opts.Template).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return "", &errs.TemplateError{Path: opts.Template, Err: err}
	}
	var rendered bytes.Buffer
	err = tmpl.Execute(&rendered, templateData{
		JobName:       opts.JobName,
		ConfigMapName: opts.ConfigMapName,
		Framework:     opts.Framework,
		TrainingMode:  opts.TrainingMode,
		Image:         image,
		RunID:         opts.RunID,
		Namespace:     opts.Namespace,
	})
	if err != nil {
		return "", &errs.TemplateError{Path: opts.Template, Err: err}
	}

	req, apply, err := sizing(opts)
	if err != nil {
		return "", err
	}

	objs, err := decode(rendered.Bytes())
	if err != nil {
		return "", &errs.TemplateError{Path: opts.Template, Err: err}
	}

	var docs []string
	for _, obj := range objs {
		if opts.RunID != "" {
			setLabel(obj, RunIDLabel, opts.RunID)
		}
		if kind := obj.GetKind(); kind == "Job" || kind == "Deployment" {
			for _, c := range containers(obj) {
				c["image"] = image
				if apply(c) {
					c["resources"] = req.ToMap()
				}
				if opts.PullLatest {
					appendEnv(c, "PULL_LATEST", "true")
				}
			}
		}
		out, err := yaml.Marshal(obj.Object)
		if err != nil {
			return "", errors.Wrapf(err, "encoding %s %s", obj.GetKind(), obj.GetName())
		}
		docs = append(docs, string(out))
	}
	return strings.Join(docs, "---\n"), nil
}

// sizing resolves the resource block for opts and the predicate selecting
// which containers receive it.
func sizing(opts BuildOptions) (resources.Requirements, func(map[string]interface{}) bool, error) {
	never := func(map[string]interface{}) bool { return false }

	switch opts.Sizing {
	case framework.SizeFullNode:
		var gpu, cpu, memory string
		if v, ok := opts.Config["gpu"]; ok {
			gpu = resources.Quantity(v)
		}
		if v, ok := opts.Config["cpu"]; ok {
			cpu = resources.Quantity(v)
		}
		if v, ok := opts.Config["memory"]; ok {
			memory = resources.Quantity(v)
		}
		req := resources.FullNode().Merge(resources.Uniform(gpu, cpu, memory))
		if err := req.Validate(); err != nil {
			return req, never, err
		}
		return req, func(c map[string]interface{}) bool {
			_, declared := c["resources"]
			return declared
		}, nil

	default:
		req, ok, err := config.ExtractResources(opts.Config)
		if err != nil {
			return req, never, err
		}
		if !ok {
			return req, never, nil
		}
		if err := req.Validate(); err != nil {
			return req, never, err
		}
		return req, func(map[string]interface{}) bool { return true }, nil
	}
}

func decode(data []byte) ([]*unstructured.Unstructured, error) {
	dec := utilyaml.NewYAMLOrJSONDecoder(bytes.NewReader(data), 4096)
	var objs []*unstructured.Unstructured
	for {
		var m map[string]interface{}
		if err := dec.Decode(&m); err != nil {
			if err == io.EOF {
				return objs, nil
			}
			return nil, err
		}
		if len(m) == 0 {
			continue
		}
		objs = append(objs, &unstructured.Unstructured{Object: m})
	}
}

// containers returns the pod template containers of a workload object. The
// maps are live views into obj.
func containers(obj *unstructured.Unstructured) []map[string]interface{} {
	v, found, err := unstructured.NestedFieldNoCopy(obj.Object, "spec", "template", "spec", "containers")
	if err != nil || !found {
		return nil
	}
	list, _ := v.([]interface{})
	var out []map[string]interface{}
	for _, c := range list {
		if m, ok := c.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

func setLabel(obj *unstructured.Unstructured, key, value string) {
	labels := obj.GetLabels()
	if labels == nil {
		labels = map[string]string{}
	}
	labels[key] = value
	obj.SetLabels(labels)
}

func appendEnv(c map[string]interface{}, name, value string) {
	env, _ := c["env"].([]interface{})
	c["env"] = append(env, map[string]interface{}{"name": name, "value": value})
}
