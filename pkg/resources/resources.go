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

// Package resources models the two-tier container resource block.
package resources

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"cw-cli/pkg/errs"

	"k8s.io/apimachinery/pkg/api/resource"
)

const (
	// GPU is the accelerator resource class.
	GPU    = "nvidia.com/gpu"
	CPU    = "cpu"
	Memory = "memory"
)

// Full-node sizing used by multi-service manifests when the config is silent.
const (
	FullNodeGPUs   = 8
	FullNodeCPU    = "32"
	FullNodeMemory = "1000Gi"
)

// List maps a resource class to its quantity string.
type List map[string]string

// Requirements is a container resource block.
type Requirements struct {
	Limits   List `json:"limits,omitempty" yaml:"limits,omitempty"`
	Requests List `json:"requests,omitempty" yaml:"requests,omitempty"`
}

// IsZero reports whether neither tier carries anything.
func (r Requirements) IsZero() bool {
	return len(r.Limits) == 0 && len(r.Requests) == 0
}

// Validate checks that at least one tier is present, that every quantity
// parses, that GPU counts are integers, and that GPU limit equals GPU request
// when both are given.
func (r Requirements) Validate() error {
	if r.IsZero() {
		return &errs.ResourceError{Reason: "resources must specify limits or requests"}
	}
	for _, tier := range []struct {
		name string
		list List
	}{{"limits", r.Limits}, {"requests", r.Requests}} {
		for _, k := range sortedKeys(tier.list) {
			v := tier.list[k]
			if k == GPU {
				if _, err := strconv.Atoi(v); err != nil {
					return &errs.ResourceError{Reason: fmt.Sprintf("invalid GPU count %q in %s", v, tier.name)}
				}
				continue
			}
			if _, err := resource.ParseQuantity(v); err != nil {
				return &errs.ResourceError{Reason: fmt.Sprintf("invalid %s quantity %q in %s", k, v, tier.name)}
			}
		}
	}

	limit, hasLimit := r.Limits[GPU]
	request, hasRequest := r.Requests[GPU]
	if hasLimit && hasRequest {
		l, _ := strconv.Atoi(limit)
		q, _ := strconv.Atoi(request)
		if l != q {
			return &errs.ResourceError{Reason: fmt.Sprintf("GPU limit %d does not match GPU request %d", l, q)}
		}
	}
	return nil
}

// Merge deep-merges o over r, key by key within each tier.
func (r Requirements) Merge(o Requirements) Requirements {
	return Requirements{Limits: mergeList(r.Limits, o.Limits), Requests: mergeList(r.Requests, o.Requests)}
}

func mergeList(base, over List) List {
	if len(base) == 0 && len(over) == 0 {
		return nil
	}
	out := List{}
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// ToMap renders r as a generic map for embedding in an unstructured object.
func (r Requirements) ToMap() map[string]interface{} {
	m := map[string]interface{}{}
	if len(r.Limits) > 0 {
		m["limits"] = listToMap(r.Limits)
	}
	if len(r.Requests) > 0 {
		m["requests"] = listToMap(r.Requests)
	}
	return m
}

func listToMap(l List) map[string]interface{} {
	m := make(map[string]interface{}, len(l))
	for k, v := range l {
		m[k] = v
	}
	return m
}

// FromValue converts a decoded "resources" block into Requirements.
// Scalar quantities such as 8 are stringified.
func FromValue(v interface{}) (Requirements, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return Requirements{}, &errs.ResourceError{Reason: fmt.Sprintf("resources must be a mapping, got %T", v)}
	}
	var r Requirements
	for key, tier := range m {
		var dst *List
		switch key {
		case "limits":
			dst = &r.Limits
		case "requests":
			dst = &r.Requests
		default:
			return Requirements{}, &errs.ResourceError{Reason: fmt.Sprintf("unknown resources key %q", key)}
		}
		tm, ok := tier.(map[string]interface{})
		if !ok {
			return Requirements{}, &errs.ResourceError{Reason: fmt.Sprintf("resources.%s must be a mapping", key)}
		}
		*dst = List{}
		for k, q := range tm {
			(*dst)[k] = Quantity(q)
		}
	}
	return r, nil
}

// Quantity renders a scalar config value as a quantity string.
func Quantity(v interface{}) string {
	switch q := v.(type) {
	case string:
		return q
	case float64:
		return strconv.FormatFloat(q, 'f', -1, 64)
	default:
		return fmt.Sprint(q)
	}
}

// Uniform returns requirements whose limits and requests are both set to the
// non-empty values among gpu, cpu and memory.
func Uniform(gpu, cpu, memory string) Requirements {
	l := List{}
	for k, v := range map[string]string{GPU: gpu, CPU: cpu, Memory: memory} {
		if v != "" {
			l[k] = v
		}
	}
	if len(l) == 0 {
		return Requirements{}
	}
	q := List{}
	for k, v := range l {
		q[k] = v
	}
	return Requirements{Limits: l, Requests: q}
}

// FullNode returns the full-node block with equal limits and requests.
func FullNode() Requirements {
	return Uniform(strconv.Itoa(FullNodeGPUs), FullNodeCPU, FullNodeMemory)
}

// String formats r compactly, e.g. "gpu=8 cpu=32 memory=1000Gi".
func (r Requirements) String() string {
	src := r.Requests
	if len(src) == 0 {
		src = r.Limits
	}
	var parts []string
	for _, k := range []string{GPU, CPU, Memory} {
		if v, ok := src[k]; ok {
			parts = append(parts, fmt.Sprintf("%s=%s", strings.TrimPrefix(k, "nvidia.com/"), v))
		}
	}
	return strings.Join(parts, " ")
}

func sortedKeys(l List) []string {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
