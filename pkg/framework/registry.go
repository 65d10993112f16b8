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

package framework

import (
	"fmt"
	"sort"
	"sync"

	"cw-cli/pkg/errs"

	"github.com/agext/levenshtein"
)

// maxSuggestionDistance bounds how different a key may be and still be suggested.
const maxSuggestionDistance = 3

// Registry maps framework keys to descriptors.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]Descriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{descriptors: map[string]Descriptor{}}
}

// NewDefaultRegistry returns a registry holding Builtins.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, d := range Builtins() {
		r.Register(d.Key, d)
	}
	return r
}

// Register stores d under key, replacing any earlier entry.
func (r *Registry) Register(key string, d Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.Key = key
	r.descriptors[key] = d
}

// Lookup returns the descriptor registered under key.
func (r *Registry) Lookup(key string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[key]
	return d, ok
}

// Get is Lookup returning a FrameworkError, with a suggestion, for unknown keys.
func (r *Registry) Get(key string) (Descriptor, error) {
	if d, ok := r.Lookup(key); ok {
		return d, nil
	}
	err := &errs.FrameworkError{Framework: key}
	if s := r.Suggest(key); s != "" {
		err.Suggestion = fmt.Sprintf("Did you mean %q?", s)
	}
	return Descriptor{}, err
}

// Keys returns the registered keys in sorted order. The slice is a copy.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.descriptors))
	for k := range r.descriptors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// All returns the registered descriptors ordered by key.
func (r *Registry) All() []Descriptor {
	var out []Descriptor
	for _, k := range r.Keys() {
		if d, ok := r.Lookup(k); ok {
			out = append(out, d)
		}
	}
	return out
}

// Suggest returns the registered key closest to key, or "" if none is close.
func (r *Registry) Suggest(key string) string {
	best, bestDist := "", maxSuggestionDistance+1
	for _, k := range r.Keys() {
		if d := levenshtein.Distance(key, k, nil); d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}
