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

// Package kubectltest provides a recording kubectl.Executor for tests.
package kubectltest

import (
	"context"
	"io"
	"strings"
	"sync"
)

// Call is one recorded invocation.
type Call struct {
	Args  []string
	Input string
}

// Line joins the call's arguments with spaces.
func (c Call) Line() string {
	return strings.Join(c.Args, " ")
}

// Fake records every call. Responses are looked up by the space-joined
// argument list; Handler, when set, takes precedence.
type Fake struct {
	mu        sync.Mutex
	calls     []Call
	Responses map[string]string
	Errors    map[string]error
	Handler   func(args []string, input string) (string, error)
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{Responses: map[string]string{}, Errors: map[string]error{}}
}

func (f *Fake) record(args []string, input string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Args: append([]string(nil), args...), Input: input})
	handler := f.Handler
	key := strings.Join(args, " ")
	out, err := f.Responses[key], f.Errors[key]
	f.mu.Unlock()

	if handler != nil {
		return handler(args, input)
	}
	return out, err
}

func (f *Fake) Run(ctx context.Context, args ...string) (string, error) {
	return f.record(args, "")
}

func (f *Fake) RunWithInput(ctx context.Context, input string, args ...string) (string, error) {
	return f.record(args, input)
}

func (f *Fake) Stream(ctx context.Context, out io.Writer, args ...string) error {
	s, err := f.record(args, "")
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, s)
	return err
}

// Calls returns a copy of the recorded calls in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Lines returns the recorded calls as joined argument strings.
func (f *Fake) Lines() []string {
	var lines []string
	for _, c := range f.Calls() {
		lines = append(lines, c.Line())
	}
	return lines
}

// Count returns how many calls start with prefix.
func (f *Fake) Count(prefix string) int {
	n := 0
	for _, l := range f.Lines() {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}
