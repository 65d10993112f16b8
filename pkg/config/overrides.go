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

package config

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"cw-cli/pkg/logging"
)

var (
	intFields   = map[string]bool{"gpu": true, "num_epochs": true, "micro_batch_size": true, "gradient_accumulation_steps": true}
	floatFields = map[string]bool{"learning_rate": true}

	digitsRe = regexp.MustCompile(`^[0-9]+$`)
	floatRe  = regexp.MustCompile(`^[0-9]*\.[0-9]*$`)
)

// ParseOverrides turns trailing "--key value" arguments into a map. A flag
// followed by another flag, or by nothing, is recorded as true. Arguments
// that are not flags and do not follow one are ignored.
func ParseOverrides(args []string) map[string]interface{} {
	out := map[string]interface{}{}
	for i := 0; i < len(args); i++ {
		if !strings.HasPrefix(args[i], "--") {
			continue
		}
		key := strings.TrimPrefix(args[i], "--")
		if k, v, ok := strings.Cut(key, "="); ok {
			out[k] = v
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") {
			out[key] = args[i+1]
			i++
			continue
		}
		out[key] = true
	}
	return out
}

// MergeOverrides returns a copy of doc with overrides applied. Known numeric
// fields are coerced to int (gpu, num_epochs, micro_batch_size,
// gradient_accumulation_steps) or float (learning_rate); a value that does not
// convert is kept as given. Other string values that look numeric become
// numbers. Merging the same overrides twice yields the same document.
func MergeOverrides(doc Document, overrides map[string]interface{}) Document {
	out := doc.Clone()
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := coerce(k, overrides[k])
		logging.Info("Override: %s = %v", k, v)
		out[k] = v
	}
	return out
}

func coerce(key string, v interface{}) interface{} {
	switch {
	case intFields[key]:
		return toInt(v)
	case floatFields[key]:
		return toFloat(v)
	}
	s, ok := v.(string)
	if !ok {
		return v
	}
	if digitsRe.MatchString(s) {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	if floatRe.MatchString(s) && s != "." {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}

func toInt(v interface{}) interface{} {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == math.Trunc(n) {
			return int(n)
		}
		return n
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return v
}

func toFloat(v interface{}) interface{} {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
	}
	return v
}
