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
	"github.com/pkg/errors"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"
)

// BuildArtifact renders the ConfigMap that carries doc, without placement
// keys, under ArtifactKey.
func BuildArtifact(name string, labels map[string]string, doc Document) (string, error) {
	body, err := MarshalArtifact(doc)
	if err != nil {
		return "", err
	}
	cm := corev1.ConfigMap{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "ConfigMap"},
		ObjectMeta: metav1.ObjectMeta{Name: name, Labels: labels},
		Data:       map[string]string{ArtifactKey: body},
	}
	out, err := yaml.Marshal(&cm)
	if err != nil {
		return "", errors.Wrapf(err, "encoding ConfigMap %s", name)
	}
	return string(out), nil
}
