// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"strings"
)

type registryCollector struct {
	registry *inMemoryRegistry
}

// Collector exposes the registry to prometheus; it is unchecked since metrics are registered at runtime
func (r *inMemoryRegistry) Collector() prometheus.Collector {
	return &registryCollector{registry: r}
}

func (c *registryCollector) Describe(ch chan<- *prometheus.Desc) {}

func (c *registryCollector) Collect(ch chan<- prometheus.Metric) {
	for _, m := range c.registry.sorted() {
		m.collect(ch, c.registry.labels)
	}
}

func prometheusName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}
