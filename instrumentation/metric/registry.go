// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package metric

import (
	"context"
	"fmt"
	"github.com/orbs-network/gasless-counter/synchronization"
	"github.com/orbs-network/govnr"
	"github.com/orbs-network/scribe/log"
	"github.com/prometheus/client_golang/prometheus"
	"sort"
	"sync"
	"time"
)

type Factory interface {
	NewLatency(name string, maxDuration time.Duration) *Histogram
	NewGauge(name string) *Gauge
	NewRate(name string) *Rate
	NewText(name string, defaultValue ...string) *Text
}

type Registry interface {
	Factory
	String() string
	ExportAll() map[string]exportedMetric
	Get(name string) metric
	Collector() prometheus.Collector
	ReportEvery(ctx context.Context, interval time.Duration, logger log.Logger) govnr.ShutdownWaiter
}

type exportedMetric interface {
	LogRow() []*log.Field
}

type metric interface {
	fmt.Stringer
	Name() string
	Export() exportedMetric
	collect(ch chan<- prometheus.Metric, labels prometheus.Labels)
}

type namedMetric struct {
	name string
}

func (m *namedMetric) Name() string {
	return m.name
}

func NewRegistry() *inMemoryRegistry {
	return &inMemoryRegistry{labels: make(prometheus.Labels)}
}

type inMemoryRegistry struct {
	labels prometheus.Labels
	mu     struct {
		sync.RWMutex
		metrics map[string]metric
	}
}

// WithLabel attaches a constant label to every series exported to prometheus
func (r *inMemoryRegistry) WithLabel(name string, value string) *inMemoryRegistry {
	r.labels[name] = value
	return r
}

func (r *inMemoryRegistry) register(m metric) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.mu.metrics == nil {
		r.mu.metrics = make(map[string]metric)
	}
	r.mu.metrics[m.Name()] = m
}

func (r *inMemoryRegistry) Get(name string) metric {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.mu.metrics[name]
}

func (r *inMemoryRegistry) NewRate(name string) *Rate {
	m := newRate(name)
	r.register(m)
	return m
}

func (r *inMemoryRegistry) NewGauge(name string) *Gauge {
	g := &Gauge{namedMetric: namedMetric{name: name}}
	r.register(g)
	return g
}

func (r *inMemoryRegistry) NewLatency(name string, maxDuration time.Duration) *Histogram {
	h := newHistogram(name, maxDuration.Nanoseconds())
	r.register(h)
	return h
}

func (r *inMemoryRegistry) NewText(name string, defaultValue ...string) *Text {
	t := newText(name, defaultValue...)
	r.register(t)
	return t
}

func (r *inMemoryRegistry) sorted() []metric {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]metric, 0, len(r.mu.metrics))
	for _, m := range r.mu.metrics {
		all = append(all, m)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Name() < all[j].Name()
	})
	return all
}

func (r *inMemoryRegistry) String() string {
	var s string
	for _, m := range r.sorted() {
		s += m.String()
	}

	return s
}

func (r *inMemoryRegistry) ExportAll() map[string]exportedMetric {
	all := make(map[string]exportedMetric)
	for _, m := range r.sorted() {
		all[m.Name()] = m.Export()
	}

	return all
}

func (r *inMemoryRegistry) report(logger log.Logger) {
	for _, m := range r.sorted() {
		if logRow := m.Export().LogRow(); logRow != nil {
			logger.Metric(logRow...)
		}
	}
}

func (r *inMemoryRegistry) rotateHistograms() {
	for _, m := range r.sorted() {
		if h, ok := m.(*Histogram); ok {
			h.Rotate()
		}
	}
}

func (r *inMemoryRegistry) ReportEvery(ctx context.Context, interval time.Duration, logger log.Logger) govnr.ShutdownWaiter {
	return synchronization.NewPeriodicalTrigger(ctx, "metric registry reporter", synchronization.NewTimeTicker(interval), logger, func() {
		r.report(logger)
		r.rotateHistograms()
	}, func() {
		r.report(logger)
	})
}
