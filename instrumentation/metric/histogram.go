// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package metric

import (
	"fmt"
	"github.com/codahale/hdrhistogram"
	"github.com/orbs-network/scribe/log"
	"github.com/prometheus/client_golang/prometheus"
	"sync"
	"sync/atomic"
	"time"
)

type Histogram struct {
	namedMetric
	overflowCount int64

	mu struct {
		sync.Mutex
		histo *hdrhistogram.WindowedHistogram
	}
}

type histogramExport struct {
	Name    string
	Min     int64
	P50     int64
	P95     int64
	P99     int64
	Max     int64
	Avg     float64
	Samples int64
}

func newHistogram(name string, max int64) *Histogram {
	h := &Histogram{namedMetric: namedMetric{name: name}}
	h.mu.histo = hdrhistogram.NewWindowed(5, 1, max, 3)
	return h
}

func (h *Histogram) RecordSince(t time.Time) {
	h.Record(int64(time.Since(t)))
}

func (h *Histogram) Record(measurement int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.mu.histo.Current.RecordValue(measurement); err != nil {
		atomic.AddInt64(&h.overflowCount, 1)
	}
}

func (h *Histogram) Rotate() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.mu.histo.Rotate()
}

func (h *Histogram) CurrentSamples() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.mu.histo.Current.TotalCount()
}

func (h *Histogram) export() histogramExport {
	h.mu.Lock()
	defer h.mu.Unlock()

	histo := h.mu.histo.Merge()

	return histogramExport{
		h.name,
		histo.Min(),
		histo.ValueAtQuantile(50),
		histo.ValueAtQuantile(95),
		histo.ValueAtQuantile(99),
		histo.Max(),
		histo.Mean(),
		histo.TotalCount(),
	}
}

func (h *Histogram) Export() exportedMetric {
	return h.export()
}

func (h *Histogram) String() string {
	e := h.export()

	return fmt.Sprintf(
		"metric %s: [min=%d, p50=%d, p95=%d, p99=%d, max=%d, avg=%f, samples=%d, overflows=%d]\n",
		h.name, e.Min, e.P50, e.P95, e.P99, e.Max, e.Avg, e.Samples, atomic.LoadInt64(&h.overflowCount))
}

// exported as a summary in nanoseconds over the whole window
func (h *Histogram) collect(ch chan<- prometheus.Metric, labels prometheus.Labels) {
	e := h.export()
	desc := prometheus.NewDesc(prometheusName(h.name), h.name, nil, labels)
	quantiles := map[float64]float64{
		0.5:  float64(e.P50),
		0.95: float64(e.P95),
		0.99: float64(e.P99),
	}
	ch <- prometheus.MustNewConstSummary(desc, uint64(e.Samples), e.Avg*float64(e.Samples), quantiles)
}

func (h histogramExport) LogRow() []*log.Field {
	return []*log.Field{
		log.String("metric", h.Name),
		log.String("metric-type", "histogram"),
		log.Int64("min", h.Min),
		log.Int64("p50", h.P50),
		log.Int64("p95", h.P95),
		log.Int64("p99", h.P99),
		log.Int64("max", h.Max),
		log.Float64("avg", h.Avg),
		log.Int64("samples", h.Samples),
	}
}
