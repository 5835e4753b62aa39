// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package metric

import (
	"fmt"
	"github.com/VividCortex/ewma"
	"github.com/orbs-network/scribe/log"
	"github.com/prometheus/client_golang/prometheus"
	"sync"
	"time"
)

var tickInterval = 1 * time.Second

type Rate struct {
	namedMetric

	mu struct {
		sync.Mutex
		movingAverage ewma.MovingAverage
		runningSum    int64
		nextTick      time.Time
	}
}

type rateExport struct {
	Name     string
	Rate     float64
	Interval time.Duration
}

func newRate(name string) *Rate {
	return newRateWithStart(name, time.Now())
}

func newRateWithStart(name string, start time.Time) *Rate {
	r := &Rate{namedMetric: namedMetric{name: name}}
	r.mu.movingAverage = ewma.NewMovingAverage()
	r.mu.nextTick = start.Add(tickInterval)
	return r
}

func (r *Rate) Measure(eventCount int64) {
	r.maybeRotateAsOf(time.Now())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.mu.runningSum += eventCount
}

func (r *Rate) maybeRotateAsOf(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for !r.mu.nextTick.After(now) {
		r.mu.movingAverage.Add(float64(r.mu.runningSum))
		r.mu.runningSum = 0
		r.mu.nextTick = r.mu.nextTick.Add(tickInterval)
	}
}

func (r *Rate) export() rateExport {
	r.mu.Lock()
	defer r.mu.Unlock()

	return rateExport{
		r.name,
		r.mu.movingAverage.Value(),
		tickInterval,
	}
}

func (r *Rate) Export() exportedMetric {
	r.maybeRotateAsOf(time.Now())
	return r.export()
}

func (r *Rate) String() string {
	e := r.export()
	return fmt.Sprintf("metric %s: %f per %s\n", r.name, e.Rate, e.Interval)
}

func (r *Rate) collect(ch chan<- prometheus.Metric, labels prometheus.Labels) {
	desc := prometheus.NewDesc(prometheusName(r.name), r.name, nil, labels)
	ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, r.export().Rate)
}

func (r rateExport) LogRow() []*log.Field {
	return []*log.Field{
		log.String("metric", r.Name),
		log.String("metric-type", "rate"),
		log.Float64("rate", r.Rate),
		log.Stringable("interval", r.Interval),
	}
}
