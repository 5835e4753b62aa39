// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package metric

import (
	"fmt"
	"github.com/orbs-network/scribe/log"
	"github.com/prometheus/client_golang/prometheus"
	"sync/atomic"
)

type Text struct {
	namedMetric
	value atomic.Value
}

type textExport struct {
	Name  string
	Value string
}

func newText(name string, defaultValue ...string) *Text {
	value := ""

	if len(defaultValue) == 1 {
		value = defaultValue[0]
	}

	t := &Text{namedMetric: namedMetric{name: name}}
	t.value.Store(value)
	return t
}

func (t *Text) Export() exportedMetric {
	return textExport{
		t.name,
		t.Value(),
	}
}

func (t *Text) Update(value string) {
	t.value.Store(value)
}

func (t *Text) String() string {
	return fmt.Sprintf("metric %s: %s\n", t.name, t.Value())
}

func (t *Text) Value() string {
	return t.value.Load().(string)
}

// exported as an info style series: constant 1 with the text as a label
func (t *Text) collect(ch chan<- prometheus.Metric, labels prometheus.Labels) {
	desc := prometheus.NewDesc(prometheusName(t.name), t.name, []string{"value"}, labels)
	ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, 1, t.Value())
}

func (t textExport) LogRow() []*log.Field {
	return []*log.Field{
		log.String("metric", t.Name),
		log.String("metric-type", "text"),
		log.String("text", t.Value),
	}
}
