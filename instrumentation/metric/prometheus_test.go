// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestCollector_ExportsAllMetricKinds(t *testing.T) {
	registry := NewRegistry().WithLabel("contract", "0xabc")
	registry.NewGauge("Counter.Value").Update(7)
	registry.NewText("Sponsor.Operation.LastStatus", "Confirmed")
	registry.NewRate("Sponsor.Operation.Rate")
	registry.NewLatency("Sponsor.Operation.ProcessingTime", time.Minute).Record(int64(time.Second))

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(registry.Collector())

	families, err := promRegistry.Gather()
	require.NoError(t, err)

	byName := make(map[string]float64)
	for _, family := range families {
		for _, m := range family.GetMetric() {
			require.Equal(t, "contract", m.GetLabel()[0].GetName())
			switch {
			case m.GetGauge() != nil:
				byName[family.GetName()] = m.GetGauge().GetValue()
			case m.GetSummary() != nil:
				byName[family.GetName()] = float64(m.GetSummary().GetSampleCount())
			}
		}
	}

	require.EqualValues(t, 7, byName["Counter_Value"])
	require.EqualValues(t, 1, byName["Sponsor_Operation_LastStatus"])
	require.EqualValues(t, 0, byName["Sponsor_Operation_Rate"])
	require.EqualValues(t, 1, byName["Sponsor_Operation_ProcessingTime"])
}

func TestPrometheusName(t *testing.T) {
	require.Equal(t, "OS_Time_Drift_Millis", prometheusName("OS.Time.Drift.Millis"))
}
