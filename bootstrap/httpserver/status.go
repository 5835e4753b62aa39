// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package httpserver

import (
	"github.com/orbs-network/gasless-counter/config"
	"github.com/orbs-network/gasless-counter/instrumentation/metric"
	"github.com/orbs-network/gasless-counter/services/counter"
	"net/http"
)

type StatusResponse struct {
	Counter counter.CounterState

	Ethereum struct {
		SyncStatus string
		LastBlock  int64
		ChainId    int64
	}

	Operations struct {
		LastStatus string
		Confirmed  int64
		Failed     int64
	}

	Subscription struct {
		Active int64
	}

	Version config.Version
}

func (s *HttpServer) getStatus(w http.ResponseWriter, r *http.Request) {
	metrics := s.metricRegistry

	status := StatusResponse{
		Counter: s.counter.State(),
		Version: config.GetVersion(),
	}

	status.Ethereum.SyncStatus = metricGetString(metrics, "Ethereum.Node.Sync.Status")
	status.Ethereum.LastBlock = metricGetGaugeValue(metrics, "Ethereum.Node.LastBlock")
	status.Ethereum.ChainId = metricGetGaugeValue(metrics, "Ethereum.Node.ChainId")

	status.Operations.LastStatus = metricGetString(metrics, "Sponsor.Operation.LastStatus")
	status.Operations.Confirmed = metricGetGaugeValue(metrics, "Sponsor.Operations.Confirmed.Count")
	status.Operations.Failed = metricGetGaugeValue(metrics, "Sponsor.Operations.BuildFailed.Count") +
		metricGetGaugeValue(metrics, "Sponsor.Operations.SponsorshipFailed.Count") +
		metricGetGaugeValue(metrics, "Sponsor.Operations.SubmissionFailed.Count")

	status.Subscription.Active = metricGetGaugeValue(metrics, "Counter.Subscription.Active")

	s.writeJson(w, http.StatusOK, status)
}

func metricGetGaugeValue(metrics metric.Registry, name string) int64 {
	if gauge, ok := metrics.Get(name).(*metric.Gauge); ok {
		return gauge.Value()
	}
	return 0
}

func metricGetString(metrics metric.Registry, name string) string {
	if text, ok := metrics.Get(name).(*metric.Text); ok {
		return text.Value()
	}
	return ""
}
