// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package metric

import (
	"context"
	"github.com/beevik/ntp"
	"github.com/orbs-network/gasless-counter/synchronization"
	"github.com/orbs-network/govnr"
	"github.com/orbs-network/scribe/log"
	"time"
)

const NTP_QUERY_INTERVAL = 30 * time.Second

type ntpMetrics struct {
	drift *Gauge
}

type ntpReporter struct {
	metrics ntpMetrics
	address string
}

func NewNtpReporter(ctx context.Context, metricFactory Factory, logger log.Logger, ntpServerAddress string) govnr.ShutdownWaiter {
	r := &ntpReporter{
		metrics: ntpMetrics{
			drift: metricFactory.NewGauge("OS.Time.Drift.Millis"),
		},
		address: ntpServerAddress,
	}

	return synchronization.NewPeriodicalTrigger(ctx, "NTP metric reporter", synchronization.NewTimeTicker(NTP_QUERY_INTERVAL), logger, func() {
		response, err := ntp.Query(r.address)

		if err != nil {
			logger.Info("could not query ntp server", log.String("ntp-server", r.address), log.Error(err))
		} else {
			r.metrics.drift.Update(response.ClockOffset.Milliseconds())
		}
	}, nil)
}
