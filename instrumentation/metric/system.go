// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package metric

import (
	"context"
	"fmt"
	"github.com/c9s/goprocinfo/linux"
	"github.com/orbs-network/gasless-counter/synchronization"
	"github.com/orbs-network/govnr"
	"github.com/orbs-network/scribe/log"
	"os"
	"time"
)

const SYSTEM_METRICS_INTERVAL = 3 * time.Second
const PAGESIZE = 4096

type systemMetrics struct {
	rssBytes       *Gauge
	cpuUtilization *Gauge
}

type systemReporter struct {
	metrics  systemMetrics
	previous *cpuSample
}

type cpuSample struct {
	process uint64
	total   uint64
}

func NewSystemReporter(ctx context.Context, metricFactory Factory, logger log.Logger) govnr.ShutdownWaiter {
	r := &systemReporter{
		metrics: systemMetrics{
			rssBytes:       metricFactory.NewGauge("OS.Process.Memory.Bytes"),
			cpuUtilization: metricFactory.NewGauge("OS.Process.CPU.PerCent"),
		},
	}

	return synchronization.NewPeriodicalTrigger(ctx, "system metric reporter", synchronization.NewTimeTicker(SYSTEM_METRICS_INTERVAL), logger, func() {
		r.reportSystemMetrics(logger)
	}, nil)
}

func (r *systemReporter) reportSystemMetrics(logger log.Logger) {
	if _, err := os.Stat("/proc"); os.IsNotExist(err) {
		return
	}

	if rss, err := getRssMemory(); err != nil {
		logger.Info("failed to retrieve memory stats", log.Error(err))
	} else {
		r.metrics.rssBytes.Update(rss)
	}

	sample, err := readCPUSample()
	if err != nil {
		logger.Info("failed to retrieve cpu stats", log.Error(err))
		return
	}

	// procfs counters are cumulative since boot, so utilization is the delta between two consecutive samples
	if r.previous != nil && sample.total > r.previous.total {
		percent := float64(sample.process-r.previous.process) / float64(sample.total-r.previous.total) * 100
		r.metrics.cpuUtilization.Update(int64(percent))
	}
	r.previous = sample
}

func getRssMemory() (int64, error) {
	statm, err := linux.ReadProcessStatm(fmt.Sprintf("/proc/%d/statm", os.Getpid()))
	if err != nil {
		return 0, err
	}

	return int64(statm.Resident * PAGESIZE), nil
}

func readCPUSample() (*cpuSample, error) {
	process, err := linux.ReadProcess(uint64(os.Getpid()), "/proc")
	if err != nil {
		return nil, err
	}

	stat, err := linux.ReadStat("/proc/stat")
	if err != nil {
		return nil, err
	}
	all := stat.CPUStatAll

	return &cpuSample{
		process: process.Stat.Utime + process.Stat.Stime + uint64(process.Stat.Cutime+process.Stat.Cstime),
		total:   all.User + all.Nice + all.System + all.Idle,
	}, nil
}
