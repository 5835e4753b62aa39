// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package chain

import (
	"context"
	"github.com/orbs-network/gasless-counter/instrumentation/logfields"
	"github.com/orbs-network/gasless-counter/instrumentation/metric"
	"github.com/orbs-network/gasless-counter/synchronization"
	"github.com/orbs-network/scribe/log"
	"github.com/pkg/errors"
	"time"
)

const STATUS_FAILED = "failed"
const STATUS_SUCCESS = "success"
const STATUS_IN_PROGRESS = "in-progress"

const CONNECTION_STATUS_INTERVAL = 30 * time.Second

type connectionStatusMetrics struct {
	syncStatus *metric.Text
	lastBlock  *metric.Gauge
	chainId    *metric.Gauge
}

func createConnectionStatusMetrics(registry metric.Factory) *connectionStatusMetrics {
	return &connectionStatusMetrics{
		syncStatus: registry.NewText("Ethereum.Node.Sync.Status", STATUS_FAILED),
		lastBlock:  registry.NewGauge("Ethereum.Node.LastBlock"),
		chainId:    registry.NewGauge("Ethereum.Node.ChainId"),
	}
}

func (c *EthereumRpcConnection) ReportConnectionStatus(ctx context.Context, registry metric.Factory) {
	metrics := createConnectionStatusMetrics(registry)

	trigger := synchronization.NewPeriodicalTrigger(ctx, "ethereum connection status reporter", synchronization.NewTimeTicker(CONNECTION_STATUS_INTERVAL), c.logger, func() {
		if err := c.updateConnectionStatus(ctx, metrics); err != nil {
			c.logger.Info("ethereum rpc connection status check failed", log.Error(err))
		}
	}, nil)

	c.Supervise(trigger)
}

func (c *EthereumRpcConnection) updateConnectionStatus(ctx context.Context, m *connectionStatusMetrics) error {
	syncStatus, err := c.SyncProgress(ctx)
	if err != nil {
		m.syncStatus.Update(STATUS_FAILED)
		return errors.Wrap(err, "failed to read sync progress")
	} else if syncStatus == nil {
		m.syncStatus.Update(STATUS_SUCCESS)
	} else {
		m.syncStatus.Update(STATUS_IN_PROGRESS)
	}

	blockNumber, err := c.BlockNumber(ctx)
	if err != nil {
		m.lastBlock.Update(0)
		return errors.Wrap(err, "failed to read last block")
	}
	m.lastBlock.UpdateUint64(blockNumber)

	chainId, err := c.ChainID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to read chain id")
	}
	m.chainId.Update(chainId.Int64())

	c.logger.Info("ethereum node status", logfields.BlockNumber(blockNumber), log.String("sync-status", m.syncStatus.Value()))
	return nil
}
