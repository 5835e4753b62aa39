// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package chain

import (
	"context"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/orbs-network/govnr"
	"github.com/orbs-network/scribe/log"
	"github.com/pkg/errors"
	"math/big"
	"sync"
)

type connectionConfig interface {
	EthereumEndpoint() string
}

// EthereumCaller is everything the node needs from an ethereum client
type EthereumCaller interface {
	ethereum.ContractCaller
	ethereum.LogFilterer
	ethereum.GasPricer
	BlockNumber(ctx context.Context) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SyncProgress(ctx context.Context) (*ethereum.SyncProgress, error)
}

// EthereumRpcConnection dials the node lazily and shares one client between all callers
type EthereumRpcConnection struct {
	govnr.TreeSupervisor

	logger log.Logger
	dial   func(ctx context.Context) (*ethclient.Client, error)

	mu struct {
		sync.Mutex
		client *ethclient.Client
	}
}

func NewEthereumRpcConnection(config connectionConfig, parentLogger log.Logger) *EthereumRpcConnection {
	endpoint := config.EthereumEndpoint()
	return newConnection(parentLogger, func(ctx context.Context) (*ethclient.Client, error) {
		return ethclient.DialContext(ctx, endpoint)
	})
}

// NewEthereumRpcConnectionWithClient wraps an already connected client, e.g. one served in-process
func NewEthereumRpcConnectionWithClient(client *ethclient.Client, parentLogger log.Logger) *EthereumRpcConnection {
	return newConnection(parentLogger, func(ctx context.Context) (*ethclient.Client, error) {
		return client, nil
	})
}

func newConnection(parentLogger log.Logger, dial func(ctx context.Context) (*ethclient.Client, error)) *EthereumRpcConnection {
	return &EthereumRpcConnection{
		logger: parentLogger.WithTags(log.String("adapter", "ethereum")),
		dial:   dial,
	}
}

func (c *EthereumRpcConnection) client(ctx context.Context) (*ethclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mu.client != nil {
		return c.mu.client, nil
	}

	client, err := c.dial(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to ethereum node")
	}

	c.logger.Info("connected to ethereum node")
	c.mu.client = client
	return client, nil
}

func (c *EthereumRpcConnection) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	client, err := c.client(ctx)
	if err != nil {
		return nil, err
	}
	return client.CallContract(ctx, call, blockNumber)
}

func (c *EthereumRpcConnection) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	client, err := c.client(ctx)
	if err != nil {
		return nil, err
	}
	return client.FilterLogs(ctx, query)
}

func (c *EthereumRpcConnection) SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	client, err := c.client(ctx)
	if err != nil {
		return nil, err
	}
	return client.SubscribeFilterLogs(ctx, query, ch)
}

func (c *EthereumRpcConnection) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	client, err := c.client(ctx)
	if err != nil {
		return nil, err
	}
	return client.SuggestGasPrice(ctx)
}

func (c *EthereumRpcConnection) BlockNumber(ctx context.Context) (uint64, error) {
	client, err := c.client(ctx)
	if err != nil {
		return 0, err
	}
	return client.BlockNumber(ctx)
}

func (c *EthereumRpcConnection) ChainID(ctx context.Context) (*big.Int, error) {
	client, err := c.client(ctx)
	if err != nil {
		return nil, err
	}
	return client.ChainID(ctx)
}

func (c *EthereumRpcConnection) SyncProgress(ctx context.Context) (*ethereum.SyncProgress, error) {
	client, err := c.client(ctx)
	if err != nil {
		return nil, err
	}
	return client.SyncProgress(ctx)
}

func (c *EthereumRpcConnection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mu.client != nil {
		c.mu.client.Close()
		c.mu.client = nil
	}
}
