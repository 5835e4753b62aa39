// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package adapter

import (
	"context"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
	"github.com/orbs-network/gasless-counter/instrumentation/logfields"
	"github.com/orbs-network/scribe/log"
	"github.com/pkg/errors"
	"math/big"
	"time"
)

const LOG_POLLING_INTERVAL = 4 * time.Second

type ContractBackend interface {
	ethereum.ContractCaller
	ethereum.LogFilterer
	BlockNumber(ctx context.Context) (uint64, error)
}

// EthereumCounterContract reads the counter through eth_call and follows its events with a log subscription,
// falling back to polling when the node cannot push notifications (plain http endpoints)
type EthereumCounterContract struct {
	logger          log.Logger
	address         common.Address
	backend         ContractBackend
	abi             abi.ABI
	pollingInterval time.Duration
}

func NewEthereumCounterContract(address common.Address, backend ContractBackend, parentLogger log.Logger) *EthereumCounterContract {
	return &EthereumCounterContract{
		logger:          parentLogger.WithTags(log.String("adapter", "counter-contract"), logfields.ContractAddress(address)),
		address:         address,
		backend:         backend,
		abi:             counterABI,
		pollingInterval: LOG_POLLING_INTERVAL,
	}
}

func (c *EthereumCounterContract) Address() common.Address {
	return c.address
}

func (c *EthereumCounterContract) BlockNumber(ctx context.Context) (uint64, error) {
	block, err := c.backend.BlockNumber(ctx)
	return block, errors.Wrap(err, "failed to read latest block number")
}

func (c *EthereumCounterContract) Number(ctx context.Context, block uint64) (uint64, error) {
	value, err := c.callSingle(ctx, NumberMethod, block)
	if err != nil {
		return 0, err
	}

	n, ok := value.(*big.Int)
	if !ok {
		return 0, errors.Errorf("unexpected %s output type %T", NumberMethod, value)
	}
	return toUint64(n)
}

func (c *EthereumCounterContract) LastUser(ctx context.Context, block uint64) (common.Address, error) {
	value, err := c.callSingle(ctx, LastUserMethod, block)
	if err != nil {
		return common.Address{}, err
	}

	address, ok := value.(common.Address)
	if !ok {
		return common.Address{}, errors.Errorf("unexpected %s output type %T", LastUserMethod, value)
	}
	return address, nil
}

func (c *EthereumCounterContract) callSingle(ctx context.Context, method string, block uint64) (interface{}, error) {
	data, err := c.abi.Pack(method)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s", method)
	}

	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &c.address, Data: data}, new(big.Int).SetUint64(block))
	if err != nil {
		return nil, errors.Wrapf(err, "failed calling %s on %s", method, c.address.Hex())
	}

	values, err := c.abi.Unpack(method, out)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s output from %s", method, c.address.Hex())
	}

	if len(values) != 1 {
		return nil, errors.Errorf("expected a single %s output, got %d", method, len(values))
	}
	return values[0], nil
}

func (c *EthereumCounterContract) query() ethereum.FilterQuery {
	return ethereum.FilterQuery{
		Addresses: []common.Address{c.address},
		Topics:    [][]common.Hash{{c.abi.Events[UpdateCountEvent].ID}},
	}
}

func (c *EthereumCounterContract) WatchUpdateCount(ctx context.Context, sink chan<- *CountUpdated) (ethereum.Subscription, error) {
	logs := make(chan types.Log, 16)
	sub, err := c.backend.SubscribeFilterLogs(ctx, c.query(), logs)
	if errors.Is(err, rpc.ErrNotificationsUnsupported) {
		return c.pollUpdateCount(ctx, sink)
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to subscribe to counter events")
	}

	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer sub.Unsubscribe()
		for {
			select {
			case l := <-logs:
				if err := c.deliver(l, sink, quit); err != nil {
					return err
				}
			case err := <-sub.Err():
				return err
			case <-quit:
				return nil
			}
		}
	}), nil
}

func (c *EthereumCounterContract) pollUpdateCount(ctx context.Context, sink chan<- *CountUpdated) (ethereum.Subscription, error) {
	from, err := c.backend.BlockNumber(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read head block for counter event polling")
	}

	c.logger.Info("node does not support subscriptions, polling for counter events", logfields.BlockNumber(from))

	return event.NewSubscription(func(quit <-chan struct{}) error {
		ticker := time.NewTicker(c.pollingInterval)
		defer ticker.Stop()

		next := from + 1
		for {
			select {
			case <-ticker.C:
			case <-quit:
				return nil
			}

			head, err := c.backend.BlockNumber(ctx)
			if err != nil {
				return errors.Wrap(err, "failed to read head block")
			}
			if head < next {
				continue
			}

			query := c.query()
			query.FromBlock = new(big.Int).SetUint64(next)
			query.ToBlock = new(big.Int).SetUint64(head)
			logs, err := c.backend.FilterLogs(ctx, query)
			if err != nil {
				return errors.Wrapf(err, "failed to filter counter events in blocks %d-%d", next, head)
			}

			for _, l := range logs {
				if err := c.deliver(l, sink, quit); err != nil {
					return err
				}
			}
			next = head + 1
		}
	}), nil
}

func (c *EthereumCounterContract) deliver(l types.Log, sink chan<- *CountUpdated, quit <-chan struct{}) error {
	// logs of reorged blocks are re-sent with Removed set
	if l.Removed {
		return nil
	}

	update, err := c.decodeUpdateCount(l)
	if err != nil {
		return err
	}

	select {
	case sink <- update:
	case <-quit:
	}
	return nil
}

func (c *EthereumCounterContract) decodeUpdateCount(l types.Log) (*CountUpdated, error) {
	values, err := c.abi.Unpack(UpdateCountEvent, l.Data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s event in tx %s", UpdateCountEvent, l.TxHash.Hex())
	}

	n, ok := values[0].(*big.Int)
	if !ok {
		return nil, errors.Errorf("unexpected %s payload type %T", UpdateCountEvent, values[0])
	}

	count, err := toUint64(n)
	if err != nil {
		return nil, err
	}

	return &CountUpdated{
		NewCount:    count,
		BlockNumber: l.BlockNumber,
		TxHash:      l.TxHash,
	}, nil
}

func toUint64(n *big.Int) (uint64, error) {
	value, overflow := uint256.FromBig(n)
	if overflow || !value.IsUint64() {
		return 0, errors.Errorf("count %s does not fit in 64 bits", n.String())
	}
	return value.Uint64(), nil
}
