// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package adapter

import (
	"context"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/orbs-network/gasless-counter/test"
	"github.com/orbs-network/gasless-counter/test/with"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"math/big"
	"sync"
	"testing"
	"time"
)

var contractAddress = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
var someUser = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")

type fakeBackend struct {
	sync.Mutex
	number      *big.Int
	lastUser    common.Address
	callErr     error
	logs        chan<- types.Log
	subErr      chan error
	noSubscribe bool
	head        uint64
	filtered    []types.Log
	queries     []ethereum.FilterQuery
	callBlocks  []uint64
}

func (b *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if b.callErr != nil {
		return nil, b.callErr
	}
	b.Lock()
	b.callBlocks = append(b.callBlocks, blockNumber.Uint64())
	b.Unlock()
	method, err := counterABI.MethodById(call.Data)
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case NumberMethod:
		return method.Outputs.Pack(b.number)
	case LastUserMethod:
		return method.Outputs.Pack(b.lastUser)
	}
	return nil, errors.Errorf("unexpected call to %s", method.Name)
}

func (b *fakeBackend) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	b.Lock()
	defer b.Unlock()
	b.queries = append(b.queries, q)
	logs := b.filtered
	b.filtered = nil
	return logs, nil
}

func (b *fakeBackend) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	if b.noSubscribe {
		return nil, rpc.ErrNotificationsUnsupported
	}
	b.Lock()
	b.logs = ch
	b.subErr = make(chan error, 1)
	errs := b.subErr
	b.Unlock()

	return event.NewSubscription(func(quit <-chan struct{}) error {
		select {
		case err := <-errs:
			return err
		case <-quit:
			return nil
		}
	}), nil
}

func (b *fakeBackend) BlockNumber(ctx context.Context) (uint64, error) {
	b.Lock()
	defer b.Unlock()
	return b.head, nil
}

func updateCountLog(t *testing.T, count int64, block uint64) types.Log {
	data, err := counterABI.Events[UpdateCountEvent].Inputs.Pack(big.NewInt(count))
	require.NoError(t, err)
	return types.Log{
		Address:     contractAddress,
		Topics:      []common.Hash{counterABI.Events[UpdateCountEvent].ID},
		Data:        data,
		BlockNumber: block,
	}
}

func TestEthereumCounterContract_ReadsNumberAndLastUser(t *testing.T) {
	with.Logging(t, func(harness *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			backend := &fakeBackend{number: big.NewInt(7), lastUser: someUser, head: 42}
			contract := NewEthereumCounterContract(contractAddress, backend, harness.Logger)

			head, err := contract.BlockNumber(ctx)
			require.NoError(t, err)
			require.EqualValues(t, 42, head)

			number, err := contract.Number(ctx, head)
			require.NoError(t, err)
			require.EqualValues(t, 7, number)

			lastUser, err := contract.LastUser(ctx, head)
			require.NoError(t, err)
			require.Equal(t, someUser, lastUser)

			backend.Lock()
			defer backend.Unlock()
			require.Equal(t, []uint64{42, 42}, backend.callBlocks, "both values are read at the same block")
		})
	})
}

func TestEthereumCounterContract_RejectsCountAbove64Bits(t *testing.T) {
	with.Logging(t, func(harness *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			huge := new(big.Int).Lsh(big.NewInt(1), 64)
			contract := NewEthereumCounterContract(contractAddress, &fakeBackend{number: huge}, harness.Logger)

			_, err := contract.Number(ctx, 0)
			require.Error(t, err)
		})
	})
}

func TestEthereumCounterContract_ReadFailureIsWrapped(t *testing.T) {
	with.Logging(t, func(harness *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			contract := NewEthereumCounterContract(contractAddress, &fakeBackend{callErr: errors.New("connection refused")}, harness.Logger)

			_, err := contract.Number(ctx, 0)
			require.EqualError(t, err, "failed calling number on 0x5FbDB2315678afecb367f032d93F642f64180aa3: connection refused")
		})
	})
}

func TestEthereumCounterContract_DeliversSubscribedEvents(t *testing.T) {
	with.Logging(t, func(harness *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			backend := &fakeBackend{}
			contract := NewEthereumCounterContract(contractAddress, backend, harness.Logger)

			sink := make(chan *CountUpdated, 1)
			sub, err := contract.WatchUpdateCount(ctx, sink)
			require.NoError(t, err)
			defer sub.Unsubscribe()

			removed := updateCountLog(t, 99, 9)
			removed.Removed = true
			backend.logs <- removed
			backend.logs <- updateCountLog(t, 12, 10)

			select {
			case update := <-sink:
				require.EqualValues(t, 12, update.NewCount)
				require.EqualValues(t, 10, update.BlockNumber)
			case <-time.After(time.Second):
				t.Fatal("event was not delivered")
			}
		})
	})
}

func TestEthereumCounterContract_SubscriptionErrorEndsSubscription(t *testing.T) {
	with.Logging(t, func(harness *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			backend := &fakeBackend{}
			contract := NewEthereumCounterContract(contractAddress, backend, harness.Logger)

			sub, err := contract.WatchUpdateCount(ctx, make(chan *CountUpdated))
			require.NoError(t, err)

			backend.subErr <- errors.New("websocket closed")

			select {
			case err := <-sub.Err():
				require.EqualError(t, err, "websocket closed")
			case <-time.After(time.Second):
				t.Fatal("subscription error was not propagated")
			}
		})
	})
}

func TestEthereumCounterContract_FallsBackToPollingWithoutNotifications(t *testing.T) {
	with.Logging(t, func(harness *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			backend := &fakeBackend{noSubscribe: true, head: 100}
			contract := NewEthereumCounterContract(contractAddress, backend, harness.Logger)
			contract.pollingInterval = time.Millisecond

			sink := make(chan *CountUpdated, 1)
			sub, err := contract.WatchUpdateCount(ctx, sink)
			require.NoError(t, err)
			defer sub.Unsubscribe()

			backend.Lock()
			backend.head = 102
			backend.filtered = []types.Log{updateCountLog(t, 5, 102)}
			backend.Unlock()

			select {
			case update := <-sink:
				require.EqualValues(t, 5, update.NewCount)
			case <-time.After(time.Second):
				t.Fatal("polled event was not delivered")
			}

			backend.Lock()
			defer backend.Unlock()
			require.EqualValues(t, 101, backend.queries[0].FromBlock.Uint64())
			require.EqualValues(t, 102, backend.queries[0].ToBlock.Uint64())
		})
	})
}
