// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package adapter

import (
	"bytes"
	"context"
	"encoding/binary"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"
	"sync"
)

var ErrArithmeticUnderflow = errors.New("execution reverted: arithmetic underflow")

type memorySnapshot struct {
	count    uint64
	lastUser common.Address
}

type memorySubscription struct {
	sink     chan<- *CountUpdated
	failures chan error
	done     chan struct{}
}

// MemoryCounterContract is an in-process counter with the same observable behavior as the deployed contract
type MemoryCounterContract struct {
	address common.Address

	emit sync.Mutex
	mu   struct {
		sync.Mutex
		count         uint64
		lastUser      common.Address
		block         uint64
		history       []memorySnapshot
		reads         int
		readErr       error
		subscribeErr  error
		subscriptions map[int]*memorySubscription
		nextId        int
	}
}

func NewMemoryCounterContract(address common.Address) *MemoryCounterContract {
	c := &MemoryCounterContract{address: address}
	c.mu.subscriptions = make(map[int]*memorySubscription)
	c.mu.history = []memorySnapshot{{}}
	return c
}

func (c *MemoryCounterContract) Address() common.Address {
	return c.address
}

func (c *MemoryCounterContract) BlockNumber(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mu.readErr != nil {
		return 0, c.mu.readErr
	}
	return c.mu.block, nil
}

func (c *MemoryCounterContract) Number(ctx context.Context, block uint64) (uint64, error) {
	snapshot, err := c.readAt(block)
	return snapshot.count, err
}

func (c *MemoryCounterContract) LastUser(ctx context.Context, block uint64) (common.Address, error) {
	snapshot, err := c.readAt(block)
	return snapshot.lastUser, err
}

func (c *MemoryCounterContract) readAt(block uint64) (memorySnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mu.reads++
	if c.mu.readErr != nil {
		return memorySnapshot{}, c.mu.readErr
	}
	if block > c.mu.block {
		return memorySnapshot{}, errors.Errorf("header not found for block %d", block)
	}
	return c.mu.history[block], nil
}

func (c *MemoryCounterContract) WatchUpdateCount(ctx context.Context, sink chan<- *CountUpdated) (ethereum.Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mu.subscribeErr != nil {
		return nil, c.mu.subscribeErr
	}

	id := c.mu.nextId
	c.mu.nextId++
	s := &memorySubscription{
		sink:     sink,
		failures: make(chan error, 1),
		done:     make(chan struct{}),
	}
	c.mu.subscriptions[id] = s

	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer c.removeSubscription(id)
		select {
		case <-quit:
			return nil
		case err := <-s.failures:
			return err
		}
	}), nil
}

func (c *MemoryCounterContract) removeSubscription(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.mu.subscriptions[id]; ok {
		close(s.done)
		delete(c.mu.subscriptions, id)
	}
}

// Execute applies a call sent by from, the way a transaction would be executed on chain
func (c *MemoryCounterContract) Execute(ctx context.Context, from common.Address, to common.Address, data []byte) error {
	if to != c.address {
		return errors.Errorf("no contract deployed at %s", to.Hex())
	}
	if len(data) < 4 {
		return errors.Errorf("call data too short: %d bytes", len(data))
	}

	c.emit.Lock()
	defer c.emit.Unlock()

	update, err := c.apply(from, data[:4])
	if err != nil {
		return err
	}

	c.mu.Lock()
	subscriptions := make([]*memorySubscription, 0, len(c.mu.subscriptions))
	for _, s := range c.mu.subscriptions {
		subscriptions = append(subscriptions, s)
	}
	c.mu.Unlock()

	for _, s := range subscriptions {
		select {
		case s.sink <- update:
		case <-s.done:
		}
	}

	return nil
}

func (c *MemoryCounterContract) apply(from common.Address, selector []byte) (*CountUpdated, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case bytes.Equal(selector, counterABI.Methods[IncrementMethod].ID):
		c.mu.count++
	case bytes.Equal(selector, counterABI.Methods[DecrementMethod].ID):
		if c.mu.count == 0 {
			return nil, ErrArithmeticUnderflow
		}
		c.mu.count--
	default:
		return nil, errors.Errorf("execution reverted: unknown function selector %x", selector)
	}

	c.mu.lastUser = from
	c.mu.block++
	c.mu.history = append(c.mu.history, memorySnapshot{count: c.mu.count, lastUser: from})

	blockBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(blockBytes, c.mu.block)

	return &CountUpdated{
		NewCount:    c.mu.count,
		BlockNumber: c.mu.block,
		TxHash:      crypto.Keccak256Hash(from.Bytes(), blockBytes),
	}, nil
}

// SetState changes the stored values of the current block without emitting an event
func (c *MemoryCounterContract) SetState(count uint64, lastUser common.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mu.count = count
	c.mu.lastUser = lastUser
	c.mu.history[c.mu.block] = memorySnapshot{count: count, lastUser: lastUser}
}

func (c *MemoryCounterContract) FailReads(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mu.readErr = err
}

func (c *MemoryCounterContract) FailSubscribe(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mu.subscribeErr = err
}

// DropSubscriptions terminates every live subscription with err, like a dropped websocket would
func (c *MemoryCounterContract) DropSubscriptions(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range c.mu.subscriptions {
		select {
		case s.failures <- err:
		default:
		}
	}
}

func (c *MemoryCounterContract) ActiveSubscriptions() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.mu.subscriptions)
}

func (c *MemoryCounterContract) ReadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.mu.reads
}
