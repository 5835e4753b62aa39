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
	"strings"
)

const CounterABI = `[
	{"type":"function","name":"number","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"lastUser","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"increment","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"decrement","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"event","name":"updateCount","anonymous":false,"inputs":[{"name":"newCount","type":"uint256","indexed":false}]}
]`

const (
	NumberMethod     = "number"
	LastUserMethod   = "lastUser"
	IncrementMethod  = "increment"
	DecrementMethod  = "decrement"
	UpdateCountEvent = "updateCount"
)

// CountUpdated is the decoded "updateCount" event
type CountUpdated struct {
	NewCount    uint64
	BlockNumber uint64
	TxHash      common.Hash
}

type CounterContract interface {
	Address() common.Address
	BlockNumber(ctx context.Context) (uint64, error)
	Number(ctx context.Context, block uint64) (uint64, error)
	LastUser(ctx context.Context, block uint64) (common.Address, error)

	// WatchUpdateCount delivers every "updateCount" event to sink until the subscription is unsubscribed or fails
	WatchUpdateCount(ctx context.Context, sink chan<- *CountUpdated) (ethereum.Subscription, error)
}

func ParseCounterABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(CounterABI))
	if err != nil {
		panic(err)
	}
	return parsed
}

// EncodeCall returns the calldata of one of the zero argument mutating functions
func EncodeCall(method string) ([]byte, error) {
	return counterABI.Pack(method)
}

var counterABI = ParseCounterABI()
