// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package ethrpc

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"math/big"
	"sync"
)

type CallHandler func(from common.Address, data []byte) ([]byte, error)

// FakeEthService answers the subset of the eth namespace the node uses
type FakeEthService struct {
	mu       sync.Mutex
	chainId  *big.Int
	gasPrice *big.Int
	block    uint64
	handlers map[common.Address]CallHandler
	calls    int
}

func NewFakeEthService(chainId int64) *FakeEthService {
	return &FakeEthService{
		chainId:  big.NewInt(chainId),
		gasPrice: big.NewInt(1000000000),
		block:    1,
		handlers: make(map[common.Address]CallHandler),
	}
}

type CallArgs struct {
	From  *common.Address `json:"from"`
	To    *common.Address `json:"to"`
	Data  *hexutil.Bytes  `json:"data"`
	Input *hexutil.Bytes  `json:"input"`
}

func (a CallArgs) data() []byte {
	if a.Input != nil {
		return *a.Input
	}
	if a.Data != nil {
		return *a.Data
	}
	return nil
}

func (s *FakeEthService) HandleCalls(to common.Address, handler CallHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[to] = handler
}

func (s *FakeEthService) SetGasPrice(price *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gasPrice = price
}

func (s *FakeEthService) SetBlock(block uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.block = block
}

func (s *FakeEthService) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *FakeEthService) ChainId() *hexutil.Big {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (*hexutil.Big)(new(big.Int).Set(s.chainId))
}

func (s *FakeEthService) GasPrice() *hexutil.Big {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (*hexutil.Big)(new(big.Int).Set(s.gasPrice))
}

func (s *FakeEthService) BlockNumber() hexutil.Uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return hexutil.Uint64(s.block)
}

func (s *FakeEthService) Syncing() (interface{}, error) {
	return false, nil
}

func (s *FakeEthService) Call(args CallArgs, block string) (hexutil.Bytes, error) {
	s.mu.Lock()
	s.calls++
	var handler CallHandler
	if args.To != nil {
		handler = s.handlers[*args.To]
	}
	s.mu.Unlock()

	if handler == nil {
		// a call to an address without code returns empty output
		return hexutil.Bytes{}, nil
	}

	var from common.Address
	if args.From != nil {
		from = *args.From
	}

	out, err := handler(from, args.data())
	if err != nil {
		return nil, errors.Wrap(err, "execution reverted")
	}
	return out, nil
}
