// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package ethrpc

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/orbs-network/gasless-counter/services/smartaccount"
	"github.com/pkg/errors"
	"math/big"
	"sync"
)

// FakeBundlerService serves the ERC-4337 bundler methods in the eth namespace
type FakeBundlerService struct {
	mu            sync.Mutex
	chainId       *big.Int
	estimateErr   error
	sendErr       error
	success       bool
	reason        string
	pendingPolls  int
	receiptErrs   []error
	sent          []*smartaccount.UserOperation
	receiptPolls  map[common.Hash]int
	receiptsCount int
}

func NewFakeBundlerService(chainId int64) *FakeBundlerService {
	return &FakeBundlerService{
		chainId:      big.NewInt(chainId),
		success:      true,
		receiptPolls: make(map[common.Hash]int),
	}
}

func (s *FakeBundlerService) FailEstimate(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.estimateErr = err
}

func (s *FakeBundlerService) FailSend(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendErr = err
}

func (s *FakeBundlerService) Revert(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.success = false
	s.reason = reason
}

// DelayReceipts makes the receipt of every operation unavailable for the first polls lookups
func (s *FakeBundlerService) DelayReceipts(polls int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingPolls = polls
}

// FailReceiptLookups fails the next receipt lookups with errs, one per lookup
func (s *FakeBundlerService) FailReceiptLookups(errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receiptErrs = append(s.receiptErrs, errs...)
}

func (s *FakeBundlerService) Sent() []*smartaccount.UserOperation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*smartaccount.UserOperation{}, s.sent...)
}

func (s *FakeBundlerService) ReceiptLookups() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receiptsCount
}

func (s *FakeBundlerService) EstimateUserOperationGas(op smartaccount.RpcUserOperation, entryPoint common.Address) (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.estimateErr != nil {
		return nil, s.estimateErr
	}
	// one value as a plain number, like some bundlers send
	return map[string]interface{}{
		"callGasLimit":         hexutil.Uint64(60000),
		"verificationGasLimit": hexutil.Uint64(100000),
		"preVerificationGas":   48000,
	}, nil
}

func (s *FakeBundlerService) SendUserOperation(op smartaccount.RpcUserOperation, entryPoint common.Address) (common.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sendErr != nil {
		return common.Hash{}, s.sendErr
	}

	userOp := op.ToUserOperation()
	if !userOp.HasPaymaster() {
		return common.Hash{}, errors.New("AA21 didn't pay prefund")
	}

	hash, err := userOp.Hash(entryPoint, s.chainId)
	if err != nil {
		return common.Hash{}, err
	}

	s.sent = append(s.sent, userOp)
	s.receiptPolls[hash] = 0
	return hash, nil
}

func (s *FakeBundlerService) GetUserOperationReceipt(hash common.Hash) (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.receiptsCount++
	if len(s.receiptErrs) > 0 {
		err := s.receiptErrs[0]
		s.receiptErrs = s.receiptErrs[1:]
		return nil, err
	}
	polls, ok := s.receiptPolls[hash]
	if !ok {
		return nil, nil
	}
	s.receiptPolls[hash] = polls + 1
	if polls < s.pendingPolls {
		return nil, nil
	}

	return map[string]interface{}{
		"userOpHash":    hash,
		"success":       s.success,
		"reason":        s.reason,
		"actualGasCost": (*hexutil.Big)(big.NewInt(21000)),
		"actualGasUsed": (*hexutil.Big)(big.NewInt(21000)),
		"receipt": map[string]interface{}{
			"transactionHash": crypto.Keccak256Hash(hash.Bytes()),
			"blockNumber":     hexutil.Uint64(7),
		},
	}, nil
}
