// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package ethrpc

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/orbs-network/gasless-counter/services/smartaccount"
	"github.com/pkg/errors"
	"sync"
)

// FakePaymasterService serves pm_sponsorUserOperation with a canned result
type FakePaymasterService struct {
	mu       sync.Mutex
	result   interface{}
	err      error
	requests []map[string]interface{}
	senders  []common.Address
}

func NewFakePaymasterService(result interface{}) *FakePaymasterService {
	return &FakePaymasterService{result: result}
}

func (s *FakePaymasterService) Respond(result interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = result
	s.err = nil
}

func (s *FakePaymasterService) Reject(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = errors.New(reason)
}

func (s *FakePaymasterService) Requests() []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]interface{}{}, s.requests...)
}

func (s *FakePaymasterService) Senders() []common.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]common.Address{}, s.senders...)
}

func (s *FakePaymasterService) SponsorUserOperation(op smartaccount.RpcUserOperation, request map[string]interface{}) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, request)
	s.senders = append(s.senders, op.Sender)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}
