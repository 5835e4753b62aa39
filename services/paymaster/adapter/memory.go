// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package adapter

import (
	"context"
	"github.com/ethereum/go-ethereum/common"
	"github.com/orbs-network/gasless-counter/services/paymaster"
	"github.com/orbs-network/gasless-counter/services/smartaccount"
	"github.com/pkg/errors"
	"sync"
)

// MemoryPaymaster sponsors every SPONSORED request with a fixed paymaster address, unless told to reject
type MemoryPaymaster struct {
	address common.Address

	mu struct {
		sync.Mutex
		rejection error
		requests  []paymaster.SponsorshipRequest
	}
}

func NewMemoryPaymaster(address common.Address) *MemoryPaymaster {
	return &MemoryPaymaster{address: address}
}

func (p *MemoryPaymaster) GetSponsorship(ctx context.Context, op *smartaccount.UserOperation, request paymaster.SponsorshipRequest) (*paymaster.SponsorshipPayload, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.mu.requests = append(p.mu.requests, request)
	if p.mu.rejection != nil {
		return nil, p.mu.rejection
	}
	if request.Mode != paymaster.SPONSORED {
		return nil, errors.Errorf("unsupported paymaster mode %s", request.Mode)
	}

	return &paymaster.SponsorshipPayload{PaymasterAndData: p.address.Bytes()}, nil
}

func (p *MemoryPaymaster) Reject(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mu.rejection = err
}

func (p *MemoryPaymaster) Requests() []paymaster.SponsorshipRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]paymaster.SponsorshipRequest{}, p.mu.requests...)
}
