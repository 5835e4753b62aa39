// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package paymaster

import (
	"context"
	"github.com/orbs-network/gasless-counter/services/smartaccount"
	"math/big"
)

type Mode string

const (
	SPONSORED Mode = "SPONSORED"
	ERC20     Mode = "ERC20"
)

type SmartAccountInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type SponsorshipRequest struct {
	Mode             Mode             `json:"mode"`
	SmartAccountInfo SmartAccountInfo `json:"smartAccountInfo"`
}

// SponsorshipPayload is what a paymaster returns when it agrees to pay; gas limits are only set when it recalculated them
type SponsorshipPayload struct {
	PaymasterAndData     []byte
	CallGasLimit         *big.Int
	VerificationGasLimit *big.Int
	PreVerificationGas   *big.Int
}

// ApplyTo returns a copy of op carrying the sponsorship; op itself is not modified
func (p *SponsorshipPayload) ApplyTo(op *smartaccount.UserOperation) *smartaccount.UserOperation {
	sponsored := op.Copy()
	sponsored.PaymasterAndData = append([]byte{}, p.PaymasterAndData...)
	if p.CallGasLimit != nil {
		sponsored.CallGasLimit = new(big.Int).Set(p.CallGasLimit)
	}
	if p.VerificationGasLimit != nil {
		sponsored.VerificationGasLimit = new(big.Int).Set(p.VerificationGasLimit)
	}
	if p.PreVerificationGas != nil {
		sponsored.PreVerificationGas = new(big.Int).Set(p.PreVerificationGas)
	}
	return sponsored
}

type Paymaster interface {
	GetSponsorship(ctx context.Context, op *smartaccount.UserOperation, request SponsorshipRequest) (*SponsorshipPayload, error)
}
