// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package sponsor

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/orbs-network/gasless-counter/services/paymaster"
	"github.com/orbs-network/gasless-counter/services/smartaccount"
	"github.com/pkg/errors"
)

type Status int

const (
	Idle Status = iota
	Building
	AwaitingSponsorship
	Submitted
	Confirmed
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Building:
		return "building"
	case AwaitingSponsorship:
		return "awaiting-sponsorship"
	case Submitted:
		return "submitted"
	case Confirmed:
		return "confirmed"
	case Failed:
		return "failed"
	}
	return "unknown"
}

func (s Status) Terminal() bool {
	return s == Confirmed || s == Failed
}

// the happy path only ever moves one step forward; Failed is reachable from every non terminal status
var nextStatus = map[Status]Status{
	Idle:                Building,
	Building:            AwaitingSponsorship,
	AwaitingSponsorship: Submitted,
	Submitted:           Confirmed,
}

// PendingOperation tracks a single increment or decrement from the first click to its terminal status
type PendingOperation struct {
	TargetContract common.Address
	EncodedCall    []byte
	Sponsorship    *paymaster.SponsorshipPayload
	Status         Status
	OperationHash  common.Hash
	Receipt        *smartaccount.Receipt
}

func newPendingOperation(target common.Address) *PendingOperation {
	return &PendingOperation{TargetContract: target, Status: Idle}
}

func (op *PendingOperation) advance(to Status) error {
	if to == Failed {
		if op.Status.Terminal() {
			return errors.Errorf("operation already %s", op.Status)
		}
		op.Status = Failed
		return nil
	}

	if next, ok := nextStatus[op.Status]; !ok || next != to {
		return errors.Errorf("illegal operation transition %s -> %s", op.Status, to)
	}
	op.Status = to
	return nil
}
