// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package smartaccount

import (
	"context"
	"github.com/ethereum/go-ethereum/common"
	"math/big"
)

// Call is a single contract call executed by the smart account
type Call struct {
	To   common.Address
	Data []byte
}

// UserOperation is an ERC-4337 (entry point v0.6) user operation
type UserOperation struct {
	Sender               common.Address
	Nonce                *big.Int
	InitCode             []byte
	CallData             []byte
	CallGasLimit         *big.Int
	VerificationGasLimit *big.Int
	PreVerificationGas   *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	PaymasterAndData     []byte
	Signature            []byte
}

func (op *UserOperation) Copy() *UserOperation {
	return &UserOperation{
		Sender:               op.Sender,
		Nonce:                copyBig(op.Nonce),
		InitCode:             common.CopyBytes(op.InitCode),
		CallData:             common.CopyBytes(op.CallData),
		CallGasLimit:         copyBig(op.CallGasLimit),
		VerificationGasLimit: copyBig(op.VerificationGasLimit),
		PreVerificationGas:   copyBig(op.PreVerificationGas),
		MaxFeePerGas:         copyBig(op.MaxFeePerGas),
		MaxPriorityFeePerGas: copyBig(op.MaxPriorityFeePerGas),
		PaymasterAndData:     common.CopyBytes(op.PaymasterAndData),
		Signature:            common.CopyBytes(op.Signature),
	}
}

func (op *UserOperation) HasPaymaster() bool {
	return len(op.PaymasterAndData) >= common.AddressLength
}

type Receipt struct {
	UserOpHash      common.Hash
	Success         bool
	ActualGasCost   *big.Int
	ActualGasUsed   *big.Int
	TransactionHash common.Hash
	BlockNumber     uint64
	Reason          string
}

type OperationHandle interface {
	Hash() common.Hash
	Wait(ctx context.Context) (*Receipt, error)
}

type SmartAccount interface {
	Address() common.Address
	// BuildOperation returns an unsigned operation executing calls; it is not sponsored yet
	BuildOperation(ctx context.Context, calls []Call) (*UserOperation, error)
	SendOperation(ctx context.Context, op *UserOperation) (OperationHandle, error)
}

func copyBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
