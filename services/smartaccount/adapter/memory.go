// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package adapter

import (
	"context"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/orbs-network/gasless-counter/services/smartaccount"
	"github.com/pkg/errors"
	"math/big"
	"sync"
)

// ErrNotSponsored is what an entry point reports when nobody pays for an operation
var ErrNotSponsored = errors.New("AA21 didn't pay prefund")

var simulatedGasLimit = big.NewInt(100000)

// CallExecutor runs a call on the simulated chain
type CallExecutor interface {
	Execute(ctx context.Context, from common.Address, to common.Address, data []byte) error
}

// MemorySmartAccount executes operations directly against in-process contracts once they are sent
type MemorySmartAccount struct {
	address    common.Address
	entryPoint common.Address
	chainId    *big.Int
	signer     *smartaccount.Signer
	executor   CallExecutor

	mu struct {
		sync.Mutex
		nonce        uint64
		buildErr     error
		sendErr      error
		sent         []*smartaccount.UserOperation
		confirmation chan struct{}
	}
}

func NewMemorySmartAccount(address common.Address, entryPoint common.Address, chainId *big.Int, signer *smartaccount.Signer, executor CallExecutor) *MemorySmartAccount {
	return &MemorySmartAccount{
		address:    address,
		entryPoint: entryPoint,
		chainId:    chainId,
		signer:     signer,
		executor:   executor,
	}
}

func (a *MemorySmartAccount) Address() common.Address {
	return a.address
}

func (a *MemorySmartAccount) BuildOperation(ctx context.Context, calls []smartaccount.Call) (*smartaccount.UserOperation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.mu.buildErr != nil {
		return nil, a.mu.buildErr
	}

	callData, err := smartaccount.EncodeCalls(calls)
	if err != nil {
		return nil, err
	}

	return &smartaccount.UserOperation{
		Sender:               a.address,
		Nonce:                new(big.Int).SetUint64(a.mu.nonce),
		InitCode:             []byte{},
		CallData:             callData,
		CallGasLimit:         new(big.Int).Set(simulatedGasLimit),
		VerificationGasLimit: new(big.Int).Set(simulatedGasLimit),
		PreVerificationGas:   new(big.Int).Set(simulatedGasLimit),
		MaxFeePerGas:         big.NewInt(1),
		MaxPriorityFeePerGas: big.NewInt(1),
		PaymasterAndData:     []byte{},
		Signature:            a.signer.DummySignature(),
	}, nil
}

func (a *MemorySmartAccount) SendOperation(ctx context.Context, op *smartaccount.UserOperation) (smartaccount.OperationHandle, error) {
	a.mu.Lock()
	if a.mu.sendErr != nil {
		defer a.mu.Unlock()
		return nil, a.mu.sendErr
	}
	if !op.HasPaymaster() {
		a.mu.Unlock()
		return nil, ErrNotSponsored
	}
	if op.Nonce == nil || !op.Nonce.IsUint64() || op.Nonce.Uint64() != a.mu.nonce {
		a.mu.Unlock()
		return nil, errors.New("AA25 invalid account nonce")
	}
	a.mu.nonce++
	confirmation := a.mu.confirmation
	a.mu.Unlock()

	signed := op.Copy()
	var err error
	if signed.Signature, err = a.signer.SignOperation(signed, a.entryPoint, a.chainId); err != nil {
		return nil, err
	}

	hash, err := signed.Hash(a.entryPoint, a.chainId)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.mu.sent = append(a.mu.sent, signed)
	a.mu.Unlock()

	return &memoryOperation{
		hash:         hash,
		receipt:      a.execute(ctx, hash, signed),
		confirmation: confirmation,
	}, nil
}

// execute runs every call of op in order; the first failing call reverts the operation
func (a *MemorySmartAccount) execute(ctx context.Context, hash common.Hash, op *smartaccount.UserOperation) *smartaccount.Receipt {
	receipt := &smartaccount.Receipt{
		UserOpHash:      hash,
		Success:         true,
		ActualGasCost:   new(big.Int),
		ActualGasUsed:   new(big.Int).Set(simulatedGasLimit),
		TransactionHash: crypto.Keccak256Hash(hash.Bytes()),
	}

	calls, err := smartaccount.DecodeCalls(op.CallData)
	if err != nil {
		receipt.Success = false
		receipt.Reason = err.Error()
		return receipt
	}

	for _, call := range calls {
		if err := a.executor.Execute(ctx, a.address, call.To, call.Data); err != nil {
			receipt.Success = false
			receipt.Reason = err.Error()
			return receipt
		}
	}
	return receipt
}

func (a *MemorySmartAccount) FailBuild(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mu.buildErr = err
}

func (a *MemorySmartAccount) FailSend(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mu.sendErr = err
}

// HoldConfirmations makes Wait block on operations sent from now on until release is called
func (a *MemorySmartAccount) HoldConfirmations() (release func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	gate := make(chan struct{})
	a.mu.confirmation = gate

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			if a.mu.confirmation == gate {
				a.mu.confirmation = nil
			}
			a.mu.Unlock()
			close(gate)
		})
	}
}

func (a *MemorySmartAccount) Sent() []*smartaccount.UserOperation {
	a.mu.Lock()
	defer a.mu.Unlock()

	sent := make([]*smartaccount.UserOperation, len(a.mu.sent))
	copy(sent, a.mu.sent)
	return sent
}

type memoryOperation struct {
	hash         common.Hash
	receipt      *smartaccount.Receipt
	confirmation chan struct{}
}

func (o *memoryOperation) Hash() common.Hash {
	return o.hash
}

func (o *memoryOperation) Wait(ctx context.Context) (*smartaccount.Receipt, error) {
	if o.confirmation != nil {
		select {
		case <-o.confirmation:
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(), "no receipt for user operation %s", o.hash.Hex())
		}
	}
	return o.receipt, nil
}
