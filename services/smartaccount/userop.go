// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package smartaccount

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
	"math/big"
)

var (
	addressType, _ = abi.NewType("address", "", nil)
	uint256Type, _ = abi.NewType("uint256", "", nil)
	bytes32Type, _ = abi.NewType("bytes32", "", nil)
	bytesType, _   = abi.NewType("bytes", "", nil)
)

var packedUserOperation = abi.Arguments{
	{Name: "sender", Type: addressType},
	{Name: "nonce", Type: uint256Type},
	{Name: "hashInitCode", Type: bytes32Type},
	{Name: "hashCallData", Type: bytes32Type},
	{Name: "callGasLimit", Type: uint256Type},
	{Name: "verificationGasLimit", Type: uint256Type},
	{Name: "preVerificationGas", Type: uint256Type},
	{Name: "maxFeePerGas", Type: uint256Type},
	{Name: "maxPriorityFeePerGas", Type: uint256Type},
	{Name: "hashPaymasterAndData", Type: bytes32Type},
}

var operationDomain = abi.Arguments{
	{Name: "userOpHash", Type: bytes32Type},
	{Name: "entryPoint", Type: addressType},
	{Name: "chainId", Type: uint256Type},
}

func keccak256(data ...[]byte) (h common.Hash) {
	hasher := sha3.NewLegacyKeccak256()
	for _, b := range data {
		hasher.Write(b)
	}
	hasher.Sum(h[:0])
	return h
}

// Pack encodes every field but the signature, hashing the dynamic ones, as the entry point does
func (op *UserOperation) Pack() ([]byte, error) {
	packed, err := packedUserOperation.Pack(
		op.Sender,
		bigOrZero(op.Nonce),
		keccak256(op.InitCode),
		keccak256(op.CallData),
		bigOrZero(op.CallGasLimit),
		bigOrZero(op.VerificationGasLimit),
		bigOrZero(op.PreVerificationGas),
		bigOrZero(op.MaxFeePerGas),
		bigOrZero(op.MaxPriorityFeePerGas),
		keccak256(op.PaymasterAndData),
	)
	return packed, errors.Wrap(err, "failed to pack user operation")
}

// Hash is the user operation hash the entry point at entryPoint on chainID computes
func (op *UserOperation) Hash(entryPoint common.Address, chainID *big.Int) (common.Hash, error) {
	packed, err := op.Pack()
	if err != nil {
		return common.Hash{}, err
	}

	encoded, err := operationDomain.Pack(keccak256(packed), entryPoint, bigOrZero(chainID))
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "failed to encode user operation hash")
	}
	return keccak256(encoded), nil
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
