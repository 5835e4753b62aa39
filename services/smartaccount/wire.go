// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package smartaccount

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"math/big"
	"strings"
)

// RpcUserOperation is the JSON form bundlers and paymasters exchange
type RpcUserOperation struct {
	Sender               common.Address `json:"sender"`
	Nonce                *hexutil.Big   `json:"nonce"`
	InitCode             hexutil.Bytes  `json:"initCode"`
	CallData             hexutil.Bytes  `json:"callData"`
	CallGasLimit         *hexutil.Big   `json:"callGasLimit"`
	VerificationGasLimit *hexutil.Big   `json:"verificationGasLimit"`
	PreVerificationGas   *hexutil.Big   `json:"preVerificationGas"`
	MaxFeePerGas         *hexutil.Big   `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big   `json:"maxPriorityFeePerGas"`
	PaymasterAndData     hexutil.Bytes  `json:"paymasterAndData"`
	Signature            hexutil.Bytes  `json:"signature"`
}

func (op *UserOperation) ToRpc() *RpcUserOperation {
	return &RpcUserOperation{
		Sender:               op.Sender,
		Nonce:                toHexBig(op.Nonce),
		InitCode:             orEmpty(op.InitCode),
		CallData:             orEmpty(op.CallData),
		CallGasLimit:         toHexBig(op.CallGasLimit),
		VerificationGasLimit: toHexBig(op.VerificationGasLimit),
		PreVerificationGas:   toHexBig(op.PreVerificationGas),
		MaxFeePerGas:         toHexBig(op.MaxFeePerGas),
		MaxPriorityFeePerGas: toHexBig(op.MaxPriorityFeePerGas),
		PaymasterAndData:     orEmpty(op.PaymasterAndData),
		Signature:            orEmpty(op.Signature),
	}
}

func (op *RpcUserOperation) ToUserOperation() *UserOperation {
	return &UserOperation{
		Sender:               op.Sender,
		Nonce:                fromHexBig(op.Nonce),
		InitCode:             op.InitCode,
		CallData:             op.CallData,
		CallGasLimit:         fromHexBig(op.CallGasLimit),
		VerificationGasLimit: fromHexBig(op.VerificationGasLimit),
		PreVerificationGas:   fromHexBig(op.PreVerificationGas),
		MaxFeePerGas:         fromHexBig(op.MaxFeePerGas),
		MaxPriorityFeePerGas: fromHexBig(op.MaxPriorityFeePerGas),
		PaymasterAndData:     op.PaymasterAndData,
		Signature:            op.Signature,
	}
}

func toHexBig(v *big.Int) *hexutil.Big {
	return (*hexutil.Big)(bigOrZero(v))
}

func fromHexBig(v *hexutil.Big) *big.Int {
	if v == nil {
		return nil
	}
	return v.ToInt()
}

func orEmpty(b []byte) hexutil.Bytes {
	if b == nil {
		return hexutil.Bytes{}
	}
	return b
}

// ParseQuantity accepts both hex strings and plain JSON numbers, bundlers and paymasters disagree on which to send
func ParseQuantity(value gjson.Result) (*big.Int, error) {
	switch value.Type {
	case gjson.String:
		digits, base := value.Str, 10
		if has0xPrefix(digits) {
			digits, base = digits[2:], 16
		}
		if n, ok := new(big.Int).SetString(digits, base); ok {
			return n, nil
		}
		return nil, errors.Errorf("invalid quantity %q", value.Str)
	case gjson.Number:
		if n, ok := new(big.Int).SetString(value.Raw, 10); ok {
			return n, nil
		}
		return nil, errors.Errorf("invalid quantity %s", value.Raw)
	case gjson.Null:
		return nil, errors.New("missing quantity")
	}
	return nil, errors.Errorf("unexpected quantity %s", value.Raw)
}

func has0xPrefix(s string) bool {
	return strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")
}
