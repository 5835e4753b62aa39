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
	"math/big"
	"strings"
)

const (
	ExecuteMethod      = "execute_ncC"
	ExecuteBatchMethod = "executeBatch_y6U"
)

const AccountABI = `[
	{"type":"function","name":"execute_ncC","stateMutability":"nonpayable","inputs":[{"name":"dest","type":"address"},{"name":"value","type":"uint256"},{"name":"func","type":"bytes"}],"outputs":[]},
	{"type":"function","name":"executeBatch_y6U","stateMutability":"nonpayable","inputs":[{"name":"dest","type":"address[]"},{"name":"value","type":"uint256[]"},{"name":"func","type":"bytes[]"}],"outputs":[]}
]`

var accountABI = mustParseABI(AccountABI)

func mustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(err)
	}
	return parsed
}

// EncodeCalls builds the account call data: a single call goes through execute, several through executeBatch
func EncodeCalls(calls []Call) ([]byte, error) {
	switch len(calls) {
	case 0:
		return nil, errors.New("no calls to encode")
	case 1:
		data, err := accountABI.Pack(ExecuteMethod, calls[0].To, new(big.Int), calls[0].Data)
		return data, errors.Wrap(err, "failed to encode account call")
	}

	targets := make([]common.Address, len(calls))
	values := make([]*big.Int, len(calls))
	payloads := make([][]byte, len(calls))
	for i, call := range calls {
		targets[i] = call.To
		values[i] = new(big.Int)
		payloads[i] = call.Data
	}

	data, err := accountABI.Pack(ExecuteBatchMethod, targets, values, payloads)
	return data, errors.Wrap(err, "failed to encode account batch call")
}

func DecodeCalls(data []byte) ([]Call, error) {
	if len(data) < 4 {
		return nil, errors.Errorf("account call data too short: %d bytes", len(data))
	}

	method, err := accountABI.MethodById(data[:4])
	if err != nil {
		return nil, errors.Wrap(err, "unknown account method")
	}

	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s arguments", method.Name)
	}

	if method.Name == ExecuteMethod {
		return []Call{{To: args[0].(common.Address), Data: args[2].([]byte)}}, nil
	}

	targets := args[0].([]common.Address)
	payloads := args[2].([][]byte)
	if len(targets) != len(payloads) {
		return nil, errors.Errorf("batch length mismatch: %d targets, %d payloads", len(targets), len(payloads))
	}

	calls := make([]Call, len(targets))
	for i := range targets {
		calls[i] = Call{To: targets[i], Data: payloads[i]}
	}
	return calls, nil
}
