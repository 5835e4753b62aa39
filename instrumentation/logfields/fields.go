// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package logfields

import (
	"context"
	"github.com/ethereum/go-ethereum/common"
	"github.com/orbs-network/scribe/log"
)

func ContractAddress(address common.Address) *log.Field {
	return log.String("contract", address.Hex())
}

func Sender(address common.Address) *log.Field {
	return log.String("sender", address.Hex())
}

func OperationHash(hash common.Hash) *log.Field {
	return log.String("user-op-hash", hash.Hex())
}

func TransactionHash(hash common.Hash) *log.Field {
	return log.String("tx-hash", hash.Hex())
}

func Count(value uint64) *log.Field {
	return &log.Field{Key: "count", Uint: value, Type: log.UintType}
}

func BlockNumber(value uint64) *log.Field {
	return &log.Field{Key: "block-number", Uint: value, Type: log.UintType}
}

func Phase(name string) *log.Field {
	return log.String("phase", name)
}

func Endpoint(url string) *log.Field {
	return log.String("endpoint", url)
}

func ContextStringValue(ctx context.Context, key string) *log.Field {
	val := "not-found-in-context"
	if v := ctx.Value(key); v != nil {
		if vString, ok := v.(string); ok {
			val = vString
		} else {
			val = "found-in-context-but-not-string"
		}
	}
	return log.String(key, val)
}
