// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package adapter

import (
	"context"
	"github.com/ethereum/go-ethereum/common"
	"github.com/orbs-network/gasless-counter/config"
	counteradapter "github.com/orbs-network/gasless-counter/services/counter/adapter"
	"github.com/orbs-network/gasless-counter/services/smartaccount"
	"github.com/orbs-network/gasless-counter/test"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"math/big"
	"testing"
	"time"
)

func newMemoryAccount(t *testing.T) (*MemorySmartAccount, *counteradapter.MemoryCounterContract) {
	signer, err := smartaccount.NewSigner(config.DEVELOPMENT_OWNER_PRIVATE_KEY, common.HexToAddress(config.DEFAULT_VALIDATION_MODULE_ADDRESS))
	require.NoError(t, err)

	counter := counteradapter.NewMemoryCounterContract(counterAddress)
	return NewMemorySmartAccount(accountAddress, entryPoint, big.NewInt(chainId), signer, counter), counter
}

func memoryCall(t *testing.T, method string) smartaccount.Call {
	data, err := counteradapter.EncodeCall(method)
	require.NoError(t, err)
	return smartaccount.Call{To: counterAddress, Data: data}
}

func TestMemoryAccount_ExecutesSponsoredOperationOnSend(t *testing.T) {
	test.WithContext(func(ctx context.Context) {
		account, counter := newMemoryAccount(t)

		op, err := account.BuildOperation(ctx, []smartaccount.Call{memoryCall(t, counteradapter.IncrementMethod)})
		require.NoError(t, err)
		op.PaymasterAndData = paymasterData

		handle, err := account.SendOperation(ctx, op)
		require.NoError(t, err)

		receipt, err := handle.Wait(ctx)
		require.NoError(t, err)
		require.True(t, receipt.Success)

		head, err := counter.BlockNumber(ctx)
		require.NoError(t, err)

		count, err := counter.Number(ctx, head)
		require.NoError(t, err)
		require.EqualValues(t, 1, count)

		lastUser, err := counter.LastUser(ctx, head)
		require.NoError(t, err)
		require.Equal(t, accountAddress, lastUser)

		next, err := account.BuildOperation(ctx, []smartaccount.Call{memoryCall(t, counteradapter.IncrementMethod)})
		require.NoError(t, err)
		require.EqualValues(t, 1, next.Nonce.Int64(), "nonce advances after a send")
	})
}

func TestMemoryAccount_RejectsUnsponsoredOperation(t *testing.T) {
	test.WithContext(func(ctx context.Context) {
		account, _ := newMemoryAccount(t)

		op, err := account.BuildOperation(ctx, []smartaccount.Call{memoryCall(t, counteradapter.IncrementMethod)})
		require.NoError(t, err)

		_, err = account.SendOperation(ctx, op)
		require.Equal(t, ErrNotSponsored, err)
		require.Empty(t, account.Sent())
	})
}

func TestMemoryAccount_RevertedCallYieldsFailedReceipt(t *testing.T) {
	test.WithContext(func(ctx context.Context) {
		account, _ := newMemoryAccount(t)

		op, err := account.BuildOperation(ctx, []smartaccount.Call{memoryCall(t, counteradapter.DecrementMethod)})
		require.NoError(t, err)
		op.PaymasterAndData = paymasterData

		handle, err := account.SendOperation(ctx, op)
		require.NoError(t, err)

		receipt, err := handle.Wait(ctx)
		require.NoError(t, err)
		require.False(t, receipt.Success)
		require.Contains(t, receipt.Reason, "underflow")
	})
}

func TestMemoryAccount_HeldConfirmationWaitsForRelease(t *testing.T) {
	test.WithContext(func(ctx context.Context) {
		account, _ := newMemoryAccount(t)
		release := account.HoldConfirmations()

		op, err := account.BuildOperation(ctx, []smartaccount.Call{memoryCall(t, counteradapter.IncrementMethod)})
		require.NoError(t, err)
		op.PaymasterAndData = paymasterData

		handle, err := account.SendOperation(ctx, op)
		require.NoError(t, err)

		shortCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err = handle.Wait(shortCtx)
		require.Equal(t, context.DeadlineExceeded, errors.Cause(err))

		release()
		receipt, err := handle.Wait(ctx)
		require.NoError(t, err)
		require.True(t, receipt.Success)
	})
}

func TestMemoryAccount_BuildFailure(t *testing.T) {
	test.WithContext(func(ctx context.Context) {
		account, _ := newMemoryAccount(t)
		account.FailBuild(errors.New("nonce unavailable"))

		_, err := account.BuildOperation(ctx, []smartaccount.Call{memoryCall(t, counteradapter.IncrementMethod)})
		require.EqualError(t, err, "nonce unavailable")
	})
}
