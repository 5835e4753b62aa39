// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package paymaster

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/orbs-network/gasless-counter/services/smartaccount"
	"github.com/stretchr/testify/require"
	"math/big"
	"testing"
)

func TestApplyTo_MergesOnlySponsorshipFields(t *testing.T) {
	op := &smartaccount.UserOperation{
		Sender:       common.HexToAddress("0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0"),
		Nonce:        big.NewInt(2),
		CallData:     []byte{1, 2, 3, 4},
		CallGasLimit: big.NewInt(60000),
		Signature:    []byte{9},
	}
	payload := &SponsorshipPayload{
		PaymasterAndData:   common.FromHex("0x00000f79b7faf42eebadba19acc07cd08af44789"),
		PreVerificationGas: big.NewInt(50000),
	}

	sponsored := payload.ApplyTo(op)

	require.Equal(t, payload.PaymasterAndData, sponsored.PaymasterAndData)
	require.EqualValues(t, 50000, sponsored.PreVerificationGas.Int64())
	require.EqualValues(t, 60000, sponsored.CallGasLimit.Int64(), "limits the paymaster did not return are kept")
	require.Equal(t, op.CallData, sponsored.CallData)
	require.Equal(t, op.Signature, sponsored.Signature)
	require.Empty(t, op.PaymasterAndData, "the original operation is left untouched")
}
