// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package adapter

import (
	"context"
	"encoding/json"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/orbs-network/gasless-counter/services/paymaster"
	"github.com/orbs-network/gasless-counter/services/smartaccount"
	"github.com/orbs-network/scribe/log"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"math/big"
)

const sponsorMethod = "pm_sponsorUserOperation"

type RpcCaller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

type sponsorContext struct {
	Mode               paymaster.Mode             `json:"mode"`
	SmartAccountInfo   paymaster.SmartAccountInfo `json:"smartAccountInfo"`
	CalculateGasLimits bool                       `json:"calculateGasLimits"`
}

// BiconomyPaymaster asks a Biconomy style paymaster service to sponsor operations over JSON-RPC
type BiconomyPaymaster struct {
	client RpcCaller
	logger log.Logger
}

func NewBiconomyPaymaster(client RpcCaller, parentLogger log.Logger) *BiconomyPaymaster {
	return &BiconomyPaymaster{
		client: client,
		logger: parentLogger.WithTags(log.String("adapter", "biconomy-paymaster")),
	}
}

func (p *BiconomyPaymaster) GetSponsorship(ctx context.Context, op *smartaccount.UserOperation, request paymaster.SponsorshipRequest) (*paymaster.SponsorshipPayload, error) {
	var raw json.RawMessage
	err := p.client.CallContext(ctx, &raw, sponsorMethod, op.ToRpc(), sponsorContext{
		Mode:               request.Mode,
		SmartAccountInfo:   request.SmartAccountInfo,
		CalculateGasLimits: false,
	})
	if err != nil {
		return nil, errors.Wrap(err, "paymaster request failed")
	}

	return parseSponsorship(raw)
}

// parseSponsorship accepts either a bare paymasterAndData string or an object carrying it
func parseSponsorship(raw []byte) (*paymaster.SponsorshipPayload, error) {
	result := gjson.ParseBytes(raw)

	var data gjson.Result
	switch {
	case result.Type == gjson.String:
		data = result
	case result.IsObject():
		data = result.Get("paymasterAndData")
	default:
		return nil, errors.Errorf("unexpected paymaster response %s", string(raw))
	}

	paymasterAndData, err := hexutil.Decode(data.String())
	if err != nil || len(paymasterAndData) < common.AddressLength {
		return nil, errors.Errorf("paymaster did not sponsor the operation: paymasterAndData %q", data.String())
	}

	payload := &paymaster.SponsorshipPayload{PaymasterAndData: paymasterAndData}
	if result.IsObject() {
		if payload.CallGasLimit, err = optionalQuantity(result.Get("callGasLimit")); err != nil {
			return nil, err
		}
		if payload.VerificationGasLimit, err = optionalQuantity(result.Get("verificationGasLimit")); err != nil {
			return nil, err
		}
		if payload.PreVerificationGas, err = optionalQuantity(result.Get("preVerificationGas")); err != nil {
			return nil, err
		}
	}
	return payload, nil
}

func optionalQuantity(value gjson.Result) (*big.Int, error) {
	if !value.Exists() || value.Type == gjson.Null {
		return nil, nil
	}
	n, err := smartaccount.ParseQuantity(value)
	return n, errors.Wrap(err, "bad gas limit in paymaster response")
}
