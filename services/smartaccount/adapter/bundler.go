// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package adapter

import (
	"context"
	"encoding/json"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/orbs-network/gasless-counter/instrumentation/logfields"
	"github.com/orbs-network/gasless-counter/services/smartaccount"
	"github.com/orbs-network/scribe/log"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"math/big"
	"strings"
	"sync"
	"time"
)

const EntryPointABI = `[
	{"type":"function","name":"getNonce","stateMutability":"view","inputs":[{"name":"sender","type":"address"},{"name":"key","type":"uint192"}],"outputs":[{"name":"nonce","type":"uint256"}]}
]`

var entryPointABI, _ = abi.JSON(strings.NewReader(EntryPointABI))

// ChainReader is the part of an ethereum node connection the account needs
type ChainReader interface {
	ethereum.ContractCaller
	ethereum.GasPricer
	ChainID(ctx context.Context) (*big.Int, error)
}

type RpcCaller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

type Config interface {
	OperationReceiptPollingInterval() time.Duration
}

// BundlerSmartAccount builds operations against a deployed account and relays them through an ERC-4337 bundler
type BundlerSmartAccount struct {
	address    common.Address
	entryPoint common.Address
	signer     *smartaccount.Signer
	chain      ChainReader
	bundler    RpcCaller
	config     Config
	logger     log.Logger

	chainId struct {
		sync.Mutex
		value *big.Int
	}
}

func NewBundlerSmartAccount(config Config, address common.Address, entryPoint common.Address, signer *smartaccount.Signer, chain ChainReader, bundler RpcCaller, parentLogger log.Logger) *BundlerSmartAccount {
	return &BundlerSmartAccount{
		address:    address,
		entryPoint: entryPoint,
		signer:     signer,
		chain:      chain,
		bundler:    bundler,
		config:     config,
		logger:     parentLogger.WithTags(log.String("adapter", "bundler-smart-account"), log.String("smart-account", address.Hex())),
	}
}

func (a *BundlerSmartAccount) Address() common.Address {
	return a.address
}

func (a *BundlerSmartAccount) BuildOperation(ctx context.Context, calls []smartaccount.Call) (*smartaccount.UserOperation, error) {
	callData, err := smartaccount.EncodeCalls(calls)
	if err != nil {
		return nil, err
	}

	nonce, err := a.nonce(ctx)
	if err != nil {
		return nil, err
	}

	gasPrice, err := a.chain.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get gas price")
	}

	op := &smartaccount.UserOperation{
		Sender:               a.address,
		Nonce:                nonce,
		InitCode:             []byte{},
		CallData:             callData,
		MaxFeePerGas:         gasPrice,
		MaxPriorityFeePerGas: new(big.Int).Set(gasPrice),
		PaymasterAndData:     []byte{},
		Signature:            a.signer.DummySignature(),
	}

	if err := a.estimateGas(ctx, op); err != nil {
		return nil, err
	}

	return op, nil
}

func (a *BundlerSmartAccount) nonce(ctx context.Context) (*big.Int, error) {
	input, err := entryPointABI.Pack("getNonce", a.address, new(big.Int))
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode getNonce")
	}

	out, err := a.chain.CallContract(ctx, ethereum.CallMsg{To: &a.entryPoint, Data: input}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read account nonce")
	}

	values, err := entryPointABI.Unpack("getNonce", out)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode account nonce")
	}
	return values[0].(*big.Int), nil
}

func (a *BundlerSmartAccount) estimateGas(ctx context.Context, op *smartaccount.UserOperation) error {
	var raw json.RawMessage
	if err := a.bundler.CallContext(ctx, &raw, "eth_estimateUserOperationGas", op.ToRpc(), a.entryPoint); err != nil {
		return errors.Wrap(err, "failed to estimate user operation gas")
	}

	estimate := gjson.ParseBytes(raw)
	var err error
	if op.CallGasLimit, err = smartaccount.ParseQuantity(estimate.Get("callGasLimit")); err != nil {
		return errors.Wrap(err, "bad callGasLimit estimate")
	}
	if op.VerificationGasLimit, err = smartaccount.ParseQuantity(estimate.Get("verificationGasLimit")); err != nil {
		return errors.Wrap(err, "bad verificationGasLimit estimate")
	}
	if op.PreVerificationGas, err = smartaccount.ParseQuantity(estimate.Get("preVerificationGas")); err != nil {
		return errors.Wrap(err, "bad preVerificationGas estimate")
	}
	return nil
}

func (a *BundlerSmartAccount) chainID(ctx context.Context) (*big.Int, error) {
	a.chainId.Lock()
	defer a.chainId.Unlock()

	if a.chainId.value == nil {
		id, err := a.chain.ChainID(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get chain id")
		}
		a.chainId.value = id
	}
	return a.chainId.value, nil
}

// SendOperation signs op with the owner key and hands it to the bundler
func (a *BundlerSmartAccount) SendOperation(ctx context.Context, op *smartaccount.UserOperation) (smartaccount.OperationHandle, error) {
	chainId, err := a.chainID(ctx)
	if err != nil {
		return nil, err
	}

	signed := op.Copy()
	if signed.Signature, err = a.signer.SignOperation(signed, a.entryPoint, chainId); err != nil {
		return nil, err
	}

	var hash common.Hash
	if err := a.bundler.CallContext(ctx, &hash, "eth_sendUserOperation", signed.ToRpc(), a.entryPoint); err != nil {
		return nil, errors.Wrap(err, "bundler rejected user operation")
	}

	a.logger.Info("user operation sent to bundler", logfields.OperationHash(hash))
	return &bundlerOperation{account: a, hash: hash}, nil
}

type bundlerOperation struct {
	account *BundlerSmartAccount
	hash    common.Hash
}

func (o *bundlerOperation) Hash() common.Hash {
	return o.hash
}

// Wait polls the bundler for the receipt until it exists or ctx ends; failed lookups are retried on the next poll
func (o *bundlerOperation) Wait(ctx context.Context) (*smartaccount.Receipt, error) {
	ticker := time.NewTicker(o.account.config.OperationReceiptPollingInterval())
	defer ticker.Stop()

	for {
		receipt, err := o.account.receipt(ctx, o.hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if ctx.Err() != nil {
			return nil, errors.Wrapf(ctx.Err(), "no receipt for user operation %s", o.hash.Hex())
		}
		if err != nil {
			o.account.logger.Info("user operation receipt lookup failed, will retry", logfields.OperationHash(o.hash), log.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(), "no receipt for user operation %s", o.hash.Hex())
		case <-ticker.C:
		}
	}
}

func (a *BundlerSmartAccount) receipt(ctx context.Context, hash common.Hash) (*smartaccount.Receipt, error) {
	var raw json.RawMessage
	if err := a.bundler.CallContext(ctx, &raw, "eth_getUserOperationReceipt", hash); err != nil {
		return nil, errors.Wrap(err, "failed to get user operation receipt")
	}

	result := gjson.ParseBytes(raw)
	if !result.IsObject() {
		return nil, nil
	}

	receipt := &smartaccount.Receipt{
		UserOpHash:      hash,
		Success:         result.Get("success").Bool(),
		TransactionHash: common.HexToHash(result.Get("receipt.transactionHash").String()),
		Reason:          result.Get("reason").String(),
	}

	var err error
	if receipt.ActualGasCost, err = smartaccount.ParseQuantity(result.Get("actualGasCost")); err != nil {
		return nil, errors.Wrap(err, "bad actualGasCost in receipt")
	}
	if receipt.ActualGasUsed, err = smartaccount.ParseQuantity(result.Get("actualGasUsed")); err != nil {
		return nil, errors.Wrap(err, "bad actualGasUsed in receipt")
	}
	if block, err := smartaccount.ParseQuantity(result.Get("receipt.blockNumber")); err == nil && block.IsUint64() {
		receipt.BlockNumber = block.Uint64()
	}

	return receipt, nil
}
