// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package smartaccount

import (
	"crypto/ecdsa"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"math/big"
	"strings"
)

// dummyEcdsaSignature has a valid shape and is used for gas estimation before the real signature exists
var dummyEcdsaSignature = hexutil.MustDecode("0xfffffffffffffffffffffffffffffff0000000000000000000000000000000007aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1c")

var moduleSignature = abi.Arguments{
	{Name: "signature", Type: bytesType},
	{Name: "validationModule", Type: addressType},
}

// Signer signs user operations with the owner key of an account validated by an ECDSA ownership module
type Signer struct {
	key              *ecdsa.PrivateKey
	validationModule common.Address
}

func NewSigner(ownerPrivateKey string, validationModule common.Address) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(ownerPrivateKey, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid smart account owner private key")
	}
	return &Signer{key: key, validationModule: validationModule}, nil
}

func (s *Signer) Owner() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

func (s *Signer) DummySignature() []byte {
	sig, _ := moduleSignature.Pack(dummyEcdsaSignature, s.validationModule)
	return sig
}

// SignOperation returns the module-wrapped EIP-191 signature over the operation hash
func (s *Signer) SignOperation(op *UserOperation, entryPoint common.Address, chainID *big.Int) ([]byte, error) {
	hash, err := op.Hash(entryPoint, chainID)
	if err != nil {
		return nil, err
	}

	sig, err := crypto.Sign(accounts.TextHash(hash.Bytes()), s.key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign user operation")
	}
	sig[crypto.RecoveryIDOffset] += 27

	wrapped, err := moduleSignature.Pack(sig, s.validationModule)
	return wrapped, errors.Wrap(err, "failed to encode module signature")
}

// RecoverOwner returns the address that produced a signature made by SignOperation
func RecoverOwner(op *UserOperation, entryPoint common.Address, chainID *big.Int) (common.Address, common.Address, error) {
	values, err := moduleSignature.Unpack(op.Signature)
	if err != nil {
		return common.Address{}, common.Address{}, errors.Wrap(err, "malformed module signature")
	}
	sig := common.CopyBytes(values[0].([]byte))
	module := values[1].(common.Address)
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, module, errors.Errorf("unexpected signature length %d", len(sig))
	}

	hash, err := op.Hash(entryPoint, chainID)
	if err != nil {
		return common.Address{}, module, err
	}

	sig[crypto.RecoveryIDOffset] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash(hash.Bytes()), sig)
	if err != nil {
		return common.Address{}, module, errors.Wrap(err, "failed to recover signer")
	}
	return crypto.PubkeyToAddress(*pub), module, nil
}
