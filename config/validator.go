// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package config

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"reflect"
	"runtime"
	"strings"
	"time"
)

// ValidateNodeLogic checks what every node needs regardless of the chain it talks to
func ValidateNodeLogic(cfg NodeConfig) error {
	if cfg.CounterContractAddress() == "" {
		return errors.Errorf("%s is required", COUNTER_CONTRACT_ADDRESS)
	}

	switch cfg.SponsorshipFailureVisibility() {
	case SPONSORSHIP_FAILURE_SILENT, SPONSORSHIP_FAILURE_SURFACE:
	default:
		return errors.Errorf("%s must be %s or %s, got %q", SPONSORSHIP_FAILURE_VISIBILITY, SPONSORSHIP_FAILURE_SILENT, SPONSORSHIP_FAILURE_SURFACE, cfg.SponsorshipFailureVisibility())
	}

	if err := requireGT(cfg.OperationConfirmationTimeout, cfg.OperationReceiptPollingInterval, "confirmation timeout must be greater than receipt polling interval"); err != nil {
		return err
	}

	if cfg.SubscriptionRetryInterval() <= 0 {
		return errors.Errorf("%s must be positive", SUBSCRIPTION_RETRY_INTERVAL)
	}

	return nil
}

// ValidateChainConnections checks the endpoints and keys needed to talk to a real chain
func ValidateChainConnections(cfg NodeConfig) error {
	required := map[string]string{
		ETHEREUM_ENDPOINT:               cfg.EthereumEndpoint(),
		BUNDLER_ENDPOINT:                cfg.BundlerEndpoint(),
		PAYMASTER_ENDPOINT:              cfg.PaymasterEndpoint(),
		SMART_ACCOUNT_ADDRESS:           cfg.SmartAccountAddress(),
		SMART_ACCOUNT_OWNER_PRIVATE_KEY: cfg.SmartAccountOwnerPrivateKey(),
	}

	for _, key := range []string{ETHEREUM_ENDPOINT, BUNDLER_ENDPOINT, PAYMASTER_ENDPOINT, SMART_ACCOUNT_ADDRESS, SMART_ACCOUNT_OWNER_PRIVATE_KEY} {
		if required[key] == "" {
			return errors.Errorf("%s is required", key)
		}
	}

	for key, address := range map[string]string{
		ENTRY_POINT_ADDRESS:                     cfg.EntryPointAddress(),
		SMART_ACCOUNT_ADDRESS:                   cfg.SmartAccountAddress(),
		SMART_ACCOUNT_VALIDATION_MODULE_ADDRESS: cfg.SmartAccountValidationModuleAddress(),
	} {
		if !common.IsHexAddress(address) {
			return errors.Errorf("%s is not a valid address: %q", key, address)
		}
	}

	return nil
}

func requireGT(d1 func() time.Duration, d2 func() time.Duration, msg string) error {
	if d1() <= d2() {
		return errors.Errorf("%s (%s=%s, %s=%s)", msg, funcName(d1), d1(), funcName(d2), d2())
	}
	return nil
}

func funcName(i interface{}) string {
	fullName := runtime.FuncForPC(reflect.ValueOf(i).Pointer()).Name()
	lastDot := strings.LastIndex(fullName, ".")
	return strings.TrimSuffix(fullName[lastDot+1:], "-fm")
}
