// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package config

import (
	"time"
)

const DEFAULT_ENTRY_POINT_ADDRESS = "0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789"
const DEFAULT_VALIDATION_MODULE_ADDRESS = "0x0000001c5b32F37F5beA87BDD5374eB2aC54eA8e"

// well known development key, never holds funds
const DEVELOPMENT_OWNER_PRIVATE_KEY = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
const SIMULATED_COUNTER_CONTRACT_ADDRESS = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
const SIMULATED_SMART_ACCOUNT_ADDRESS = "0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0"

// all other configs are variations from the production one
func defaultProductionConfig() mutableNodeConfig {
	cfg := emptyConfig()

	cfg.SetString(COUNTER_CONTRACT_ADDRESS, "")
	cfg.SetString(ETHEREUM_ENDPOINT, "")
	cfg.SetDuration(COUNTER_REFRESH_INTERVAL, 0)
	cfg.SetDuration(SUBSCRIPTION_RETRY_INTERVAL, 5*time.Second)

	cfg.SetString(BUNDLER_ENDPOINT, "")
	cfg.SetString(PAYMASTER_ENDPOINT, "")
	cfg.SetString(ENTRY_POINT_ADDRESS, DEFAULT_ENTRY_POINT_ADDRESS)
	cfg.SetString(SMART_ACCOUNT_ADDRESS, "")
	cfg.SetString(SMART_ACCOUNT_OWNER_PRIVATE_KEY, "")
	cfg.SetString(SMART_ACCOUNT_VALIDATION_MODULE_ADDRESS, DEFAULT_VALIDATION_MODULE_ADDRESS)
	cfg.SetString(SMART_ACCOUNT_NAME, "BICONOMY")
	cfg.SetString(SMART_ACCOUNT_VERSION, "2.0.0")
	cfg.SetDuration(OPERATION_RECEIPT_POLLING_INTERVAL, 2*time.Second)
	cfg.SetDuration(OPERATION_CONFIRMATION_TIMEOUT, 2*time.Minute)
	cfg.SetString(SPONSORSHIP_FAILURE_VISIBILITY, SPONSORSHIP_FAILURE_SILENT)

	cfg.SetString(HTTP_ADDRESS, ":8080")
	cfg.SetUint32(HTTP_MAX_CONNECTIONS, 256)
	cfg.SetUint32(NOTIFICATION_HISTORY_SIZE, 50)

	cfg.SetDuration(METRICS_REPORT_INTERVAL, 30*time.Second)
	cfg.SetString(NTP_ENDPOINT, "")
	cfg.SetBool(LOGGER_FULL_LOG, true)
	cfg.SetString(LOGGER_FILE_PATH, "")

	return cfg
}

func ForProduction() mutableNodeConfig {
	return defaultProductionConfig()
}

// ForSimulation runs the node against an in-memory chain, smart account and paymaster
func ForSimulation() mutableNodeConfig {
	cfg := defaultProductionConfig()

	cfg.SetString(COUNTER_CONTRACT_ADDRESS, SIMULATED_COUNTER_CONTRACT_ADDRESS)
	cfg.SetString(SMART_ACCOUNT_ADDRESS, SIMULATED_SMART_ACCOUNT_ADDRESS)
	cfg.SetString(SMART_ACCOUNT_OWNER_PRIVATE_KEY, DEVELOPMENT_OWNER_PRIVATE_KEY)
	cfg.SetDuration(OPERATION_RECEIPT_POLLING_INTERVAL, 100*time.Millisecond)
	cfg.SetDuration(OPERATION_CONFIRMATION_TIMEOUT, 10*time.Second)

	return cfg
}

func ForCounterTests(contractAddress string) mutableNodeConfig {
	cfg := defaultProductionConfig()

	cfg.SetString(COUNTER_CONTRACT_ADDRESS, contractAddress)
	cfg.SetDuration(SUBSCRIPTION_RETRY_INTERVAL, 10*time.Millisecond)

	return cfg
}

func ForSponsorTests(contractAddress string, visibility string) mutableNodeConfig {
	cfg := ForCounterTests(contractAddress)

	cfg.SetString(SMART_ACCOUNT_ADDRESS, SIMULATED_SMART_ACCOUNT_ADDRESS)
	cfg.SetString(SMART_ACCOUNT_OWNER_PRIVATE_KEY, DEVELOPMENT_OWNER_PRIVATE_KEY)
	cfg.SetDuration(OPERATION_RECEIPT_POLLING_INTERVAL, 5*time.Millisecond)
	cfg.SetDuration(OPERATION_CONFIRMATION_TIMEOUT, 5*time.Second)
	cfg.SetString(SPONSORSHIP_FAILURE_VISIBILITY, visibility)

	return cfg
}
