// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package config

import (
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, name string, contents string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := ForProduction()

	require.Equal(t, DEFAULT_ENTRY_POINT_ADDRESS, cfg.EntryPointAddress())
	require.Equal(t, "BICONOMY", cfg.SmartAccountName())
	require.Equal(t, "2.0.0", cfg.SmartAccountVersion())
	require.Equal(t, SPONSORSHIP_FAILURE_SILENT, cfg.SponsorshipFailureVisibility())
	require.Equal(t, 2*time.Minute, cfg.OperationConfirmationTimeout())
	require.EqualValues(t, 50, cfg.NotificationHistorySize())
	require.True(t, cfg.LoggerFullLog())
}

func clearEnv(t *testing.T, keys ...string) {
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestGetNodeConfigFromFiles_LaterFilesOverrideEarlierOnes(t *testing.T) {
	clearEnv(t, COUNTER_CONTRACT_ADDRESS, OPERATION_RECEIPT_POLLING_INTERVAL, HTTP_MAX_CONNECTIONS, LOGGER_FULL_LOG)
	first := writeConfigFile(t, "first.json", `{
	"counter-contract-address": "0x1111111111111111111111111111111111111111",
	"operation-receipt-polling-interval": "1s",
	"http-max-connections": 10
}`)
	second := writeConfigFile(t, "second.yaml", `
COUNTER_CONTRACT_ADDRESS: "0x2222222222222222222222222222222222222222"
LOGGER_FULL_LOG: false
`)

	cfg, err := GetNodeConfigFromFiles(ForProduction(), FilesPaths{first, second})
	require.NoError(t, err)

	require.Equal(t, "0x2222222222222222222222222222222222222222", cfg.CounterContractAddress())
	require.Equal(t, time.Second, cfg.OperationReceiptPollingInterval())
	require.EqualValues(t, 10, cfg.HttpMaxConnections())
	require.False(t, cfg.LoggerFullLog())
}

func TestGetNodeConfigFromFiles_SameKeyInDifferentSpellings(t *testing.T) {
	clearEnv(t, COUNTER_CONTRACT_ADDRESS)

	for i := 0; i < 20; i++ {
		first := writeConfigFile(t, "first.json", `{"COUNTER_CONTRACT_ADDRESS": "0x1111111111111111111111111111111111111111"}`)
		second := writeConfigFile(t, "second.json", `{"counter-contract-address": "0x2222222222222222222222222222222222222222"}`)

		cfg, err := GetNodeConfigFromFiles(ForProduction(), FilesPaths{first, second})
		require.NoError(t, err)
		require.Equal(t, "0x2222222222222222222222222222222222222222", cfg.CounterContractAddress())
	}
}

func TestGetNodeConfigFromFiles_EnvironmentWins(t *testing.T) {
	file := writeConfigFile(t, "node", `{"BUNDLER_ENDPOINT": "http://from-file"}`)
	t.Setenv(BUNDLER_ENDPOINT, "http://from-env")
	t.Setenv(SPONSORSHIP_FAILURE_VISIBILITY, SPONSORSHIP_FAILURE_SURFACE)

	cfg, err := GetNodeConfigFromFiles(ForProduction(), FilesPaths{file})
	require.NoError(t, err)

	require.Equal(t, "http://from-env", cfg.BundlerEndpoint())
	require.Equal(t, SPONSORSHIP_FAILURE_SURFACE, cfg.SponsorshipFailureVisibility())
}

func TestGetNodeConfigFromFiles_DoesNotMutateBase(t *testing.T) {
	base := ForProduction()
	t.Setenv(HTTP_ADDRESS, ":9999")

	cfg, err := GetNodeConfigFromFiles(base, nil)
	require.NoError(t, err)

	require.Equal(t, ":9999", cfg.HttpAddress())
	require.Equal(t, ":8080", base.HttpAddress())
}

func TestGetNodeConfigFromFiles_MissingFile(t *testing.T) {
	_, err := GetNodeConfigFromFiles(ForProduction(), FilesPaths{"/does/not/exist.json"})
	require.Error(t, err)
}

func TestValidateNodeLogic_RequiresContractAddressPresenceOnly(t *testing.T) {
	cfg := ForProduction()
	require.Error(t, ValidateNodeLogic(cfg))

	cfg.SetString(COUNTER_CONTRACT_ADDRESS, "not-even-an-address")
	require.NoError(t, ValidateNodeLogic(cfg))
}

func TestValidateNodeLogic_RejectsUnknownVisibility(t *testing.T) {
	cfg := ForCounterTests("0x1111111111111111111111111111111111111111")
	cfg.SetString(SPONSORSHIP_FAILURE_VISIBILITY, "loud")

	require.Error(t, ValidateNodeLogic(cfg))
}

func TestValidateNodeLogic_RejectsTimeoutBelowPollingInterval(t *testing.T) {
	cfg := ForCounterTests("0x1111111111111111111111111111111111111111")
	cfg.SetDuration(OPERATION_CONFIRMATION_TIMEOUT, time.Second)

	err := ValidateNodeLogic(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "OperationConfirmationTimeout")
}

func TestValidateChainConnections(t *testing.T) {
	cfg := ForSimulation()
	require.Error(t, ValidateChainConnections(cfg), "simulation has no endpoints")

	cfg.SetString(ETHEREUM_ENDPOINT, "ws://localhost:8546")
	cfg.SetString(BUNDLER_ENDPOINT, "http://localhost:3000")
	cfg.SetString(PAYMASTER_ENDPOINT, "http://localhost:3001")
	require.NoError(t, ValidateChainConnections(cfg))

	cfg.SetString(SMART_ACCOUNT_VALIDATION_MODULE_ADDRESS, "0x12")
	require.Error(t, ValidateChainConnections(cfg))
}
