// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package config

import (
	"time"
)

type NodeConfig interface {
	// counter contract
	CounterContractAddress() string
	EthereumEndpoint() string
	CounterRefreshInterval() time.Duration
	SubscriptionRetryInterval() time.Duration

	// account abstraction
	BundlerEndpoint() string
	PaymasterEndpoint() string
	EntryPointAddress() string
	SmartAccountAddress() string
	SmartAccountOwnerPrivateKey() string
	SmartAccountValidationModuleAddress() string
	SmartAccountName() string
	SmartAccountVersion() string
	OperationReceiptPollingInterval() time.Duration
	OperationConfirmationTimeout() time.Duration
	SponsorshipFailureVisibility() string

	// view surface
	HttpAddress() string
	HttpMaxConnections() uint32
	NotificationHistorySize() uint32

	// instrumentation
	MetricsReportInterval() time.Duration
	NtpEndpoint() string
	LoggerFullLog() bool
	LoggerFilePath() string
}

type mutableNodeConfig interface {
	NodeConfig
	Set(key string, value NodeConfigValue) mutableNodeConfig
	SetDuration(key string, value time.Duration) mutableNodeConfig
	SetUint32(key string, value uint32) mutableNodeConfig
	SetString(key string, value string) mutableNodeConfig
	SetBool(key string, value bool) mutableNodeConfig
	Clone() mutableNodeConfig
	Keys() []string
	Value(key string) (NodeConfigValue, bool)
}

type valueKind uint8

const (
	kindString valueKind = iota
	kindUint32
	kindDuration
	kindBool
)

type NodeConfigValue struct {
	Uint32Value   uint32
	DurationValue time.Duration
	StringValue   string
	BoolValue     bool
	kind          valueKind
}

type NodeConfigKeyValue struct {
	Key   string
	Value NodeConfigValue
}

const (
	COUNTER_CONTRACT_ADDRESS    = "COUNTER_CONTRACT_ADDRESS"
	ETHEREUM_ENDPOINT           = "ETHEREUM_ENDPOINT"
	COUNTER_REFRESH_INTERVAL    = "COUNTER_REFRESH_INTERVAL"
	SUBSCRIPTION_RETRY_INTERVAL = "SUBSCRIPTION_RETRY_INTERVAL"

	BUNDLER_ENDPOINT                        = "BUNDLER_ENDPOINT"
	PAYMASTER_ENDPOINT                      = "PAYMASTER_ENDPOINT"
	ENTRY_POINT_ADDRESS                     = "ENTRY_POINT_ADDRESS"
	SMART_ACCOUNT_ADDRESS                   = "SMART_ACCOUNT_ADDRESS"
	SMART_ACCOUNT_OWNER_PRIVATE_KEY         = "SMART_ACCOUNT_OWNER_PRIVATE_KEY"
	SMART_ACCOUNT_VALIDATION_MODULE_ADDRESS = "SMART_ACCOUNT_VALIDATION_MODULE_ADDRESS"
	SMART_ACCOUNT_NAME                      = "SMART_ACCOUNT_NAME"
	SMART_ACCOUNT_VERSION                   = "SMART_ACCOUNT_VERSION"
	OPERATION_RECEIPT_POLLING_INTERVAL      = "OPERATION_RECEIPT_POLLING_INTERVAL"
	OPERATION_CONFIRMATION_TIMEOUT          = "OPERATION_CONFIRMATION_TIMEOUT"
	SPONSORSHIP_FAILURE_VISIBILITY          = "SPONSORSHIP_FAILURE_VISIBILITY"

	HTTP_ADDRESS              = "HTTP_ADDRESS"
	HTTP_MAX_CONNECTIONS      = "HTTP_MAX_CONNECTIONS"
	NOTIFICATION_HISTORY_SIZE = "NOTIFICATION_HISTORY_SIZE"

	METRICS_REPORT_INTERVAL = "METRICS_REPORT_INTERVAL"
	NTP_ENDPOINT            = "NTP_ENDPOINT"
	LOGGER_FULL_LOG         = "LOGGER_FULL_LOG"
	LOGGER_FILE_PATH        = "LOGGER_FILE_PATH"
)

const (
	SPONSORSHIP_FAILURE_SILENT  = "silent"
	SPONSORSHIP_FAILURE_SURFACE = "surface"
)
