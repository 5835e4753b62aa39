// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package config

import (
	"sort"
	"time"
)

type config struct {
	kv map[string]NodeConfigValue
}

func emptyConfig() mutableNodeConfig {
	return &config{
		kv: make(map[string]NodeConfigValue),
	}
}

func (c *config) Set(key string, value NodeConfigValue) mutableNodeConfig {
	c.kv[key] = value
	return c
}

func (c *config) SetDuration(key string, value time.Duration) mutableNodeConfig {
	c.kv[key] = NodeConfigValue{DurationValue: value, kind: kindDuration}
	return c
}

func (c *config) SetUint32(key string, value uint32) mutableNodeConfig {
	c.kv[key] = NodeConfigValue{Uint32Value: value, kind: kindUint32}
	return c
}

func (c *config) SetString(key string, value string) mutableNodeConfig {
	c.kv[key] = NodeConfigValue{StringValue: value, kind: kindString}
	return c
}

func (c *config) SetBool(key string, value bool) mutableNodeConfig {
	c.kv[key] = NodeConfigValue{BoolValue: value, kind: kindBool}
	return c
}

func (c *config) Clone() mutableNodeConfig {
	cloned := &config{kv: make(map[string]NodeConfigValue, len(c.kv))}
	for key, value := range c.kv {
		cloned.kv[key] = value
	}
	return cloned
}

func (c *config) Keys() []string {
	keys := make([]string, 0, len(c.kv))
	for key := range c.kv {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (c *config) Value(key string) (NodeConfigValue, bool) {
	value, ok := c.kv[key]
	return value, ok
}

// Modify is used by tests to override values of a preset
func (c *config) Modify(newValues ...NodeConfigKeyValue) {
	for _, kv := range newValues {
		c.kv[kv.Key] = kv.Value
	}
}

func (c *config) CounterContractAddress() string {
	return c.kv[COUNTER_CONTRACT_ADDRESS].StringValue
}

func (c *config) EthereumEndpoint() string {
	return c.kv[ETHEREUM_ENDPOINT].StringValue
}

func (c *config) CounterRefreshInterval() time.Duration {
	return c.kv[COUNTER_REFRESH_INTERVAL].DurationValue
}

func (c *config) SubscriptionRetryInterval() time.Duration {
	return c.kv[SUBSCRIPTION_RETRY_INTERVAL].DurationValue
}

func (c *config) BundlerEndpoint() string {
	return c.kv[BUNDLER_ENDPOINT].StringValue
}

func (c *config) PaymasterEndpoint() string {
	return c.kv[PAYMASTER_ENDPOINT].StringValue
}

func (c *config) EntryPointAddress() string {
	return c.kv[ENTRY_POINT_ADDRESS].StringValue
}

func (c *config) SmartAccountAddress() string {
	return c.kv[SMART_ACCOUNT_ADDRESS].StringValue
}

func (c *config) SmartAccountOwnerPrivateKey() string {
	return c.kv[SMART_ACCOUNT_OWNER_PRIVATE_KEY].StringValue
}

func (c *config) SmartAccountValidationModuleAddress() string {
	return c.kv[SMART_ACCOUNT_VALIDATION_MODULE_ADDRESS].StringValue
}

func (c *config) SmartAccountName() string {
	return c.kv[SMART_ACCOUNT_NAME].StringValue
}

func (c *config) SmartAccountVersion() string {
	return c.kv[SMART_ACCOUNT_VERSION].StringValue
}

func (c *config) OperationReceiptPollingInterval() time.Duration {
	return c.kv[OPERATION_RECEIPT_POLLING_INTERVAL].DurationValue
}

func (c *config) OperationConfirmationTimeout() time.Duration {
	return c.kv[OPERATION_CONFIRMATION_TIMEOUT].DurationValue
}

func (c *config) SponsorshipFailureVisibility() string {
	return c.kv[SPONSORSHIP_FAILURE_VISIBILITY].StringValue
}

func (c *config) HttpAddress() string {
	return c.kv[HTTP_ADDRESS].StringValue
}

func (c *config) HttpMaxConnections() uint32 {
	return c.kv[HTTP_MAX_CONNECTIONS].Uint32Value
}

func (c *config) NotificationHistorySize() uint32 {
	return c.kv[NOTIFICATION_HISTORY_SIZE].Uint32Value
}

func (c *config) MetricsReportInterval() time.Duration {
	return c.kv[METRICS_REPORT_INTERVAL].DurationValue
}

func (c *config) NtpEndpoint() string {
	return c.kv[NTP_ENDPOINT].StringValue
}

func (c *config) LoggerFullLog() bool {
	return c.kv[LOGGER_FULL_LOG].BoolValue
}

func (c *config) LoggerFilePath() string {
	return c.kv[LOGGER_FILE_PATH].StringValue
}
