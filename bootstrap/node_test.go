// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/orbs-network/gasless-counter/config"
	"github.com/orbs-network/gasless-counter/services/counter"
	"github.com/orbs-network/gasless-counter/services/notification"
	"github.com/orbs-network/gasless-counter/services/sponsor"
	"github.com/orbs-network/gasless-counter/test"
	"github.com/orbs-network/gasless-counter/test/with"
	"github.com/orbs-network/govnr"
	"github.com/stretchr/testify/require"
	"net/http"
	"strings"
	"testing"
	"time"
)

func simulatedConfig() config.NodeConfig {
	return config.ForSimulation().
		SetString(config.HTTP_ADDRESS, "127.0.0.1:0").
		SetDuration(config.METRICS_REPORT_INTERVAL, 0)
}

func withSimulatedNode(t *testing.T, cfg config.NodeConfig, f func(ctx context.Context, harness *with.LoggingHarness, node *Node)) {
	with.Logging(t, func(harness *with.LoggingHarness) {
		var node *Node
		waiter := func() govnr.ShutdownWaiter {
			if node == nil {
				return nil
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			node.GracefulShutdown(shutdownCtx)
			return node
		}

		test.WithContextAndShutdown(waiter, func(ctx context.Context) {
			var err error
			node, err = NewSimulatedNode(ctx, cfg, harness.Logger)
			require.NoError(t, err)
			f(ctx, harness, node)
		})
	})
}

func TestSimulatedNode_StartsWithMountedState(t *testing.T) {
	withSimulatedNode(t, simulatedConfig(), func(ctx context.Context, harness *with.LoggingHarness, node *Node) {
		require.Equal(t, counter.CounterState{Count: 0, LastUser: "0x0000000000000000000000000000000000000000"}, node.Counter().State())
		require.Empty(t, node.Notifications().History(), "mounting must not notify")
	})
}

func TestSimulatedNode_IncrementOverHttp(t *testing.T) {
	withSimulatedNode(t, simulatedConfig(), func(ctx context.Context, harness *with.LoggingHarness, node *Node) {
		res, err := http.Post(fmt.Sprintf("http://127.0.0.1:%d/api/v1/counter/increment", node.HttpPort()), "application/json", nil)
		require.NoError(t, err)
		defer res.Body.Close()

		var body struct {
			Status        string `json:"status"`
			OperationHash string `json:"operationHash"`
		}
		require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
		require.Equal(t, http.StatusOK, res.StatusCode)
		require.Equal(t, sponsor.Confirmed.String(), body.Status)
		require.True(t, strings.HasPrefix(body.OperationHash, "0x"))

		require.EqualValues(t, 1, node.Counter().State().Count)
		require.Equal(t, strings.ToLower(config.SIMULATED_SMART_ACCOUNT_ADDRESS), strings.ToLower(node.Counter().State().LastUser))

		history := node.Notifications().History()
		require.Len(t, history, 3)
		require.Equal(t, notification.KindInfo, history[0].Kind)
		require.Equal(t, sponsor.ProcessingMessage, history[0].Message)
		require.Equal(t, notification.KindSuccess, history[2].Kind)
		require.Equal(t, counter.UpdatedMessage, history[2].Message)
	})
}

func TestSimulatedNode_DecrementBelowZeroFails(t *testing.T) {
	withSimulatedNode(t, simulatedConfig(), func(ctx context.Context, harness *with.LoggingHarness, node *Node) {
		harness.AllowErrorsMatching("user operation was not confirmed")

		op, err := node.Submitter().Decrement(ctx)

		require.Error(t, err)
		require.True(t, sponsor.IsSubmissionError(err))
		require.Equal(t, sponsor.Failed, op.Status)
		require.EqualValues(t, 0, node.Counter().State().Count)
	})
}

func TestSimulatedNode_RunsWithoutHttp(t *testing.T) {
	cfg := config.ForSimulation().SetString(config.HTTP_ADDRESS, "")
	withSimulatedNode(t, cfg, func(ctx context.Context, harness *with.LoggingHarness, node *Node) {
		require.Zero(t, node.HttpPort())

		_, err := node.Submitter().Increment(ctx)
		require.NoError(t, err)
		require.True(t, test.Eventually(func() bool { return node.Counter().State().Count == 1 }))
	})
}

func TestNewNode_RejectsMissingEndpoints(t *testing.T) {
	with.Logging(t, func(harness *with.LoggingHarness) {
		cfg := config.ForProduction().SetString(config.COUNTER_CONTRACT_ADDRESS, config.SIMULATED_COUNTER_CONTRACT_ADDRESS)

		_, err := NewNode(context.Background(), cfg, harness.Logger)
		require.Error(t, err)
		require.Contains(t, err.Error(), config.ETHEREUM_ENDPOINT)
	})
}

func TestNode_ShutsDownWithinDeadline(t *testing.T) {
	with.Logging(t, func(harness *with.LoggingHarness) {
		node, err := NewSimulatedNode(context.Background(), simulatedConfig(), harness.Logger)
		require.NoError(t, err)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		node.GracefulShutdown(shutdownCtx)
		node.WaitUntilShutdown(shutdownCtx)
		require.NoError(t, shutdownCtx.Err())
	})
}
