// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package sponsor

import (
	"context"
	"github.com/ethereum/go-ethereum/common"
	"github.com/orbs-network/gasless-counter/config"
	"github.com/orbs-network/gasless-counter/instrumentation/metric"
	"github.com/orbs-network/gasless-counter/services/counter"
	counteradapter "github.com/orbs-network/gasless-counter/services/counter/adapter"
	"github.com/orbs-network/gasless-counter/services/notification"
	"github.com/orbs-network/gasless-counter/services/paymaster"
	pmadapter "github.com/orbs-network/gasless-counter/services/paymaster/adapter"
	"github.com/orbs-network/gasless-counter/services/smartaccount"
	saadapter "github.com/orbs-network/gasless-counter/services/smartaccount/adapter"
	"github.com/orbs-network/gasless-counter/test"
	"github.com/orbs-network/gasless-counter/test/with"
	"github.com/orbs-network/go-mock"
	"github.com/orbs-network/govnr"
	"github.com/stretchr/testify/require"
	"math/big"
	"testing"
	"time"
)

var (
	contractAddress  = common.HexToAddress(config.SIMULATED_COUNTER_CONTRACT_ADDRESS)
	accountAddress   = common.HexToAddress(config.SIMULATED_SMART_ACCOUNT_ADDRESS)
	paymasterAddress = common.HexToAddress("0x00000f79b7faf42eebadba19acc07cd08af44789")
)

type synchronizerMock struct {
	mock.Mock
}

func (s *synchronizerMock) Refresh(ctx context.Context, notify bool) (counter.CounterState, error) {
	ret := s.Called(ctx, notify)
	return ret.Get(0).(counter.CounterState), ret.Error(1)
}

type paymasterMock struct {
	mock.Mock
}

func (p *paymasterMock) GetSponsorship(ctx context.Context, op *smartaccount.UserOperation, request paymaster.SponsorshipRequest) (*paymaster.SponsorshipPayload, error) {
	ret := p.Called(ctx, op, request)
	if out := ret.Get(0); out != nil {
		return out.(*paymaster.SponsorshipPayload), ret.Error(1)
	} else {
		return nil, ret.Error(1)
	}
}

type harness struct {
	logging      *with.LoggingHarness
	cfg          Config
	counter      *counteradapter.MemoryCounterContract
	account      *saadapter.MemorySmartAccount
	paymaster    *pmadapter.MemoryPaymaster
	notifier     *notification.Recorder
	registry     metric.Registry
	synchronizer *counter.Service
}

func newHarness(t *testing.T, ctx context.Context, logging *with.LoggingHarness, visibility string) *harness {
	cfg := config.ForSponsorTests(contractAddress.Hex(), visibility)

	signer, err := smartaccount.NewSigner(cfg.SmartAccountOwnerPrivateKey(), common.HexToAddress(cfg.SmartAccountValidationModuleAddress()))
	require.NoError(t, err)

	h := &harness{
		logging:   logging,
		cfg:       cfg,
		counter:   counteradapter.NewMemoryCounterContract(contractAddress),
		paymaster: pmadapter.NewMemoryPaymaster(paymasterAddress),
		notifier:  notification.NewRecorder(),
		registry:  metric.NewRegistry(),
	}
	h.account = saadapter.NewMemorySmartAccount(accountAddress, common.HexToAddress(cfg.EntryPointAddress()), big.NewInt(31337), signer, h.counter)
	h.synchronizer = counter.NewSynchronizer(ctx, cfg, h.counter, h.notifier, logging.Logger, h.registry)
	return h
}

func (h *harness) submitter() *Submitter {
	return h.submitterWith(h.cfg, h.paymaster, h.synchronizer)
}

func (h *harness) submitterWith(cfg Config, pm paymaster.Paymaster, synchronizer Synchronizer) *Submitter {
	return NewSubmitter(cfg, contractAddress, h.account, pm, synchronizer, h.notifier, h.logging.Logger, h.registry)
}

func (h *harness) gauge(name string) int64 {
	return h.registry.Get(name).(*metric.Gauge).Value()
}

func (h *harness) waiter() govnr.ShutdownWaiter {
	if h == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	h.synchronizer.GracefulShutdown(shutdownCtx)
	return h.synchronizer
}

func withSubmitter(t *testing.T, visibility string, f func(ctx context.Context, h *harness)) {
	with.Logging(t, func(logging *with.LoggingHarness) {
		var h *harness
		test.WithContextAndShutdown(func() govnr.ShutdownWaiter { return h.waiter() }, func(ctx context.Context) {
			h = newHarness(t, ctx, logging, visibility)
			f(ctx, h)
		})
	})
}

type timeoutConfig struct {
	Config
	timeout time.Duration
}

func (c *timeoutConfig) OperationConfirmationTimeout() time.Duration {
	return c.timeout
}
