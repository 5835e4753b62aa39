// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package counter

import (
	"context"
	"github.com/ethereum/go-ethereum/common"
	"github.com/orbs-network/gasless-counter/instrumentation/logfields"
	"github.com/orbs-network/gasless-counter/instrumentation/metric"
	"github.com/orbs-network/gasless-counter/services/counter/adapter"
	"github.com/orbs-network/gasless-counter/services/notification"
	"github.com/orbs-network/gasless-counter/synchronization"
	"github.com/orbs-network/govnr"
	"github.com/orbs-network/scribe/log"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"sync"
	"time"
)

var LogTag = log.Service("counter-synchronizer")

const UpdatedMessage = "Count has been updated!"

type Config interface {
	CounterRefreshInterval() time.Duration
	SubscriptionRetryInterval() time.Duration
}

type metrics struct {
	count               *metric.Gauge
	readFailures        *metric.Gauge
	eventsReceived      *metric.Gauge
	activeSubscriptions *metric.Gauge
	resubscriptions     *metric.Gauge
	refreshTime         *metric.Histogram
}

func newMetrics(factory metric.Factory) *metrics {
	return &metrics{
		count:               factory.NewGauge("Counter.Value"),
		readFailures:        factory.NewGauge("Counter.Read.Failed.Count"),
		eventsReceived:      factory.NewGauge("Counter.Events.Received.Count"),
		activeSubscriptions: factory.NewGauge("Counter.Subscription.Active"),
		resubscriptions:     factory.NewGauge("Counter.Subscription.Retries.Count"),
		refreshTime:         factory.NewLatency("Counter.Refresh.Time", 30*time.Second),
	}
}

// Service keeps CounterState in step with the chain: explicit refreshes read both values, events update the count
type Service struct {
	govnr.TreeSupervisor

	logger   log.Logger
	config   Config
	contract adapter.CounterContract
	notifier notification.Notifier
	metrics  *metrics
	state    *stateContainer
	retry    *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc

	subscription struct {
		sync.Mutex
		current *eventSubscription
	}
}

func NewSynchronizer(parentCtx context.Context, config Config, contract adapter.CounterContract, notifier notification.Notifier, parentLogger log.Logger, metricFactory metric.Factory) *Service {
	ctx, cancel := context.WithCancel(parentCtx)
	s := &Service{
		logger:   parentLogger.WithTags(LogTag, logfields.ContractAddress(contract.Address())),
		config:   config,
		contract: contract,
		notifier: notifier,
		metrics:  newMetrics(metricFactory),
		state:    newStateContainer(),
		retry:    rate.NewLimiter(rate.Every(config.SubscriptionRetryInterval()), 1),
		ctx:      ctx,
		cancel:   cancel,
	}

	if interval := config.CounterRefreshInterval(); interval > 0 {
		s.Supervise(synchronization.NewPeriodicalTrigger(ctx, "counter background refresh", synchronization.NewTimeTicker(interval), s.logger, func() {
			s.sync(ctx)
		}, nil))
	}

	return s
}

func (s *Service) State() CounterState {
	return s.state.get()
}

// OnChange registers a listener called synchronously on every actual state change; it must not block.
// The returned state is the one the first change will be applied to.
func (s *Service) OnChange(listener StateListener) (current CounterState, unsubscribe func()) {
	return s.state.onChange(listener)
}

// Refresh reads count and last user, applies them and replaces the event subscription.
// On a read failure nothing changes: not the state, not the subscription, and no notification is emitted.
func (s *Service) Refresh(ctx context.Context, notify bool) (CounterState, error) {
	start := time.Now()
	defer s.metrics.refreshTime.RecordSince(start)

	read, err := s.read(ctx)
	if err != nil {
		s.metrics.readFailures.Inc()
		s.logger.Info("failed to refresh counter state", log.Error(err))
		return s.State(), err
	}


	state := s.replace(read)
	s.replaceSubscription()

	if notify {
		s.notifier.Success(UpdatedMessage)
	}

	return state, nil
}

// sync is the background variant of Refresh: it neither notifies nor touches the subscription
func (s *Service) sync(ctx context.Context) {
	read, err := s.read(ctx)
	if err != nil {
		s.metrics.readFailures.Inc()
		s.logger.Info("background counter refresh failed", log.Error(err))
		return
	}
	s.replace(read)
}

type pinnedRead struct {
	block uint64
	state CounterState
}

// read takes both values at the same block so they can be ordered against events
func (s *Service) read(ctx context.Context) (*pinnedRead, error) {
	block, err := s.contract.BlockNumber(ctx)
	if err != nil {
		return nil, &ReadError{cause: errors.Wrap(err, "failed to read block number")}
	}

	var count uint64
	var lastUser common.Address

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		count, err = s.contract.Number(gctx, block)
		return errors.Wrap(err, "failed to read count")
	})
	g.Go(func() (err error) {
		lastUser, err = s.contract.LastUser(gctx, block)
		return errors.Wrap(err, "failed to read last user")
	})

	if err := g.Wait(); err != nil {
		return nil, &ReadError{cause: err}
	}

	return &pinnedRead{block: block, state: CounterState{Count: count, LastUser: lastUser.Hex()}}, nil
}

func (s *Service) replace(read *pinnedRead) CounterState {
	state, changed := s.state.apply(readAt(read.block), func(current CounterState) CounterState {
		return read.state
	})

	if changed {
		s.metrics.count.UpdateUint64(state.Count)
		s.logger.Info("counter state updated", logfields.Count(state.Count), log.String("last-user", state.LastUser), logfields.BlockNumber(read.block))
	}
	return state
}

func (s *Service) applyEvent(update *adapter.CountUpdated) {
	s.metrics.eventsReceived.Inc()

	state, changed := s.state.apply(eventAt(update.BlockNumber), func(current CounterState) CounterState {
		current.Count = update.NewCount
		return current
	})

	if changed {
		s.metrics.count.UpdateUint64(state.Count)
		s.logger.Info("count updated by event", logfields.Count(state.Count), logfields.BlockNumber(update.BlockNumber), logfields.TransactionHash(update.TxHash))
	}
}

func (s *Service) GracefulShutdown(shutdownContext context.Context) {
	s.cancel()

	s.subscription.Lock()
	defer s.subscription.Unlock()
	s.stopSubscriptionLocked(shutdownContext)
}

func (s *Service) WaitUntilShutdown(shutdownContext context.Context) {
	s.TreeSupervisor.WaitUntilShutdown(shutdownContext)

	s.subscription.Lock()
	current := s.subscription.current
	s.subscription.Unlock()

	if current != nil {
		select {
		case <-current.done:
		case <-shutdownContext.Done():
			s.logger.Error("counter event subscription did not terminate before shutdown deadline")
		}
	}
}
