// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package counter

import (
	"context"
	"github.com/ethereum/go-ethereum"
	"github.com/orbs-network/gasless-counter/instrumentation/logfields"
	"github.com/orbs-network/gasless-counter/services/counter/adapter"
	"github.com/orbs-network/govnr"
	"github.com/orbs-network/scribe/log"
	"github.com/pkg/errors"
)

const eventBufferSize = 16

type eventSubscription struct {
	cancel context.CancelFunc
	done   govnr.ContextEndedChan
}

// replaceSubscription tears the current subscription down completely before the next one is opened,
// so there is never more than one live subscription
func (s *Service) replaceSubscription() {
	s.subscription.Lock()
	defer s.subscription.Unlock()

	s.stopSubscriptionLocked(s.ctx)
	if s.ctx.Err() != nil {
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	sink := make(chan *adapter.CountUpdated, eventBufferSize)

	first, err := s.contract.WatchUpdateCount(ctx, sink)
	if err != nil {
		s.logger.Info("failed to subscribe to counter events, will retry", log.Error(err))
		first = nil
	}

	handle := govnr.Forever(ctx, "counter event subscription", logfields.GovnrErrorer(s.logger), func() {
		sub := first
		first = nil
		s.followEvents(ctx, sub, sink)
	})
	// the handle is owned by the current subscription and joined in stopSubscriptionLocked
	handle.MarkSupervised()

	s.subscription.current = &eventSubscription{cancel: cancel, done: handle.Done()}
}

func (s *Service) stopSubscriptionLocked(shutdownContext context.Context) {
	current := s.subscription.current
	if current == nil {
		return
	}

	current.cancel()
	select {
	case <-current.done:
		s.subscription.current = nil
	case <-shutdownContext.Done():
		s.logger.Info("counter event subscription is still terminating")
	}
}

// followEvents consumes events until ctx ends, re-establishing the subscription (rate limited) whenever it drops
func (s *Service) followEvents(ctx context.Context, sub ethereum.Subscription, sink chan *adapter.CountUpdated) {
	for {
		if sub == nil {
			if err := s.retry.Wait(ctx); err != nil {
				return
			}

			var err error
			if sub, err = s.contract.WatchUpdateCount(ctx, sink); err != nil {
				s.logger.Info("failed to resubscribe to counter events", log.Error(err))
				sub = nil
				continue
			}
			s.metrics.resubscriptions.Inc()
		}

		s.metrics.activeSubscriptions.Inc()
		err := s.consume(ctx, sub, sink)
		sub.Unsubscribe()
		s.metrics.activeSubscriptions.Dec()
		sub = nil

		if ctx.Err() != nil {
			return
		}
		s.logger.Info("counter event subscription dropped, resubscribing", log.Error(err))
	}
}

func (s *Service) consume(ctx context.Context, sub ethereum.Subscription, sink chan *adapter.CountUpdated) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Err():
			if err == nil {
				err = errors.New("subscription closed by the node")
			}
			return err
		case update := <-sink:
			s.applyEvent(update)
		}
	}
}
