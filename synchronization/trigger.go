// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package synchronization

import (
	"context"
	"github.com/orbs-network/gasless-counter/instrumentation/logfields"
	"github.com/orbs-network/govnr"
	"sync/atomic"
)

type PeriodicalTrigger struct {
	govnr.TreeSupervisor
	name    string
	ticker  Ticker
	handler func()
	onStop  func()
	logger  logfields.Errorer
	cancel  context.CancelFunc
	Closed  govnr.ContextEndedChan

	timesTriggered uint64
}

func NewPeriodicalTrigger(ctx context.Context, name string, ticker Ticker, logger logfields.Errorer, trigger func(), onStop func()) *PeriodicalTrigger {
	subCtx, cancel := context.WithCancel(ctx)
	t := &PeriodicalTrigger{
		name:    name,
		ticker:  ticker,
		handler: trigger,
		onStop:  onStop,
		logger:  logger,
		cancel:  cancel,
	}

	t.run(subCtx)
	return t
}

func (t *PeriodicalTrigger) run(ctx context.Context) {
	h := govnr.Forever(ctx, t.name, logfields.GovnrErrorer(t.logger), func() {
		for {
			select {
			case <-t.ticker.C():
				t.handler()
				atomic.AddUint64(&t.timesTriggered, 1)
			case <-ctx.Done():
				t.ticker.Stop()
				if t.onStop != nil {
					t.onStop()
				}
				return
			}
		}
	})
	t.Closed = h.Done()
	t.Supervise(h)
}

func (t *PeriodicalTrigger) TimesTriggered() uint64 {
	return atomic.LoadUint64(&t.timesTriggered)
}

func (t *PeriodicalTrigger) Stop() {
	t.cancel()
	<-t.Closed
}
