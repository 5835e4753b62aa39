// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package supervised

import (
	"context"
	"github.com/orbs-network/scribe/log"
	"github.com/stretchr/testify/require"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

type countingShutdowner struct {
	shutdowns int32
	done      chan struct{}
}

func (s *countingShutdowner) GracefulShutdown(shutdownContext context.Context) {
	if atomic.AddInt32(&s.shutdowns, 1) == 1 {
		close(s.done)
	}
}

func (s *countingShutdowner) WaitUntilShutdown(shutdownContext context.Context) {
	<-s.done
}

func TestShutdownListener_ShutsDownOnSignal(t *testing.T) {
	s := &countingShutdowner{done: make(chan struct{})}
	l := NewShutdownListener(log.DefaultTestingLogger(t), s, time.Second)
	l.ListenToOSShutdownSignal()

	l.signals <- os.Interrupt

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("node was not shut down")
	}
	require.EqualValues(t, 1, atomic.LoadInt32(&s.shutdowns))
}
