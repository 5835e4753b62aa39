// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package notification

import (
	"github.com/gammazero/deque"
	"github.com/orbs-network/gasless-counter/instrumentation/metric"
	"github.com/orbs-network/scribe/log"
	"sync"
)

var LogTag = log.Service("notification-hub")

type Config interface {
	NotificationHistorySize() uint32
}

type Listener func(n *Notification)

type metrics struct {
	info    *metric.Gauge
	success *metric.Gauge
	errors  *metric.Gauge
}

// Hub logs every notification, keeps a bounded history for late joiners and fans out to listeners
type Hub struct {
	logger     log.Logger
	maxHistory int
	metrics    *metrics

	mu struct {
		sync.RWMutex
		history   deque.Deque[*Notification]
		listeners map[int]Listener
		nextId    int
	}
}

func NewHub(config Config, parentLogger log.Logger, metricFactory metric.Factory) *Hub {
	h := &Hub{
		logger:     parentLogger.WithTags(LogTag),
		maxHistory: int(config.NotificationHistorySize()),
		metrics: &metrics{
			info:    metricFactory.NewGauge("Notifications.Info.Count"),
			success: metricFactory.NewGauge("Notifications.Success.Count"),
			errors:  metricFactory.NewGauge("Notifications.Error.Count"),
		},
	}
	h.mu.listeners = make(map[int]Listener)
	return h
}

func (h *Hub) Info(message string) {
	h.metrics.info.Inc()
	h.publish(newNotification(KindInfo, message))
}

func (h *Hub) Success(message string) {
	h.metrics.success.Inc()
	h.publish(newNotification(KindSuccess, message))
}

func (h *Hub) Error(message string) {
	h.metrics.errors.Inc()
	h.publish(newNotification(KindError, message))
}

// Subscribe registers a listener; listeners are called synchronously and must not block
func (h *Hub) Subscribe(listener Listener) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.mu.nextId
	h.mu.nextId++
	h.mu.listeners[id] = listener

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.mu.listeners, id)
	}
}

// History returns the retained notifications, oldest first
func (h *Hub) History() []*Notification {
	h.mu.RLock()
	defer h.mu.RUnlock()

	history := make([]*Notification, 0, h.mu.history.Len())
	for i := 0; i < h.mu.history.Len(); i++ {
		history = append(history, h.mu.history.At(i))
	}
	return history
}

func (h *Hub) publish(n *Notification) {
	// user facing messages are logged at info level, an error toast is not a node error
	h.logger.Info("notification", log.String("kind", string(n.Kind)), log.String("message", n.Message))

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.maxHistory > 0 {
		h.mu.history.PushBack(n)
		for h.mu.history.Len() > h.maxHistory {
			h.mu.history.PopFront()
		}
	}

	for _, listener := range h.mu.listeners {
		listener(n)
	}
}
