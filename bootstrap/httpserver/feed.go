// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package httpserver

import (
	"github.com/gorilla/websocket"
	"github.com/orbs-network/gasless-counter/instrumentation/logfields"
	"github.com/orbs-network/gasless-counter/services/counter"
	"github.com/orbs-network/gasless-counter/services/notification"
	"github.com/orbs-network/govnr"
	"github.com/orbs-network/scribe/log"
	"net/http"
	"sync"
	"time"
)

const (
	feedBufferSize = 64
	writeTimeout   = 10 * time.Second
)

type FeedMessage struct {
	Type         string                     `json:"type"`
	State        *counter.CounterState      `json:"state,omitempty"`
	Notification *notification.Notification `json:"notification,omitempty"`
}

// feed streams counter state changes and notifications over a websocket, starting with the current state
func (s *HttpServer) feed(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Info("failed to upgrade websocket connection", log.Error(err))
		return
	}
	if !s.trackSocket(conn) {
		_ = conn.Close()
		return
	}

	messages := make(chan FeedMessage, feedBufferSize)
	// listeners run synchronously inside the publishers; a slow client loses messages instead of stalling them
	push := func(m FeedMessage) {
		select {
		case messages <- m:
		default:
			s.logger.Info("websocket client is too slow, dropping message", log.String("remote-address", r.RemoteAddr))
		}
	}

	// changes wait for the snapshot so the client never ends on a state older than the current one
	var snapshotSent sync.Mutex
	snapshotSent.Lock()
	state, unsubscribeState := s.counter.OnChange(func(state counter.CounterState) {
		snapshotSent.Lock()
		defer snapshotSent.Unlock()
		push(FeedMessage{Type: "state", State: &state})
	})
	messages <- FeedMessage{Type: "state", State: &state}
	snapshotSent.Unlock()
	unsubscribeNotifications := s.notifications.Subscribe(func(n *notification.Notification) {
		push(FeedMessage{Type: "notification", Notification: n})
	})

	closed := make(chan struct{})
	govnr.Once(logfields.GovnrErrorer(s.logger), func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	govnr.Once(logfields.GovnrErrorer(s.logger), func() {
		defer func() {
			unsubscribeState()
			unsubscribeNotifications()
			s.untrackSocket(conn)
			_ = conn.Close()
		}()

		for {
			select {
			case <-closed:
				return
			case m := <-messages:
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteJSON(m); err != nil {
					s.logger.Info("failed writing to websocket, disconnecting", log.Error(err))
					return
				}
			}
		}
	})
}

func (s *HttpServer) trackSocket(conn *websocket.Conn) bool {
	s.sockets.Lock()
	defer s.sockets.Unlock()

	if s.sockets.closed {
		return false
	}
	s.sockets.open[conn] = struct{}{}
	return true
}

func (s *HttpServer) untrackSocket(conn *websocket.Conn) {
	s.sockets.Lock()
	defer s.sockets.Unlock()
	delete(s.sockets.open, conn)
}

// closeSockets ends every websocket; http.Server.Shutdown does not track hijacked connections
func (s *HttpServer) closeSockets() {
	s.sockets.Lock()
	defer s.sockets.Unlock()

	s.sockets.closed = true
	for conn := range s.sockets.open {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
		_ = conn.Close()
	}
}
