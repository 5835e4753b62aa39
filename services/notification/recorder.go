// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package notification

import (
	"sync"
)

// Recorder is a Notifier that remembers what it was told, for tests
type Recorder struct {
	mu            sync.Mutex
	notifications []*Notification
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Info(message string) {
	r.record(KindInfo, message)
}

func (r *Recorder) Success(message string) {
	r.record(KindSuccess, message)
}

func (r *Recorder) Error(message string) {
	r.record(KindError, message)
}

func (r *Recorder) record(kind Kind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, newNotification(kind, message))
}

func (r *Recorder) All() []*Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]*Notification, len(r.notifications))
	copy(all, r.notifications)
	return all
}

func (r *Recorder) Messages(kind Kind) []string {
	var messages []string
	for _, n := range r.All() {
		if n.Kind == kind {
			messages = append(messages, n.Message)
		}
	}
	return messages
}

func (r *Recorder) Count(kind Kind) int {
	return len(r.Messages(kind))
}
