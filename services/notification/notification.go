// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package notification

import (
	"time"
)

type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Display carries the presentation hints a client uses when rendering a toast
type Display struct {
	Position        string        `json:"position"`
	AutoClose       time.Duration `json:"autoClose"`
	HideProgressBar bool          `json:"hideProgressBar"`
	CloseOnClick    bool          `json:"closeOnClick"`
	PauseOnHover    bool          `json:"pauseOnHover"`
	Draggable       bool          `json:"draggable"`
	Theme           string        `json:"theme"`
}

var DefaultDisplay = Display{
	Position:        "top-right",
	AutoClose:       5 * time.Second,
	HideProgressBar: false,
	CloseOnClick:    true,
	PauseOnHover:    true,
	Draggable:       true,
	Theme:           "dark",
}

type Notification struct {
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	Display   Display   `json:"display"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier is fire-and-forget: emitting never blocks on or fails because of a consumer
type Notifier interface {
	Info(message string)
	Success(message string)
	Error(message string)
}

func newNotification(kind Kind, message string) *Notification {
	return &Notification{
		Kind:      kind,
		Message:   message,
		Display:   DefaultDisplay,
		Timestamp: time.Now(),
	}
}
