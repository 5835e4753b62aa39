// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package counter

import (
	"sync"
)

type CounterState struct {
	Count    uint64 `json:"count"`
	LastUser string `json:"lastUser"`
}

type StateListener func(state CounterState)

// chainPosition orders writes to the container: a read pinned at a block supersedes the events of that block
type chainPosition struct {
	block uint64
	event bool
}

func readAt(block uint64) chainPosition {
	return chainPosition{block: block}
}

func eventAt(block uint64) chainPosition {
	return chainPosition{block: block, event: true}
}

func (p chainPosition) before(other chainPosition) bool {
	if p.block != other.block {
		return p.block < other.block
	}
	return p.event && !other.event
}

// stateContainer owns the single current CounterState; apply is the only way to change it
type stateContainer struct {
	mu        sync.Mutex
	current   CounterState
	position  chainPosition
	listeners map[int]StateListener
	nextId    int
}

func newStateContainer() *stateContainer {
	return &stateContainer{listeners: make(map[int]StateListener)}
}

func (c *stateContainer) get() CounterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// apply stores update(current) unless at is older than the last applied write.
// Listeners only hear about actual changes and are called in apply order.
func (c *stateContainer) apply(at chainPosition, update func(current CounterState) CounterState) (CounterState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if at.before(c.position) {
		return c.current, false
	}
	c.position = at

	next := update(c.current)
	if next == c.current {
		return c.current, false
	}

	c.current = next
	for _, listener := range c.listeners {
		listener(next)
	}
	return next, true
}

// onChange registers listener and returns the state it will receive changes from
func (c *stateContainer) onChange(listener StateListener) (CounterState, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextId
	c.nextId++
	c.listeners[id] = listener

	return c.current, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}
