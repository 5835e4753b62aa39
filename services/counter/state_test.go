// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package counter

import (
	"github.com/stretchr/testify/require"
	"testing"
)

func setCount(count uint64) func(current CounterState) CounterState {
	return func(current CounterState) CounterState {
		current.Count = count
		return current
	}
}

func TestStateContainer_ListenersHearOnlyChanges(t *testing.T) {
	c := newStateContainer()

	var heard []CounterState
	initial, unsubscribe := c.onChange(func(state CounterState) {
		heard = append(heard, state)
	})
	require.Equal(t, CounterState{}, initial)

	_, changed := c.apply(readAt(0), func(current CounterState) CounterState { return current })
	require.False(t, changed)

	next, changed := c.apply(readAt(0), setCount(3))
	require.True(t, changed)
	require.EqualValues(t, 3, next.Count)

	_, changed = c.apply(readAt(0), setCount(3))
	require.False(t, changed)

	unsubscribe()
	c.apply(readAt(0), func(current CounterState) CounterState {
		current.LastUser = "0x01"
		return current
	})

	require.Equal(t, []CounterState{{Count: 3}}, heard)
	require.Equal(t, CounterState{Count: 3, LastUser: "0x01"}, c.get())
}

func TestStateContainer_RejectsWritesOlderThanTheLastApplied(t *testing.T) {
	c := newStateContainer()

	_, changed := c.apply(eventAt(5), setCount(5))
	require.True(t, changed)

	_, changed = c.apply(readAt(4), setCount(4))
	require.False(t, changed, "a read pinned before the last event is stale")

	_, changed = c.apply(eventAt(4), setCount(4))
	require.False(t, changed, "an event from an earlier block is stale")

	_, changed = c.apply(readAt(5), setCount(6))
	require.True(t, changed, "a read at the event block holds the final value of that block")

	_, changed = c.apply(eventAt(5), setCount(5))
	require.False(t, changed, "an event is stale once its block has been read")

	_, changed = c.apply(eventAt(6), setCount(7))
	require.True(t, changed)

	require.EqualValues(t, 7, c.get().Count)
}
