// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package test

import (
	"fmt"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math/big"
)

// ChainValues compares big integers by value and treats nil and empty byte slices alike,
// the way values look after a trip through json-rpc
var ChainValues = []cmp.Option{
	cmp.Comparer(func(a, b *big.Int) bool {
		if a == nil || b == nil {
			return a == nil && b == nil
		}
		return a.Cmp(b) == 0
	}),
	cmpopts.EquateEmpty(),
}

func AssertCmpEqual(t assert.TestingT, expected interface{}, actual interface{}, opts ...cmp.Option) bool {
	if diff := cmp.Diff(expected, actual, opts...); diff != "" {
		return assert.Fail(t, fmt.Sprintf("Not equal (-expected +actual):\n%s", diff))
	}
	return true
}

func RequireCmpEqual(t require.TestingT, expected interface{}, actual interface{}, opts ...cmp.Option) {
	if AssertCmpEqual(t, expected, actual, opts...) {
		return
	}
	t.FailNow()
}
