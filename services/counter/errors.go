// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package counter

import (
	"github.com/pkg/errors"
)

// ReadError means at least one of the contract reads of a refresh failed; nothing was changed
type ReadError struct {
	cause error
}

func (e *ReadError) Error() string {
	return "failed to read counter state: " + e.cause.Error()
}

func (e *ReadError) Unwrap() error {
	return e.cause
}

func IsReadError(err error) bool {
	var readError *ReadError
	return errors.As(err, &readError)
}
