// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package sponsor

import (
	"github.com/pkg/errors"
)

var ErrOperationInFlight = errors.New("another counter operation is already in flight")

// BuildError means the smart account could not produce an operation for the call
type BuildError struct {
	cause error
}

func (e *BuildError) Error() string {
	return "failed to build user operation: " + e.cause.Error()
}

func (e *BuildError) Unwrap() error {
	return e.cause
}

// SponsorshipError means the paymaster declined or could not be reached
type SponsorshipError struct {
	cause error
}

func (e *SponsorshipError) Error() string {
	return "failed to sponsor user operation: " + e.cause.Error()
}

func (e *SponsorshipError) Unwrap() error {
	return e.cause
}

// SubmissionError covers everything after sponsorship: sending, waiting, a reverted operation and the refresh that follows confirmation
type SubmissionError struct {
	cause error
}

func (e *SubmissionError) Error() string {
	return "failed to submit user operation: " + e.cause.Error()
}

func (e *SubmissionError) Unwrap() error {
	return e.cause
}

func IsBuildError(err error) bool {
	var target *BuildError
	return errors.As(err, &target)
}

func IsSponsorshipError(err error) bool {
	var target *SponsorshipError
	return errors.As(err, &target)
}

func IsSubmissionError(err error) bool {
	var target *SubmissionError
	return errors.As(err, &target)
}
