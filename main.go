// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package main

import (
	"github.com/orbs-network/gasless-counter/bootstrap/cli"
	"github.com/orbs-network/gasless-counter/instrumentation"
	"github.com/orbs-network/scribe/log"
	"github.com/pkg/errors"
	"os"
)

func main() {
	logger := instrumentation.GetBootstrapCrashLogger()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("unexpected error in main goroutine", log.Error(errors.Errorf("unknown error: %v", r)))
			os.Exit(2)
		}
	}()

	if err := cli.NewRootCommand().Execute(); err != nil {
		logger.Error("counterd failed", log.Error(err))
		os.Exit(1)
	}
}
