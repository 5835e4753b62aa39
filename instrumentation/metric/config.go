// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package metric

import "github.com/orbs-network/gasless-counter/config"

type indicatorsConfig interface {
	CounterContractAddress() string
	EntryPointAddress() string
}

func RegisterConfigIndicators(metricFactory Factory, cfg indicatorsConfig) {
	version := config.GetVersion()

	metricFactory.NewText("Version.Semantic", version.Semantic)
	metricFactory.NewText("Version.Commit", version.Commit)
	metricFactory.NewText("Counter.Contract.Address", cfg.CounterContractAddress())
	metricFactory.NewText("AccountAbstraction.EntryPoint.Address", cfg.EntryPointAddress())
}
