// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package instrumentation

import (
	"github.com/orbs-network/scribe/log"
	"gopkg.in/natefinch/lumberjack.v2"
	"io"
	"os"
)

const bootstrapLogPath = "./gasless-counter-bootstrap.log"

type LoggerConfig interface {
	LoggerFullLog() bool
	LoggerFilePath() string
}

func GetBootstrapCrashLogger() log.Logger {
	outputs := []log.Output{
		log.NewFormattingOutput(newRotatingWriter(bootstrapLogPath), log.NewHumanReadableFormatter()),
		log.NewFormattingOutput(os.Stdout, log.NewHumanReadableFormatter()),
		log.NewFormattingOutput(os.Stderr, log.NewHumanReadableFormatter()),
	}

	return log.GetLogger().WithOutput(outputs...)
}

// GetLogger builds the process logger: json to stdout unless silent, and json to a rotating file when a path is configured
func GetLogger(silent bool, cfg LoggerConfig) log.Logger {
	outputs := make([]log.Output, 0, 2)

	if !silent {
		outputs = append(outputs, log.NewFormattingOutput(os.Stdout, log.NewJsonFormatter()))
	}

	if path := cfg.LoggerFilePath(); path != "" {
		outputs = append(outputs, log.NewFormattingOutput(newRotatingWriter(path), log.NewJsonFormatter()))
	}

	logger := log.GetLogger().WithOutput(outputs...)

	conditionalFilter := log.NewConditionalFilter(false, nil)

	if !cfg.LoggerFullLog() {
		conditionalFilter = log.NewConditionalFilter(true, log.OnlyErrors())
	}

	return logger.WithFilters(conditionalFilter)
}

func newRotatingWriter(path string) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100, // megabytes
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}
}
