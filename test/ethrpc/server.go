// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

// Package ethrpc serves fake json-rpc namespaces in-process so adapters can be tested against a real rpc client
package ethrpc

import (
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
	"testing"
)

func NewInProcClient(tb testing.TB, services map[string]interface{}) *rpc.Client {
	server := rpc.NewServer()
	for namespace, service := range services {
		require.NoError(tb, server.RegisterName(namespace, service), "failed to register rpc namespace %s", namespace)
	}

	client := rpc.DialInProc(server)
	tb.Cleanup(func() {
		client.Close()
		server.Stop()
	})
	return client
}
