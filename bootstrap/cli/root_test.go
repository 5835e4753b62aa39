// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package cli

import (
	"bytes"
	"encoding/json"
	"github.com/orbs-network/gasless-counter/config"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	require.Equal(t, strings.TrimSpace(config.GetVersion().String()), strings.TrimSpace(out))
}

func TestState_Simulated(t *testing.T) {
	out, err := execute(t, "state", "--simulate", "--silent")
	require.NoError(t, err)
	require.JSONEq(t, `{"count":0,"lastUser":"0x0000000000000000000000000000000000000000"}`, out)
}

func TestIncrement_Simulated(t *testing.T) {
	out, err := execute(t, "increment", "--simulate", "--silent")
	require.NoError(t, err)

	var result operationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Equal(t, "confirmed", result.Status)
	require.EqualValues(t, 1, result.Count)
	require.True(t, strings.EqualFold(config.SIMULATED_SMART_ACCOUNT_ADDRESS, result.LastUser))
}

func TestDecrement_SimulatedUnderflowFails(t *testing.T) {
	_, err := execute(t, "decrement", "--simulate", "--silent")
	require.Error(t, err)
}

func TestConfigFileOverridesPreset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sponsorship-failure-visibility": "loud"}`), 0600))

	_, err := execute(t, "state", "--simulate", "--silent", "--config", path)
	require.Error(t, err)
	require.Contains(t, err.Error(), config.SPONSORSHIP_FAILURE_VISIBILITY)
}

func TestMissingConfigFileIsAnError(t *testing.T) {
	_, err := execute(t, "state", "--simulate", "--silent", "--config", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "could not open config file")
}

func TestStart_RequiresChainEndpoints(t *testing.T) {
	_, err := execute(t, "start", "--silent")
	require.Error(t, err)
	require.Contains(t, err.Error(), config.COUNTER_CONTRACT_ADDRESS)
}
