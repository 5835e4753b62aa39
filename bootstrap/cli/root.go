// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/orbs-network/gasless-counter/bootstrap"
	"github.com/orbs-network/gasless-counter/config"
	"github.com/orbs-network/gasless-counter/instrumentation"
	"github.com/orbs-network/gasless-counter/instrumentation/trace"
	"github.com/orbs-network/gasless-counter/synchronization/supervised"
	"github.com/orbs-network/scribe/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"time"
)

const shutdownTimeout = 10 * time.Second

type flags struct {
	configFiles config.FilesPaths
	silent      bool
	logPath     string
	simulate    bool
}

// NewRootCommand builds counterd; every command shares the config, logging and simulation flags
func NewRootCommand() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:           "counterd",
		Short:         "Gasless counter node: live counter state and sponsored increment/decrement",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Var(&f.configFiles, "config", "path/to/config.json (repeatable, later files win)")
	root.PersistentFlags().BoolVar(&f.silent, "silent", false, "disable log output to stdout")
	root.PersistentFlags().StringVar(&f.logPath, "log", "", "path/to/node.log")
	root.PersistentFlags().BoolVar(&f.simulate, "simulate", false, "run against an in-memory chain, smart account and paymaster")

	root.AddCommand(
		startCmd(f),
		stateCmd(f),
		operationCmd(f, "increment", "Increment the counter through a sponsored user operation"),
		operationCmd(f, "decrement", "Decrement the counter through a sponsored user operation"),
		versionCmd(),
	)

	return root
}

func startCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the node and its http surface until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.nodeConfig(false)
			if err != nil {
				return err
			}

			logger := instrumentation.GetLogger(f.silent, cfg)
			node, err := f.newNode(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			supervised.NewShutdownListener(logger, node, shutdownTimeout).ListenToOSShutdownSignal()
			node.WaitUntilShutdown(context.Background())
			return nil
		},
	}
}

func stateCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Read the counter once and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withOneShotNode(cmd, func(ctx context.Context, node *bootstrap.Node) error {
				state, err := node.Counter().Refresh(ctx, false)
				if err != nil {
					return err
				}
				return printJson(cmd, state)
			})
		},
	}
}

type operationResult struct {
	Status        string `json:"status"`
	OperationHash string `json:"operationHash,omitempty"`
	Count         uint64 `json:"count"`
	LastUser      string `json:"lastUser"`
}

func operationCmd(f *flags, name string, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withOneShotNode(cmd, func(ctx context.Context, node *bootstrap.Node) error {
				run := node.Submitter().Increment
				if name == "decrement" {
					run = node.Submitter().Decrement
				}

				op, err := run(ctx)
				if err != nil {
					return err
				}

				state := node.Counter().State()
				return printJson(cmd, operationResult{
					Status:        op.Status.String(),
					OperationHash: op.OperationHash.Hex(),
					Count:         state.Count,
					LastUser:      state.LastUser,
				})
			})
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetVersion())
			return err
		},
	}
}

func (f *flags) nodeConfig(oneShot bool) (config.NodeConfig, error) {
	base := config.ForProduction()
	if f.simulate {
		base = config.ForSimulation()
	}

	cfg, err := config.GetNodeConfigFromFiles(base, f.configFiles)
	if err != nil {
		return nil, errors.Wrap(err, "error reading configuration")
	}

	if f.logPath != "" {
		cfg.SetString(config.LOGGER_FILE_PATH, f.logPath)
	}

	if oneShot {
		cfg.SetString(config.HTTP_ADDRESS, "")
		cfg.SetDuration(config.METRICS_REPORT_INTERVAL, 0)
		cfg.SetDuration(config.COUNTER_REFRESH_INTERVAL, 0)
	}

	return cfg, nil
}

func (f *flags) newNode(ctx context.Context, cfg config.NodeConfig, logger log.Logger) (*bootstrap.Node, error) {
	if f.simulate {
		return bootstrap.NewSimulatedNode(ctx, cfg, logger)
	}
	return bootstrap.NewNode(ctx, cfg, logger)
}

func (f *flags) withOneShotNode(cmd *cobra.Command, run func(ctx context.Context, node *bootstrap.Node) error) error {
	cfg, err := f.nodeConfig(true)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	node, err := f.newNode(ctx, cfg, instrumentation.GetLogger(f.silent, cfg))
	if err != nil {
		return err
	}
	defer func() {
		supervised.ShutdownGracefully(node, shutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		node.WaitUntilShutdown(shutdownCtx)
	}()

	return run(trace.NewContext(ctx, "cli-"+cmd.Name()), node)
}

func printJson(cmd *cobra.Command, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
