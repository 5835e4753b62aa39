// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package bootstrap

import (
	"context"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/orbs-network/gasless-counter/bootstrap/httpserver"
	"github.com/orbs-network/gasless-counter/config"
	"github.com/orbs-network/gasless-counter/instrumentation/metric"
	"github.com/orbs-network/gasless-counter/services/chain"
	"github.com/orbs-network/gasless-counter/services/counter"
	counteradapter "github.com/orbs-network/gasless-counter/services/counter/adapter"
	"github.com/orbs-network/gasless-counter/services/notification"
	"github.com/orbs-network/gasless-counter/services/paymaster"
	paymasteradapter "github.com/orbs-network/gasless-counter/services/paymaster/adapter"
	"github.com/orbs-network/gasless-counter/services/smartaccount"
	accountadapter "github.com/orbs-network/gasless-counter/services/smartaccount/adapter"
	"github.com/orbs-network/gasless-counter/services/sponsor"
	"github.com/orbs-network/govnr"
	"github.com/orbs-network/scribe/log"
	"github.com/pkg/errors"
	"math/big"
)

const SIMULATED_PAYMASTER_ADDRESS = "0x00000f79B7FaF42EEBAdbA19aCc07cD08Af44789"

var SimulatedChainId = big.NewInt(31337)

// chainComponents are the pieces that differ between a node talking to a real chain and a simulated one
type chainComponents struct {
	contract  counteradapter.CounterContract
	account   smartaccount.SmartAccount
	paymaster paymaster.Paymaster
	close     func()
}

type Node struct {
	govnr.TreeSupervisor

	logger         log.Logger
	cancel         context.CancelFunc
	metricRegistry metric.Registry
	notifications  *notification.Hub
	synchronizer   *counter.Service
	submitter      *sponsor.Submitter
	httpServer     *httpserver.HttpServer
	close          func()
}

// NewNode connects to the configured ethereum node, bundler and paymaster
func NewNode(parentCtx context.Context, cfg config.NodeConfig, logger log.Logger) (*Node, error) {
	if err := config.ValidateNodeLogic(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	if err := config.ValidateChainConnections(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	ctx, cancel := context.WithCancel(parentCtx)
	registry := metric.NewRegistry()

	components, err := connectChain(ctx, cfg, logger, registry)
	if err != nil {
		cancel()
		return nil, err
	}

	return newNode(ctx, cancel, cfg, logger, registry, components)
}

// NewSimulatedNode runs the whole flow against an in-memory counter, smart account and paymaster
func NewSimulatedNode(parentCtx context.Context, cfg config.NodeConfig, logger log.Logger) (*Node, error) {
	if err := config.ValidateNodeLogic(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	signer, err := smartaccount.NewSigner(cfg.SmartAccountOwnerPrivateKey(), common.HexToAddress(cfg.SmartAccountValidationModuleAddress()))
	if err != nil {
		return nil, err
	}

	contract := counteradapter.NewMemoryCounterContract(common.HexToAddress(cfg.CounterContractAddress()))
	account := accountadapter.NewMemorySmartAccount(
		common.HexToAddress(cfg.SmartAccountAddress()),
		common.HexToAddress(cfg.EntryPointAddress()),
		SimulatedChainId,
		signer,
		contract)

	components := &chainComponents{
		contract:  contract,
		account:   account,
		paymaster: paymasteradapter.NewMemoryPaymaster(common.HexToAddress(SIMULATED_PAYMASTER_ADDRESS)),
		close:     func() {},
	}

	ctx, cancel := context.WithCancel(parentCtx)
	return newNode(ctx, cancel, cfg, logger, metric.NewRegistry(), components)
}

func connectChain(ctx context.Context, cfg config.NodeConfig, logger log.Logger, registry metric.Registry) (*chainComponents, error) {
	signer, err := smartaccount.NewSigner(cfg.SmartAccountOwnerPrivateKey(), common.HexToAddress(cfg.SmartAccountValidationModuleAddress()))
	if err != nil {
		return nil, err
	}

	connection := chain.NewEthereumRpcConnection(cfg, logger)
	connection.ReportConnectionStatus(ctx, registry)

	bundler, err := rpc.DialContext(ctx, cfg.BundlerEndpoint())
	if err != nil {
		connection.Close()
		return nil, errors.Wrapf(err, "failed to dial bundler at %s", cfg.BundlerEndpoint())
	}

	paymasterClient, err := rpc.DialContext(ctx, cfg.PaymasterEndpoint())
	if err != nil {
		bundler.Close()
		connection.Close()
		return nil, errors.Wrapf(err, "failed to dial paymaster at %s", cfg.PaymasterEndpoint())
	}

	account := accountadapter.NewBundlerSmartAccount(
		cfg,
		common.HexToAddress(cfg.SmartAccountAddress()),
		common.HexToAddress(cfg.EntryPointAddress()),
		signer,
		connection,
		bundler,
		logger)

	return &chainComponents{
		contract:  counteradapter.NewEthereumCounterContract(common.HexToAddress(cfg.CounterContractAddress()), connection, logger),
		account:   account,
		paymaster: paymasteradapter.NewBiconomyPaymaster(paymasterClient, logger),
		close: func() {
			paymasterClient.Close()
			bundler.Close()
			connection.Close()
		},
	}, nil
}

func newNode(ctx context.Context, cancel context.CancelFunc, cfg config.NodeConfig, logger log.Logger, registry metric.Registry, components *chainComponents) (*Node, error) {
	n := &Node{
		logger:         logger,
		cancel:         cancel,
		metricRegistry: registry,
		close:          components.close,
	}

	metric.RegisterConfigIndicators(registry, cfg)
	n.Supervise(metric.NewSystemReporter(ctx, registry, logger))
	n.Supervise(metric.NewRuntimeReporter(ctx, registry, logger))
	if cfg.NtpEndpoint() != "" {
		n.Supervise(metric.NewNtpReporter(ctx, registry, logger, cfg.NtpEndpoint()))
	}
	if cfg.MetricsReportInterval() > 0 {
		n.Supervise(registry.ReportEvery(ctx, cfg.MetricsReportInterval(), logger))
	}

	n.notifications = notification.NewHub(cfg, logger, registry)
	n.synchronizer = counter.NewSynchronizer(ctx, cfg, components.contract, n.notifications, logger, registry)
	n.Supervise(n.synchronizer)

	n.submitter = sponsor.NewSubmitter(cfg, components.contract.Address(), components.account, components.paymaster, n.synchronizer, n.notifications, logger, registry)

	if _, err := n.synchronizer.Refresh(ctx, false); err != nil {
		logger.Info("initial counter read failed, serving empty state until the next refresh", log.Error(err))
	}

	if cfg.HttpAddress() != "" {
		server, err := httpserver.NewHttpServer(cfg, logger, n.synchronizer, n.submitter, n.notifications, registry)
		if err != nil {
			n.abort()
			return nil, err
		}
		n.httpServer = server
		n.Supervise(server)
	}

	logger.Info("node started", log.String("counter-contract", cfg.CounterContractAddress()), log.String("smart-account", components.account.Address().Hex()))
	return n, nil
}

func (n *Node) abort() {
	n.cancel()
	n.synchronizer.GracefulShutdown(context.Background())
	n.close()
}

func (n *Node) Counter() *counter.Service {
	return n.synchronizer
}

func (n *Node) Submitter() *sponsor.Submitter {
	return n.submitter
}

func (n *Node) Notifications() *notification.Hub {
	return n.notifications
}

func (n *Node) MetricRegistry() metric.Registry {
	return n.metricRegistry
}

// HttpPort is 0 when the node runs without the view surface
func (n *Node) HttpPort() int {
	if n.httpServer == nil {
		return 0
	}
	return n.httpServer.Port()
}

func (n *Node) GracefulShutdown(shutdownContext context.Context) {
	n.logger.Info("shutting down node")
	n.cancel()
	if n.httpServer != nil {
		n.httpServer.GracefulShutdown(shutdownContext)
	}
	n.synchronizer.GracefulShutdown(shutdownContext)
	n.close()
}
