// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package sponsor

import (
	"context"
	"fmt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/orbs-network/gasless-counter/config"
	"github.com/orbs-network/gasless-counter/instrumentation/logfields"
	"github.com/orbs-network/gasless-counter/instrumentation/metric"
	"github.com/orbs-network/gasless-counter/instrumentation/trace"
	"github.com/orbs-network/gasless-counter/services/counter"
	"github.com/orbs-network/gasless-counter/services/counter/adapter"
	"github.com/orbs-network/gasless-counter/services/notification"
	"github.com/orbs-network/gasless-counter/services/paymaster"
	"github.com/orbs-network/gasless-counter/services/smartaccount"
	"github.com/orbs-network/scribe/log"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
	"time"
)

var LogTag = log.Service("sponsored-submitter")

const (
	ProcessingMessage   = "Processing count on the blockchain!"
	GenericErrorMessage = "Error occurred, check the console"
	confirmedMessage    = "Transaction Hash: %s"
)

type Config interface {
	SmartAccountName() string
	SmartAccountVersion() string
	OperationConfirmationTimeout() time.Duration
	SponsorshipFailureVisibility() string
}

type Synchronizer interface {
	Refresh(ctx context.Context, notify bool) (counter.CounterState, error)
}

type metrics struct {
	started       *metric.Gauge
	rejected      *metric.Gauge
	confirmed     *metric.Gauge
	buildFailed   *metric.Gauge
	sponsorFailed *metric.Gauge
	submitFailed  *metric.Gauge
	confirmRate   *metric.Rate
	flowTime      *metric.Histogram
	lastStatus    *metric.Text
}

func newMetrics(factory metric.Factory) *metrics {
	return &metrics{
		started:       factory.NewGauge("Sponsor.Operations.Started.Count"),
		rejected:      factory.NewGauge("Sponsor.Operations.Rejected.Count"),
		confirmed:     factory.NewGauge("Sponsor.Operations.Confirmed.Count"),
		buildFailed:   factory.NewGauge("Sponsor.Operations.BuildFailed.Count"),
		sponsorFailed: factory.NewGauge("Sponsor.Operations.SponsorshipFailed.Count"),
		submitFailed:  factory.NewGauge("Sponsor.Operations.SubmissionFailed.Count"),
		confirmRate:   factory.NewRate("Sponsor.Operations.Confirmed.PerSecond"),
		flowTime:      factory.NewLatency("Sponsor.Operation.Time", 10*time.Minute),
		lastStatus:    factory.NewText("Sponsor.Operation.LastStatus", Idle.String()),
	}
}

// Submitter runs increment and decrement as sponsored user operations, one at a time
type Submitter struct {
	config       Config
	logger       log.Logger
	contract     common.Address
	account      smartaccount.SmartAccount
	paymaster    paymaster.Paymaster
	synchronizer Synchronizer
	notifier     notification.Notifier
	metrics      *metrics
	gate         *semaphore.Weighted
}

func NewSubmitter(config Config, contract common.Address, account smartaccount.SmartAccount, pm paymaster.Paymaster, synchronizer Synchronizer, notifier notification.Notifier, parentLogger log.Logger, metricFactory metric.Factory) *Submitter {
	return &Submitter{
		config:       config,
		logger:       parentLogger.WithTags(LogTag, logfields.ContractAddress(contract), logfields.Sender(account.Address())),
		contract:     contract,
		account:      account,
		paymaster:    pm,
		synchronizer: synchronizer,
		notifier:     notifier,
		metrics:      newMetrics(metricFactory),
		gate:         semaphore.NewWeighted(1),
	}
}

func (s *Submitter) Increment(ctx context.Context) (*PendingOperation, error) {
	return s.submit(ctx, adapter.IncrementMethod)
}

func (s *Submitter) Decrement(ctx context.Context) (*PendingOperation, error) {
	return s.submit(ctx, adapter.DecrementMethod)
}

// submit runs the whole flow for method. Cancelling ctx does not stop it, only the confirmation timeout does.
func (s *Submitter) submit(ctx context.Context, method string) (*PendingOperation, error) {
	if !s.gate.TryAcquire(1) {
		s.metrics.rejected.Inc()
		return nil, ErrOperationInFlight
	}
	defer s.gate.Release(1)

	start := time.Now()
	defer s.metrics.flowTime.RecordSince(start)
	s.metrics.started.Inc()

	flowCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.OperationConfirmationTimeout())
	defer cancel()

	op := newPendingOperation(s.contract)
	logger := s.logger.WithTags(log.String("method", method), trace.LogFieldFrom(ctx))

	s.notifier.Info(ProcessingMessage)

	err := s.run(flowCtx, logger, op, method)
	if err != nil {
		s.transition(logger, op, Failed)
	}
	return op, err
}

func (s *Submitter) run(ctx context.Context, logger log.Logger, op *PendingOperation, method string) error {
	partial, err := s.build(ctx, logger, op, method)
	if err != nil {
		return err
	}

	sponsored, err := s.sponsor(ctx, logger, op, partial)
	if err != nil {
		return err
	}

	return s.submitAndConfirm(ctx, logger, op, sponsored)
}

func (s *Submitter) build(ctx context.Context, logger log.Logger, op *PendingOperation, method string) (*smartaccount.UserOperation, error) {
	s.transition(logger, op, Building)

	data, err := adapter.EncodeCall(method)
	if err != nil {
		return nil, s.buildFailed(logger, err)
	}
	op.EncodedCall = data

	partial, err := s.account.BuildOperation(ctx, []smartaccount.Call{{To: op.TargetContract, Data: data}})
	if err != nil {
		return nil, s.buildFailed(logger, err)
	}
	return partial, nil
}

func (s *Submitter) buildFailed(logger log.Logger, cause error) error {
	err := &BuildError{cause: cause}
	s.metrics.buildFailed.Inc()
	logger.Error("failed to build user operation", log.Error(err))
	s.notifier.Error(GenericErrorMessage)
	return err
}

func (s *Submitter) sponsor(ctx context.Context, logger log.Logger, op *PendingOperation, partial *smartaccount.UserOperation) (*smartaccount.UserOperation, error) {
	s.transition(logger, op, AwaitingSponsorship)

	payload, err := s.paymaster.GetSponsorship(ctx, partial, paymaster.SponsorshipRequest{
		Mode: paymaster.SPONSORED,
		SmartAccountInfo: paymaster.SmartAccountInfo{
			Name:    s.config.SmartAccountName(),
			Version: s.config.SmartAccountVersion(),
		},
	})
	if err != nil {
		err := &SponsorshipError{cause: err}
		s.metrics.sponsorFailed.Inc()
		logger.Error("paymaster did not sponsor user operation", log.Error(err))
		if s.config.SponsorshipFailureVisibility() == config.SPONSORSHIP_FAILURE_SURFACE {
			s.notifier.Error(GenericErrorMessage)
		}
		return nil, err
	}

	op.Sponsorship = payload
	return payload.ApplyTo(partial), nil
}

func (s *Submitter) submitAndConfirm(ctx context.Context, logger log.Logger, op *PendingOperation, sponsored *smartaccount.UserOperation) error {
	handle, err := s.account.SendOperation(ctx, sponsored)
	if err != nil {
		return s.submissionFailed(logger, errors.Wrap(err, "failed to send user operation"))
	}

	op.OperationHash = handle.Hash()
	logger = logger.WithTags(logfields.OperationHash(op.OperationHash))
	s.transition(logger, op, Submitted)

	receipt, err := handle.Wait(ctx)
	if err != nil {
		return s.submissionFailed(logger, errors.Wrap(err, "failed waiting for user operation receipt"))
	}
	op.Receipt = receipt

	if !receipt.Success {
		return s.submissionFailed(logger, errors.Errorf("user operation reverted: %s", receipt.Reason))
	}

	logger.Info("user operation confirmed",
		logfields.TransactionHash(receipt.TransactionHash),
		logfields.BlockNumber(receipt.BlockNumber),
		log.Stringable("actual-gas-cost", receipt.ActualGasCost),
		log.Stringable("actual-gas-used", receipt.ActualGasUsed))
	s.notifier.Success(fmt.Sprintf(confirmedMessage, op.OperationHash.Hex()))

	if _, err := s.synchronizer.Refresh(ctx, true); err != nil {
		return s.submissionFailed(logger, errors.Wrap(err, "failed to refresh counter after confirmation"))
	}

	s.transition(logger, op, Confirmed)
	s.metrics.confirmed.Inc()
	s.metrics.confirmRate.Measure(1)
	return nil
}

func (s *Submitter) submissionFailed(logger log.Logger, cause error) error {
	err := &SubmissionError{cause: cause}
	s.metrics.submitFailed.Inc()
	logger.Error("user operation was not confirmed", log.Error(err))
	s.notifier.Error(GenericErrorMessage)
	return err
}

func (s *Submitter) transition(logger log.Logger, op *PendingOperation, to Status) {
	if err := op.advance(to); err != nil {
		logger.Error("unexpected operation status change", log.Error(err))
		return
	}
	s.metrics.lastStatus.Update(to.String())
	logger.Info("operation status changed", logfields.Phase(to.String()))
}
