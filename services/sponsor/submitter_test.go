// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package sponsor

import (
	"context"
	"fmt"
	"github.com/orbs-network/gasless-counter/config"
	"github.com/orbs-network/gasless-counter/services/counter"
	"github.com/orbs-network/gasless-counter/services/notification"
	"github.com/orbs-network/gasless-counter/services/paymaster"
	"github.com/orbs-network/gasless-counter/test"
	"github.com/orbs-network/go-mock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func kinds(notifications []*notification.Notification) []notification.Kind {
	var out []notification.Kind
	for _, n := range notifications {
		out = append(out, n.Kind)
	}
	return out
}

func TestIncrement_ConfirmsAndRefreshesWithNotification(t *testing.T) {
	withSubmitter(t, config.SPONSORSHIP_FAILURE_SILENT, func(ctx context.Context, h *harness) {
		op, err := h.submitter().Increment(ctx)
		require.NoError(t, err)

		require.Equal(t, Confirmed, op.Status)
		require.Equal(t, contractAddress, op.TargetContract)
		require.Equal(t, paymasterAddress.Bytes(), op.Sponsorship.PaymasterAndData)
		require.True(t, op.Receipt.Success)

		require.Equal(t, []notification.Kind{notification.KindInfo, notification.KindSuccess, notification.KindSuccess}, kinds(h.notifier.All()))
		require.Equal(t, []string{ProcessingMessage}, h.notifier.Messages(notification.KindInfo))
		require.Equal(t, []string{
			fmt.Sprintf("Transaction Hash: %s", op.OperationHash.Hex()),
			counter.UpdatedMessage,
		}, h.notifier.Messages(notification.KindSuccess))

		require.Equal(t, counter.CounterState{Count: 1, LastUser: accountAddress.Hex()}, h.synchronizer.State())
		require.EqualValues(t, 1, h.gauge("Sponsor.Operations.Confirmed.Count"))
	})
}

func TestIncrement_SponsorshipUsesFixedMetadataAndIsMerged(t *testing.T) {
	withSubmitter(t, config.SPONSORSHIP_FAILURE_SILENT, func(ctx context.Context, h *harness) {
		_, err := h.submitter().Increment(ctx)
		require.NoError(t, err)

		require.Equal(t, []paymaster.SponsorshipRequest{{
			Mode:             paymaster.SPONSORED,
			SmartAccountInfo: paymaster.SmartAccountInfo{Name: "BICONOMY", Version: "2.0.0"},
		}}, h.paymaster.Requests())

		sent := h.account.Sent()
		require.Len(t, sent, 1)
		require.Equal(t, paymasterAddress.Bytes(), sent[0].PaymasterAndData)
	})
}

func TestDecrement_EncodesDecrementCall(t *testing.T) {
	withSubmitter(t, config.SPONSORSHIP_FAILURE_SILENT, func(ctx context.Context, h *harness) {
		h.counter.SetState(3, accountAddress)

		op, err := h.submitter().Decrement(ctx)
		require.NoError(t, err)

		expected, err := counterCall("decrement")
		require.NoError(t, err)
		require.Equal(t, expected, op.EncodedCall)
		require.EqualValues(t, 2, h.synchronizer.State().Count)
	})
}

func TestIncrement_BuildFailureSurfacesGenericError(t *testing.T) {
	withSubmitter(t, config.SPONSORSHIP_FAILURE_SILENT, func(ctx context.Context, h *harness) {
		h.logging.AllowErrorsMatching("failed to build user operation")
		h.account.FailBuild(errors.New("nonce unavailable"))

		pm := &paymasterMock{}
		pm.Never("GetSponsorship", mock.Any, mock.Any, mock.Any)

		op, err := h.submitterWith(h.cfg, pm, h.synchronizer).Increment(ctx)
		require.True(t, IsBuildError(err), "expected BuildError but got %v", err)
		require.Equal(t, Failed, op.Status)
		require.Equal(t, []string{GenericErrorMessage}, h.notifier.Messages(notification.KindError))
		require.Empty(t, h.notifier.Messages(notification.KindSuccess))
		require.NoError(t, test.EventuallyVerify(pm))
	})
}

func TestIncrement_SponsorshipFailureIsSilentByDefault(t *testing.T) {
	withSubmitter(t, config.SPONSORSHIP_FAILURE_SILENT, func(ctx context.Context, h *harness) {
		h.logging.AllowErrorsMatching("paymaster did not sponsor user operation")
		h.paymaster.Reject(errors.New("sponsorship policy rejected the operation"))

		op, err := h.submitter().Increment(ctx)
		require.True(t, IsSponsorshipError(err), "expected SponsorshipError but got %v", err)
		require.Equal(t, Failed, op.Status)
		require.Equal(t, []notification.Kind{notification.KindInfo}, kinds(h.notifier.All()), "only the start notification is shown")
		require.Empty(t, h.account.Sent())
		require.EqualValues(t, 1, h.gauge("Sponsor.Operations.SponsorshipFailed.Count"))
	})
}

func TestIncrement_SponsorshipFailureCanBeSurfaced(t *testing.T) {
	withSubmitter(t, config.SPONSORSHIP_FAILURE_SURFACE, func(ctx context.Context, h *harness) {
		h.logging.AllowErrorsMatching("paymaster did not sponsor user operation")
		h.paymaster.Reject(errors.New("sponsorship policy rejected the operation"))

		_, err := h.submitter().Increment(ctx)
		require.True(t, IsSponsorshipError(err))
		require.Equal(t, []string{GenericErrorMessage}, h.notifier.Messages(notification.KindError))
	})
}

func TestDecrement_RevertedOperationIsSubmissionError(t *testing.T) {
	withSubmitter(t, config.SPONSORSHIP_FAILURE_SILENT, func(ctx context.Context, h *harness) {
		h.logging.AllowErrorsMatching("user operation was not confirmed")

		op, err := h.submitter().Decrement(ctx)
		require.True(t, IsSubmissionError(err), "expected SubmissionError but got %v", err)
		require.Equal(t, Failed, op.Status)
		require.False(t, op.Receipt.Success)
		require.Equal(t, []string{GenericErrorMessage}, h.notifier.Messages(notification.KindError))
		require.Empty(t, h.notifier.Messages(notification.KindSuccess))
		require.Equal(t, counter.CounterState{}, h.synchronizer.State())
	})
}

func TestIncrement_SendFailureIsSubmissionError(t *testing.T) {
	withSubmitter(t, config.SPONSORSHIP_FAILURE_SILENT, func(ctx context.Context, h *harness) {
		h.logging.AllowErrorsMatching("user operation was not confirmed")
		h.account.FailSend(errors.New("bundler unavailable"))

		op, err := h.submitter().Increment(ctx)
		require.True(t, IsSubmissionError(err))
		require.Equal(t, Failed, op.Status)
		require.Len(t, h.notifier.Messages(notification.KindError), 1)
	})
}

func TestIncrement_ConfirmationTimeoutIsSubmissionError(t *testing.T) {
	withSubmitter(t, config.SPONSORSHIP_FAILURE_SILENT, func(ctx context.Context, h *harness) {
		h.logging.AllowErrorsMatching("user operation was not confirmed")
		release := h.account.HoldConfirmations()
		defer release()

		cfg := &timeoutConfig{Config: h.cfg, timeout: 30 * time.Millisecond}
		op, err := h.submitterWith(cfg, h.paymaster, h.synchronizer).Increment(ctx)
		require.True(t, IsSubmissionError(err))
		require.Equal(t, context.DeadlineExceeded, errors.Cause(errors.Unwrap(err)))
		require.Equal(t, Failed, op.Status)
		require.Len(t, h.notifier.Messages(notification.KindError), 1)
	})
}

func TestIncrement_RefreshFailureAfterConfirmationIsSubmissionError(t *testing.T) {
	withSubmitter(t, config.SPONSORSHIP_FAILURE_SILENT, func(ctx context.Context, h *harness) {
		h.logging.AllowErrorsMatching("user operation was not confirmed")

		synchronizer := &synchronizerMock{}
		synchronizer.When("Refresh", mock.Any, true).Return(counter.CounterState{}, errors.New("node unreachable")).Times(1)

		op, err := h.submitterWith(h.cfg, h.paymaster, synchronizer).Increment(ctx)
		require.True(t, IsSubmissionError(err))
		require.Equal(t, Failed, op.Status)
		require.Len(t, h.notifier.Messages(notification.KindSuccess), 1, "the transaction hash is still reported")
		require.Equal(t, []string{GenericErrorMessage}, h.notifier.Messages(notification.KindError))
		require.NoError(t, test.EventuallyVerify(synchronizer))
	})
}

func TestIncrement_ConcurrentInvocationIsRejected(t *testing.T) {
	withSubmitter(t, config.SPONSORSHIP_FAILURE_SILENT, func(ctx context.Context, h *harness) {
		submitter := h.submitter()
		release := h.account.HoldConfirmations()

		done := make(chan error, 1)
		go func() {
			_, err := submitter.Increment(ctx)
			done <- err
		}()
		require.True(t, test.Eventually(func() bool { return len(h.account.Sent()) == 1 }))

		op, err := submitter.Decrement(ctx)
		require.Equal(t, ErrOperationInFlight, err)
		require.Nil(t, op)
		require.Equal(t, []string{ProcessingMessage}, h.notifier.Messages(notification.KindInfo), "the rejected call shows nothing")
		require.EqualValues(t, 1, h.gauge("Sponsor.Operations.Rejected.Count"))

		release()
		require.NoError(t, <-done)

		_, err = submitter.Increment(ctx)
		require.NoError(t, err, "the gate is free again once the flow ends")
		require.EqualValues(t, 2, h.synchronizer.State().Count)
	})
}

func TestIncrement_CallerCancellationDoesNotAbortFlow(t *testing.T) {
	withSubmitter(t, config.SPONSORSHIP_FAILURE_SILENT, func(ctx context.Context, h *harness) {
		callerCtx, cancel := context.WithCancel(ctx)
		cancel()

		op, err := h.submitter().Increment(callerCtx)
		require.NoError(t, err)
		require.Equal(t, Confirmed, op.Status)
	})
}

func TestSubmitter_NeverChangesStateWithoutRefresh(t *testing.T) {
	withSubmitter(t, config.SPONSORSHIP_FAILURE_SILENT, func(ctx context.Context, h *harness) {
		synchronizer := &synchronizerMock{}
		synchronizer.When("Refresh", mock.Any, true).Return(counter.CounterState{Count: 1}, nil).Times(1)

		_, err := h.submitterWith(h.cfg, h.paymaster, synchronizer).Increment(ctx)
		require.NoError(t, err)
		require.Equal(t, counter.CounterState{}, h.synchronizer.State(), "only the synchronizer owns the counter state")
		require.NoError(t, test.EventuallyVerify(synchronizer))
	})
}
