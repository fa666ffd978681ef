package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"

	"github.com/eventloom/finance-backend/internal/payouts"
	"github.com/eventloom/finance-backend/pkg/config"
	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
	"github.com/eventloom/finance-backend/pkg/logger"
	"github.com/eventloom/finance-backend/pkg/metrics"
	"github.com/eventloom/finance-backend/pkg/stripe"
)

const (
	workerName             = "payout-worker"
	defaultBatchSize       = 20
	defaultPollInterval    = 5 * time.Second
	defaultTransferTimeout = 30 * time.Second
	defaultMaxAttempts     = 8
	recordRetries          = 4
	recordRetryBase        = 200 * time.Millisecond
	jitterWindow           = 500 * time.Millisecond

	outcomePaid       = "paid"
	outcomeFailed     = "failed"
	outcomeUnrecorded = "unrecorded"
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type dueSource interface {
	ListDueForTransfer(ctx context.Context, maxAttempts, limit int) ([]models.Payout, error)
}

// recorder is the gateway surface the worker writes outcomes through, so
// every result takes the booking lock and lands in the audit log.
type recorder interface {
	GetPayout(ctx context.Context, id uuid.UUID) (*models.Payout, error)
	GetVendorGate(ctx context.Context, vendorID uuid.UUID) (*models.VendorPayoutGate, error)
	MarkPayoutPaid(ctx context.Context, input payouts.MarkPaidInput) (*payouts.Transition, error)
	MarkPayoutFailed(ctx context.Context, input payouts.MarkFailedInput) (*payouts.Transition, error)
}

type transferer interface {
	Transfer(ctx context.Context, req stripe.TransferRequest) (string, error)
}

type ServiceParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	Due      dueSource
	Recorder recorder
	Provider transferer
	Workers  *metrics.WorkerMetrics
	Finance  *metrics.FinanceMetrics
}

// Service pushes approved payouts to the provider and records the outcome.
type Service struct {
	logg            *logger.Logger
	due             dueSource
	rec             recorder
	provider        transferer
	workers         *metrics.WorkerMetrics
	finance         *metrics.FinanceMetrics
	operatorID      uuid.UUID
	batchSize       int
	maxAttempts     int
	pollInterval    time.Duration
	transferTimeout time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Config == nil:
		return nil, errors.New("config is required")
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.Due == nil:
		return nil, errors.New("payout source is required")
	case params.Recorder == nil:
		return nil, errors.New("recorder is required")
	case params.Provider == nil:
		return nil, errors.New("transfer provider is required")
	}

	cfg := params.Config.PayoutWorker
	operatorID, err := uuid.Parse(strings.TrimSpace(cfg.OperatorID))
	if err != nil || operatorID == uuid.Nil {
		return nil, fmt.Errorf("invalid payout worker operator id %q", cfg.OperatorID)
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	timeout := cfg.TransferTimeout
	if timeout <= 0 {
		timeout = defaultTransferTimeout
	}

	return &Service{
		logg:            params.Logger,
		due:             params.Due,
		rec:             params.Recorder,
		provider:        params.Provider,
		workers:         params.Workers,
		finance:         params.Finance,
		operatorID:      operatorID,
		batchSize:       batchSize,
		maxAttempts:     maxAttempts,
		pollInterval:    poll,
		transferTimeout: timeout,
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"worker":      workerName,
		"operator_id": s.operatorID.String(),
	})
	s.logg.Info(ctx, "payout worker started")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		started := time.Now()
		processed, err := s.processBatch(ctx)
		if processed > 0 || err != nil {
			s.workers.ObserveBatch(workerName, time.Since(started), err)
		}
		if err != nil {
			s.logg.Error(ctx, "payout batch finished with errors", err)
		}
		if processed == s.batchSize && err == nil {
			continue
		}
		if err := s.sleep(ctx, s.pollInterval+jitter()); err != nil {
			return err
		}
	}
}

// processBatch attempts every due payout once. A failure on one payout does
// not stop the others; the combined error is returned.
func (s *Service) processBatch(ctx context.Context) (int, error) {
	due, err := s.due.ListDueForTransfer(ctx, s.maxAttempts, s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list due payouts: %w", err)
	}

	var errs error
	for i := range due {
		if ctx.Err() != nil {
			return i, multierr.Append(errs, ctx.Err())
		}
		errs = multierr.Append(errs, s.transfer(ctx, due[i]))
	}
	return len(due), errs
}

func (s *Service) transfer(ctx context.Context, payout models.Payout) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"payout_id":  payout.ID.String(),
		"booking_id": payout.BookingID.String(),
		"attempt":    payout.TransferAttempts + 1,
	})

	// The batch was listed before this payout's turn; a hold may have landed
	// since.
	current, err := s.rec.GetPayout(ctx, payout.ID)
	if err != nil {
		return fmt.Errorf("reload payout %s: %w", payout.ID, err)
	}
	if current.Status != enums.PayoutStatusApproved {
		s.logg.Warn(s.logg.WithField(ctx, "status", string(current.Status)), "payout left approved before transfer, skipping")
		return nil
	}
	payout = *current

	gate, err := s.rec.GetVendorGate(ctx, payout.VendorID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return s.recordFailure(ctx, payout, "vendor payout gate missing")
		}
		return fmt.Errorf("load vendor gate for payout %s: %w", payout.ID, err)
	}
	if !gate.PayoutEnabled {
		return s.recordFailure(ctx, payout, "vendor payouts are disabled")
	}
	destination := ""
	if gate.ProviderAccountRef != nil {
		destination = strings.TrimSpace(*gate.ProviderAccountRef)
	}
	if destination == "" {
		return s.recordFailure(ctx, payout, "vendor has no connected account")
	}

	transferCtx, cancel := context.WithTimeout(ctx, s.transferTimeout)
	ref, err := s.provider.Transfer(transferCtx, stripe.TransferRequest{
		PayoutID:    payout.ID,
		BookingID:   payout.BookingID,
		AmountCents: payout.AmountCents,
		Destination: destination,
	})
	cancel()
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("transfer failed: %v", err))
		return s.recordFailure(ctx, payout, err.Error())
	}
	return s.recordPaid(ctx, payout, ref)
}

// recordPaid retries transient failures: the money has already moved, and
// a dropped result would leave the payout APPROVED with a live transfer.
func (s *Service) recordPaid(ctx context.Context, payout models.Payout, ref string) error {
	backoff := retry.WithMaxRetries(recordRetries, retry.NewExponential(recordRetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := s.rec.MarkPayoutPaid(ctx, payouts.MarkPaidInput{
			PayoutID:    payout.ID,
			ProviderRef: ref,
			OperatorID:  s.operatorID,
		})
		if retryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		s.finance.IncTransfer(outcomeUnrecorded)
		return fmt.Errorf("record paid payout %s (transfer %s): %w", payout.ID, ref, err)
	}
	s.finance.IncTransfer(outcomePaid)
	s.logg.Info(s.logg.WithField(ctx, "provider_ref", ref), "payout transferred")
	return nil
}

func (s *Service) recordFailure(ctx context.Context, payout models.Payout, reason string) error {
	s.finance.IncTransfer(outcomeFailed)
	if _, err := s.rec.MarkPayoutFailed(ctx, payouts.MarkFailedInput{
		PayoutID:   payout.ID,
		Error:      reason,
		OperatorID: s.operatorID,
	}); err != nil {
		// Another actor moved the payout out of APPROVED; nothing left to retry.
		if pkgerrors.IsCode(err, pkgerrors.CodeNotEligible) || pkgerrors.IsCode(err, pkgerrors.CodeTerminalState) {
			s.logg.Warn(ctx, "payout left approved before failure was recorded")
			return nil
		}
		return fmt.Errorf("record failed payout %s: %w", payout.ID, err)
	}
	return nil
}

func retryable(err error) bool {
	if err == nil {
		return false
	}
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeDependency, pkgerrors.CodeConcurrentModification:
		return true
	}
	return false
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func jitter() time.Duration {
	return time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}
