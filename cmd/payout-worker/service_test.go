package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventloom/finance-backend/internal/payouts"
	"github.com/eventloom/finance-backend/pkg/config"
	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
	"github.com/eventloom/finance-backend/pkg/logger"
	"github.com/eventloom/finance-backend/pkg/metrics"
	"github.com/eventloom/finance-backend/pkg/stripe"
)

const workerOperator = "00000000-0000-0000-0000-00000000f00d"

type fakeDue struct {
	mu    sync.Mutex
	batch []models.Payout
	err   error
	calls int
}

func (f *fakeDue) ListDueForTransfer(context.Context, int, int) ([]models.Payout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls > 1 {
		return nil, nil
	}
	return f.batch, f.err
}

type fakeRecorder struct {
	payouts   map[uuid.UUID]models.Payout
	gates     map[uuid.UUID]*models.VendorPayoutGate
	paidErrs  []error
	failedErr error
	paid      []payouts.MarkPaidInput
	failed    []payouts.MarkFailedInput
}

func (f *fakeRecorder) GetPayout(_ context.Context, id uuid.UUID) (*models.Payout, error) {
	payout, ok := f.payouts[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
	}
	return &payout, nil
}

func (f *fakeRecorder) GetVendorGate(_ context.Context, vendorID uuid.UUID) (*models.VendorPayoutGate, error) {
	gate, ok := f.gates[vendorID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor gate not found")
	}
	return gate, nil
}

func (f *fakeRecorder) MarkPayoutPaid(_ context.Context, input payouts.MarkPaidInput) (*payouts.Transition, error) {
	f.paid = append(f.paid, input)
	if len(f.paidErrs) > 0 {
		err := f.paidErrs[0]
		f.paidErrs = f.paidErrs[1:]
		return nil, err
	}
	return &payouts.Transition{}, nil
}

func (f *fakeRecorder) MarkPayoutFailed(_ context.Context, input payouts.MarkFailedInput) (*payouts.Transition, error) {
	f.failed = append(f.failed, input)
	return &payouts.Transition{}, f.failedErr
}

type fakeProvider struct {
	refs     map[uuid.UUID]string
	failures map[uuid.UUID]error
	requests []stripe.TransferRequest
}

func (f *fakeProvider) Transfer(_ context.Context, req stripe.TransferRequest) (string, error) {
	f.requests = append(f.requests, req)
	if err, ok := f.failures[req.PayoutID]; ok {
		return "", err
	}
	return f.refs[req.PayoutID], nil
}

type harness struct {
	svc      *Service
	due      *fakeDue
	rec      *fakeRecorder
	provider *fakeProvider
	reg      *prometheus.Registry
}

func newHarness(t *testing.T, batch ...models.Payout) *harness {
	t.Helper()
	cfg := &config.Config{}
	cfg.PayoutWorker.OperatorID = workerOperator
	cfg.PayoutWorker.PollInterval = 10 * time.Millisecond

	h := &harness{
		due:      &fakeDue{batch: batch},
		rec:      &fakeRecorder{payouts: map[uuid.UUID]models.Payout{}, gates: map[uuid.UUID]*models.VendorPayoutGate{}},
		provider: &fakeProvider{refs: map[uuid.UUID]string{}, failures: map[uuid.UUID]error{}},
		reg:      prometheus.NewRegistry(),
	}
	svc, err := NewService(ServiceParams{
		Config:   cfg,
		Logger:   logger.Nop(),
		Due:      h.due,
		Recorder: h.rec,
		Provider: h.provider,
		Workers:  metrics.NewWorkerMetrics(h.reg),
		Finance:  metrics.NewFinanceMetrics(h.reg),
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

// queue makes payouts due and visible to the recorder.
func (h *harness) queue(batch ...models.Payout) {
	h.due.batch = batch
	for _, p := range batch {
		h.rec.payouts[p.ID] = p
	}
}

func (h *harness) vendor(account string) uuid.UUID {
	id := uuid.New()
	gate := &models.VendorPayoutGate{
		VendorID:          id,
		VerificationState: enums.VerificationStateApproved,
		PayoutEnabled:     true,
	}
	if account != "" {
		gate.ProviderAccountRef = &account
	}
	h.rec.gates[id] = gate
	return id
}

func (h *harness) transfers(t *testing.T, outcome string) float64 {
	t.Helper()
	mfs, err := h.reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "finance_payout_transfer_attempts_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "outcome" && l.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func approved(vendorID uuid.UUID, amount int64) models.Payout {
	return models.Payout{
		ID:          uuid.New(),
		BookingID:   uuid.New(),
		VendorID:    vendorID,
		AmountCents: amount,
		Status:      enums.PayoutStatusApproved,
	}
}

func TestNewServiceRejectsBadOperator(t *testing.T) {
	cfg := &config.Config{}
	cfg.PayoutWorker.OperatorID = "not-a-uuid"
	_, err := NewService(ServiceParams{
		Config:   cfg,
		Logger:   logger.Nop(),
		Due:      &fakeDue{},
		Recorder: &fakeRecorder{},
		Provider: &fakeProvider{},
	})
	require.Error(t, err)
}

func TestProcessBatchTransfersAndRecordsPaid(t *testing.T) {
	h := newHarness(t)
	payout := approved(h.vendor("acct_123"), 4_000)
	h.queue(payout)
	h.provider.refs[payout.ID] = "tr_1"

	n, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, h.provider.requests, 1)
	assert.Equal(t, "acct_123", h.provider.requests[0].Destination)
	assert.Equal(t, int64(4_000), h.provider.requests[0].AmountCents)
	require.Len(t, h.rec.paid, 1)
	assert.Equal(t, "tr_1", h.rec.paid[0].ProviderRef)
	assert.Equal(t, uuid.MustParse(workerOperator), h.rec.paid[0].OperatorID)
	assert.Equal(t, float64(1), h.transfers(t, outcomePaid))
}

func TestProcessBatchRecordsProviderFailureAndContinues(t *testing.T) {
	h := newHarness(t)
	vendorID := h.vendor("acct_123")
	first, second := approved(vendorID, 1_000), approved(vendorID, 2_000)
	h.queue(first, second)
	h.provider.failures[first.ID] = errors.New("insufficient platform balance")
	h.provider.refs[second.ID] = "tr_2"

	_, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)

	require.Len(t, h.rec.failed, 1)
	assert.Equal(t, first.ID, h.rec.failed[0].PayoutID)
	assert.Contains(t, h.rec.failed[0].Error, "insufficient platform balance")
	require.Len(t, h.rec.paid, 1)
	assert.Equal(t, second.ID, h.rec.paid[0].PayoutID)
	assert.Equal(t, float64(1), h.transfers(t, outcomeFailed))
}

func TestProcessBatchFailsPayoutWithoutConnectedAccount(t *testing.T) {
	h := newHarness(t)
	noAccount := approved(h.vendor(""), 1_000)
	noGate := approved(uuid.New(), 1_000)
	h.queue(noAccount, noGate)

	_, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)

	assert.Empty(t, h.provider.requests)
	require.Len(t, h.rec.failed, 2)
	assert.Equal(t, "vendor has no connected account", h.rec.failed[0].Error)
	assert.Equal(t, "vendor payout gate missing", h.rec.failed[1].Error)
}

func TestRecordPaidRetriesTransientErrors(t *testing.T) {
	h := newHarness(t)
	payout := approved(h.vendor("acct_1"), 500)
	h.queue(payout)
	h.provider.refs[payout.ID] = "tr_3"
	h.rec.paidErrs = []error{
		pkgerrors.New(pkgerrors.CodeConcurrentModification, "booking changed"),
		pkgerrors.New(pkgerrors.CodeDependency, "db unavailable"),
	}

	_, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.Len(t, h.rec.paid, 3)
	assert.Equal(t, float64(1), h.transfers(t, outcomePaid))
}

func TestRecordPaidSurfacesPermanentErrors(t *testing.T) {
	h := newHarness(t)
	payout := approved(h.vendor("acct_1"), 500)
	h.queue(payout)
	h.provider.refs[payout.ID] = "tr_4"
	h.rec.paidErrs = []error{pkgerrors.New(pkgerrors.CodeConservationViolation, "paid exceeds total")}

	_, err := h.svc.processBatch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tr_4")
	assert.Len(t, h.rec.paid, 1)
	assert.Equal(t, float64(1), h.transfers(t, outcomeUnrecorded))
}

func TestRecordFailureToleratesPayoutThatMovedOn(t *testing.T) {
	h := newHarness(t)
	payout := approved(h.vendor("acct_1"), 500)
	h.queue(payout)
	h.provider.failures[payout.ID] = errors.New("declined")
	h.rec.failedErr = pkgerrors.New(pkgerrors.CodeNotEligible, "payout in HELD has no transfer in flight")

	_, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	h := newHarness(t)
	payout := approved(h.vendor("acct_1"), 500)
	h.queue(payout)
	h.provider.refs[payout.ID] = "tr_5"

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err := h.svc.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, h.rec.paid, 1)
}

func TestProcessBatchNeverTransfersForDisabledVendor(t *testing.T) {
	h := newHarness(t)
	vendorID := h.vendor("acct_frozen")
	h.rec.gates[vendorID].VerificationState = enums.VerificationStateDisabledPayout
	h.rec.gates[vendorID].PayoutEnabled = false
	payout := approved(vendorID, 7_500)
	h.queue(payout)
	h.provider.refs[payout.ID] = "tr_never"

	_, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)

	assert.Empty(t, h.provider.requests)
	assert.Empty(t, h.rec.paid)
	require.Len(t, h.rec.failed, 1)
	assert.Equal(t, payout.ID, h.rec.failed[0].PayoutID)
	assert.Equal(t, "vendor payouts are disabled", h.rec.failed[0].Error)
	assert.Zero(t, h.transfers(t, outcomeUnrecorded))
}

func TestProcessBatchSkipsPayoutHeldAfterListing(t *testing.T) {
	h := newHarness(t)
	vendorID := h.vendor("acct_1")
	held, next := approved(vendorID, 1_000), approved(vendorID, 2_000)
	h.queue(held, next)
	h.provider.refs[next.ID] = "tr_6"

	moved := held
	moved.Status = enums.PayoutStatusHeld
	h.rec.payouts[held.ID] = moved

	_, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)

	require.Len(t, h.provider.requests, 1)
	assert.Equal(t, next.ID, h.provider.requests[0].PayoutID)
	assert.Empty(t, h.rec.failed)
	require.Len(t, h.rec.paid, 1)
	assert.Equal(t, next.ID, h.rec.paid[0].PayoutID)
}
