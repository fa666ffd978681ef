package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/internal/audit"
	"github.com/eventloom/finance-backend/internal/bookings"
	"github.com/eventloom/finance-backend/internal/payments"
	"github.com/eventloom/finance-backend/pkg/config"
	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
)

type stubBookings struct {
	BookingCommands
	createFn     func(ctx context.Context, input bookings.CreateInput) (*models.Booking, error)
	transitionFn func(ctx context.Context, input bookings.TransitionInput) (*bookings.TransitionResult, error)
	getFn        func(ctx context.Context, id uuid.UUID) (*models.Booking, error)
}

func (s stubBookings) CreateBooking(ctx context.Context, input bookings.CreateInput) (*models.Booking, error) {
	return s.createFn(ctx, input)
}

func (s stubBookings) TransitionBooking(ctx context.Context, input bookings.TransitionInput) (*bookings.TransitionResult, error) {
	return s.transitionFn(ctx, input)
}

func (s stubBookings) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return s.getFn(ctx, id)
}

func TestCreateBooking(t *testing.T) {
	var got bookings.CreateInput
	svc := stubBookings{createFn: func(ctx context.Context, input bookings.CreateInput) (*models.Booking, error) {
		got = input
		return &models.Booking{
			ID:          uuid.New(),
			OrganizerID: input.OrganizerID,
			VendorID:    input.VendorID,
			EventRef:    input.EventRef,
			TotalCents:  input.TotalCents,
			State:       enums.BookingStateCreated,
		}, nil
	}}

	req := newRequest(t, http.MethodPost, "/", map[string]any{
		"organizer_id": uuid.New(),
		"vendor_id":    uuid.New(),
		"event_ref":    " gala-2026 ",
		"total_cents":  500000,
	})
	resp := serve(CreateBooking(svc, nil), req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if got.EventRef != "gala-2026" || got.OperatorID != testOperator {
		t.Fatalf("unexpected input %+v", got)
	}

	var payload bookings.BookingDTO
	decodeData(t, resp, &payload)
	if payload.State != enums.BookingStateCreated || payload.TotalCents != 500000 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestTransitionBookingParsesTarget(t *testing.T) {
	var got bookings.TransitionInput
	svc := stubBookings{transitionFn: func(ctx context.Context, input bookings.TransitionInput) (*bookings.TransitionResult, error) {
		got = input
		return &bookings.TransitionResult{
			Booking: &models.Booking{ID: input.BookingID, State: input.Target},
			From:    enums.BookingStateCreated,
		}, nil
	}}

	req := newRequest(t, http.MethodPost, "/", map[string]any{"target": "vendor_approved"})
	resp := serve(TransitionBooking(svc, nil), withParam(req, "bookingId", uuid.NewString()))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got.Target != enums.BookingStateVendorApproved {
		t.Fatalf("unexpected target %s", got.Target)
	}
}

func TestTransitionBookingInvalidTransition(t *testing.T) {
	var target enums.BookingState
	svc := stubBookings{transitionFn: func(ctx context.Context, input bookings.TransitionInput) (*bookings.TransitionResult, error) {
		target = input.Target
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "cannot move CREATED to COMPLETED")
	}}

	req := newRequest(t, http.MethodPost, "/", map[string]any{"target": "COMPLETED"})
	resp := serve(TransitionBooking(svc, nil), withParam(req, "bookingId", uuid.NewString()))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != string(pkgerrors.CodeInvalidTransition) {
		t.Fatalf("unexpected code %s", code)
	}
	if target != enums.BookingStateCompleted {
		t.Fatalf("service saw target %q", target)
	}
}

func TestGetBookingRejectsMalformedID(t *testing.T) {
	svc := stubBookings{getFn: func(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
		t.Fatal("service should not be called")
		return nil, nil
	}}

	req := withParam(newRequest(t, http.MethodGet, "/", nil), "bookingId", "not-a-uuid")
	resp := serve(GetBooking(svc, nil), req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

type stubPayments struct {
	PaymentCommands
	captureFn func(ctx context.Context, input payments.CaptureInput) (*payments.CaptureResult, error)
}

func (s stubPayments) CapturePayment(ctx context.Context, input payments.CaptureInput) (*payments.CaptureResult, error) {
	return s.captureFn(ctx, input)
}

func TestCapturePaymentDeclineIsNotAnError(t *testing.T) {
	paymentID := uuid.New()
	svc := stubPayments{captureFn: func(ctx context.Context, input payments.CaptureInput) (*payments.CaptureResult, error) {
		reason := "card_declined"
		return &payments.CaptureResult{
			Payment: &models.Payment{ID: input.PaymentID, Status: enums.PaymentStatusCanceled, FailureReason: &reason},
			From:    enums.PaymentStatusRequiresConfirmation,
			Changed: true,
		}, nil
	}}

	req := withParam(newRequest(t, http.MethodPost, "/", nil), "paymentId", paymentID.String())
	resp := serve(CapturePayment(svc, nil), req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var payload payments.CaptureDTO
	decodeData(t, resp, &payload)
	if payload.Captured || payload.Payment.Status != enums.PaymentStatusCanceled || payload.LedgerEntry != nil {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

type stubAudit struct {
	listFn func(ctx context.Context, params audit.ListParams) (*audit.ListResult, error)
}

func (s stubAudit) ListAuditLogs(ctx context.Context, params audit.ListParams) (*audit.ListResult, error) {
	return s.listFn(ctx, params)
}

func TestListAuditLogsFilters(t *testing.T) {
	resourceID := uuid.New()
	var got audit.ListParams
	svc := stubAudit{listFn: func(ctx context.Context, params audit.ListParams) (*audit.ListResult, error) {
		got = params
		return &audit.ListResult{}, nil
	}}

	target := "/?resource_type=payout&action=payout_held&resource_id=" + resourceID.String() + "&since=2026-10-01T00:00:00Z"
	resp := serve(ListAuditLogs(svc, nil), newRequest(t, http.MethodGet, target, nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got.Filter.ResourceType != enums.AuditResourcePayout || got.Filter.ResourceID != resourceID {
		t.Fatalf("unexpected filter %+v", got.Filter)
	}
	if got.Filter.Action != enums.AuditActionPayoutHeld || got.Filter.ActorID != uuid.Nil {
		t.Fatalf("unexpected filter %+v", got.Filter)
	}
	if got.Filter.Since == nil || !got.Filter.Since.Equal(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected since %v", got.Filter.Since)
	}
}

func TestListAuditLogsRejectsBadSince(t *testing.T) {
	svc := stubAudit{listFn: func(ctx context.Context, params audit.ListParams) (*audit.ListResult, error) {
		t.Fatal("service should not be called")
		return nil, nil
	}}

	resp := serve(ListAuditLogs(svc, nil), newRequest(t, http.MethodGet, "/?since=yesterday", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	ok := serve(HealthReady(cfg, nil, map[string]Pinger{
		"database": pingerFunc(func(context.Context) error { return nil }),
		"redis":    nil,
	}), newRequest(t, http.MethodGet, "/", nil))
	if ok.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", ok.Code)
	}

	down := serve(HealthReady(cfg, nil, map[string]Pinger{
		"database": pingerFunc(func(context.Context) error { return errors.New("connection refused") }),
	}), newRequest(t, http.MethodGet, "/", nil))
	if down.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", down.Code)
	}
	if code := errorCode(t, down); code != string(pkgerrors.CodeDependency) {
		t.Fatalf("unexpected code %s", code)
	}
}
