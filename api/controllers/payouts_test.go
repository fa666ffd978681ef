package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/internal/payouts"
	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
)

type stubPayouts struct {
	PayoutCommands
	requestFn func(ctx context.Context, input payouts.RequestInput) (*payouts.Transition, error)
	approveFn func(ctx context.Context, input payouts.ApproveInput) (*payouts.Transition, error)
	failedFn  func(ctx context.Context, input payouts.MarkFailedInput) (*payouts.Transition, error)
	listFn    func(ctx context.Context, params payouts.ListParams) (*payouts.ListResult, error)
}

func (s stubPayouts) RequestPayout(ctx context.Context, input payouts.RequestInput) (*payouts.Transition, error) {
	return s.requestFn(ctx, input)
}

func (s stubPayouts) ApprovePayout(ctx context.Context, input payouts.ApproveInput) (*payouts.Transition, error) {
	return s.approveFn(ctx, input)
}

func (s stubPayouts) MarkPayoutFailed(ctx context.Context, input payouts.MarkFailedInput) (*payouts.Transition, error) {
	return s.failedFn(ctx, input)
}

func (s stubPayouts) ListPayouts(ctx context.Context, params payouts.ListParams) (*payouts.ListResult, error) {
	return s.listFn(ctx, params)
}

func approvedTransition(id uuid.UUID, from enums.PayoutStatus) *payouts.Transition {
	return &payouts.Transition{
		Payout:  &models.Payout{ID: id, Status: enums.PayoutStatusApproved, AmountCents: 150000},
		From:    from,
		To:      enums.PayoutStatusApproved,
		Changed: true,
	}
}

func TestApprovePayoutConfirmSources(t *testing.T) {
	payoutID := uuid.New()
	cases := []struct {
		name    string
		body    any
		header  string
		confirm bool
	}{
		{name: "body", body: map[string]any{"confirm": true}, confirm: true},
		{name: "header", header: "true", confirm: true},
		{name: "header case", header: "TRUE", confirm: true},
		{name: "absent", body: map[string]any{}, confirm: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got payouts.ApproveInput
			svc := stubPayouts{approveFn: func(ctx context.Context, input payouts.ApproveInput) (*payouts.Transition, error) {
				got = input
				return approvedTransition(input.PayoutID, enums.PayoutStatusPendingAdminApproval), nil
			}}

			req := newRequest(t, http.MethodPost, "/", tc.body)
			if tc.header != "" {
				req.Header.Set(confirmHeader, tc.header)
			}
			resp := serve(ApprovePayout(svc, nil), withParam(req, "payoutId", payoutID.String()))

			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200 got %d", resp.Code)
			}
			if got.Confirm != tc.confirm {
				t.Fatalf("expected confirm=%v got %v", tc.confirm, got.Confirm)
			}
			if got.PayoutID != payoutID || got.OperatorID != testOperator {
				t.Fatalf("unexpected input %+v", got)
			}
		})
	}
}

func TestApprovePayoutWithoutConfirmation(t *testing.T) {
	svc := stubPayouts{approveFn: func(ctx context.Context, input payouts.ApproveInput) (*payouts.Transition, error) {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientAuthorization, "approval requires explicit confirmation")
	}}

	req := withParam(newRequest(t, http.MethodPost, "/", nil), "payoutId", uuid.NewString())
	resp := serve(ApprovePayout(svc, nil), req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != string(pkgerrors.CodeInsufficientAuthorization) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestApprovePayoutRequiresOperator(t *testing.T) {
	svc := stubPayouts{approveFn: func(ctx context.Context, input payouts.ApproveInput) (*payouts.Transition, error) {
		t.Fatal("service should not be called")
		return nil, nil
	}}

	req := withParam(httptest.NewRequest(http.MethodPost, "/", nil), "payoutId", uuid.NewString())
	resp := serve(ApprovePayout(svc, nil), req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRequestPayout(t *testing.T) {
	bookingID := uuid.New()
	var got payouts.RequestInput
	svc := stubPayouts{requestFn: func(ctx context.Context, input payouts.RequestInput) (*payouts.Transition, error) {
		got = input
		return &payouts.Transition{
			Payout:  &models.Payout{ID: uuid.New(), BookingID: input.BookingID, Type: input.Type, Status: enums.PayoutStatusRequested},
			To:      enums.PayoutStatusRequested,
			Changed: true,
		}, nil
	}}

	req := newRequest(t, http.MethodPost, "/", map[string]any{"type": "final", "amount_cents": 350000})
	resp := serve(RequestPayout(svc, nil), withParam(req, "bookingId", bookingID.String()))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if got.Type != enums.PayoutTypeFinal || got.AmountCents != 350000 || got.BookingID != bookingID {
		t.Fatalf("unexpected input %+v", got)
	}

	var payload payouts.TransitionDTO
	decodeData(t, resp, &payload)
	if payload.To != enums.PayoutStatusRequested || !payload.Changed {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestRequestPayoutRejectsUnknownType(t *testing.T) {
	svc := stubPayouts{requestFn: func(ctx context.Context, input payouts.RequestInput) (*payouts.Transition, error) {
		t.Fatal("service should not be called")
		return nil, nil
	}}

	req := newRequest(t, http.MethodPost, "/", map[string]any{"type": "bonus", "amount_cents": 100})
	resp := serve(RequestPayout(svc, nil), withParam(req, "bookingId", uuid.NewString()))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestRequestPayoutRejectsNonPositiveAmount(t *testing.T) {
	svc := stubPayouts{requestFn: func(ctx context.Context, input payouts.RequestInput) (*payouts.Transition, error) {
		t.Fatal("service should not be called")
		return nil, nil
	}}

	req := newRequest(t, http.MethodPost, "/", map[string]any{"type": "FINAL", "amount_cents": 0})
	resp := serve(RequestPayout(svc, nil), withParam(req, "bookingId", uuid.NewString()))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestMarkPayoutFailedPassesRetryAt(t *testing.T) {
	var got payouts.MarkFailedInput
	svc := stubPayouts{failedFn: func(ctx context.Context, input payouts.MarkFailedInput) (*payouts.Transition, error) {
		got = input
		return &payouts.Transition{
			Payout: &models.Payout{ID: input.PayoutID, Status: enums.PayoutStatusApproved, TransferAttempts: 1},
			From:   enums.PayoutStatusApproved,
			To:     enums.PayoutStatusApproved,
		}, nil
	}}

	req := newRequest(t, http.MethodPost, "/", map[string]any{
		"error":    "account_closed",
		"retry_at": "2026-10-18T09:00:00Z",
	})
	resp := serve(MarkPayoutFailed(svc, nil), withParam(req, "payoutId", uuid.NewString()))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got.Error != "account_closed" || got.RetryAt == nil || got.RetryAt.Hour() != 9 {
		t.Fatalf("unexpected input %+v", got)
	}
}

func TestListPayoutsFilters(t *testing.T) {
	bookingID := uuid.New()
	var got payouts.ListParams
	svc := stubPayouts{listFn: func(ctx context.Context, params payouts.ListParams) (*payouts.ListResult, error) {
		got = params
		return &payouts.ListResult{Items: []models.Payout{{ID: uuid.New(), Status: enums.PayoutStatusHeld}}, Cursor: "next"}, nil
	}}

	req := newRequest(t, http.MethodGet, "/?status=held&booking_id="+bookingID.String()+"&limit=10", nil)
	resp := serve(ListPayouts(svc, nil), req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got.Filter.Status == nil || *got.Filter.Status != enums.PayoutStatusHeld {
		t.Fatalf("unexpected status filter %+v", got.Filter)
	}
	if got.Filter.BookingID == nil || *got.Filter.BookingID != bookingID {
		t.Fatalf("unexpected booking filter %+v", got.Filter)
	}
	if got.Filter.Type != nil || got.Limit != 10 {
		t.Fatalf("unexpected params %+v", got)
	}

	var payload payouts.PayoutListDTO
	decodeData(t, resp, &payload)
	if len(payload.Items) != 1 || payload.Cursor != "next" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestListPayoutsRejectsUnknownStatus(t *testing.T) {
	svc := stubPayouts{listFn: func(ctx context.Context, params payouts.ListParams) (*payouts.ListResult, error) {
		t.Fatal("service should not be called")
		return nil, nil
	}}

	resp := serve(ListPayouts(svc, nil), newRequest(t, http.MethodGet, "/?status=settled", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
