// Package gateway is the admin action surface. Every mutating command runs
// under a per-entity lock with bounded retry, and is audited and counted
// once it commits.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/eventloom/finance-backend/internal/audit"
	"github.com/eventloom/finance-backend/internal/bookings"
	"github.com/eventloom/finance-backend/internal/disputes"
	"github.com/eventloom/finance-backend/internal/finance"
	"github.com/eventloom/finance-backend/internal/payments"
	"github.com/eventloom/finance-backend/internal/payouts"
	"github.com/eventloom/finance-backend/internal/vendors"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
	"github.com/eventloom/finance-backend/pkg/logger"
	"github.com/eventloom/finance-backend/pkg/metrics"
)

const (
	resourceBooking = "booking"
	resourcePayout  = "payout"
	resourceDispute = "dispute"
	resourceVendor  = "vendor"
	resourcePayment = "payment"

	defaultRetryBase = 25 * time.Millisecond
)

// Escalation describes a conservation violation that needs a human.
type Escalation struct {
	Command    string
	Resource   string
	ResourceID uuid.UUID
	OperatorID uuid.UUID
	Err        error
}

// Escalator is notified of every conservation violation, after it has been
// logged and counted.
type Escalator interface {
	Escalate(ctx context.Context, e Escalation)
}

type Params struct {
	Bookings bookings.Service
	Payouts  payouts.Service
	Vendors  vendors.Service
	Disputes disputes.Service
	Payments payments.Service
	Finance  finance.Service
	AuditLog audit.Service
	Audit    audit.Recorder
	Locker   Locker

	Metrics   *metrics.FinanceMetrics
	Logger    *logger.Logger
	Escalator Escalator

	MaxRetries uint64
	RetryBase  time.Duration
}

type Gateway struct {
	bookings bookings.Service
	payouts  payouts.Service
	vendors  vendors.Service
	disputes disputes.Service
	payments payments.Service
	finance  finance.Service
	auditLog audit.Service
	audit    audit.Recorder
	locker   Locker

	metrics   *metrics.FinanceMetrics
	logg      *logger.Logger
	escalator Escalator

	maxRetries uint64
	retryBase  time.Duration
}

func New(p Params) (*Gateway, error) {
	switch {
	case p.Bookings == nil:
		return nil, fmt.Errorf("bookings service required")
	case p.Payouts == nil:
		return nil, fmt.Errorf("payouts service required")
	case p.Vendors == nil:
		return nil, fmt.Errorf("vendors service required")
	case p.Disputes == nil:
		return nil, fmt.Errorf("disputes service required")
	case p.Payments == nil:
		return nil, fmt.Errorf("payments service required")
	case p.Finance == nil:
		return nil, fmt.Errorf("finance service required")
	case p.AuditLog == nil:
		return nil, fmt.Errorf("audit service required")
	case p.Audit == nil:
		return nil, fmt.Errorf("audit recorder required")
	case p.Locker == nil:
		return nil, fmt.Errorf("locker required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	base := p.RetryBase
	if base <= 0 {
		base = defaultRetryBase
	}
	return &Gateway{
		bookings:   p.Bookings,
		payouts:    p.Payouts,
		vendors:    p.Vendors,
		disputes:   p.Disputes,
		payments:   p.Payments,
		finance:    p.Finance,
		auditLog:   p.AuditLog,
		audit:      p.Audit,
		locker:     p.Locker,
		metrics:    p.Metrics,
		logg:       logg,
		escalator:  p.Escalator,
		maxRetries: p.MaxRetries,
		retryBase:  base,
	}, nil
}

// command names one gateway call for locking, logging and metrics.
type command struct {
	name       string
	resource   string
	resourceID uuid.UUID
	operatorID uuid.UUID
}

// execute runs fn under the entity lock and retries it while it reports
// CONCURRENT_MODIFICATION. entries builds the audit records for a committed
// result; it may return none for a no-op.
func execute[T any](ctx context.Context, g *Gateway, cmd command, fn func(ctx context.Context) (T, error), entries func(T) []audit.Entry) (T, error) {
	var zero T
	started := time.Now()

	if cmd.operatorID == uuid.Nil {
		err := pkgerrors.New(pkgerrors.CodeUnauthorized, "operator id required")
		g.metrics.ObserveCommand(cmd.name, string(err.Code()), time.Since(started))
		return zero, err
	}

	ctx = g.logg.WithFields(ctx, map[string]any{
		"command":     cmd.name,
		"operator_id": cmd.operatorID.String(),
	})
	if cmd.resourceID != uuid.Nil {
		ctx = g.logg.WithResource(ctx, cmd.resource, cmd.resourceID.String())
	}
	g.logg.Debug(ctx, "command started")

	out, err := runLocked(ctx, g, cmd, fn)
	elapsed := time.Since(started)
	ctx = g.logg.WithField(ctx, "elapsed_ms", elapsed.Milliseconds())
	if err != nil {
		code := pkgerrors.CodeOf(err)
		g.metrics.ObserveCommand(cmd.name, string(code), elapsed)
		if code == pkgerrors.CodeConservationViolation {
			g.escalate(ctx, cmd, err)
		} else {
			g.logg.Warn(g.logg.WithField(ctx, "error_code", string(code)), fmt.Sprintf("command rejected: %v", err))
		}
		return zero, err
	}

	g.metrics.ObserveCommand(cmd.name, "", elapsed)
	if entries != nil {
		for _, entry := range entries(out) {
			g.audit.Record(ctx, entry)
		}
	}
	g.logg.Info(ctx, "command committed")
	return out, nil
}

func runLocked[T any](ctx context.Context, g *Gateway, cmd command, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if cmd.resourceID != uuid.Nil {
		key := LockKey(cmd.resource, cmd.resourceID)
		release, err := g.locker.Acquire(ctx, key)
		if err != nil {
			return zero, pkgerrors.Wrap(pkgerrors.CodeConcurrentModification, err, "another command is in progress for this "+cmd.resource)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				g.logg.Warn(ctx, fmt.Sprintf("release %s: %v", key, err))
			}
		}()
	}

	var out T
	backoff := retry.WithMaxRetries(g.maxRetries, retry.NewExponential(g.retryBase))
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			g.metrics.IncRetry(cmd.name)
			g.logg.Debug(g.logg.WithField(ctx, "attempt", attempt), "retrying after concurrent modification")
		}
		result, err := fn(ctx)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeConcurrentModification) {
				return retry.RetryableError(err)
			}
			return err
		}
		out = result
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "command interrupted")
		}
		return zero, err
	}
	return out, nil
}

func (g *Gateway) escalate(ctx context.Context, cmd command, err error) {
	g.metrics.IncConservationViolation()
	ctx = g.logg.WithFields(ctx, map[string]any{
		"escalate": true,
		"details":  pkgerrors.As(err).Details(),
	})
	g.logg.Error(ctx, "conservation violation", err)
	if g.escalator != nil {
		g.escalator.Escalate(ctx, Escalation{
			Command:    cmd.name,
			Resource:   cmd.resource,
			ResourceID: cmd.resourceID,
			OperatorID: cmd.operatorID,
			Err:        err,
		})
	}
}
