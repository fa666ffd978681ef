// Package app assembles the finance services behind the admin gateway for
// the binaries under cmd/.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/eventloom/finance-backend/internal/audit"
	"github.com/eventloom/finance-backend/internal/bookings"
	"github.com/eventloom/finance-backend/internal/disputes"
	"github.com/eventloom/finance-backend/internal/finance"
	"github.com/eventloom/finance-backend/internal/gateway"
	"github.com/eventloom/finance-backend/internal/ledger"
	"github.com/eventloom/finance-backend/internal/payments"
	"github.com/eventloom/finance-backend/internal/payouts"
	"github.com/eventloom/finance-backend/internal/vendors"
	"github.com/eventloom/finance-backend/pkg/config"
	"github.com/eventloom/finance-backend/pkg/db"
	"github.com/eventloom/finance-backend/pkg/logger"
	"github.com/eventloom/finance-backend/pkg/metrics"
	"github.com/eventloom/finance-backend/pkg/outbox"
	"github.com/eventloom/finance-backend/pkg/redis"
)

// Deps are the already-connected resources the stack is built on. Redis
// and Escalator are optional.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        *db.Client
	Redis     *redis.Client
	Provider  payments.Capturer
	Escalator gateway.Escalator
	Registry  prometheus.Registerer
	Now       func() time.Time
}

// Stack is the wired gateway plus the metrics it reports into.
type Stack struct {
	Gateway *gateway.Gateway
	Payouts payouts.Service
	Metrics *metrics.FinanceMetrics
}

// Build wires every domain service and the gateway in front of them.
func Build(ctx context.Context, d Deps) (*Stack, error) {
	if d.Config == nil {
		return nil, errors.New("config required")
	}
	if d.DB == nil {
		return nil, errors.New("db client required")
	}
	if d.Provider == nil {
		return nil, errors.New("payment provider required")
	}
	if d.Registry == nil {
		d.Registry = prometheus.NewRegistry()
	}
	now := d.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	conn := d.DB.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), d.Logger)
	bookingRepo := bookings.NewRepository(conn)
	payoutRepo := payouts.NewRepository(conn)
	disputeRepo := disputes.NewRepository(conn)
	auditRepo := audit.NewRepository(conn)

	var (
		err        error
		errs       error
		collect    = func(e error) { errs = multierr.Append(errs, e) }
		stack      = &Stack{Metrics: metrics.NewFinanceMetrics(d.Registry)}
		ledgers    ledger.Service
		gateSvc    vendors.Service
		bookSvc    bookings.Service
		paymentSvc payments.Service
	)

	bookSvc, err = bookings.NewService(bookingRepo, d.DB, emitter, now)
	collect(err)
	gateSvc, err = vendors.NewService(vendors.NewRepository(conn), d.DB, emitter, now)
	collect(err)
	ledgers, err = ledger.NewService(ledger.NewRepository(conn), now)
	collect(err)
	if errs != nil {
		return nil, fmt.Errorf("wiring core services: %w", errs)
	}

	stack.Payouts, err = payouts.NewService(payouts.ServiceParams{
		Repo:         payoutRepo,
		Bookings:     bookingRepo,
		Ledger:       ledgers,
		Gate:         gateSvc,
		Tx:           d.DB,
		Outbox:       emitter,
		Now:          now,
		RetryBackoff: d.Config.PayoutWorker.RetryBackoff,
	})
	collect(err)
	disputeSvc, err := disputes.NewService(disputeRepo, bookingRepo, d.DB, emitter, now)
	collect(err)
	paymentSvc, err = paymentsService(d, bookingRepo, ledgers, emitter, now)
	collect(err)
	auditSvc, err := audit.NewService(auditRepo)
	collect(err)
	if errs != nil {
		return nil, fmt.Errorf("wiring money services: %w", errs)
	}

	financeSvc, err := finance.NewService(finance.ServiceParams{
		Bookings: bookingRepo,
		Payouts:  payoutRepo,
		Disputes: disputeRepo,
		Ledger:   ledgers,
		Payments: paymentSvc,
		Audit:    auditSvc,
		Tx:       d.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("wiring finance service: %w", err)
	}

	locker, err := newLocker(ctx, d)
	if err != nil {
		return nil, err
	}

	stack.Gateway, err = gateway.New(gateway.Params{
		Bookings:   bookSvc,
		Payouts:    stack.Payouts,
		Vendors:    gateSvc,
		Disputes:   disputeSvc,
		Payments:   paymentSvc,
		Finance:    financeSvc,
		AuditLog:   auditSvc,
		Audit:      audit.NewSink(auditRepo, d.Logger, stack.Metrics),
		Locker:     locker,
		Metrics:    stack.Metrics,
		Logger:     d.Logger,
		Escalator:  d.Escalator,
		MaxRetries: d.Config.Gateway.MaxRetries,
		RetryBase:  d.Config.Gateway.RetryBaseDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("wiring gateway: %w", err)
	}
	return stack, nil
}

func paymentsService(d Deps, bookingRepo bookings.Repository, ledgers ledger.Service, emitter outbox.Emitter, now func() time.Time) (payments.Service, error) {
	return payments.NewService(payments.ServiceParams{
		Repo:     payments.NewRepository(d.DB.DB()),
		Bookings: bookingRepo,
		Ledger:   ledgers,
		Provider: d.Provider,
		Tx:       d.DB,
		Outbox:   emitter,
		Now:      now,
	})
}

// newLocker prefers the redis lock so several replicas serialize on the
// same booking; a single process falls back to the in-memory one.
func newLocker(ctx context.Context, d Deps) (gateway.Locker, error) {
	if d.Redis != nil && d.Config.FeatureFlags.DistributedLocks {
		locker, err := redis.NewLocker(d.Redis, d.Config.Gateway.LockTTL, d.Config.Gateway.LockWait)
		if err != nil {
			return nil, fmt.Errorf("wiring redis locker: %w", err)
		}
		if d.Logger != nil {
			d.Logger.Info(ctx, "gateway using redis locks")
		}
		return locker, nil
	}
	if d.Logger != nil {
		d.Logger.Warn(ctx, "gateway using in-process locks")
	}
	return gateway.NewLocalLocker(d.Config.Gateway.LockWait), nil
}
