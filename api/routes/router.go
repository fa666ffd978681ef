package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eventloom/finance-backend/api/controllers"
	"github.com/eventloom/finance-backend/api/middleware"
	"github.com/eventloom/finance-backend/pkg/auth"
	"github.com/eventloom/finance-backend/pkg/config"
	"github.com/eventloom/finance-backend/pkg/logger"
	pkgredis "github.com/eventloom/finance-backend/pkg/redis"
)

// AdminGateway is everything the admin surface calls. *gateway.Gateway
// implements it.
type AdminGateway interface {
	controllers.BookingCommands
	controllers.PayoutCommands
	controllers.PaymentCommands
	controllers.DisputeCommands
	controllers.VendorCommands
	controllers.AuditReader
	controllers.FinanceReader
}

// Params wires the router. Idempotency is nil when Redis is disabled, in
// which case Idempotency-Key headers are accepted but not replayed.
type Params struct {
	Config      *config.Config
	Logger      *logger.Logger
	Gateway     AdminGateway
	Idempotency pkgredis.IdempotencyStore
	Readiness   map[string]controllers.Pinger
	Gatherer    prometheus.Gatherer
}

func NewRouter(p Params) http.Handler {
	cfg, logg, gw := p.Config, p.Logger, p.Gateway

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Readiness))
	})

	if p.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(auth.RoleAdmin, logg))
		r.Use(middleware.Idempotency(p.Idempotency, logg))

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", controllers.CreateBooking(gw, logg))
			r.Get("/", controllers.ListBookings(gw, logg))
			r.Route("/{bookingId}", func(r chi.Router) {
				r.Get("/", controllers.GetBooking(gw, logg))
				r.Post("/transition", controllers.TransitionBooking(gw, logg))
				r.Post("/cancel", controllers.CancelBooking(gw, logg))
				r.Get("/finance", controllers.BookingFinance(gw, logg))
				r.Post("/payouts", controllers.RequestPayout(gw, logg))
				r.Post("/holds", controllers.HoldBookingPayouts(gw, logg))
				r.Post("/payments", controllers.RegisterPayment(gw, logg))
			})
		})

		r.Post("/payments/{paymentId}/capture", controllers.CapturePayment(gw, logg))

		r.Route("/payouts", func(r chi.Router) {
			r.Get("/", controllers.ListPayouts(gw, logg))
			r.Route("/{payoutId}", func(r chi.Router) {
				r.Get("/", controllers.GetPayout(gw, logg))
				r.Post("/approve", controllers.ApprovePayout(gw, logg))
				r.Post("/hold", controllers.HoldPayout(gw, logg))
				r.Post("/reverse", controllers.ReversePayout(gw, logg))
				r.Post("/paid", controllers.MarkPayoutPaid(gw, logg))
				r.Post("/failed", controllers.MarkPayoutFailed(gw, logg))
			})
		})

		r.Route("/disputes", func(r chi.Router) {
			r.Post("/", controllers.OpenDispute(gw, logg))
			r.Get("/", controllers.ListDisputes(gw, logg))
			r.Route("/{disputeId}", func(r chi.Router) {
				r.Get("/", controllers.GetDispute(gw, logg))
				r.Post("/status", controllers.UpdateDisputeStatus(gw, logg))
				r.Post("/resolve", controllers.ResolveDispute(gw, logg))
			})
		})

		r.Route("/vendors", func(r chi.Router) {
			r.Post("/", controllers.RegisterVendor(gw, logg))
			r.Get("/", controllers.ListVendorGates(gw, logg))
			r.Route("/{vendorId}", func(r chi.Router) {
				r.Get("/", controllers.GetVendorGate(gw, logg))
				r.Post("/approve", controllers.ApproveVendor(gw, logg))
				r.Post("/needs-changes", controllers.VendorNeedsChanges(gw, logg))
				r.Post("/disable-payout", controllers.DisableVendorPayout(gw, logg))
			})
		})

		r.Get("/audit-logs", controllers.ListAuditLogs(gw, logg))
		r.Get("/finance/overview", controllers.FinanceOverview(gw, logg))
	})

	return r
}
