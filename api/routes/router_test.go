package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/eventloom/finance-backend/api/controllers"
	"github.com/eventloom/finance-backend/internal/finance"
	"github.com/eventloom/finance-backend/pkg/auth"
	"github.com/eventloom/finance-backend/pkg/config"
	"github.com/eventloom/finance-backend/pkg/logger"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubGateway struct {
	AdminGateway
}

func (stubGateway) FinanceOverview(ctx context.Context) (*finance.Overview, error) {
	return &finance.Overview{TotalHeldFundsCents: 350000, PendingPayoutsCount: 1}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", CORSOrigins: []string{"http://localhost:3000"}},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "eventloom-test", ExpirationMinutes: 10},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Params{
		Config:    cfg,
		Logger:    logg,
		Gateway:   stubGateway{},
		Readiness: map[string]controllers.Pinger{"database": stubPinger{}},
		Gatherer:  prometheus.NewRegistry(),
	})
}

func buildToken(t *testing.T, cfg *config.Config, role string) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.AccessTokenPayload{
		OperatorID: uuid.New(),
		Role:       role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthRoutesArePublic(t *testing.T) {
	router := newTestRouter(testConfig())
	for _, path := range []string{"/health/live", "/health/ready", "/metrics"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestAdminGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/admin/v1/finance/overview", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	viewer := httptest.NewRequest(http.MethodGet, "/api/admin/v1/finance/overview", nil)
	viewer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, "viewer"))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, viewer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/finance/overview", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, auth.RoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"total_held_funds_cents":350000`) {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestAdminRoutesRegistered(t *testing.T) {
	router, ok := newTestRouter(testConfig()).(chi.Routes)
	if !ok {
		t.Fatal("router does not expose its routes")
	}

	var got []string
	err := chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if strings.HasPrefix(route, "/api/admin/v1") {
			got = append(got, method+" "+strings.TrimSuffix(strings.TrimPrefix(route, "/api/admin/v1"), "/"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk routes: %v", err)
	}

	want := []string{
		"POST /bookings",
		"GET /bookings",
		"GET /bookings/{bookingId}",
		"POST /bookings/{bookingId}/transition",
		"POST /bookings/{bookingId}/cancel",
		"GET /bookings/{bookingId}/finance",
		"POST /bookings/{bookingId}/payouts",
		"POST /bookings/{bookingId}/holds",
		"POST /bookings/{bookingId}/payments",
		"POST /payments/{paymentId}/capture",
		"GET /payouts",
		"GET /payouts/{payoutId}",
		"POST /payouts/{payoutId}/approve",
		"POST /payouts/{payoutId}/hold",
		"POST /payouts/{payoutId}/reverse",
		"POST /payouts/{payoutId}/paid",
		"POST /payouts/{payoutId}/failed",
		"POST /disputes",
		"GET /disputes",
		"GET /disputes/{disputeId}",
		"POST /disputes/{disputeId}/status",
		"POST /disputes/{disputeId}/resolve",
		"POST /vendors",
		"GET /vendors",
		"GET /vendors/{vendorId}",
		"POST /vendors/{vendorId}/approve",
		"POST /vendors/{vendorId}/needs-changes",
		"POST /vendors/{vendorId}/disable-payout",
		"GET /audit-logs",
		"GET /finance/overview",
	}

	sort.Strings(got)
	sort.Strings(want)
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("unexpected admin routes:\n%s", strings.Join(got, "\n"))
	}
}
