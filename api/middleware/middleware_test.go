package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventloom/finance-backend/pkg/logger"
)

func TestRecovererReturnsInternalError(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})

	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("ledger exploded")
	})
	resp := httptest.NewRecorder()
	Recoverer(logg)(panicking).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/admin/v1/payouts", nil))

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, resp.Body.String(), `"INTERNAL_ERROR"`)
	assert.NotContains(t, resp.Body.String(), "ledger exploded")
	assert.Contains(t, buf.String(), "panic.recovered")
}

func TestRecovererReraisesAbort(t *testing.T) {
	aborting := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	})
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		Recoverer(nil)(aborting).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestRequestIDPropagates(t *testing.T) {
	handler := RequestID(nil)(okHandler())

	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "req-123")
	handler.ServeHTTP(resp, req)
	assert.Equal(t, "req-123", resp.Header().Get(requestIDHeader))

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, resp.Header().Get(requestIDHeader))
}

func TestLoggingLevelFollowsStatus(t *testing.T) {
	cases := []struct {
		name   string
		path   string
		status int
		level  string
	}{
		{name: "ok", path: "/api/admin/v1/payouts", status: http.StatusOK, level: `"level":"info"`},
		{name: "rejected", path: "/api/admin/v1/payouts", status: http.StatusConflict, level: `"level":"warn"`},
		{name: "failed", path: "/api/admin/v1/payouts", status: http.StatusServiceUnavailable, level: `"level":"error"`},
		{name: "probe", path: "/health/live", status: http.StatusOK, level: `"level":"debug"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: &buf, Format: "json"})
			handler := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte("{}"))
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tc.path, nil))

			line := strings.TrimSpace(buf.String())
			require.NotEmpty(t, line)
			assert.Contains(t, line, tc.level)
			assert.Contains(t, line, `"bytes":2`)
		})
	}
}
