package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCanonicalPath(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"/health", "/health"},
		{"/health/system", "/health"},
		{"/users", "/users"},
		{"/users/", "/users"},
		{"/users/me", "/users/me"},
		{"/users/0b7d3f4e", "/users/:id"},
		{"/users/0b7d3f4e/reactivate", "/users/:id/reactivate"},
		{"/auth/token", "/auth/token"},
		{"/auth/signup", "/auth/signup"},
		{"/protected", "/protected"},
	}

	for _, tt := range tests {
		if got := CanonicalPath(tt.raw); got != tt.want {
			t.Errorf("CanonicalPath(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestInstrumentHandlerCountsRequests(t *testing.T) {
	handler := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/abc", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want 418", rec.Code)
	}

	metricsRec := httptest.NewRecorder()
	Handler().ServeHTTP(metricsRec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := metricsRec.Body.String()

	if !strings.Contains(body, `goback_http_requests_total{method="GET",path="/users/:id",status="418"}`) {
		t.Error("request counter with canonical path not exposed")
	}
}

func TestRecordLoginAttempt(t *testing.T) {
	RecordLoginAttempt(true)
	RecordLoginAttempt(false)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	if !strings.Contains(body, `goback_auth_login_attempts_total{result="success"}`) {
		t.Error("success login counter not exposed")
	}
	if !strings.Contains(body, `goback_auth_login_attempts_total{result="failure"}`) {
		t.Error("failure login counter not exposed")
	}
}
