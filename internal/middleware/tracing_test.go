package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/goback-io/goback/internal/logging"
)

func TestTracingGeneratesTraceID(t *testing.T) {
	var inHandler string
	handler := Tracing(logging.New("test", "error"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inHandler = logging.GetTraceID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	header := rec.Header().Get("X-Trace-ID")
	if header == "" {
		t.Fatal("X-Trace-ID response header missing")
	}
	if inHandler != header {
		t.Errorf("context trace ID = %q, header = %q", inHandler, header)
	}
}

func TestTracingEchoesIncomingTraceID(t *testing.T) {
	handler := Tracing(logging.New("test", "error"))(okHandler())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Trace-ID", "trace-123")
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Trace-ID"); got != "trace-123" {
		t.Errorf("X-Trace-ID = %q, want trace-123", got)
	}
}

func TestProcessingTimeHeader(t *testing.T) {
	handler := ProcessingTime(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	header := rec.Header().Get("X-Process-Time")
	if header == "" {
		t.Fatal("X-Process-Time response header missing")
	}
	seconds, err := strconv.ParseFloat(header, 64)
	if err != nil {
		t.Fatalf("X-Process-Time %q is not a float: %v", header, err)
	}
	if seconds < 0 {
		t.Errorf("X-Process-Time = %f, want >= 0", seconds)
	}
}

func TestCORS(t *testing.T) {
	t.Run("allowed origin", func(t *testing.T) {
		handler := NewCORSMiddleware([]string{"http://localhost"}).Handler(okHandler())
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://localhost")
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost" {
			t.Errorf("Allow-Origin = %q, want http://localhost", got)
		}
	})

	t.Run("wildcard echoes origin", func(t *testing.T) {
		handler := NewCORSMiddleware([]string{"*"}).Handler(okHandler())
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://anywhere.example")
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://anywhere.example" {
			t.Errorf("Allow-Origin = %q, want https://anywhere.example", got)
		}
	})

	t.Run("disallowed origin gets no headers", func(t *testing.T) {
		handler := NewCORSMiddleware([]string{"http://localhost"}).Handler(okHandler())
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Allow-Origin = %q, want empty", got)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200 (request still served)", rec.Code)
		}
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		handler := NewCORSMiddleware([]string{"*"}).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("next handler called on preflight")
		}))
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "http://localhost")
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rec.Code)
		}
	})
}
