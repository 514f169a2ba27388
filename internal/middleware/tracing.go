package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/goback-io/goback/internal/logging"
)

// Tracing assigns a trace ID to each request, echoes it in the response,
// and logs the completed request.
func Tracing(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get("X-Trace-ID")
			if traceID == "" {
				traceID = logging.NewTraceID()
			}

			ctx := logging.WithTraceID(r.Context(), traceID)
			r = r.WithContext(ctx)
			w.Header().Set("X-Trace-ID", traceID)

			wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(wrapped, r)

			logger.LogRequest(ctx, r.Method, r.URL.Path, wrapped.status, time.Since(start))
		})
	}
}

// ProcessingTime adds the handler wall time to the X-Process-Time response
// header. The header must be set before the first body write.
func ProcessingTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &timedWriter{ResponseWriter: w, start: start}
		next.ServeHTTP(wrapped, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

type timedWriter struct {
	http.ResponseWriter
	start       time.Time
	wroteHeader bool
}

func (w *timedWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.Header().Set("X-Process-Time", fmt.Sprintf("%.6f", time.Since(w.start).Seconds()))
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *timedWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}
