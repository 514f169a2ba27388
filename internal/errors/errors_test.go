package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        *ServiceError
		wantCode   ErrorCode
		wantStatus int
	}{
		{"invalid token", InvalidToken(nil), CodeInvalidToken, http.StatusUnauthorized},
		{"expired token", ExpiredToken(nil), CodeExpiredToken, http.StatusUnauthorized},
		{"invalid credentials", InvalidCredentials(""), CodeInvalidCredentials, http.StatusUnauthorized},
		{"unauthorized", Unauthorized(""), CodeUnauthorized, http.StatusForbidden},
		{"bad request", BadRequest(""), CodeBadRequest, http.StatusBadRequest},
		{"not found", NotFound(""), CodeNotFound, http.StatusNotFound},
		{"conflict", Conflict(""), CodeConflict, http.StatusConflict},
		{"validation", Validation(""), CodeValidation, http.StatusUnprocessableEntity},
		{"rate limited", RateLimitExceeded(10, "60s"), CodeRateLimited, http.StatusTooManyRequests},
		{"internal", Internal("", nil), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.wantCode)
			}
			if tt.err.HTTPStatus != tt.wantStatus {
				t.Errorf("HTTPStatus = %d, want %d", tt.err.HTTPStatus, tt.wantStatus)
			}
		})
	}
}

func TestGetServiceErrorUnwrapsChain(t *testing.T) {
	svcErr := NotFound("user not found")
	wrapped := fmt.Errorf("handling request: %w", svcErr)

	got := GetServiceError(wrapped)
	if got == nil {
		t.Fatal("GetServiceError returned nil for wrapped ServiceError")
	}
	if got.Code != CodeNotFound {
		t.Errorf("Code = %q, want %q", got.Code, CodeNotFound)
	}

	if got := GetServiceError(errors.New("plain")); got != nil {
		t.Errorf("GetServiceError(plain) = %v, want nil", got)
	}
}

func TestHTTPStatusDefaultsToInternal(t *testing.T) {
	if status := HTTPStatus(errors.New("boom")); status != http.StatusInternalServerError {
		t.Errorf("HTTPStatus = %d, want %d", status, http.StatusInternalServerError)
	}
	if status := HTTPStatus(Conflict("")); status != http.StatusConflict {
		t.Errorf("HTTPStatus = %d, want %d", status, http.StatusConflict)
	}
}

func TestWithDetails(t *testing.T) {
	err := Validation("bad email").WithDetails("field", "email")
	if err.Details["field"] != "email" {
		t.Errorf("Details[field] = %v, want email", err.Details["field"])
	}

	limited := RateLimitExceeded(5, "60s")
	if limited.Details["limit"] != 5 {
		t.Errorf("Details[limit] = %v, want 5", limited.Details["limit"])
	}
	if limited.Details["window"] != "60s" {
		t.Errorf("Details[window] = %v, want 60s", limited.Details["window"])
	}
}

func TestUnwrapPreservesCause(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := Internal("query failed", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}
