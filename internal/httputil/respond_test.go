package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	svcerrors "github.com/goback-io/goback/internal/errors"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"id": "u1"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["id"] != "u1" {
		t.Errorf("id = %q, want u1", body["id"])
	}
}

func TestWriteErrorServiceError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, svcerrors.NotFound("user not found"))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	var body ErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "NOT_FOUND" {
		t.Errorf("code = %q, want NOT_FOUND", body.Code)
	}
	if body.Detail != "user not found" {
		t.Errorf("detail = %q, want user not found", body.Detail)
	}
}

func TestWriteErrorOpaqueInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("pq: password authentication failed"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	// the cause must not leak to the client
	if strings.Contains(rec.Body.String(), "password authentication") {
		t.Error("internal error detail leaked to response body")
	}
}

func TestWriteErrorUnauthorizedChallenge(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, svcerrors.InvalidToken(nil))

	if got := rec.Header().Get("WWW-Authenticate"); got != "Bearer" {
		t.Errorf("WWW-Authenticate = %q, want Bearer", got)
	}

	rec = httptest.NewRecorder()
	WriteError(rec, svcerrors.NotFound(""))
	if got := rec.Header().Get("WWW-Authenticate"); got != "" {
		t.Errorf("WWW-Authenticate on 404 = %q, want empty", got)
	}
}

func TestDecodeJSON(t *testing.T) {
	var target struct {
		Email string `json:"email"`
	}

	if err := DecodeJSON(strings.NewReader(`{"email":"jane@example.com"}`), &target); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if target.Email != "jane@example.com" {
		t.Errorf("Email = %q, want jane@example.com", target.Email)
	}

	err := DecodeJSON(strings.NewReader(""), &target)
	svcErr := svcerrors.GetServiceError(err)
	if svcErr == nil || svcErr.Message != "request body is required" {
		t.Errorf("empty body error = %v, want request body is required", err)
	}

	err = DecodeJSON(strings.NewReader("{not json"), &target)
	svcErr = svcerrors.GetServiceError(err)
	if svcErr == nil || svcErr.Code != svcerrors.CodeBadRequest {
		t.Errorf("malformed body error = %v, want BAD_REQUEST", err)
	}
}
