// Package httputil provides JSON response helpers shared by handlers and
// middleware.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	svcerrors "github.com/goback-io/goback/internal/errors"
)

// maxBodyBytes caps request payload size.
const maxBodyBytes = 1 << 20

// ErrorBody is the wire shape of an error response.
type ErrorBody struct {
	Code    string                 `json:"code"`
	Detail  string                 `json:"detail"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// WriteJSON serializes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError maps err onto the service error taxonomy and writes the
// response. Unknown errors become opaque 500s.
func WriteError(w http.ResponseWriter, err error) {
	svcErr := svcerrors.GetServiceError(err)
	if svcErr == nil {
		svcErr = svcerrors.Internal("", err)
	}
	if svcErr.HTTPStatus == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	WriteJSON(w, svcErr.HTTPStatus, ErrorBody{
		Code:    string(svcErr.Code),
		Detail:  svcErr.Message,
		Details: svcErr.Details,
	})
}

// DecodeJSON decodes a request body into target, rejecting oversized and
// malformed payloads.
func DecodeJSON(body io.Reader, target interface{}) error {
	dec := json.NewDecoder(io.LimitReader(body, maxBodyBytes))
	if err := dec.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return svcerrors.BadRequest("request body is required")
		}
		return svcerrors.BadRequest("invalid JSON payload")
	}
	return nil
}
