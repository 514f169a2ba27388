package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/goback-io/goback/internal/domain/user"
	svcerrors "github.com/goback-io/goback/internal/errors"
	"github.com/goback-io/goback/internal/httputil"
	"github.com/goback-io/goback/internal/logging"
	"github.com/goback-io/goback/internal/metrics"
	"github.com/goback-io/goback/internal/middleware"
	"github.com/goback-io/goback/internal/services/auth"
	"github.com/goback-io/goback/internal/services/health"
	"github.com/goback-io/goback/internal/services/users"
)

type handlers struct {
	logger *logging.Logger
	health *health.Service
	users  *users.Service
	auth   *auth.Service
}

// --- general ----------------------------------------------------------------

func (h *handlers) root(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the API!"})
}

func (h *handlers) healthCheck(w http.ResponseWriter, r *http.Request) {
	status := h.health.Check(r.Context())
	code := http.StatusOK
	if status.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, code, status)
}

func (h *handlers) systemStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.health.System(r.Context())
	if err != nil {
		httputil.WriteError(w, svcerrors.Internal("failed to collect system stats", err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *handlers) protected(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		httputil.WriteError(w, svcerrors.InvalidToken(nil))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Hello " + u.FirstName + ", this is a protected route!",
	})
}

func (h *handlers) admin(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Hello, this is a protected admin route!",
	})
}

// --- auth -------------------------------------------------------------------

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := httputil.DecodeJSON(r.Body, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}

	u, err := h.auth.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		metrics.RecordLoginAttempt(false)
		httputil.WriteError(w, err)
		return
	}

	token, err := h.auth.IssueToken(u)
	if err != nil {
		metrics.RecordLoginAttempt(false)
		httputil.WriteError(w, svcerrors.Internal("failed to issue token", err))
		return
	}
	metrics.RecordLoginAttempt(true)
	httputil.WriteJSON(w, http.StatusOK, token)
}

func (h *handlers) signup(w http.ResponseWriter, r *http.Request) {
	var payload user.CreateRequest
	if err := httputil.DecodeJSON(r.Body, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}

	created, err := h.users.Create(r.Context(), payload)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

// --- users ------------------------------------------------------------------

func (h *handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.users.ListActive(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if list == nil {
		list = []user.User{}
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *handlers) createUser(w http.ResponseWriter, r *http.Request) {
	var payload user.CreateRequest
	if err := httputil.DecodeJSON(r.Body, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}

	created, err := h.users.Create(r.Context(), payload)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		httputil.WriteError(w, svcerrors.InvalidToken(nil))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *handlers) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !u.IsActive {
		httputil.WriteError(w, svcerrors.NotFound(""))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *handlers) updateUser(w http.ResponseWriter, r *http.Request) {
	var payload user.UpdateRequest
	if err := httputil.DecodeJSON(r.Body, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}

	updated, err := h.users.Update(r.Context(), mux.Vars(r)["id"], payload)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *handlers) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) reactivateUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Reactivate(r.Context(), mux.Vars(r)["id"]); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
