package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"taskhub.org/internal/auth"
	"taskhub.org/internal/obs"
	"taskhub.org/internal/task"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

// unauthorized writes a 401 with the bearer challenge header. The message is
// deliberately generic so that credential failures reveal nothing about
// whether the email exists.
func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, r, http.StatusUnauthorized, msg)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleAuthError translates the auth taxonomy into transport responses.
func handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		obs.ObserveAuthFailure("invalid_credentials")
		unauthorized(w, r, "incorrect email or password")
	case errors.Is(err, auth.ErrExpired):
		obs.ObserveAuthFailure("expired")
		unauthorized(w, r, "could not validate credentials")
	case errors.Is(err, auth.ErrInvalidToken):
		obs.ObserveAuthFailure("invalid_token")
		unauthorized(w, r, "could not validate credentials")
	case errors.Is(err, auth.ErrForbidden):
		obs.ObserveAuthFailure("forbidden")
		writeError(w, r, http.StatusForbidden, "insufficient privileges")
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "user not found")
	case errors.Is(err, auth.ErrConflict):
		writeError(w, r, http.StatusConflict, "email already registered")
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrUnavailable):
		obs.ObserveAuthFailure("unavailable")
		writeError(w, r, http.StatusServiceUnavailable, "service unavailable")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// handleTaskError translates task service failures, including gate denials.
func handleTaskError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, task.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, task.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "task not found")
	case errors.Is(err, auth.ErrForbidden):
		obs.ObserveAuthFailure("forbidden")
		writeError(w, r, http.StatusForbidden, "insufficient privileges")
	case errors.Is(err, auth.ErrUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, "service unavailable")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
