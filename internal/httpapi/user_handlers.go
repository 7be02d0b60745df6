package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"taskhub.org/internal/audit"
	"taskhub.org/internal/auth"
)

type updateUserRequest struct {
	Name        *string  `json:"name"`
	Role        *string  `json:"role"`
	Permissions []string `json:"permissions"`
}

func (a *API) handleUsersCollection(w http.ResponseWriter, r *http.Request) {
	ident, ok := a.identity(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.listUsers(w, r, ident)
	case http.MethodPost:
		a.createUser(w, r, ident)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request, ident *auth.User) {
	if err := auth.RequireAdmin(ident); err != nil {
		handleAuthError(w, r, err)
		return
	}
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 100)
	users, err := a.auth.ListUsers(r.Context(), offset, limit)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	if users == nil {
		users = []*auth.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request, ident *auth.User) {
	if err := auth.RequireAdmin(ident); err != nil {
		handleAuthError(w, r, err)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.auth.Register(r.Context(), auth.RegisterInput{
		Email:       req.Email,
		Name:        req.Name,
		Password:    req.Password,
		Role:        auth.Role(req.Role),
		Permissions: req.Permissions,
	})
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.create", map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    string(user.Role),
	})
	w.Header().Set("Location", "/v1/users/"+user.ID)
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	ident, ok := a.identity(w, r)
	if !ok {
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/users/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getUser(w, r, ident, id)
	case http.MethodPut:
		a.updateUser(w, r, ident, id)
	case http.MethodDelete:
		a.deleteUser(w, r, ident, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request, ident *auth.User, id string) {
	if err := auth.RequireSelfOrAdmin(ident, id); err != nil {
		handleAuthError(w, r, err)
		return
	}
	user, err := a.auth.GetUser(r.Context(), id)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request, ident *auth.User, id string) {
	if err := auth.RequireAdmin(ident); err != nil {
		handleAuthError(w, r, err)
		return
	}
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	upd := auth.UserUpdate{
		Name:        req.Name,
		Permissions: req.Permissions,
	}
	if req.Role != nil {
		role := auth.Role(*req.Role)
		upd.Role = &role
	}
	user, err := a.auth.UpdateUser(r.Context(), id, upd)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.update", map[string]any{
		"user_id": user.ID,
	})
	writeJSON(w, http.StatusOK, user)
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request, ident *auth.User, id string) {
	if err := auth.RequireAdmin(ident); err != nil {
		handleAuthError(w, r, err)
		return
	}
	if err := a.auth.DeleteUser(r.Context(), id); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.delete", map[string]any{
		"user_id": id,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
