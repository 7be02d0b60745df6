package httpapi

import (
	"net/http"
	"strings"

	"taskhub.org/internal/audit"
	"taskhub.org/internal/task"
)

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func (a *API) handleTasksCollection(w http.ResponseWriter, r *http.Request) {
	ident, ok := a.identity(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req createTaskRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		t, err := a.tasks.Create(r.Context(), ident, task.CreateInput{
			Title:       req.Title,
			Description: req.Description,
		})
		if err != nil {
			handleTaskError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "task.create", map[string]any{
			"task_id": t.ID,
		})
		w.Header().Set("Location", "/v1/tasks/"+t.ID)
		writeJSON(w, http.StatusCreated, t)
	case http.MethodGet:
		tasks, err := a.tasks.ListOwned(r.Context(), ident)
		if err != nil {
			handleTaskError(w, r, err)
			return
		}
		if tasks == nil {
			tasks = []*task.Task{}
		}
		writeJSON(w, http.StatusOK, tasks)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTaskResource(w http.ResponseWriter, r *http.Request) {
	ident, ok := a.identity(w, r)
	if !ok {
		return
	}
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/tasks/"), "/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	// Admin-only view over every owner's tasks.
	if path == "all" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		tasks, err := a.tasks.ListAll(r.Context(), ident)
		if err != nil {
			handleTaskError(w, r, err)
			return
		}
		if tasks == nil {
			tasks = []*task.Task{}
		}
		writeJSON(w, http.StatusOK, tasks)
		return
	}

	switch r.Method {
	case http.MethodGet:
		t, err := a.tasks.Get(r.Context(), ident, path)
		if err != nil {
			handleTaskError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	case http.MethodPut:
		var req updateTaskRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		t, err := a.tasks.Update(r.Context(), ident, path, task.UpdateInput{
			Title:       req.Title,
			Description: req.Description,
		})
		if err != nil {
			handleTaskError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "task.update", map[string]any{
			"task_id": t.ID,
		})
		writeJSON(w, http.StatusOK, t)
	case http.MethodDelete:
		if err := a.tasks.Delete(r.Context(), ident, path); err != nil {
			handleTaskError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "task.delete", map[string]any{
			"task_id": path,
		})
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}
