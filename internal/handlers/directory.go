package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pliu/instamunicipal/internal/departments"
	"github.com/pliu/instamunicipal/internal/feed"
	"github.com/pliu/instamunicipal/internal/models"
	"github.com/pliu/instamunicipal/internal/notifications"
	"github.com/pliu/instamunicipal/internal/workspace"
	"github.com/rs/zerolog/log"
)

type DirectoryHandler struct {
	Directory *departments.Directory
	Registry  *workspace.Registry
}

func (h *DirectoryHandler) list(r *http.Request) []models.Department {
	depts, err := h.Directory.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list departments")
		return departments.Defaults()
	}
	return depts
}

// Departments serves the directory page: search, status filter and sort.
func (h *DirectoryHandler) Departments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := departments.StatusFilter(q.Get("status"))
	if status == "" {
		status = departments.StatusAll
	}
	key := departments.SortKey(q.Get("sort"))
	if key == "" {
		key = departments.SortName
	}
	all := h.list(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"departments":  departments.FilterAndSort(all, q.Get("q"), status, key),
		"total_unread": departments.TotalUnread(all),
	})
}

// Home renders the landing page of a signed-in viewer.
func (h *DirectoryHandler) Home(w http.ResponseWriter, r *http.Request) {
	ws := viewer(h.Registry, w, r)
	if ws == nil {
		return
	}
	name := ws.Identity.FullName
	if name == "" {
		name = "Municipal Employee"
	}
	resp := map[string]any{
		"welcome":     "Welcome, " + name + "!",
		"user":        ws.Identity,
		"departments": h.list(r),
		"stories":     feed.Stories(),
		"unread":      ws.Notifications.UnreadCount(),
	}
	if ws.Identity.Department != "" {
		resp["department"] = departments.Name(ws.Identity.Department)
	}
	writeJSON(w, http.StatusOK, resp)
}

type NotificationsHandler struct {
	Registry *workspace.Registry
}

func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	ws := viewer(h.Registry, w, r)
	if ws == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": ws.Notifications.List(),
		"unread_count":  ws.Notifications.UnreadCount(),
	})
}

func (h *NotificationsHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	ws := viewer(h.Registry, w, r)
	if ws == nil {
		return
	}
	ws.Notifications.MarkAllRead()
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationsHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	ws := viewer(h.Registry, w, r)
	if ws == nil {
		return
	}
	err := ws.Notifications.Dismiss(mux.Vars(r)["id"])
	if errors.Is(err, notifications.ErrNotFound) {
		http.Error(w, "Notification not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationsHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	ws := viewer(h.Registry, w, r)
	if ws == nil {
		return
	}
	ws.Notifications.ClearAll()
	w.WriteHeader(http.StatusNoContent)
}
