package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/pliu/instamunicipal/internal/departments"
	"github.com/pliu/instamunicipal/internal/workspace"
)

type AssistantHandler struct {
	Registry *workspace.Registry
}

type askRequest struct {
	Prompt            string `json:"prompt"`
	DepartmentContext string `json:"department_context"`
}

// Ask forwards a prompt to the assistant widget of the viewer. Assistant
// failures come back as a normal reply bubble.
func (h *AssistantHandler) Ask(w http.ResponseWriter, r *http.Request) {
	ws := viewer(h.Registry, w, r)
	if ws == nil {
		return
	}
	var req askRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		http.Error(w, "Prompt is required", http.StatusBadRequest)
		return
	}
	deptCtx := req.DepartmentContext
	if deptCtx == "" && ws.Identity.Department != "" {
		deptCtx = departments.Name(ws.Identity.Department)
	}
	bubble, ok := ws.AssistantChat.Submit(r.Context(), ws.Assistant(sessionToken(r)), ws.Identity, req.Prompt, deptCtx)
	if !ok {
		http.Error(w, "A reply is already pending", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, bubble)
}

func (h *AssistantHandler) History(w http.ResponseWriter, r *http.Request) {
	ws := viewer(h.Registry, w, r)
	if ws == nil {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	writeJSON(w, http.StatusOK, map[string]any{
		"bubbles":      ws.AssistantChat.Bubbles(),
		"interactions": ws.Assistant(sessionToken(r)).History(r.Context(), ws.Identity, limit),
	})
}
