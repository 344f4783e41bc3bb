package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pliu/instamunicipal/internal/feed"
	"github.com/pliu/instamunicipal/internal/models"
	"github.com/pliu/instamunicipal/internal/workspace"
)

type FeedHandler struct {
	Registry *workspace.Registry
}

// List returns the viewer's feed under the filter query parameter.
func (h *FeedHandler) List(w http.ResponseWriter, r *http.Request) {
	ws := viewer(h.Registry, w, r)
	if ws == nil {
		return
	}
	mode := feed.Mode(r.URL.Query().Get("filter"))
	if mode == "" {
		mode = feed.ModeAll
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"filter":  mode,
		"posts":   feed.Filter(ws.Feed.Posts(), mode),
		"stories": feed.Stories(),
	})
}

func (h *FeedHandler) Create(w http.ResponseWriter, r *http.Request) {
	ws := viewer(h.Registry, w, r)
	if ws == nil {
		return
	}
	var d feed.Draft
	if !decode(w, r, &d) {
		return
	}
	post, ok := ws.Feed.CreatePost(r.Context(), ws.Identity, d)
	if !ok {
		http.Error(w, "Post content is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (h *FeedHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, (*feed.Feed).ToggleLike)
}

func (h *FeedHandler) Bookmark(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, (*feed.Feed).ToggleBookmark)
}

func (h *FeedHandler) toggle(w http.ResponseWriter, r *http.Request, fn func(*feed.Feed, string) (models.Post, error)) {
	ws := viewer(h.Registry, w, r)
	if ws == nil {
		return
	}
	post, err := fn(ws.Feed, mux.Vars(r)["id"])
	if errors.Is(err, feed.ErrPostNotFound) {
		http.Error(w, "Post not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, post)
}
