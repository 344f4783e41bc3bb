package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pliu/instamunicipal/internal/departments"
	"github.com/pliu/instamunicipal/internal/messaging"
	"github.com/pliu/instamunicipal/internal/middleware"
	"github.com/pliu/instamunicipal/internal/models"
	"github.com/pliu/instamunicipal/internal/workspace"
	"github.com/rs/zerolog/log"
)

type MessagesHandler struct {
	Registry *workspace.Registry
	// Users adds registered accounts to the people tab. May be nil.
	Users messaging.UserDirectory
}

type conversationsResponse struct {
	Conversations []models.Conversation `json:"conversations"`
	Selected      *models.Conversation  `json:"selected"`
}

type threadResponse struct {
	Conversation models.Conversation  `json:"conversation"`
	Messages     []models.ChatMessage `json:"messages"`
	Typing       bool                 `json:"typing"`
	Changed      *bool                `json:"changed,omitempty"`
}

func conversationError(w http.ResponseWriter, err error) {
	if errors.Is(err, messaging.ErrConversationNotFound) {
		http.Error(w, "Conversation not found", http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// Conversations lists the viewer's conversations, filtered by the q parameter.
func (h *MessagesHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	ws := viewer(h.Registry, w, r)
	if ws == nil {
		return
	}
	resp := conversationsResponse{Conversations: ws.Conversations.Search(r.URL.Query().Get("q"))}
	if sel, ok := ws.Conversations.Selected(); ok {
		resp.Selected = &sel
	}
	writeJSON(w, http.StatusOK, resp)
}

// Start opens a conversation with a contact from the new-message dialog.
func (h *MessagesHandler) Start(w http.ResponseWriter, r *http.Request) {
	ws := viewer(h.Registry, w, r)
	if ws == nil {
		return
	}
	var req struct {
		ContactID string `json:"contact_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	contact, ok := messaging.FindContact(req.ContactID)
	if !ok && h.Users != nil && req.ContactID != ws.Identity.ID {
		if u, err := h.Users.GetUserByID(r.Context(), req.ContactID); err == nil {
			contact, ok = messaging.ContactFromUser(*u, departments.Name), true
		}
	}
	if !ok {
		http.Error(w, "Contact not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, ws.Conversations.StartConversation(contact))
}

func (h *MessagesHandler) Select(w http.ResponseWriter, r *http.Request) {
	ws := viewer(h.Registry, w, r)
	if ws == nil {
		return
	}
	id := mux.Vars(r)["id"]
	conv, changed, err := ws.Conversations.Select(id)
	if err != nil {
		conversationError(w, err)
		return
	}
	t, err := ws.Transcript(r.Context(), id)
	if err != nil {
		conversationError(w, err)
		return
	}
	ws.Conversations.MarkRead(id)
	conv.UnreadCount = 0
	writeJSON(w, http.StatusOK, threadResponse{
		Conversation: conv,
		Messages:     t.Messages(),
		Typing:       t.Typing(),
		Changed:      &changed,
	})
}

func (h *MessagesHandler) Thread(w http.ResponseWriter, r *http.Request) {
	ws := viewer(h.Registry, w, r)
	if ws == nil {
		return
	}
	t, err := ws.Transcript(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		conversationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, threadResponse{
		Conversation: t.Conversation(),
		Messages:     t.Messages(),
		Typing:       t.Typing(),
	})
}

func (h *MessagesHandler) Send(w http.ResponseWriter, r *http.Request) {
	ws := viewer(h.Registry, w, r)
	if ws == nil {
		return
	}
	var req struct {
		Content     string              `json:"content"`
		Attachments []models.Attachment `json:"attachments"`
	}
	if !decode(w, r, &req) {
		return
	}
	t, err := ws.Transcript(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		conversationError(w, err)
		return
	}
	msg, ok := t.Send(r.Context(), ws.Identity, req.Content, req.Attachments)
	if !ok {
		http.Error(w, "Message content is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// Contacts searches the people or departments tab of the new-message dialog.
func (h *MessagesHandler) Contacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tab := messaging.ContactTab(q.Get("tab"))
	if tab != messaging.TabDepartments {
		tab = messaging.TabPeople
	}
	contacts := messaging.SearchContacts(tab, q.Get("q"))
	if tab == messaging.TabPeople && h.Users != nil {
		contacts = append(contacts, h.registered(r, q.Get("q"))...)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tab":      tab,
		"contacts": contacts,
	})
}

func (h *MessagesHandler) registered(r *http.Request, query string) []models.Contact {
	var self string
	if s := middleware.FromContext(r.Context()); s != nil && s.Identity() != nil {
		self = s.Identity().ID
	}
	users, err := h.Users.SearchUsers(r.Context(), query)
	if err != nil {
		log.Error().Err(err).Msg("failed to search users")
		return nil
	}
	var out []models.Contact
	for _, u := range users {
		if u.ID != self {
			out = append(out, messaging.ContactFromUser(u, departments.Name))
		}
	}
	return out
}
