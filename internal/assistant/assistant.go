// Package assistant answers municipal staff questions through a chat
// completion API and keeps a per-user log of the exchanges.
package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pliu/instamunicipal/internal/models"
	"github.com/rs/zerolog/log"
)

// Replies shown in place of a completion. Callers render them like any
// other assistant reply.
const (
	UnavailableMessage   = "AI service is currently unavailable. Please try again later."
	RequestFailedMessage = "There was an error processing your request. Please try again later."
	UnexpectedMessage    = "An unexpected error occurred. Please try again later."
	NoResponseMessage    = "No response generated."
)

var (
	ErrUnavailable   = errors.New("assistant: API key is not set")
	ErrRequestFailed = errors.New("assistant: completion request rejected")
	ErrUnexpected    = errors.New("assistant: completion request failed")
)

// DefaultHistoryLimit is the number of interactions History returns when
// limit is not positive.
const DefaultHistoryLimit = 10

// InteractionLog stores prompt/response pairs.
type InteractionLog interface {
	SaveInteraction(ctx context.Context, in models.AIInteraction) error
	RecentInteractions(ctx context.Context, userID string, limit int) ([]models.AIInteraction, error)
}

type Assistant struct {
	client *Client
	log    InteractionLog
	now    func() time.Time
}

// New returns an assistant. interactions may be nil, in which case nothing
// is recorded.
func New(client *Client, interactions InteractionLog) *Assistant {
	return &Assistant{client: client, log: interactions, now: time.Now}
}

// SystemPrompt is the instruction sent ahead of every prompt.
func SystemPrompt(departmentContext string) string {
	var b strings.Builder
	b.WriteString("You are an AI assistant for a municipal communication platform called InstaMunicipal.\n")
	if departmentContext != "" {
		b.WriteString("Context about the conversation: ")
		b.WriteString(departmentContext)
		b.WriteString("\n")
	}
	b.WriteString("Provide helpful, accurate, and concise responses to municipal employees' questions.")
	return b.String()
}

// Ask returns the assistant's reply to prompt. On failure the returned text
// is still suitable for display and the error is one of ErrUnavailable,
// ErrRequestFailed or ErrUnexpected.
func (a *Assistant) Ask(ctx context.Context, who *models.Identity, prompt, departmentContext string) (string, error) {
	if !a.client.Configured() {
		log.Error().Msg("completion API key is not set")
		return UnavailableMessage, ErrUnavailable
	}

	reply, ok, err := a.client.Complete(ctx, []Message{
		{Role: "system", Content: SystemPrompt(departmentContext)},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			log.Error().Int("status", se.Code).Str("body", se.Body).Msg("completion API error")
			return RequestFailedMessage, ErrRequestFailed
		}
		log.Error().Err(err).Msg("error calling completion API")
		return UnexpectedMessage, ErrUnexpected
	}
	if !ok {
		reply = NoResponseMessage
	}

	a.record(ctx, who, prompt, reply)
	return reply, nil
}

func (a *Assistant) record(ctx context.Context, who *models.Identity, prompt, reply string) {
	if who == nil || a.log == nil {
		return
	}
	err := a.log.SaveInteraction(ctx, models.AIInteraction{
		UserID:    who.ID,
		Prompt:    prompt,
		Response:  reply,
		CreatedAt: a.now(),
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", who.ID).Msg("error saving AI interaction")
	}
}

// History returns the latest interactions of who, newest first. Read errors
// are logged and yield an empty list.
func (a *Assistant) History(ctx context.Context, who *models.Identity, limit int) []models.AIInteraction {
	if who == nil || a.log == nil {
		return []models.AIInteraction{}
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	items, err := a.log.RecentInteractions(ctx, who.ID, limit)
	if err != nil {
		log.Error().Err(err).Str("user_id", who.ID).Msg("error fetching AI interaction history")
		return []models.AIInteraction{}
	}
	if items == nil {
		items = []models.AIInteraction{}
	}
	return items
}
