package supabase

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pliu/instamunicipal/internal/models"
)

// Interactions reads and writes the ai_interactions table as one user.
// Row level security on the table scopes every call to that user.
type Interactions struct {
	client *Client
	token  string
}

// Interactions returns the interaction log seen through accessToken.
func (c *Client) Interactions(accessToken string) *Interactions {
	return &Interactions{client: c, token: accessToken}
}

type interactionRow struct {
	UserID    string    `json:"user_id"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

func (i *Interactions) SaveInteraction(ctx context.Context, in models.AIInteraction) error {
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}
	row := interactionRow{UserID: in.UserID, Prompt: in.Prompt, Response: in.Response, CreatedAt: in.CreatedAt.UTC()}
	return i.client.do(ctx, http.MethodPost, "/rest/v1/ai_interactions", i.token, row, nil,
		http.Header{"Prefer": []string{"return=minimal"}})
}

func (i *Interactions) RecentInteractions(ctx context.Context, userID string, limit int) ([]models.AIInteraction, error) {
	q := url.Values{}
	q.Set("select", "prompt,response,created_at")
	q.Set("user_id", "eq."+userID)
	q.Set("order", "created_at.desc")
	q.Set("limit", strconv.Itoa(limit))

	var rows []interactionRow
	if err := i.client.do(ctx, http.MethodGet, "/rest/v1/ai_interactions?"+q.Encode(), i.token, nil, &rows, nil); err != nil {
		return nil, err
	}
	out := make([]models.AIInteraction, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.AIInteraction{UserID: userID, Prompt: r.Prompt, Response: r.Response, CreatedAt: r.CreatedAt})
	}
	return out, nil
}
