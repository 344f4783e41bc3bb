package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/pliu/instamunicipal/internal/models"
	"github.com/pliu/instamunicipal/internal/store/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualResponder is a ScriptedResponder whose timer fires on demand.
func manualResponder(t *testing.T) (*ScriptedResponder, chan time.Time) {
	t.Helper()
	fire := make(chan time.Time, 8)
	r := NewScriptedResponder(DefaultReplyDelay)
	r.After = func(d time.Duration) <-chan time.Time {
		assert.Equal(t, DefaultReplyDelay, d)
		return fire
	}
	r.Pick = func(n int) int { return 3 }
	return r, fire
}

func waitFor(t *testing.T, ch <-chan models.ChatMessage) models.ChatMessage {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return models.ChatMessage{}
	}
}

func TestSendSchedulesOneReply(t *testing.T) {
	r, fire := manualResponder(t)
	conv := DefaultConversations(time.Now())[0]
	tr := NewTranscript(context.Background(), conv, r, nil)
	defer tr.Close()

	got := make(chan models.ChatMessage, 4)
	tr.OnMessage(func(m models.ChatMessage) { got <- m })

	me := &models.Identity{ID: "u-1", FullName: "Leslie Knope"}
	sent, ok := tr.Send(context.Background(), me, "Status update?", nil)
	require.True(t, ok)
	assert.Equal(t, "u-1", sent.SenderID)
	assert.False(t, sent.IsRead)
	waitFor(t, got)

	require.Len(t, tr.Messages(), 1, "no reply before the delay")
	assert.True(t, tr.Typing())

	fire <- time.Now()
	reply := waitFor(t, got)
	assert.Equal(t, conv.RecipientID, reply.SenderID)
	assert.Equal(t, conv.RecipientName, reply.SenderName)
	assert.Equal(t, Replies[3], reply.Content)
	assert.Contains(t, Replies, reply.Content)
	assert.True(t, reply.IsRead)

	msgs := tr.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Status update?", msgs[0].Content)
	assert.Equal(t, reply.ID, msgs[1].ID)
	assert.False(t, tr.Typing())
}

func TestDepartmentChatNeverReplies(t *testing.T) {
	r, _ := manualResponder(t)
	calls := 0
	r.After = func(time.Duration) <-chan time.Time {
		calls++
		return make(chan time.Time)
	}
	conv := DefaultConversations(time.Now())[2]
	require.True(t, conv.IsDepartment)

	tr := NewTranscript(context.Background(), conv, r, nil)
	defer tr.Close()
	_, ok := tr.Send(context.Background(), nil, "Road closure on 3rd?", nil)
	require.True(t, ok)
	assert.Zero(t, calls)
	assert.Len(t, tr.Messages(), 1)
	assert.Equal(t, "You", tr.Messages()[0].SenderName)
}

func TestBlankSendIsNoop(t *testing.T) {
	tr := NewTranscript(context.Background(), DefaultConversations(time.Now())[0], nil, nil)
	_, ok := tr.Send(context.Background(), nil, "  ", nil)
	assert.False(t, ok)
	assert.Empty(t, tr.Messages())
}

func TestOverlappingSendsReplyIndependently(t *testing.T) {
	r, fire := manualResponder(t)
	tr := NewTranscript(context.Background(), DefaultConversations(time.Now())[0], r, nil)
	defer tr.Close()
	got := make(chan models.ChatMessage, 8)
	tr.OnMessage(func(m models.ChatMessage) { got <- m })

	tr.Send(context.Background(), nil, "one", nil)
	tr.Send(context.Background(), nil, "two", nil)
	waitFor(t, got)
	waitFor(t, got)

	fire <- time.Now()
	fire <- time.Now()
	waitFor(t, got)
	waitFor(t, got)
	assert.Len(t, tr.Messages(), 4)
}

func TestCloseCancelsPendingReply(t *testing.T) {
	r, fire := manualResponder(t)
	tr := NewTranscript(context.Background(), DefaultConversations(time.Now())[0], r, nil)
	tr.Send(context.Background(), nil, "hello", nil)
	require.True(t, tr.Typing())
	tr.Close()
	assert.False(t, tr.Typing(), "no reply is pending once closed")
	fire <- time.Now()

	time.Sleep(20 * time.Millisecond)
	assert.Len(t, tr.Messages(), 1)
	_, ok := tr.Send(context.Background(), nil, "after close", nil)
	assert.False(t, ok)
}

func TestParentCancelClearsTyping(t *testing.T) {
	r, _ := manualResponder(t)
	parent, cancel := context.WithCancel(context.Background())
	tr := NewTranscript(parent, DefaultConversations(time.Now())[0], r, nil)
	tr.Send(context.Background(), nil, "anyone?", nil)
	require.True(t, tr.Typing())

	cancel()
	assert.False(t, tr.Typing())
}

func TestTranscriptPersistsAndLoads(t *testing.T) {
	s, err := sqlstore.New("sqlite3", ":memory:")
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()
	conv := DefaultConversations(time.Now())[1]
	me := &models.Identity{ID: "u-1"}

	tr := NewTranscript(ctx, conv, nil, s)
	tr.Send(ctx, me, "see you at 10", []models.Attachment{{Type: models.AttachmentFile, URL: "https://example.com/a.pdf", Name: "agenda"}})
	tr.Close()

	reopened := NewTranscript(ctx, conv, nil, s)
	require.NoError(t, reopened.Load(ctx, "u-1"))
	msgs := reopened.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "see you at 10", msgs[0].Content)
	require.Len(t, msgs[0].Attachments, 1)
	assert.Equal(t, "agenda", msgs[0].Attachments[0].Name)

	other := NewTranscript(ctx, conv, nil, s)
	require.NoError(t, other.Load(ctx, "u-2"))
	assert.Empty(t, other.Messages(), "other viewers do not see the thread")
}

func TestSearchMatchesNameOnly(t *testing.T) {
	l := NewConversationList(DefaultConversations(time.Now()))
	got := l.Search("JANE")
	require.Len(t, got, 1)
	assert.Equal(t, "conv-1", got[0].ID)

	assert.Empty(t, l.Search("meeting"), "last message text is not searched")
	assert.Len(t, l.Search(""), 5)
}

func TestSelectIsIdempotent(t *testing.T) {
	l := NewConversationList(DefaultConversations(time.Now()))
	_, changed, err := l.Select("conv-2")
	require.NoError(t, err)
	assert.True(t, changed)

	_, changed, err = l.Select("conv-2")
	require.NoError(t, err)
	assert.False(t, changed)

	_, _, err = l.Select("nope")
	assert.ErrorIs(t, err, ErrConversationNotFound)

	sel, ok := l.Selected()
	require.True(t, ok)
	assert.Equal(t, "conv-2", sel.ID)
}

func TestStartConversationWithDepartment(t *testing.T) {
	l := NewConversationList(DefaultConversations(time.Now()))
	c, ok := FindContact("dept-8")
	require.True(t, ok)

	conv := l.StartConversation(c)
	assert.Contains(t, conv.ID, "conv-new-")
	assert.True(t, conv.IsDepartment)
	assert.Equal(t, "8", conv.DepartmentID)
	assert.Equal(t, "Start a new conversation", conv.LastMessage)

	sel, ok := l.Selected()
	require.True(t, ok)
	assert.Equal(t, conv.ID, sel.ID)
	assert.Len(t, l.List(), 6)

	person, _ := FindContact("user-5")
	conv = l.StartConversation(person)
	assert.False(t, conv.IsDepartment)
	assert.Empty(t, conv.DepartmentID)
}

func TestTouchAndMarkRead(t *testing.T) {
	l := NewConversationList(DefaultConversations(time.Now()))
	at := time.Now()
	l.Touch(models.ChatMessage{ConversationID: "conv-1", Content: "latest", Timestamp: at})
	l.MarkRead("conv-1")

	c, err := l.Get("conv-1")
	require.NoError(t, err)
	assert.Equal(t, "latest", c.LastMessage)
	assert.Zero(t, c.UnreadCount)
}

func TestSearchContacts(t *testing.T) {
	assert.Len(t, SearchContacts(TabPeople, ""), 8)
	assert.Len(t, SearchContacts(TabPeople, "parks"), 4, "department matches")
	assert.Len(t, SearchContacts(TabDepartments, "public"), 2)
	assert.Empty(t, SearchContacts(TabDepartments, "jane"))
}

func TestContactFromUser(t *testing.T) {
	c := ContactFromUser(models.User{ID: "u-9", Email: "c***@example.com", Department: "finance"}, func(id string) string { return "Finance & Budget" })
	assert.Equal(t, "c***@example.com", c.Name, "accounts without a name show their masked email")
	assert.Equal(t, "Finance & Budget", c.Department)
	assert.False(t, c.IsDepartment)

	c = ContactFromUser(models.User{ID: "u-10", FullName: "Chris Traeger"}, nil)
	assert.Equal(t, "Chris Traeger", c.Name)
	assert.Empty(t, c.Department)
}
