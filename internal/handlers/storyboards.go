package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"
	"github.com/pliu/instamunicipal/internal/departments"
	"github.com/pliu/instamunicipal/internal/feed"
	"github.com/pliu/instamunicipal/internal/messaging"
	"github.com/pliu/instamunicipal/internal/notifications"
)

// storyboards are the seeded fixtures the design preview renders, by name.
var storyboards = map[string]func(now time.Time) any{
	"feed":          func(now time.Time) any { return feed.SamplePosts(now) },
	"stories":       func(time.Time) any { return feed.Stories() },
	"departments":   func(time.Time) any { return departments.Defaults() },
	"conversations": func(now time.Time) any { return messaging.DefaultConversations(now) },
	"contacts":      func(time.Time) any { return append(messaging.PeopleContacts(), messaging.DepartmentContacts()...) },
	"notifications": func(time.Time) any { return notifications.Defaults() },
}

func StoryboardIndex(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(storyboards))
	for name := range storyboards {
		names = append(names, name)
	}
	sort.Strings(names)
	writeJSON(w, http.StatusOK, map[string]any{"storyboards": names})
}

func Storyboard(w http.ResponseWriter, r *http.Request) {
	fixture, ok := storyboards[mux.Vars(r)["name"]]
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, fixture(time.Now()))
}
