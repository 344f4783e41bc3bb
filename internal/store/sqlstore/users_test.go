package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/pliu/instamunicipal/internal/models"
	"github.com/pliu/instamunicipal/internal/store"
)

func TestCreateUser(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()
	ctx := context.Background()

	user := &models.User{ID: "u-1", Email: "jane@example.com", Password: "hash", FullName: "Jane Cooper"}
	if err := testStore.CreateUser(ctx, user, "tok"); err != nil {
		t.Errorf("Failed to create user: %v", err)
	}

	// Test duplicate email
	dup := &models.User{ID: "u-2", Email: "jane@example.com", Password: "hash"}
	if err := testStore.CreateUser(ctx, dup, ""); err == nil {
		t.Error("Expected error when creating duplicate user, got nil")
	}
}

func TestGetUserByEmail(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()
	ctx := context.Background()

	testStore.CreateUser(ctx, &models.User{ID: "u-1", Email: "officer@city.gov", Password: "hash", FullName: "Ben Wyatt", Department: "finance", IsGovernment: true}, "")

	user, err := testStore.GetUserByEmail(ctx, "officer@city.gov")
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if user.FullName != "Ben Wyatt" || !user.IsGovernment || user.Department != "finance" {
		t.Errorf("Unexpected user: %+v", user)
	}

	_, err = testStore.GetUserByEmail(ctx, "nobody@example.com")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for nonexistent user, got %v", err)
	}
}

func TestVerifyUser(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()
	ctx := context.Background()

	testStore.CreateUser(ctx, &models.User{ID: "u-1", Email: "a@example.com", Password: "hash"}, "verify-me")

	if err := testStore.VerifyUser(ctx, "wrong"); !errors.Is(err, store.ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
	if err := testStore.VerifyUser(ctx, "verify-me"); err != nil {
		t.Errorf("VerifyUser failed: %v", err)
	}
	user, _ := testStore.GetUserByID(ctx, "u-1")
	if !user.IsVerified {
		t.Error("Expected user to be verified")
	}
	// token is single use
	if err := testStore.VerifyUser(ctx, "verify-me"); err == nil {
		t.Error("Expected second verification to fail")
	}
}

func TestUpdatePassword(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()
	ctx := context.Background()

	testStore.CreateUser(ctx, &models.User{ID: "u-1", Email: "a@example.com", Password: "old"}, "")
	if err := testStore.UpdatePassword(ctx, "u-1", "new"); err != nil {
		t.Fatalf("UpdatePassword failed: %v", err)
	}
	user, _ := testStore.GetUserByID(ctx, "u-1")
	if user.Password != "new" {
		t.Errorf("Expected password to be updated, got %q", user.Password)
	}
	if err := testStore.UpdatePassword(ctx, "missing", "x"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSearchUsers(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()
	ctx := context.Background()

	testStore.CreateUser(ctx, &models.User{ID: "1", Email: "alice@example.com", Password: "p", FullName: "Alice Smith"}, "")
	testStore.CreateUser(ctx, &models.User{ID: "2", Email: "bob@example.com", Password: "p", FullName: "Bob Jones"}, "")
	testStore.CreateUser(ctx, &models.User{ID: "3", Email: "alex@example.com", Password: "p", FullName: "Alex Malone"}, "")

	users, err := testStore.SearchUsers(ctx, "AL")
	if err != nil {
		t.Errorf("SearchUsers failed: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("Expected 2 users, got %d", len(users))
	}
	for _, u := range users {
		if u.Email == "alice@example.com" || u.Email == "alex@example.com" {
			t.Errorf("Expected masked email, got %s", u.Email)
		}
	}
}
