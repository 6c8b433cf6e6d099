package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/vidstream/internal/apperror"
	"github.com/sakif/vidstream/internal/model"
)

// newTestDB returns a DB backed by an in-memory database, torn down with
// the test.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("New(:memory:): %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser inserts a user with sensible defaults and fails the test
// on error.
func createTestUser(t *testing.T, db *DB, username, email string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		Email:        email,
		FullName:     "Test User",
		PasswordHash: "$2a$04$testhash",
		AvatarURL:    "https://media.example.com/uploads/avatar.png",
	}
	if err := db.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func TestCreate(t *testing.T) {
	db := newTestDB(t)

	user := createTestUser(t, db, "alice", "alice@example.com")

	if user.ID == "" {
		t.Error("Create() did not set user.ID")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}
}

func TestCreate_DuplicateUsernameConflicts(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice", "alice@example.com")

	dup := &model.User{
		Username:     "alice",
		Email:        "other@example.com",
		FullName:     "Other",
		PasswordHash: "$2a$04$testhash",
		AvatarURL:    "https://media.example.com/a.png",
	}
	err := db.Create(context.Background(), dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create(duplicate username) error = %v, want ErrConflict", err)
	}
}

func TestCreate_DuplicateEmailConflicts(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice", "alice@example.com")

	dup := &model.User{
		Username:     "bob",
		Email:        "alice@example.com",
		FullName:     "Bob",
		PasswordHash: "$2a$04$testhash",
		AvatarURL:    "https://media.example.com/b.png",
	}
	err := db.Create(context.Background(), dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create(duplicate email) error = %v, want ErrConflict", err)
	}
}

func TestGetByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "alice", "alice@example.com")

	got, err := db.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Username != "alice" || got.Email != "alice@example.com" {
		t.Errorf("GetByID() = %+v, want alice's record", got)
	}
	if got.PasswordHash != created.PasswordHash {
		t.Error("GetByID() did not round-trip the password hash")
	}
}

func TestGetByID_Missing(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByID(context.Background(), "no-such-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
	}
}

func TestFindByEmailOrUsername(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "alice", "alice@example.com")

	t.Run("by email", func(t *testing.T) {
		got, err := db.FindByEmailOrUsername(context.Background(), "alice@example.com", "")
		if err != nil {
			t.Fatalf("FindByEmailOrUsername() error = %v", err)
		}
		if got == nil || got.ID != created.ID {
			t.Errorf("got %+v, want alice", got)
		}
	})

	t.Run("by username", func(t *testing.T) {
		got, err := db.FindByEmailOrUsername(context.Background(), "", "alice")
		if err != nil {
			t.Fatalf("FindByEmailOrUsername() error = %v", err)
		}
		if got == nil || got.ID != created.ID {
			t.Errorf("got %+v, want alice", got)
		}
	})

	t.Run("no match is not an error", func(t *testing.T) {
		got, err := db.FindByEmailOrUsername(context.Background(), "nobody@example.com", "nobody")
		if err != nil {
			t.Fatalf("FindByEmailOrUsername() error = %v", err)
		}
		if got != nil {
			t.Errorf("got %+v, want nil", got)
		}
	})

	t.Run("both empty", func(t *testing.T) {
		got, err := db.FindByEmailOrUsername(context.Background(), "", "")
		if err != nil || got != nil {
			t.Errorf("got (%+v, %v), want (nil, nil)", got, err)
		}
	})
}

func TestUpdateRefreshToken(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "alice", "alice@example.com")

	if err := db.UpdateRefreshToken(context.Background(), created.ID, "token-1"); err != nil {
		t.Fatalf("UpdateRefreshToken() error = %v", err)
	}

	got, _ := db.GetByID(context.Background(), created.ID)
	if got.RefreshToken != "token-1" {
		t.Errorf("RefreshToken = %q, want %q", got.RefreshToken, "token-1")
	}

	// Clearing is the logout path and must be idempotent.
	for i := 0; i < 2; i++ {
		if err := db.UpdateRefreshToken(context.Background(), created.ID, ""); err != nil {
			t.Fatalf("UpdateRefreshToken(clear #%d) error = %v", i+1, err)
		}
	}
	got, _ = db.GetByID(context.Background(), created.ID)
	if got.RefreshToken != "" {
		t.Errorf("RefreshToken = %q after clear, want empty", got.RefreshToken)
	}
}

func TestUpdateRefreshToken_MissingUser(t *testing.T) {
	db := newTestDB(t)

	err := db.UpdateRefreshToken(context.Background(), "no-such-id", "token")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateRefreshToken(missing) error = %v, want ErrNotFound", err)
	}
}

func TestUpdatePassword_TouchesOnlyPassword(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "alice", "alice@example.com")
	db.UpdateRefreshToken(context.Background(), created.ID, "keep-me")

	if err := db.UpdatePassword(context.Background(), created.ID, "$2a$04$newhash"); err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}

	got, _ := db.GetByID(context.Background(), created.ID)
	if got.PasswordHash != "$2a$04$newhash" {
		t.Errorf("PasswordHash = %q, want the new hash", got.PasswordHash)
	}
	if got.RefreshToken != "keep-me" {
		t.Error("UpdatePassword() clobbered the refresh token")
	}
}

func TestUpdateProfile(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "alice", "alice@example.com")

	got, err := db.UpdateProfile(context.Background(), created.ID, "Alice Cooper", "cooper@example.com")
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if got.FullName != "Alice Cooper" || got.Email != "cooper@example.com" {
		t.Errorf("UpdateProfile() = %+v, want updated name and email", got)
	}
}

func TestUpdateProfile_EmailConflict(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice", "alice@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")

	_, err := db.UpdateProfile(context.Background(), bob.ID, "Bob", "alice@example.com")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("UpdateProfile(taken email) error = %v, want ErrConflict", err)
	}
}

func TestUpdateAvatarAndCoverURLs(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "alice", "alice@example.com")

	got, err := db.UpdateAvatarURL(context.Background(), created.ID, "https://media.example.com/new-avatar.png")
	if err != nil {
		t.Fatalf("UpdateAvatarURL() error = %v", err)
	}
	if got.AvatarURL != "https://media.example.com/new-avatar.png" {
		t.Errorf("AvatarURL = %q, want the new URL", got.AvatarURL)
	}

	got, err = db.UpdateCoverImageURL(context.Background(), created.ID, "https://media.example.com/cover.png")
	if err != nil {
		t.Fatalf("UpdateCoverImageURL() error = %v", err)
	}
	if got.CoverImageURL != "https://media.example.com/cover.png" {
		t.Errorf("CoverImageURL = %q, want the new URL", got.CoverImageURL)
	}
}
