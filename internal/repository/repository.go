// Package repository declares the storage interfaces consumed by the
// service layer. Implementations live in subpackages (sqlite).
package repository

import (
	"context"

	"github.com/sakif/vidstream/internal/model"
)

// UserRepository is the persistence contract for user accounts.
//
// Lookup semantics: GetByID returns apperror.NotFound when no row matches,
// while FindByEmailOrUsername returns (nil, nil); the registration flow
// needs "no match" as a non-error answer for its uniqueness check.
//
// The Update* methods are deliberately narrow: each one touches exactly the
// columns it names and nothing else, so mutating the refresh token or the
// password never re-validates or rewrites unrelated fields.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmailOrUsername matches on either value (case-normalized);
	// pass "" for the one you don't have.
	FindByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error)

	UpdateProfile(ctx context.Context, id, fullName, email string) (*model.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// UpdateRefreshToken replaces the single active refresh token for the
	// user; an empty token clears it (logout).
	UpdateRefreshToken(ctx context.Context, id, token string) error

	UpdateAvatarURL(ctx context.Context, id, url string) (*model.User, error)
	UpdateCoverImageURL(ctx context.Context, id, url string) (*model.User, error)
}
