package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/vidstream/internal/apperror"
	"github.com/sakif/vidstream/internal/model"
	"github.com/sakif/vidstream/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, username, email, full_name, password_hash, avatar_url, cover_image_url, refresh_token, created_at, updated_at`

// Create inserts a new user, generating the ID and timestamps. A UNIQUE
// violation on username or email is reported as apperror.Conflict so that a
// registration that loses the check-then-insert race still surfaces as 409.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.AvatarURL,
		user.CoverImageURL,
		user.RefreshToken,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", "with the same email or username already exists")
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Username, err)
	}

	return nil
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// FindByEmailOrUsername matches on either identifier; both are stored
// lowercased so callers must normalize before querying. Returns (nil, nil)
// when nothing matches; the caller decides whether that is an error.
func (db *DB) FindByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error) {
	if email == "" && username == "" {
		return nil, nil
	}

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE (email = ? AND ? != '') OR (username = ? AND ? != '')
		 LIMIT 1`,
		email, email, username, username)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: finding user by email/username: %w", err)
	}
	return u, nil
}

// UpdateProfile sets full name and email, returning the updated record.
func (db *DB) UpdateProfile(ctx context.Context, id, fullName, email string) (*model.User, error) {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE users SET full_name = ?, email = ?, updated_at = ? WHERE id = ?`,
		fullName, email, time.Now().UTC(), id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("user", "with the same email already exists")
		}
		return nil, fmt.Errorf("sqlite: updating profile for user %s: %w", id, err)
	}
	return db.GetByID(ctx, id)
}

// UpdatePassword replaces the stored password hash.
func (db *DB) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return db.updateColumn(ctx, id, "password_hash", passwordHash)
}

// UpdateRefreshToken replaces the persisted refresh token; "" clears it.
// Touches only the token column, never the rest of the record.
func (db *DB) UpdateRefreshToken(ctx context.Context, id, token string) error {
	return db.updateColumn(ctx, id, "refresh_token", token)
}

// UpdateAvatarURL persists a new avatar location and returns the record.
func (db *DB) UpdateAvatarURL(ctx context.Context, id, url string) (*model.User, error) {
	if err := db.updateColumn(ctx, id, "avatar_url", url); err != nil {
		return nil, err
	}
	return db.GetByID(ctx, id)
}

// UpdateCoverImageURL persists a new cover image location and returns the record.
func (db *DB) UpdateCoverImageURL(ctx context.Context, id, url string) (*model.User, error) {
	if err := db.updateColumn(ctx, id, "cover_image_url", url); err != nil {
		return nil, err
	}
	return db.GetByID(ctx, id)
}

// updateColumn writes a single column plus updated_at. The column name is
// always a constant supplied by the methods above, never caller input.
func (db *DB) updateColumn(ctx context.Context, id, column, value string) error {
	res, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`UPDATE users SET %s = ?, updated_at = ? WHERE id = ?`, column),
		value, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("sqlite: updating %s for user %s: %w", column, id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking update of %s for user %s: %w", column, id, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// scanUser reads one user row from a QueryRow result.
func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FullName,
		&u.PasswordHash,
		&u.AvatarURL,
		&u.CoverImageURL,
		&u.RefreshToken,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
