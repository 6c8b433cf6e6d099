// Package service holds the business logic between the HTTP handlers and
// the repository/auth/media collaborators.
//
//	UserHandler (HTTP) → UserService → UserRepository (DB)
//	                                 ↘ TokenService (JWT)
//	                                 ↘ PasswordService (bcrypt)
//	                                 ↘ media.Uploader (object store)
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sakif/vidstream/internal/apperror"
	"github.com/sakif/vidstream/internal/auth"
	"github.com/sakif/vidstream/internal/media"
	"github.com/sakif/vidstream/internal/model"
	"github.com/sakif/vidstream/internal/repository"
)

// UserService implements the account and session flows. A session moves
// through: anonymous → authenticated (login persists the refresh token) →
// rotated (refresh replaces it) → logged out (logout clears it).
//
// Known limitation: two concurrent refresh calls for the same user race on
// the single refresh-token column; the last writer wins and the loser's
// pair stops working at its next refresh. There is no per-user locking.
type UserService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	uploads   media.Uploader
	logger    *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	uploads media.Uploader,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		uploads:   uploads,
		logger:    logger,
	}
}

// FileUpload is a file received from the HTTP layer, decoupled from
// multipart specifics so the service stays testable without HTTP.
type FileUpload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
}

// TokenPair bundles the two tokens issued on login and refresh. It is
// never persisted as a unit; only the refresh token is mirrored onto the
// user record.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type RegisterInput struct {
	FullName   string
	Email      string
	Username   string
	Password   string
	Avatar     *FileUpload
	CoverImage *FileUpload // optional
}

type LoginInput struct {
	Email    string
	Username string
	Password string
}

// LoginResult is what the handler needs to respond: the sanitized user and
// the freshly issued pair (for cookies and the JSON body).
type LoginResult struct {
	User   *model.User
	Tokens TokenPair
}

// Register creates an account. The avatar upload must succeed; a cover
// image upload failure is tolerated (the account is created without one).
// The password is hashed before anything is persisted; no code path writes
// a plaintext or placeholder password.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := normalize(in.Email)
	username := normalize(in.Username)
	password := in.Password

	if fullName == "" || email == "" || username == "" || password == "" {
		return nil, apperror.ValidationFailed("", "fullName, email, username and password are all required")
	}

	existing, err := s.users.FindByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, fmt.Errorf("service/user: checking uniqueness for %s: %w", username, err)
	}
	if existing != nil {
		return nil, apperror.Conflict("user", "with the same email or username already exists")
	}

	// Checked after uniqueness so a taken identity reports the conflict
	// even when the avatar is also missing.
	if in.Avatar == nil {
		return nil, apperror.ValidationFailed("avatar", "avatar file is required")
	}

	avatarURL, err := s.uploads.Upload(ctx, in.Avatar.Reader, in.Avatar.Filename, in.Avatar.ContentType)
	if err != nil || avatarURL == "" {
		s.logger.Error("avatar upload failed",
			slog.String("username", username),
			slog.Any("error", err),
		)
		return nil, apperror.UploadFailed("avatar upload failed")
	}

	// Cover image is optional and its upload failure is non-fatal.
	coverURL := ""
	if in.CoverImage != nil {
		coverURL, err = s.uploads.Upload(ctx, in.CoverImage.Reader, in.CoverImage.Filename, in.CoverImage.ContentType)
		if err != nil {
			s.logger.Warn("cover image upload failed, continuing without one",
				slog.String("username", username),
				slog.Any("error", err),
			)
			coverURL = ""
		}
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/user: hashing password for %s: %w", username, err)
	}

	user := &model.User{
		Username:      username,
		Email:         email,
		FullName:      fullName,
		PasswordHash:  hash,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// The UNIQUE constraints back the lookup above; a lost race
		// surfaces here as the same conflict error. The already-uploaded
		// avatar object is not reclaimed.
		return nil, fmt.Errorf("service/user: creating user %s: %w", username, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login verifies credentials and starts a session. The refresh token is
// persisted before the result is returned, so a client can never hold
// tokens the store does not recognize.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := normalize(in.Email)
	username := normalize(in.Username)
	if email == "" && username == "" {
		return nil, apperror.ValidationFailed("", "email or username is required")
	}

	user, err := s.users.FindByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, fmt.Errorf("service/user: looking up user for login: %w", err)
	}
	if user == nil {
		return nil, apperror.NotFound("user", firstNonEmpty(email, username))
	}

	if err := s.passwords.Verify(user.PasswordHash, in.Password); err != nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return &LoginResult{User: user, Tokens: pair}, nil
}

// Logout clears the persisted refresh token. It does not check the prior
// value, so logging out twice is harmless.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	if err := s.users.UpdateRefreshToken(ctx, userID, ""); err != nil {
		return fmt.Errorf("service/user: clearing refresh token for %s: %w", userID, err)
	}

	s.logger.Info("user logged out", slog.String("userID", userID))
	return nil
}

// RefreshTokens exchanges a refresh token for a new pair, rotating the
// persisted token. Exactly one refresh token is active per user: the
// incoming token must byte-equal the stored one, which is what rejects
// replays of already-rotated tokens.
func (s *UserService) RefreshTokens(ctx context.Context, incoming string) (*LoginResult, error) {
	if incoming == "" {
		return nil, apperror.Unauthorized("refresh token is required")
	}

	// Expired, malformed and invalid all collapse to 401 at this boundary;
	// the distinction is nothing a client can act on differently.
	userID, err := s.tokens.ValidateRefreshToken(incoming)
	if err != nil {
		return nil, apperror.Unauthorized("invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/user: resolving refresh token subject: %w", err)
	}

	if user.RefreshToken == "" || user.RefreshToken != incoming {
		return nil, apperror.Unauthorized("refresh token has been rotated or revoked")
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("refresh token rotated", slog.String("userID", user.ID))

	return &LoginResult{User: user, Tokens: pair}, nil
}

// ChangePassword re-verifies the old password before hashing and storing
// the new one. On a failed verification nothing is written.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperror.ValidationFailed("", "old and new passwords are required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("service/user: fetching user %s: %w", userID, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, oldPassword); err != nil {
		return apperror.Unauthorized("old password is incorrect")
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("service/user: hashing new password for %s: %w", userID, err)
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("service/user: storing new password for %s: %w", userID, err)
	}

	s.logger.Info("password changed", slog.String("userID", userID))
	return nil
}

// UpdateProfile sets the full name and email. Both are required.
func (s *UserService) UpdateProfile(ctx context.Context, userID, fullName, email string) (*model.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = normalize(email)
	if fullName == "" || email == "" {
		return nil, apperror.ValidationFailed("", "fullName and email are required")
	}

	user, err := s.users.UpdateProfile(ctx, userID, fullName, email)
	if err != nil {
		return nil, fmt.Errorf("service/user: updating profile for %s: %w", userID, err)
	}
	return user, nil
}

// UpdateAvatar replaces the avatar. The previous object on the media host
// is left in place.
func (s *UserService) UpdateAvatar(ctx context.Context, userID string, file *FileUpload) (*model.User, error) {
	return s.updateImage(ctx, userID, file, "avatar", s.users.UpdateAvatarURL)
}

// UpdateCoverImage replaces the cover image; same semantics as UpdateAvatar.
func (s *UserService) UpdateCoverImage(ctx context.Context, userID string, file *FileUpload) (*model.User, error) {
	return s.updateImage(ctx, userID, file, "coverImage", s.users.UpdateCoverImageURL)
}

// GetByID returns the user for the current-user endpoint.
func (s *UserService) GetByID(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/user: fetching user %s: %w", userID, err)
	}
	return user, nil
}

func (s *UserService) updateImage(
	ctx context.Context,
	userID string,
	file *FileUpload,
	field string,
	persist func(ctx context.Context, id, url string) (*model.User, error),
) (*model.User, error) {
	if file == nil {
		return nil, apperror.ValidationFailed(field, field+" file is required")
	}

	url, err := s.uploads.Upload(ctx, file.Reader, file.Filename, file.ContentType)
	if err != nil || url == "" {
		s.logger.Error("image upload failed",
			slog.String("userID", userID),
			slog.String("field", field),
			slog.Any("error", err),
		)
		return nil, apperror.UploadFailed(field + " upload failed")
	}

	user, err := persist(ctx, userID, url)
	if err != nil {
		return nil, fmt.Errorf("service/user: storing %s for %s: %w", field, userID, err)
	}
	return user, nil
}

// issueTokens creates a fresh pair and durably persists the refresh token
// before handing the pair back.
func (s *UserService) issueTokens(ctx context.Context, user *model.User) (TokenPair, error) {
	access, err := s.tokens.GenerateAccessToken(user.ID, user.Email, user.Username, user.FullName)
	if err != nil {
		return TokenPair{}, fmt.Errorf("service/user: generating access token for %s: %w", user.ID, err)
	}

	refresh, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("service/user: generating refresh token for %s: %w", user.ID, err)
	}

	if err := s.users.UpdateRefreshToken(ctx, user.ID, refresh); err != nil {
		return TokenPair{}, fmt.Errorf("service/user: persisting refresh token for %s: %w", user.ID, err)
	}
	user.RefreshToken = refresh

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// normalize lowercases and trims an identifier the way it is stored.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
