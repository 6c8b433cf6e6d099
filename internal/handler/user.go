// Package handler translates HTTP requests into service calls and service
// results into the API envelope. No business rules live here.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/vidstream/internal/auth"
	"github.com/sakif/vidstream/internal/model"
	"github.com/sakif/vidstream/internal/service"
)

// maxUploadBytes bounds multipart parsing for avatar/cover uploads.
const maxUploadBytes = 10 << 20 // 10 MiB

const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
)

// UserHandler owns the /api/v1/users routes.
//
// Tokens travel both ways on every auth response: as HttpOnly+Secure
// cookies for browser clients and in the JSON body for API clients. Cookie
// lifetimes match the corresponding token lifetimes.
type UserHandler struct {
	users      *service.UserService
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *slog.Logger
}

func NewUserHandler(users *service.UserService, accessTTL, refreshTTL time.Duration, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:      users,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// loginResponse is the data field of login/refresh responses.
type loginResponse struct {
	User         *model.User `json:"user,omitempty"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// HandleRegister creates an account.
//
// HTTP: POST /api/v1/users/register
// Body: multipart form with fullName, email, username, password,
// avatar (file, required), coverImage (file, optional).
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{
			StatusCode: http.StatusBadRequest,
			Error:      "validation_error",
			Message:    "expected a multipart form",
			Success:    false,
		})
		return
	}
	defer r.MultipartForm.RemoveAll()

	in := service.RegisterInput{
		FullName: r.FormValue("fullName"),
		Email:    r.FormValue("email"),
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
	}

	avatar, closeAvatar := formFile(r, "avatar")
	defer closeAvatar()
	in.Avatar = avatar

	cover, closeCover := formFile(r, "coverImage")
	defer closeCover()
	in.CoverImage = cover

	user, err := h.users.Register(r.Context(), in)
	if err != nil {
		h.logger.Warn("registration failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, user, "user registered successfully")
}

// HandleLogin starts a session.
//
// HTTP: POST /api/v1/users/login
// Body: JSON {"email": ..., "username": ..., "password": ...}; one of
// email/username is required.
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{
			StatusCode: http.StatusBadRequest,
			Error:      "validation_error",
			Message:    "invalid JSON body",
			Success:    false,
		})
		return
	}

	res, err := h.users.Login(r.Context(), service.LoginInput{
		Email:    body.Email,
		Username: body.Username,
		Password: body.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.setAuthCookies(w, res.Tokens)
	writeSuccess(w, http.StatusOK, loginResponse{
		User:         res.User,
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
	}, "logged in successfully")
}

// HandleLogout ends the session: the persisted refresh token is cleared and
// both cookies are expired.
//
// HTTP: POST /api/v1/users/logout (auth required)
func (h *UserHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, APIError{
			StatusCode: http.StatusUnauthorized,
			Error:      "unauthorized",
			Message:    "valid authentication required",
			Success:    false,
		})
		return
	}

	if err := h.users.Logout(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}

	h.clearAuthCookies(w)
	writeSuccess(w, http.StatusOK, nil, "logged out successfully")
}

// HandleRefreshToken rotates the session's token pair. The incoming refresh
// token is read from the cookie, falling back to the JSON body for API
// clients.
//
// HTTP: POST /api/v1/users/refresh-token
func (h *UserHandler) HandleRefreshToken(w http.ResponseWriter, r *http.Request) {
	incoming := ""
	if cookie, err := r.Cookie(refreshCookie); err == nil {
		incoming = cookie.Value
	}
	if incoming == "" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		// Body is optional; decode errors just leave the token empty and
		// the service rejects that with 401.
		_ = json.NewDecoder(r.Body).Decode(&body)
		incoming = body.RefreshToken
	}

	res, err := h.users.RefreshTokens(r.Context(), incoming)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setAuthCookies(w, res.Tokens)
	writeSuccess(w, http.StatusOK, loginResponse{
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
	}, "tokens refreshed successfully")
}

// HandleChangePassword rotates the password after re-verifying the old one.
//
// HTTP: POST /api/v1/users/change-password (auth required)
// Body: JSON {"oldPassword": ..., "newPassword": ...}
func (h *UserHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var body struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{
			StatusCode: http.StatusBadRequest,
			Error:      "validation_error",
			Message:    "invalid JSON body",
			Success:    false,
		})
		return
	}

	if err := h.users.ChangePassword(r.Context(), userID, body.OldPassword, body.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, nil, "password changed successfully")
}

// HandleCurrentUser returns the authenticated user's record.
//
// HTTP: GET /api/v1/users/me (auth required)
func (h *UserHandler) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, "current user fetched successfully")
}

// HandleUpdateProfile updates full name and email.
//
// HTTP: PATCH /api/v1/users/me (auth required)
// Body: JSON {"fullName": ..., "email": ...}; both required.
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var body struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{
			StatusCode: http.StatusBadRequest,
			Error:      "validation_error",
			Message:    "invalid JSON body",
			Success:    false,
		})
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), userID, body.FullName, body.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, "profile updated successfully")
}

// HandleUpdateAvatar replaces the avatar image.
//
// HTTP: PATCH /api/v1/users/me/avatar (auth required)
// Body: multipart form with an "avatar" file.
func (h *UserHandler) HandleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.handleImageUpdate(w, r, "avatar", h.users.UpdateAvatar, "avatar updated successfully")
}

// HandleUpdateCoverImage replaces the cover image.
//
// HTTP: PATCH /api/v1/users/me/cover-image (auth required)
// Body: multipart form with a "coverImage" file.
func (h *UserHandler) HandleUpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.handleImageUpdate(w, r, "coverImage", h.users.UpdateCoverImage, "cover image updated successfully")
}

func (h *UserHandler) handleImageUpdate(
	w http.ResponseWriter,
	r *http.Request,
	field string,
	update func(ctx context.Context, userID string, file *service.FileUpload) (*model.User, error),
	message string,
) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{
			StatusCode: http.StatusBadRequest,
			Error:      "validation_error",
			Message:    "expected a multipart form",
			Success:    false,
		})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, closeFile := formFile(r, field)
	defer closeFile()

	user, err := update(r.Context(), userID, file)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, message)
}

// setAuthCookies mirrors the token pair into HttpOnly, Secure cookies so
// browser scripts can never read them.
func (h *UserHandler) setAuthCookies(w http.ResponseWriter, tokens service.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		MaxAge:   int(h.accessTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    tokens.RefreshToken,
		Path:     "/",
		MaxAge:   int(h.refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearAuthCookies tells the browser to drop both session cookies.
func (h *UserHandler) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{accessCookie, refreshCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// formFile extracts an optional file from the parsed multipart form.
// Returns (nil, no-op) when the field is absent; the service decides
// whether that is an error.
func formFile(r *http.Request, field string) (*service.FileUpload, func()) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, func() {}
	}
	return &service.FileUpload{
		Reader:      file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}, func() { file.Close() }
}
