package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vidstream/account-service/internal/api/metrics"
	"github.com/vidstream/account-service/internal/core/domain"
	"github.com/vidstream/account-service/internal/core/ports"
)

// CookieConfig controls how the session cookies are written. Secure must be
// true everywhere except non-TLS local development.
type CookieConfig struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// SessionHandler exposes the session lifecycle over HTTP. Tokens travel both
// in the JSON body and as httpOnly cookies; the refresh endpoint prefers the
// cookie when both are present.
type SessionHandler struct {
	sessions ports.SessionService
	uploader ports.MediaUploader
	audit    ports.AuditRecorder
	cookies  CookieConfig
}

func NewSessionHandler(sessions ports.SessionService, uploader ports.MediaUploader, audit ports.AuditRecorder, cookies CookieConfig) *SessionHandler {
	return &SessionHandler{sessions: sessions, uploader: uploader, audit: audit, cookies: cookies}
}

// Register creates a new account from a multipart form: text fields plus a
// required avatar file and optional cover image.
//
// @Summary      Register a new user
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Param        fullName    formData  string  true   "Display name"
// @Param        email       formData  string  true   "Email, unique"
// @Param        username    formData  string  true   "Username, unique, case-insensitive"
// @Param        password    formData  string  true   "Password"
// @Param        avatar      formData  file    true   "Avatar image"
// @Param        coverImage  formData  file    false  "Cover image"
// @Success      201  {object}  userResponse
// @Failure      400  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/users/register [post]
func (h *SessionHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()

	avatarURL, err := h.uploadFormFile(c, "avatar")
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(resultLabel(err, "created")).Inc()
		return err
	}
	coverURL, err := h.uploadFormFile(c, "coverImage")
	if err != nil && !errors.Is(err, domain.ErrValidation) {
		// The cover image is optional; only upload failures matter.
		metrics.RegistrationsTotal.WithLabelValues(resultLabel(err, "created")).Inc()
		return err
	}

	view, err := h.sessions.Register(ctx, ports.RegisterInput{
		FullName:      c.FormValue("fullName"),
		Email:         c.FormValue("email"),
		Username:      c.FormValue("username"),
		Password:      c.FormValue("password"),
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
	})
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(resultLabel(err, "created")).Inc()
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	h.recordAudit(c, view.ID, domain.ActionRegister)
	return c.JSON(http.StatusCreated, userResponse{User: view})
}

// Login verifies credentials and starts the account's single session.
//
// @Summary      Login with username or email
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /v1/users/login [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}

	res, err := h.sessions.Login(c.Request().Context(), identifier, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(resultLabel(err, "success")).Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	h.recordAudit(c, res.User.ID, domain.ActionLogin)
	h.setSessionCookies(c, res.Tokens)
	return c.JSON(http.StatusOK, sessionResponse{
		User:         res.User,
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
	})
}

// Logout ends the caller's session and clears both cookies. Idempotent.
//
// @Summary      Logout
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/users/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	if err := h.sessions.Logout(c.Request().Context(), userID); err != nil {
		return err
	}

	h.recordAudit(c, userID, domain.ActionLogout)
	h.clearSessionCookies(c)
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

// Refresh rotates the session: the presented refresh token is exchanged for
// a new pair and permanently invalidated. Read from the cookie first, then
// the body.
//
// @Summary      Redeem a refresh token
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  false  "Refresh token (if not sent as cookie)"
// @Success      200   {object}  tokenResponse
// @Failure      401   {object}  errorResponse
// @Router       /v1/users/refresh-token [post]
func (h *SessionHandler) Refresh(c echo.Context) error {
	presented := ""
	if cookie, err := c.Cookie("refreshToken"); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req refreshRequest
		if err := c.Bind(&req); err == nil {
			presented = req.RefreshToken
		}
	}

	res, err := h.sessions.Refresh(c.Request().Context(), presented)
	if err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues(resultLabel(err, "rotated")).Inc()
		return err
	}

	metrics.TokenRefreshesTotal.WithLabelValues("rotated").Inc()
	h.recordAudit(c, res.User.ID, domain.ActionRefresh)
	h.setSessionCookies(c, res.Tokens)
	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
	})
}

// ChangePassword replaces the caller's password and ends the current
// session, so clients must log in again.
//
// @Summary      Change password
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Old and new passwords"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /v1/users/change-password [post]
func (h *SessionHandler) ChangePassword(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.sessions.ChangePassword(c.Request().Context(), userID, req.OldPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		metrics.PasswordChangesTotal.WithLabelValues(resultLabel(err, "changed")).Inc()
		return err
	}

	metrics.PasswordChangesTotal.WithLabelValues("changed").Inc()
	h.recordAudit(c, userID, domain.ActionPasswordChange)
	h.clearSessionCookies(c)
	return c.JSON(http.StatusOK, messageResponse{Message: "password changed"})
}

// Me returns the caller's own profile.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/users/me [get]
func (h *SessionHandler) Me(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	view, err := h.sessions.CurrentSession(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: view})
}

// UpdateMe updates the caller's full name and email.
//
// @Summary      Update profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "New profile fields"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /v1/users/me [patch]
func (h *SessionHandler) UpdateMe(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	view, err := h.sessions.UpdateProfile(c.Request().Context(), userID, req.FullName, req.Email)
	if err != nil {
		return err
	}

	h.recordAudit(c, userID, domain.ActionProfileUpdate)
	return c.JSON(http.StatusOK, userResponse{User: view})
}

// uploadFormFile spools the named multipart file to a temp path and pushes
// it through the media uploader, which owns deleting the temp file. A
// missing file reports ErrValidation; a failed push reports ErrUploadFailed.
func (h *SessionHandler) uploadFormFile(c echo.Context, field string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", domain.NewValidationError(field + " is required")
	}

	tmpPath, err := spoolToTemp(fh)
	if err != nil {
		return "", fmt.Errorf("spool %s: %w", field, err)
	}

	url, err := h.uploader.Upload(c.Request().Context(), tmpPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrUploadFailed, field)
	}
	return url, nil
}

func spoolToTemp(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(os.TempDir(), uuid.NewString()+filepath.Ext(fh.Filename)))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

func (h *SessionHandler) setSessionCookies(c echo.Context, pair domain.TokenPair) {
	c.SetCookie(h.sessionCookie("accessToken", pair.AccessToken, h.cookies.AccessTTL))
	c.SetCookie(h.sessionCookie("refreshToken", pair.RefreshToken, h.cookies.RefreshTTL))
}

func (h *SessionHandler) clearSessionCookies(c echo.Context) {
	c.SetCookie(h.sessionCookie("accessToken", "", -time.Second))
	c.SetCookie(h.sessionCookie("refreshToken", "", -time.Second))
}

func (h *SessionHandler) sessionCookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *SessionHandler) recordAudit(c echo.Context, userID string, action domain.AuthAction) {
	if h.audit == nil {
		return
	}
	h.audit.Record(domain.AuthEvent{
		UserID:    userID,
		Action:    action,
		Timestamp: time.Now().UTC(),
		RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
		RemoteIP:  c.RealIP(),
	})
}

// resultLabel maps a service error onto the metric result label, with ok as
// the success label.
func resultLabel(err error, ok string) string {
	switch {
	case err == nil:
		return ok
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrUserExists):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "denied"
	default:
		return "error"
	}
}
