package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/quillpress/quillpress/internal/platform/httpx"
	"github.com/quillpress/quillpress/internal/shared"
)

const refreshCookieName = "refreshToken"

// Handler wires the HTTP endpoints for the session lifecycle.
type Handler struct {
	logger        *slog.Logger
	service       *Service
	validator     *validator.Validate
	secureCookies bool
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, secureCookies bool) *Handler {
	return &Handler{
		logger:        logger,
		service:       service,
		validator:     validator.New(),
		secureCookies: secureCookies,
	}
}

// MountRoutes registers auth routes. All of them are public; refresh and
// signout authenticate through the refresh cookie instead of a bearer token.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/signup", h.signup)
	r.Post("/verify-email/{token}", h.verifyEmail)
	r.Post("/resend-verification", h.resendVerification)
	r.Post("/signin", h.signin)
	r.Post("/signout", h.signout)
	r.Post("/refresh-token", h.refreshToken)
	r.Post("/request-reset-password", h.requestResetPassword)
	r.Post("/reset-password/{token}", h.resetPassword)
}

type signupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, shared.ValidationFailed(map[string][]string{"body": {"Invalid request body"}}))
		return
	}
	if verr := shared.ValidateStruct(h.validator, req); verr != nil {
		httpx.RespondError(w, h.logger, verr)
		return
	}
	if err := h.service.SignUp(r.Context(), SignUpParams(req)); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Please check your email to verify your account", nil)
}

func (h *Handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.service.VerifyEmail(r.Context(), chi.URLParam(r, "token")); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Your account has been verified successfully", nil)
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *Handler) resendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, shared.ValidationFailed(map[string][]string{"body": {"Invalid request body"}}))
		return
	}
	if verr := shared.ValidateStruct(h.validator, req); verr != nil {
		httpx.RespondError(w, h.logger, verr)
		return
	}
	if err := h.service.ResendVerification(r.Context(), req.Email); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Please check your email to verify your account", nil)
}

type signinRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, shared.ValidationFailed(map[string][]string{"body": {"Invalid request body"}}))
		return
	}
	if verr := shared.ValidateStruct(h.validator, req); verr != nil {
		httpx.RespondError(w, h.logger, verr)
		return
	}
	result, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    result.RefreshToken,
		Path:     "/",
		MaxAge:   int(h.service.RefreshTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	httpx.OK(w, "Signed in successfully", map[string]any{
		"id":          result.User.ID,
		"username":    result.User.Username,
		"email":       result.User.Email,
		"avatar":      result.User.Avatar,
		"roles":       result.Roles,
		"permissions": result.Permissions,
		"token":       result.AccessToken,
	})
}

func (h *Handler) signout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SignOut(r.Context(), h.refreshCookie(r)); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.NoContent(w)
}

func (h *Handler) refreshToken(w http.ResponseWriter, r *http.Request) {
	accessToken, err := h.service.Refresh(r.Context(), h.refreshCookie(r))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Token refreshed successfully", map[string]string{"token": accessToken})
}

func (h *Handler) requestResetPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, shared.ValidationFailed(map[string][]string{"body": {"Invalid request body"}}))
		return
	}
	if verr := shared.ValidateStruct(h.validator, req); verr != nil {
		httpx.RespondError(w, h.logger, verr)
		return
	}
	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Please check your email to reset your password", nil)
}

type resetPasswordRequest struct {
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, shared.ValidationFailed(map[string][]string{"body": {"Invalid request body"}}))
		return
	}
	if verr := shared.ValidateStruct(h.validator, req); verr != nil {
		httpx.RespondError(w, h.logger, verr)
		return
	}
	if err := h.service.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.NewPassword); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Your password has been reset successfully. Please sign in with your new password", nil)
}

func (h *Handler) refreshCookie(r *http.Request) string {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
