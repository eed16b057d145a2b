package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/dom/habit-proofs/internal/api/httputil"
	"github.com/dom/habit-proofs/internal/api/middleware"
	"github.com/dom/habit-proofs/internal/config"
	"github.com/dom/habit-proofs/internal/domain"
	"github.com/dom/habit-proofs/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
	cfg         *config.Config
}

func NewAuthHandler(authService *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

type DevLoginRequest struct {
	DisplayName string `json:"displayName"`
}

type AuthResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

type MeResponse struct {
	User *domain.User `json:"user"`
}

// GoogleLogin redirects the browser to the identity provider.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	url, err := h.authService.BeginLogin()
	if err != nil {
		writeServiceError(w, "AuthHandler.GoogleLogin", err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// GoogleCallback completes the OAuth exchange and starts a cookie session.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if reason := query.Get("error"); reason != "" {
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, httputil.CodeUnauthenticated, "Sign-in was cancelled: "+reason, nil)
		return
	}

	result, err := h.authService.CompleteLogin(r.Context(), query.Get("state"), query.Get("code"))
	if err != nil {
		writeServiceError(w, "AuthHandler.GoogleCallback", err)
		return
	}

	h.setSession(w, result.AccessToken)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

// DevLogin signs in a local account by display name. Development only.
func (h *AuthHandler) DevLogin(w http.ResponseWriter, r *http.Request) {
	var req DevLoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	result, err := h.authService.DevSignIn(r.Context(), req.DisplayName)
	if err != nil {
		writeServiceError(w, "AuthHandler.DevLogin", err)
		return
	}

	h.setSession(w, result.AccessToken)
	httputil.WriteJSONResponse(w, http.StatusOK, AuthResponse{
		User:  result.User,
		Token: result.AccessToken,
	})
}

// Me returns the signed-in user, or a null user for anonymous callers.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.WriteJSONResponse(w, http.StatusOK, MeResponse{})
		return
	}

	user, err := h.authService.CurrentUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			httputil.WriteJSONResponse(w, http.StatusOK, MeResponse{})
			return
		}
		writeServiceError(w, "AuthHandler.Me", err)
		return
	}

	httputil.WriteJSONResponse(w, http.StatusOK, MeResponse{User: user})
}

func (h *AuthHandler) setSession(w http.ResponseWriter, token string) {
	ttl := time.Duration(h.cfg.JWTExpirationHours) * time.Hour
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   !h.cfg.IsDevelopment(),
		SameSite: http.SameSiteLaxMode,
	})
}
