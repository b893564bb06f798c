package handlers

import (
	"net/http"
	"time"

	"github.com/Dosada05/faculty-league/middleware"
	"github.com/Dosada05/faculty-league/services"
	"github.com/google/uuid"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

type AuthHandler struct {
	authService       services.AuthService
	secureCookies     bool
	postLoginRedirect string
}

func NewAuthHandler(authService services.AuthService, secureCookies bool, postLoginRedirect string) *AuthHandler {
	if postLoginRedirect == "" {
		postLoginRedirect = "/"
	}
	return &AuthHandler{
		authService:       authService,
		secureCookies:     secureCookies,
		postLoginRedirect: postLoginRedirect,
	}
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, name, value, path string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		cookie.MaxAge = -1
	} else {
		cookie.Expires = expires
	}
	http.SetCookie(w, cookie)
}

// GoogleLogin redirects to the Google consent screen with a one-time state.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	url, err := h.authService.AuthCodeURL(state)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.setCookie(w, oauthStateCookie, state, "/auth", time.Now().Add(oauthStateTTL))
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if !h.authService.GoogleEnabled() {
		mapServiceErrorToHTTP(w, r, services.ErrOAuthNotConfigured)
		return
	}
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		unauthorizedResponse(w, r, "invalid oauth state")
		return
	}
	h.setCookie(w, oauthStateCookie, "", "/auth", time.Time{})

	if reason := r.URL.Query().Get("error"); reason != "" {
		unauthorizedResponse(w, r, "google sign-in was cancelled: "+reason)
		return
	}

	user, err := h.authService.CompleteGoogleLogin(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	token, expiresAt, err := h.authService.IssueToken(user)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	h.setCookie(w, middleware.SessionCookieName, token, "/", expiresAt)
	http.Redirect(w, r, h.postLoginRedirect, http.StatusFound)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	token, expiresAt, err := h.authService.IssueToken(user)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	h.setCookie(w, middleware.SessionCookieName, token, "/", expiresAt)

	response := jsonResponse{
		"token":      token,
		"expires_at": expiresAt,
		"user":       user,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.setCookie(w, middleware.SessionCookieName, "", "/", time.Time{})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())
	user, err := h.authService.CurrentUser(r.Context(), identity)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
