package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"golang.org/x/oauth2"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"templateKitManager/internal/handlers"
	"templateKitManager/internal/models"
	"templateKitManager/internal/services"
	"templateKitManager/internal/utils"
)

const sessionName = "auth-session"

var errNoSession = errors.New("no session")

// readSession decodes the session data stored in the auth cookie.
func (app *App) readSession(r *http.Request) (*sessions.Session, *models.SessionData, error) {
	if app.SessionStore == nil {
		return nil, nil, errNoSession
	}
	session, err := app.SessionStore.Get(r, sessionName)
	if err != nil {
		return session, nil, err
	}

	sessionDataJSON, ok := session.Values["session_data"].(string)
	if !ok || sessionDataJSON == "" {
		return session, nil, errNoSession
	}

	var sessionData models.SessionData
	if err := json.Unmarshal([]byte(sessionDataJSON), &sessionData); err != nil {
		return session, nil, err
	}
	return session, &sessionData, nil
}

// sessionAuthorizer checks the session, the submitted nonce and admin status.
type sessionAuthorizer struct {
	app *App
}

func (a *sessionAuthorizer) Authorize(r *http.Request) (string, error) {
	_, sessionData, err := a.app.readSession(r)
	if err != nil {
		return "", services.Unauthorized(err)
	}

	provided := r.Header.Get(handlers.TokenHeader)
	if provided == "" {
		provided = r.FormValue("nonce")
	}

	if err := a.app.Auth.RequireAdmin(r.Context(), sessionData, a.app.Config.SessionMaxAge, provided); err != nil {
		return "", err
	}
	return sessionData.UserEmail, nil
}

func (app *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := GenerateSecureToken(16)
	if err != nil {
		app.Log.WithError(err).Error("Failed to generate OAuth state")
		http.Error(w, "Failed to generate state", http.StatusInternalServerError)
		return
	}

	session, err := app.SessionStore.Get(r, sessionName)
	if err != nil {
		// Corrupted cookie; start over
		session, err = app.SessionStore.New(r, sessionName)
		if err != nil {
			app.Log.WithError(err).Error("Failed to create new session")
			http.Error(w, "Session error", http.StatusInternalServerError)
			return
		}
	}

	for k := range session.Values {
		delete(session.Values, k)
	}
	session.Values["state"] = state

	if err := session.Save(r, w); err != nil {
		app.Log.WithError(err).Error("Failed to save session")
		http.Error(w, "Session error", http.StatusInternalServerError)
		return
	}

	url := app.OAuthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.SetAuthURLParam("prompt", "select_account"))
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (app *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, sessionData, err := app.readSession(r)
	if sessionData != nil {
		app.Permissions.InvalidateUser(sessionData.UserEmail)
	}
	if err != nil && !errors.Is(err, errNoSession) {
		app.Log.WithError(err).Debug("Failed to read session during logout")
	}

	if session != nil {
		for k := range session.Values {
			delete(session.Values, k)
		}
		session.Options.MaxAge = -1
		session.Save(r, w)
	}

	// Also clear the cookie directly in case the session could not be decoded
	http.SetCookie(w, &http.Cookie{
		Name:     sessionName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   app.Config.Environment == "production",
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

func (app *App) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	session, err := app.SessionStore.Get(r, sessionName)
	if err != nil {
		app.Log.WithError(err).Warn("Failed to get session in OAuth callback")
		http.Error(w, "Session error - please try logging in again", http.StatusBadRequest)
		return
	}

	state, ok := session.Values["state"].(string)
	if !ok || state == "" || state != r.URL.Query().Get("state") {
		app.Log.Warn("OAuth state mismatch")
		http.Error(w, "Invalid state parameter - please try logging in again", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Code not found", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	token, err := app.OAuthConfig.Exchange(ctx, code)
	if err != nil {
		app.Log.WithError(err).Error("Failed to exchange OAuth token")
		http.Error(w, "Failed to exchange token", http.StatusInternalServerError)
		return
	}

	oauth2Service, err := oauth2api.NewService(ctx, option.WithHTTPClient(app.OAuthConfig.Client(ctx, token)))
	if err != nil {
		app.Log.WithError(err).Error("Failed to create OAuth2 service")
		http.Error(w, "Failed to create OAuth2 service", http.StatusInternalServerError)
		return
	}

	userInfo, err := oauth2Service.Userinfo.Get().Do()
	if err != nil {
		app.Log.WithError(err).Error("Failed to get user info")
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}

	csrfToken, err := GenerateCSRFToken()
	if err != nil {
		app.Log.WithError(err).Error("Failed to generate CSRF token")
		http.Error(w, "Security token error", http.StatusInternalServerError)
		return
	}

	sessionDataJSON, err := json.Marshal(models.SessionData{
		UserEmail:     userInfo.Email,
		Authenticated: true,
		CSRFToken:     csrfToken,
		CreatedAt:     time.Now(),
	})
	if err != nil {
		http.Error(w, "Session processing error", http.StatusInternalServerError)
		return
	}

	delete(session.Values, "state")
	session.Values["session_data"] = string(sessionDataJSON)
	if err := session.Save(r, w); err != nil {
		app.Log.WithError(err).Error("Failed to save session to cookie")
		http.Error(w, "Session error", http.StatusInternalServerError)
		return
	}

	app.Log.WithField("user", userInfo.Email).Info("User logged in")
	http.Redirect(w, r, "/admin", http.StatusTemporaryRedirect)
}

func (app *App) handleHome(w http.ResponseWriter, r *http.Request) {
	data := &TemplateData{}
	if _, sessionData, err := app.readSession(r); err == nil && sessionData.IsValid(app.Config.SessionMaxAge) {
		data.UserEmail = sessionData.UserEmail
		data.IsAuthenticated = true
	}
	app.renderPage(w, "home", data)
}

func (app *App) handleAdmin(w http.ResponseWriter, r *http.Request) {
	userEmail, ok := utils.RequireAuthentication(w, r)
	if !ok {
		return
	}

	isAdmin, err := app.Auth.IsAdmin(r.Context(), userEmail)
	if err != nil {
		app.Log.WithError(err).Error("Failed to check admin status")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !isAdmin {
		http.Error(w, "Insufficient permissions.", http.StatusForbidden)
		return
	}

	data, err := app.BuildTemplateData(r, nil)
	if err != nil {
		http.Error(w, "Security token error", http.StatusInternalServerError)
		return
	}
	data.IsAdmin = true
	app.renderPage(w, "admin", data)
}
