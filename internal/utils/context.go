package utils

import (
	"context"
	"net/http"
)

type contextKey string

const (
	UserEmailKey     contextKey = "user_email"
	CSRFTokenKey     contextKey = "csrf_token"
	AuthenticatedKey contextKey = "authenticated"
	IsAdminKey       contextKey = "is_admin"
)

// WithSession stores the authenticated user and their token on ctx
func WithSession(ctx context.Context, userEmail, csrfToken string) context.Context {
	ctx = context.WithValue(ctx, UserEmailKey, userEmail)
	ctx = context.WithValue(ctx, CSRFTokenKey, csrfToken)
	return context.WithValue(ctx, AuthenticatedKey, true)
}

// WithAdmin marks the request as coming from a verified administrator
func WithAdmin(ctx context.Context) context.Context {
	return context.WithValue(ctx, IsAdminKey, true)
}

// GetUserEmail extracts user email from request context
func GetUserEmail(r *http.Request) (string, bool) {
	userEmail, ok := r.Context().Value(UserEmailKey).(string)
	return userEmail, ok && userEmail != ""
}

// GetCSRFToken extracts CSRF token from request context
func GetCSRFToken(r *http.Request) (string, bool) {
	token, ok := r.Context().Value(CSRFTokenKey).(string)
	return token, ok && token != ""
}

// IsAuthenticated checks if user is authenticated
func IsAuthenticated(r *http.Request) bool {
	authenticated, ok := r.Context().Value(AuthenticatedKey).(bool)
	return ok && authenticated
}

// IsAdmin checks if user is admin from context
func IsAdmin(r *http.Request) bool {
	isAdmin, ok := r.Context().Value(IsAdminKey).(bool)
	return ok && isAdmin
}
