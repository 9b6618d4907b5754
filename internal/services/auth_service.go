package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"templateKitManager/internal/models"
	"templateKitManager/internal/utils"
)

// AdminRegistry answers whether an email belongs to a kit administrator.
type AdminRegistry interface {
	IsAdmin(ctx context.Context, email string) (bool, error)
	AddAdmin(ctx context.Context, email, addedBy string) error
}

// AuthService handles the admin checks every kit action goes through
type AuthService struct {
	admins AdminRegistry
	cache  *utils.PermissionCache
}

// NewAuthService creates a new authentication service. cache may be nil.
func NewAuthService(admins AdminRegistry, cache *utils.PermissionCache) *AuthService {
	return &AuthService{admins: admins, cache: cache}
}

var (
	ErrInvalidSession = errors.New("invalid session")
	ErrExpiredSession = errors.New("session expired")
	ErrTokenMismatch  = errors.New("security token mismatch")
	ErrNotAdmin       = errors.New("user is not an administrator")
)

// ValidateSession checks that the session is present, authenticated and not expired
func (s *AuthService) ValidateSession(sessionData *models.SessionData, maxAge int) error {
	if sessionData == nil || !sessionData.Authenticated || sessionData.CSRFToken == "" {
		return ErrInvalidSession
	}
	if sessionData.IsExpired(maxAge) {
		return ErrExpiredSession
	}
	return nil
}

// VerifyToken compares the submitted anti-forgery token with the session's in constant time.
func (s *AuthService) VerifyToken(sessionData *models.SessionData, provided string) error {
	if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(sessionData.CSRFToken)) != 1 {
		return ErrTokenMismatch
	}
	return nil
}

// IsAdmin reports whether email may manage template kits. Results are cached.
func (s *AuthService) IsAdmin(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, nil
	}
	if s.cache != nil {
		if isAdmin, ok := s.cache.GetAdminStatus(email); ok {
			return isAdmin, nil
		}
	}

	isAdmin, err := s.admins.IsAdmin(ctx, email)
	if err != nil {
		return false, err
	}
	if s.cache != nil {
		s.cache.SetAdminStatus(email, isAdmin)
	}
	return isAdmin, nil
}

// RequireAdmin runs the full session, token and role check.
func (s *AuthService) RequireAdmin(ctx context.Context, sessionData *models.SessionData, maxAge int, providedToken string) error {
	if err := s.ValidateSession(sessionData, maxAge); err != nil {
		return Unauthorized(err)
	}
	if err := s.VerifyToken(sessionData, providedToken); err != nil {
		return Unauthorized(err)
	}
	isAdmin, err := s.IsAdmin(ctx, sessionData.UserEmail)
	if err != nil {
		return Unauthorized(err)
	}
	if !isAdmin {
		return Unauthorized(ErrNotAdmin)
	}
	return nil
}

// GrantAdmin registers a new administrator and drops any stale cached answer.
func (s *AuthService) GrantAdmin(ctx context.Context, email, addedBy string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return InvalidInput("Email is required.")
	}
	if err := s.admins.AddAdmin(ctx, email, addedBy); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.InvalidateUser(email)
	}
	return nil
}
