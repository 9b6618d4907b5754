package models

import "time"

// Admin is a user allowed to manage template kits
type Admin struct {
	Email     string    `json:"email"`
	AddedBy   string    `json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionData is stored JSON-encoded in the auth cookie
type SessionData struct {
	UserEmail     string    `json:"user_email"`
	CSRFToken     string    `json:"csrf_token"`
	Authenticated bool      `json:"authenticated"`
	CreatedAt     time.Time `json:"created_at"`
}

// IsExpired checks if the session has outlived maxAge seconds
func (s *SessionData) IsExpired(maxAge int) bool {
	return time.Since(s.CreatedAt) > time.Duration(maxAge)*time.Second
}

// IsValid reports whether the session is authenticated and still fresh
func (s *SessionData) IsValid(maxAge int) bool {
	return s.Authenticated && s.CSRFToken != "" && !s.IsExpired(maxAge)
}
