package main

import (
	"context"
	"fmt"
	"strings"
)

// SeedAdmins registers the administrators listed in ADMIN_EMAILS.
// Emails already registered are left alone.
func (app *App) SeedAdmins(ctx context.Context, emails []string) error {
	for _, email := range emails {
		email = strings.TrimSpace(email)

		v := NewValidator()
		v.ValidateRequired(email, "admin email").ValidateEmail(email, "admin email")
		if v.HasErrors() {
			return fmt.Errorf("seed admins: %s", v.ErrorString())
		}

		if err := app.Auth.GrantAdmin(ctx, email, "config"); err != nil {
			return fmt.Errorf("seed admin %s: %w", email, err)
		}
	}

	if len(emails) > 0 {
		app.Log.WithField("count", len(emails)).Debug("Seeded administrators from configuration")
	}
	return nil
}
