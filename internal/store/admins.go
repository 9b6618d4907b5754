package store

import (
	"context"
	"strings"

	"templateKitManager/internal/models"
)

// IsAdmin reports whether email is registered as an administrator
func (s *Store) IsAdmin(ctx context.Context, email string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM admins WHERE email = ?", strings.ToLower(email)).Scan(&count)
	if err != nil {
		return false, WrapDatabaseError(ErrTypeQuery, "failed to check admin status", err)
	}
	return count > 0, nil
}

// AddAdmin registers email as an administrator. Adding an existing admin is a no-op.
func (s *Store) AddAdmin(ctx context.Context, email, addedBy string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO admins (email, added_by) VALUES (?, ?)",
		strings.ToLower(strings.TrimSpace(email)), addedBy)
	if err != nil {
		return WrapDatabaseError(ErrTypeQuery, "failed to add admin", err)
	}
	return nil
}

// RemoveAdmin revokes administrator access
func (s *Store) RemoveAdmin(ctx context.Context, email string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM admins WHERE email = ?", strings.ToLower(email))
	if err != nil {
		return WrapDatabaseError(ErrTypeQuery, "failed to remove admin", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("admin", email)
	}
	return nil
}

// ListAdmins returns all administrators ordered by email
func (s *Store) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT email, added_by, created_at FROM admins ORDER BY email")
	if err != nil {
		return nil, WrapDatabaseError(ErrTypeQuery, "failed to list admins", err)
	}
	defer rows.Close()

	admins := []models.Admin{}
	for rows.Next() {
		var a models.Admin
		if err := rows.Scan(&a.Email, &a.AddedBy, &a.CreatedAt); err != nil {
			return nil, WrapDatabaseError(ErrTypeQuery, "failed to scan admin", err)
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}
