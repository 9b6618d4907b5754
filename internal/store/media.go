package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"templateKitManager/internal/models"
)

// AddAttachment registers a file in the media library and returns its id
func (s *Store) AddAttachment(ctx context.Context, a models.Attachment) (int64, error) {
	if strings.TrimSpace(a.Path) == "" {
		return 0, errors.New("attachment path is required")
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO attachments (path, url, mime_type, title) VALUES (?, ?, ?, ?)",
		a.Path, a.URL, a.MimeType, a.Title)
	if err != nil {
		return 0, WrapDatabaseError(ErrTypeQuery, "failed to insert attachment", err)
	}
	return res.LastInsertId()
}

// GetAttachment looks up a media library item by id
func (s *Store) GetAttachment(ctx context.Context, id int64) (*models.Attachment, error) {
	var a models.Attachment
	err := s.db.QueryRowContext(ctx,
		"SELECT id, path, url, mime_type, title, created_at FROM attachments WHERE id = ?", id).
		Scan(&a.ID, &a.Path, &a.URL, &a.MimeType, &a.Title, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("attachment", id)
	}
	if err != nil {
		return nil, WrapDatabaseError(ErrTypeQuery, "failed to load attachment", err)
	}
	return &a, nil
}
