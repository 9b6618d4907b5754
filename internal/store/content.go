package store

import (
	"context"
	"database/sql"
	"errors"

	"templateKitManager/internal/models"
)

// Template is a stored template post with its metadata
type Template struct {
	ID     int64
	Title  string
	Status string
	Author string
	Meta   map[string]string
}

// CreateTemplate inserts a published library post and its builder metadata in one transaction.
func (s *Store) CreateTemplate(ctx context.Context, post models.TemplatePost) (int64, error) {
	var id int64
	err := s.WithTransaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO posts (title, post_type, status, author)
			VALUES (?, ?, ?, ?)
		`, post.Title, models.TemplatePostType, models.PostStatusPublish, post.Author)
		if err != nil {
			return WrapDatabaseError(ErrTypeQuery, "failed to insert template post", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return WrapDatabaseError(ErrTypeQuery, "failed to read template id", err)
		}

		meta := [][2]string{
			{models.MetaTemplateData, post.Content},
			{models.MetaTemplateType, post.Type},
			{models.MetaEditMode, models.EditModeBuilder},
		}
		for _, kv := range meta {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO postmeta (post_id, meta_key, meta_value) VALUES (?, ?, ?)",
				id, kv[0], kv[1]); err != nil {
				return WrapDatabaseError(ErrTypeQuery, "failed to insert template meta", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetTemplate loads a template post by id
func (s *Store) GetTemplate(ctx context.Context, id int64) (*Template, error) {
	t := &Template{ID: id, Meta: make(map[string]string)}
	err := s.db.QueryRowContext(ctx,
		"SELECT title, status, author FROM posts WHERE id = ? AND post_type = ?",
		id, models.TemplatePostType).Scan(&t.Title, &t.Status, &t.Author)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("template", id)
	}
	if err != nil {
		return nil, WrapDatabaseError(ErrTypeQuery, "failed to load template", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT meta_key, meta_value FROM postmeta WHERE post_id = ?", id)
	if err != nil {
		return nil, WrapDatabaseError(ErrTypeQuery, "failed to load template meta", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, WrapDatabaseError(ErrTypeQuery, "failed to scan template meta", err)
		}
		t.Meta[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, WrapDatabaseError(ErrTypeQuery, "failed to iterate template meta", err)
	}
	return t, nil
}

// CountTemplates returns how many template posts exist
func (s *Store) CountTemplates(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts WHERE post_type = ?", models.TemplatePostType).Scan(&n)
	if err != nil {
		return 0, WrapDatabaseError(ErrTypeQuery, "failed to count templates", err)
	}
	return n, nil
}
