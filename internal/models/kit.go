package models

import (
	"strings"
	"time"
)

// KitArchive is a stored kit ZIP file
type KitArchive struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// KitRecord is the presentation view of a kit served to the admin UI.
type KitRecord struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Size        string `json:"size"`
	Date        string `json:"date"`
	Timestamp   int64  `json:"timestamp"`
	Preview     string `json:"preview,omitempty"`
}

// Attachment is a media library item that can be used as a kit preview
type Attachment struct {
	ID        int64     `json:"id"`
	Path      string    `json:"path"`
	URL       string    `json:"url"`
	MimeType  string    `json:"mime_type"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// IsImage reports whether the attachment is a JPEG or PNG image
func (a *Attachment) IsImage() bool {
	switch strings.ToLower(a.MimeType) {
	case "image/jpeg", "image/png":
		return true
	}
	return false
}
