package services

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"templateKitManager/internal/logger"
	"templateKitManager/internal/models"
)

const (
	KitDirName     = "template-kits"
	PreviewDirName = "previews"
	// IndexMarker keeps the static file server from listing the directory.
	IndexMarker = "index.html"

	archiveExt      = ".zip"
	tempFilePrefix  = ".upload-"
	maxNameAttempts = 1000

	generatedKitPrefix = "kit-"
)

// ArchiveStore keeps kit archives and their previews under {uploads}/template-kits.
type ArchiveStore struct {
	dir     string
	baseURL string
	maxSize int64
	log     *logger.Logger
}

// NewArchiveStore creates a store rooted at uploadsRoot and served from uploadsURL.
// maxSize <= 0 disables the size limit.
func NewArchiveStore(uploadsRoot, uploadsURL string, maxSize int64, log *logger.Logger) *ArchiveStore {
	if log == nil {
		log = logger.Discard()
	}
	return &ArchiveStore{
		dir:     filepath.Join(uploadsRoot, KitDirName),
		baseURL: strings.TrimRight(uploadsURL, "/") + "/" + KitDirName,
		maxSize: maxSize,
		log:     log,
	}
}

// Dir returns the archive directory
func (s *ArchiveStore) Dir() string { return s.dir }

// PreviewDir returns the preview image directory
func (s *ArchiveStore) PreviewDir() string { return filepath.Join(s.dir, PreviewDirName) }

// MaxSize returns the upload limit in bytes
func (s *ArchiveStore) MaxSize() int64 { return s.maxSize }

// EnsureDirectory creates the archive tree and its index markers. It is idempotent.
func (s *ArchiveStore) EnsureDirectory() (string, error) {
	for _, dir := range []string{s.dir, s.PreviewDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", newError(KindIOFailure, "Could not create the template kit directory.", err)
		}
		marker := filepath.Join(dir, IndexMarker)
		if _, err := os.Stat(marker); errors.Is(err, fs.ErrNotExist) {
			if err := os.WriteFile(marker, nil, 0644); err != nil {
				return "", newError(KindIOFailure, "Could not create the template kit directory.", err)
			}
		}
	}
	return s.dir, nil
}

// SaveArchive stores the bytes from r under a unique name derived from proposedName
// and returns the final name. Taken names get a numeric suffix: kit.zip, kit-1.zip, kit-2.zip.
func (s *ArchiveStore) SaveArchive(r io.Reader, proposedName string) (string, error) {
	name, err := archiveName(proposedName)
	if err != nil {
		return "", err
	}

	dir, err := s.EnsureDirectory()
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, tempFilePrefix+"*")
	if err != nil {
		return "", newError(KindIOFailure, "Failed to save the uploaded file.", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := s.copyLimited(tmp, r); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", newError(KindIOFailure, "Failed to save the uploaded file.", err)
	}

	for n := 0; n < maxNameAttempts; n++ {
		candidate := numberedName(name, n)
		target := filepath.Join(dir, candidate)

		// Link refuses to overwrite, so the name check and the move are one step.
		err := os.Link(tmpPath, target)
		if err == nil {
			s.log.WithFields(map[string]interface{}{
				"kit":      candidate,
				"proposed": proposedName,
			}).Info("Template kit stored")
			return candidate, nil
		}
		if errors.Is(err, fs.ErrExist) {
			continue
		}

		// Filesystems without hard links
		if _, statErr := os.Lstat(target); statErr == nil {
			continue
		}
		if err := os.Rename(tmpPath, target); err != nil {
			return "", newError(KindIOFailure, "Failed to save the uploaded file.", err)
		}
		return candidate, nil
	}

	return "", newError(KindIOFailure, "Failed to save the uploaded file.",
		fmt.Errorf("no free name for %s after %d attempts", name, maxNameAttempts))
}

func (s *ArchiveStore) copyLimited(dst io.Writer, src io.Reader) error {
	if s.maxSize <= 0 {
		if _, err := io.Copy(dst, src); err != nil {
			return newError(KindIOFailure, "Failed to save the uploaded file.", err)
		}
		return nil
	}

	written, err := io.CopyN(dst, src, s.maxSize+1)
	if err != nil && !errors.Is(err, io.EOF) {
		return newError(KindIOFailure, "Failed to save the uploaded file.", err)
	}
	if written > s.maxSize {
		return InvalidInput("File size exceeds the maximum allowed size.")
	}
	return nil
}

// DeleteArchive removes an archive and any preview sharing its base name.
func (s *ArchiveStore) DeleteArchive(name string) error {
	archivePath, err := s.ArchivePath(name)
	if err != nil {
		return err
	}

	info, err := os.Stat(archivePath)
	if err != nil || info.IsDir() {
		return newError(KindNotFound, "File not found.", err)
	}

	if err := os.Remove(archivePath); err != nil {
		return newError(KindIOFailure, "Failed to delete the template kit.", err)
	}

	if err := removePreviewFiles(s.PreviewDir(), BaseName(filepath.Base(archivePath))); err != nil {
		s.log.WithError(err).WithField("kit", name).Warn("Failed to remove kit preview")
	}
	return nil
}

// ListArchives returns the kit archives directly inside the store directory.
// A missing directory yields an empty list.
func (s *ArchiveStore) ListArchives() ([]models.KitArchive, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.KitArchive{}, nil
	}
	if err != nil {
		return nil, newError(KindIOFailure, "Could not read the template kit directory.", err)
	}

	archives := make([]models.KitArchive, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || !isArchiveName(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		archives = append(archives, models.KitArchive{
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return archives, nil
}

// ArchivePath resolves a client-supplied kit name to a path inside the store.
func (s *ArchiveStore) ArchivePath(name string) (string, error) {
	clean := SanitizeFileName(name)
	if clean == "" || !isArchiveName(clean) {
		return "", InvalidInput("Invalid filename.")
	}
	return filepath.Join(s.dir, clean), nil
}

// Exists reports whether the named archive is present
func (s *ArchiveStore) Exists(name string) bool {
	p, err := s.ArchivePath(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// URL returns the public URL of a stored archive
func (s *ArchiveStore) URL(name string) string {
	return s.baseURL + "/" + url.PathEscape(name)
}

// PreviewURL returns the public URL of a preview file
func (s *ArchiveStore) PreviewURL(file string) string {
	return s.baseURL + "/" + PreviewDirName + "/" + url.PathEscape(file)
}

// archiveName checks the extension on the name as uploaded, then cleans the
// base. A base with nothing left after cleaning gets a generated one.
func archiveName(proposed string) (string, error) {
	raw := path.Base(strings.ReplaceAll(strings.TrimSpace(proposed), `\`, "/"))
	rawBase, ext := splitExt(raw)
	if strings.TrimSpace(rawBase) == "" || !strings.EqualFold(ext, archiveExt) {
		return "", InvalidInput("Only ZIP files are allowed.")
	}

	base := SanitizeFileName(rawBase)
	if base == "" {
		base = generatedKitPrefix + uuid.NewString()
	}
	return base + archiveExt, nil
}

func isArchiveName(name string) bool {
	if strings.HasPrefix(name, ".") || name == IndexMarker {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), archiveExt)
}
