package services

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"templateKitManager/internal/logger"
)

// previewExtensions are tried in this order when resolving a kit's preview.
var previewExtensions = []string{"jpg", "png", "jpeg"}

// archivePreviewNames are the lowercased entry base names recognised as a bundled
// preview. The first match in archive order wins.
var archivePreviewNames = map[string]bool{
	"preview.jpg":    true,
	"preview.png":    true,
	"thumbnail.jpg":  true,
	"thumbnail.png":  true,
	"screenshot.jpg": true,
	"screenshot.png": true,
}

const maxPreviewSize = 20 << 20

// PreviewResolver manages the single preview image each kit may have.
type PreviewResolver struct {
	store *ArchiveStore
	log   *logger.Logger
}

func NewPreviewResolver(store *ArchiveStore, log *logger.Logger) *PreviewResolver {
	if log == nil {
		log = logger.Discard()
	}
	return &PreviewResolver{store: store, log: log}
}

// Resolve returns the URL of the kit's preview, if one exists.
func (p *PreviewResolver) Resolve(kitName string) (string, bool) {
	base := BaseName(kitName)
	for _, ext := range previewExtensions {
		file := base + "." + ext
		info, err := os.Stat(filepath.Join(p.store.PreviewDir(), file))
		if err == nil && info.Mode().IsRegular() {
			return p.store.PreviewURL(file), true
		}
	}
	return "", false
}

// SetPreview replaces the kit's preview with the image read from r.
// Old previews are removed whatever their extension.
func (p *PreviewResolver) SetPreview(kitName string, r io.Reader, ext string) (string, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if !isPreviewExtension(ext) {
		return "", InvalidInput("Invalid image.")
	}
	if _, err := p.store.EnsureDirectory(); err != nil {
		return "", err
	}

	dir := p.store.PreviewDir()
	base := BaseName(kitName)
	file := base + "." + ext

	tmp, err := os.CreateTemp(dir, tempFilePrefix+"*")
	if err != nil {
		return "", newError(KindIOFailure, "Failed to save preview image.", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", newError(KindIOFailure, "Failed to save preview image.", err)
	}
	if err := tmp.Close(); err != nil {
		return "", newError(KindIOFailure, "Failed to save preview image.", err)
	}

	if err := removePreviewFiles(dir, base); err != nil {
		return "", newError(KindIOFailure, "Failed to replace preview image.", err)
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, file)); err != nil {
		return "", newError(KindIOFailure, "Failed to save preview image.", err)
	}
	if err := os.Chmod(filepath.Join(dir, file), 0644); err != nil {
		p.log.WithError(err).WithField("preview", file).Warn("Failed to set preview permissions")
	}

	return p.store.PreviewURL(file), nil
}

// SetPreviewFromFile copies an image already on disk, e.g. a media library item.
func (p *PreviewResolver) SetPreviewFromFile(kitName, srcPath string) (string, error) {
	ext := strings.TrimPrefix(filepath.Ext(srcPath), ".")
	if !isPreviewExtension(strings.ToLower(ext)) {
		return "", InvalidInput("Invalid image.")
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return "", newError(KindNotFound, "Image file not found.", err)
	}
	defer src.Close()

	return p.SetPreview(kitName, src, ext)
}

// ExtractFromArchive installs the first bundled preview image found in the archive.
// It reports whether a preview was installed.
func (p *PreviewResolver) ExtractFromArchive(archivePath, kitName string) (bool, error) {
	zr, err := openArchive(archivePath)
	if err != nil {
		return false, err
	}
	defer zr.Close()

	for _, f := range zr.File {
		entry := strings.ToLower(path.Base(f.Name))
		if f.FileInfo().IsDir() || !archivePreviewNames[entry] {
			continue
		}
		if f.UncompressedSize64 > maxPreviewSize {
			p.log.WithFields(map[string]interface{}{
				"kit":   kitName,
				"entry": f.Name,
				"size":  f.UncompressedSize64,
			}).Warn("Bundled preview too large, skipping")
			continue
		}

		rc, err := f.Open()
		if err != nil {
			p.log.WithError(err).WithField("entry", f.Name).Warn("Failed to open bundled preview")
			continue
		}
		url, err := p.SetPreview(kitName, rc, path.Ext(entry))
		rc.Close()
		if err != nil {
			return false, err
		}

		p.log.WithFields(map[string]interface{}{
			"kit":     kitName,
			"entry":   f.Name,
			"preview": url,
		}).Info("Preview extracted from kit")
		return true, nil
	}
	return false, nil
}

func removePreviewFiles(dir, base string) error {
	var errs []error
	for _, ext := range previewExtensions {
		err := os.Remove(filepath.Join(dir, base+"."+ext))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func isPreviewExtension(ext string) bool {
	for _, e := range previewExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
