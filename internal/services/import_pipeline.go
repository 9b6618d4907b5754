package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"templateKitManager/internal/logger"
	"templateKitManager/internal/models"
)

const scratchPrefix = "kit-import-"

// TemplateWriter persists an imported template and returns its record id.
type TemplateWriter interface {
	CreateTemplate(ctx context.Context, post models.TemplatePost) (int64, error)
}

// ImportPipeline unpacks a kit and writes every template definition it contains
// to the content store.
type ImportPipeline struct {
	store      *ArchiveStore
	writer     TemplateWriter
	scratchDir string
	log        *logger.Logger
}

func NewImportPipeline(store *ArchiveStore, writer TemplateWriter, scratchDir string, log *logger.Logger) *ImportPipeline {
	if scratchDir == "" {
		scratchDir = os.TempDir()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &ImportPipeline{store: store, writer: writer, scratchDir: scratchDir, log: log}
}

// Import extracts the named kit into a private scratch directory, scans it for
// template definitions and writes each valid one. The scratch directory is
// always removed. When nothing could be imported the returned report still
// lists what was scanned and the error is NoValidTemplates.
func (p *ImportPipeline) Import(ctx context.Context, kitName, author string) (*models.ImportReport, error) {
	archivePath, err := p.store.ArchivePath(kitName)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(archivePath); err != nil || !info.Mode().IsRegular() {
		return nil, newError(KindNotFound, "File not found.", err)
	}

	zr, err := openArchive(archivePath)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	scratch := filepath.Join(p.scratchDir, scratchPrefix+uuid.NewString())
	if err := os.MkdirAll(scratch, 0755); err != nil {
		return nil, newError(KindIOFailure, "Could not create a temporary directory.", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			p.log.WithError(err).WithField("scratch", scratch).Warn("Failed to remove import scratch directory")
		}
	}()

	if err := p.extract(ctx, &zr.Reader, scratch, kitName); err != nil {
		return nil, err
	}

	report := &models.ImportReport{
		Kit:      filepath.Base(archivePath),
		Imported: []models.ImportedTemplate{},
		Results:  []models.ScanResult{},
	}

	files, err := definitionFiles(scratch)
	if err != nil {
		return nil, newError(KindIOFailure, "Could not read the extracted kit.", err)
	}

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return report, newError(KindIOFailure, "Import was cancelled.", err)
		}
		result := p.importFile(ctx, scratch, rel, author)
		report.Results = append(report.Results, result)
		if result.Template != nil {
			report.Imported = append(report.Imported, *result.Template)
		}
	}

	p.log.WithFields(map[string]interface{}{
		"kit":      report.Kit,
		"scanned":  len(report.Results),
		"imported": len(report.Imported),
	}).Info("Template kit import finished")

	if len(report.Imported) == 0 {
		return report, newError(KindNoValidTemplates, "No valid templates found in the ZIP file.", nil)
	}
	return report, nil
}

// openArchive opens a kit ZIP. Entries with unsafe paths are tolerated here
// and skipped during extraction.
func openArchive(archivePath string) (*zip.ReadCloser, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil && !(errors.Is(err, zip.ErrInsecurePath) && zr != nil) {
		return nil, newError(KindCorruptArchive, "Invalid ZIP file.", err)
	}
	return zr, nil
}

func (p *ImportPipeline) extract(ctx context.Context, zr *zip.Reader, dest, kitName string) error {
	root := filepath.Clean(dest) + string(os.PathSeparator)

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return newError(KindIOFailure, "Import was cancelled.", err)
		}

		target := filepath.Join(dest, filepath.FromSlash(f.Name))
		if !strings.HasPrefix(target+string(os.PathSeparator), root) || target == filepath.Clean(dest) {
			p.log.WithFields(map[string]interface{}{
				"kit":   kitName,
				"entry": f.Name,
			}).Warn("Skipping archive entry outside the extraction directory")
			continue
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return newError(KindIOFailure, "Could not extract the ZIP file.", err)
			}
			continue
		}
		if !f.Mode().IsRegular() {
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return newError(KindIOFailure, "Could not extract the ZIP file.", err)
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return newError(KindCorruptArchive, "Invalid ZIP file.", err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return newError(KindIOFailure, "Could not extract the ZIP file.", err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return newError(KindIOFailure, "Could not extract the ZIP file.", err)
		}
		return newError(KindCorruptArchive, "Invalid ZIP file.", err)
	}
	if err := out.Close(); err != nil {
		return newError(KindIOFailure, "Could not extract the ZIP file.", err)
	}
	return nil
}

// definitionFiles lists every .json file under root in lexical walk order,
// relative to root and slash separated.
func definitionFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".json") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	return files, err
}

func (p *ImportPipeline) importFile(ctx context.Context, root, rel, author string) models.ScanResult {
	result := models.ScanResult{File: rel}

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		result.Outcome = models.OutcomeSkipped
		result.Reason = fmt.Sprintf("unreadable: %v", err)
		return result
	}

	def, err := parseDefinition(data)
	if err != nil {
		result.Outcome = models.OutcomeSkipped
		result.Reason = err.Error()
		p.log.WithField("file", rel).WithError(err).Debug("Skipping file that is not a template definition")
		return result
	}

	id, err := p.writer.CreateTemplate(ctx, models.TemplatePost{
		Title:   def.Title,
		Type:    def.Type,
		Content: string(def.Content),
		Author:  author,
	})
	if err != nil {
		result.Outcome = models.OutcomeFailed
		result.Reason = newError(KindHostRejected, "The content store rejected the template.", err).Error()
		p.log.WithField("file", rel).WithError(err).Error("Failed to create template")
		return result
	}

	result.Outcome = models.OutcomeImported
	title := def.Title
	if def.Untitled {
		title = definitionFileTitle(rel)
	}
	result.Template = &models.ImportedTemplate{Title: title, Type: def.Type, ID: id}
	return result
}

// definitionFileTitle names an untitled template after its file: "templates/Footer.JSON" is "Footer".
func definitionFileTitle(rel string) string {
	base := path.Base(rel)
	if ext := path.Ext(base); strings.EqualFold(ext, ".json") {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// parseDefinition validates raw JSON and returns the definition with defaults
// applied and its content compacted.
func parseDefinition(data []byte) (*models.TemplateDefinition, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("invalid JSON")
	}
	if err := ValidateTemplateDefinition(data); err != nil {
		return nil, err
	}

	var def models.TemplateDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("invalid template definition: %w", err)
	}
	def.ApplyDefaults()

	var compact bytes.Buffer
	if err := json.Compact(&compact, def.Content); err != nil {
		return nil, fmt.Errorf("invalid template content: %w", err)
	}
	def.Content = compact.Bytes()
	return &def, nil
}
