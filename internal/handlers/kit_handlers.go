package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"templateKitManager/internal/logger"
	"templateKitManager/internal/models"
	"templateKitManager/internal/services"
	"templateKitManager/internal/utils"
)

// multipartMemory is how much of a multipart body is held in memory before spilling to disk.
const multipartMemory = 8 << 20

// TokenHeader carries the request nonce when it is not sent as a form field.
const TokenHeader = "X-CSRF-Token"

// Authorizer checks that a request carries a valid token from an administrator
// and returns the administrator's email.
type Authorizer interface {
	Authorize(r *http.Request) (string, error)
}

// MediaLibrary resolves media library items by id
type MediaLibrary interface {
	GetAttachment(ctx context.Context, id int64) (*models.Attachment, error)
}

// KitHandlers serves the five kit actions.
type KitHandlers struct {
	auth     Authorizer
	store    *services.ArchiveStore
	catalog  *services.Catalog
	previews *services.PreviewResolver
	importer *services.ImportPipeline
	media    MediaLibrary
	log      *logger.Logger
}

// KitDeps groups the collaborators of KitHandlers
type KitDeps struct {
	Auth     Authorizer
	Store    *services.ArchiveStore
	Catalog  *services.Catalog
	Previews *services.PreviewResolver
	Importer *services.ImportPipeline
	Media    MediaLibrary
	Log      *logger.Logger
}

// NewKitHandlers creates new kit handlers
func NewKitHandlers(deps KitDeps) *KitHandlers {
	log := deps.Log
	if log == nil {
		log = logger.Discard()
	}
	return &KitHandlers{
		auth:     deps.Auth,
		store:    deps.Store,
		catalog:  deps.Catalog,
		previews: deps.Previews,
		importer: deps.Importer,
		media:    deps.Media,
		log:      log,
	}
}

// HandleUpload stores an uploaded kit archive (action upload_kit).
func (h *KitHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if !h.preauthorize(w, r) {
		return
	}
	h.upload(w, r, h.parseForm(w, r))
}

// preauthorize checks requests that carry the nonce in TokenHeader before any
// of the body is read. Form-only nonces are checked after parsing.
func (h *KitHandlers) preauthorize(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get(TokenHeader) == "" {
		return true
	}
	_, ok := h.authorize(w, r)
	return ok
}

// parseForm reads a multipart body once, capped at the upload limit plus the
// in-memory allowance. Later calls are no-ops.
func (h *KitHandlers) parseForm(w http.ResponseWriter, r *http.Request) error {
	if r.MultipartForm != nil {
		return nil
	}
	if limit := h.store.MaxSize(); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartMemory)
	}
	return r.ParseMultipartForm(multipartMemory)
}

func (h *KitHandlers) upload(w http.ResponseWriter, r *http.Request, parseErr error) {
	email, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var tooLarge *http.MaxBytesError
	if errors.As(parseErr, &tooLarge) {
		h.respondError(w, r, services.InvalidInput("File size exceeds the maximum allowed size."))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, r, services.InvalidInput("No file uploaded."))
		return
	}
	defer file.Close()

	if limit := h.store.MaxSize(); limit > 0 && header.Size > limit {
		h.respondError(w, r, services.InvalidInput("File size exceeds the maximum allowed size."))
		return
	}

	name, err := h.store.SaveArchive(file, header.Filename)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	data := map[string]interface{}{
		"filename": name,
		"message":  "Template kit uploaded successfully!",
	}

	if archivePath, err := h.store.ArchivePath(name); err == nil {
		extracted, err := h.previews.ExtractFromArchive(archivePath, name)
		if err != nil {
			h.log.WithError(err).WithField("kit", name).Warn("Could not extract preview from kit")
		}
		if extracted {
			if url, ok := h.previews.Resolve(name); ok {
				data["preview"] = url
			}
		}
	}

	h.log.WithFields(map[string]interface{}{
		"kit":   name,
		"user":  email,
		"bytes": header.Size,
	}).Info("Template kit uploaded")

	utils.RespondWithSuccess(w, data)
}

// HandleList returns the kit catalog (action get_kits).
func (h *KitHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r); !ok {
		return
	}

	kits, err := h.catalog.ListKits()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	utils.RespondWithSuccess(w, map[string]interface{}{"kits": kits})
}

// HandleImport imports every template of a stored kit (action import_kit).
func (h *KitHandlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	email, ok := h.authorize(w, r)
	if !ok {
		return
	}

	filename := strings.TrimSpace(r.FormValue("filename"))
	if filename == "" {
		h.respondError(w, r, services.InvalidInput("Invalid filename."))
		return
	}

	report, err := h.importer.Import(r.Context(), filename, email)
	if err != nil {
		if report != nil {
			h.log.WithFields(map[string]interface{}{
				"kit":     filename,
				"skipped": report.Skipped(),
			}).Warn("Template kit import produced nothing")
		}
		h.respondError(w, r, err)
		return
	}

	utils.RespondWithSuccess(w, map[string]interface{}{
		"message":  "Template kit imported successfully!",
		"imported": report.Imported,
		"skipped":  report.Skipped(),
	})
}

// HandleDelete removes a kit and its preview (action delete_kit).
func (h *KitHandlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	email, ok := h.authorize(w, r)
	if !ok {
		return
	}

	filename := strings.TrimSpace(r.FormValue("filename"))
	if filename == "" {
		h.respondError(w, r, services.InvalidInput("Invalid filename."))
		return
	}

	if err := h.store.DeleteArchive(filename); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.log.WithFields(map[string]interface{}{"kit": filename, "user": email}).Info("Template kit deleted")
	utils.RespondWithSuccess(w, map[string]interface{}{"message": "Template kit deleted successfully."})
}

// HandleImage sets a media library image as a kit's preview (action upload_image).
func (h *KitHandlers) HandleImage(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r); !ok {
		return
	}

	kitName := strings.TrimSpace(r.FormValue("kit_filename"))
	imageID, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("image_id")), 10, 64)
	if kitName == "" || err != nil || imageID <= 0 {
		h.respondError(w, r, services.InvalidInput("Invalid parameters."))
		return
	}
	if !h.store.Exists(kitName) {
		h.respondError(w, r, services.NewError(services.KindNotFound, "File not found.", nil))
		return
	}

	attachment, err := h.media.GetAttachment(r.Context(), imageID)
	if err != nil || !attachment.IsImage() {
		h.respondError(w, r, services.NewError(services.KindInvalidInput, "Invalid image.", err))
		return
	}

	url, err := h.previews.SetPreviewFromFile(services.SanitizeFileName(kitName), attachment.Path)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	utils.RespondWithSuccess(w, map[string]interface{}{
		"message":     "Image uploaded successfully!",
		"preview_url": url,
	})
}

// HandleAction dispatches the single AJAX endpoint on its "action" field.
func (h *KitHandlers) HandleAction(w http.ResponseWriter, r *http.Request) {
	var parseErr error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if !h.preauthorize(w, r) {
			return
		}
		parseErr = h.parseForm(w, r)
	}
	action := r.FormValue("action")

	switch strings.TrimPrefix(action, ActionPrefix) {
	case "upload_kit":
		h.upload(w, r, parseErr)
	case "get_kits":
		h.HandleList(w, r)
	case "import_kit":
		h.HandleImport(w, r)
	case "delete_kit":
		h.HandleDelete(w, r)
	case "upload_image":
		h.HandleImage(w, r)
	default:
		utils.RespondWithError(w, http.StatusBadRequest, services.KindInvalidInput.String(), "Unknown action.")
	}
}

// ActionPrefix is accepted in front of action names sent to HandleAction.
const ActionPrefix = "etkm_"

func (h *KitHandlers) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	email, err := h.auth.Authorize(r)
	if err != nil {
		h.log.WithError(err).WithFields(map[string]interface{}{
			"path":        r.URL.Path,
			"remote_addr": r.RemoteAddr,
		}).Warn("Unauthorized kit action")
		h.respondError(w, r, services.Unauthorized(err))
		return "", false
	}
	return email, true
}

func (h *KitHandlers) respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := services.KindOf(err)
	if kind == services.KindIOFailure || kind == services.KindHostRejected {
		h.log.WithError(err).WithField("path", r.URL.Path).Error("Kit action failed")
	}
	utils.RespondWithError(w, kind.HTTPStatus(), kind.String(), services.MessageOf(err))
}
