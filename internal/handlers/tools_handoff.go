package handlers

import (
	"io"
	"net/http"

	"templateKitManager/internal/logger"
	"templateKitManager/internal/services"
)

const (
	ToolsPage         = "elementor-tools"
	ToolsUploadAction = "upload_kit"
)

// DeepLinkHandoff decides whether a stored kit may be handed to the tools
// page uploader.
type DeepLinkHandoff interface {
	AttemptDeepLinkHandoff(kitName string) bool
}

// ArchiveHandoff allows the handoff for any kit present in the store.
type ArchiveHandoff struct {
	Store *services.ArchiveStore
}

func (a ArchiveHandoff) AttemptDeepLinkHandoff(kitName string) bool {
	return a.Store != nil && a.Store.Exists(kitName)
}

// PageRenderer renders a named page template
type PageRenderer interface {
	Render(w io.Writer, name string, data interface{}) error
}

// ToolsPageData is rendered by the tools page template
type ToolsPageData struct {
	UserEmail string
	CSRFToken string
	AjaxURL   string
	Handoff   *HandoffData
}

// HandoffData describes the kit the page script should load into the uploader
type HandoffData struct {
	Filename string
	URL      string
}

// ToolsHandler serves the tools page and its kit deep link.
type ToolsHandler struct {
	auth    Authorizer
	store   *services.ArchiveStore
	handoff DeepLinkHandoff
	pages   PageRenderer
	ajaxURL string
	log     *logger.Logger
}

// NewToolsHandler creates the tools page handler. A nil handoff disables deep links.
func NewToolsHandler(auth Authorizer, store *services.ArchiveStore, handoff DeepLinkHandoff, pages PageRenderer, ajaxURL string, log *logger.Logger) *ToolsHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &ToolsHandler{auth: auth, store: store, handoff: handoff, pages: pages, ajaxURL: ajaxURL, log: log}
}

// HandleTools renders the tools page. With
// ?page=elementor-tools&action=upload_kit&kit_file=X&nonce=N it also injects
// a script that loads kit X into the page's upload control.
func (h *ToolsHandler) HandleTools(w http.ResponseWriter, r *http.Request) {
	email, err := h.auth.Authorize(r)
	if err != nil {
		h.log.WithError(err).WithField("remote_addr", r.RemoteAddr).Warn("Unauthorized tools page request")
		http.Error(w, "Insufficient permissions.", http.StatusForbidden)
		return
	}

	// The authorizer has already matched this against the session token.
	data := ToolsPageData{UserEmail: email, CSRFToken: r.FormValue("nonce"), AjaxURL: h.ajaxURL}

	q := r.URL.Query()
	if q.Get("page") == ToolsPage && q.Get("action") == ToolsUploadAction && q.Get("kit_file") != "" {
		if h.handoff == nil {
			http.NotFound(w, r)
			return
		}

		name := services.SanitizeFileName(q.Get("kit_file"))
		if !h.store.Exists(name) {
			http.Error(w, "Template kit file not found.", http.StatusNotFound)
			return
		}
		if h.handoff.AttemptDeepLinkHandoff(name) {
			data.Handoff = &HandoffData{Filename: name, URL: h.store.URL(name)}
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.pages.Render(w, "tools", data); err != nil {
		h.log.WithError(err).Error("Failed to execute tools template")
	}
}
