package main

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"sync"

	"templateKitManager/internal/services"
	"templateKitManager/internal/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

// TemplateCache holds parsed page templates, each combined with base.html
type TemplateCache struct {
	templates map[string]*template.Template
	mutex     sync.RWMutex
}

// NewTemplateCache creates a new template cache
func NewTemplateCache() *TemplateCache {
	return &TemplateCache{
		templates: make(map[string]*template.Template),
	}
}

// GetTemplate returns a cached template or parses it on first use
func (tc *TemplateCache) GetTemplate(name string) (*template.Template, error) {
	tc.mutex.RLock()
	tmpl, exists := tc.templates[name]
	tc.mutex.RUnlock()

	if exists {
		return tmpl, nil
	}

	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	// Double-check after acquiring write lock
	if tmpl, exists := tc.templates[name]; exists {
		return tmpl, nil
	}

	tmpl, err := template.New("").Funcs(CreateTemplateFuncMap()).
		ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}

	tc.templates[name] = tmpl
	return tmpl, nil
}

// Render executes the named page inside the base layout
func (tc *TemplateCache) Render(w io.Writer, name string, data interface{}) error {
	tmpl, err := tc.GetTemplate(name)
	if err != nil {
		return err
	}
	return tmpl.ExecuteTemplate(w, "base.html", data)
}

// AlertBox creates an alert message HTML
func AlertBox(alertType, message string) template.HTML {
	return template.HTML(fmt.Sprintf(
		`<div class="alert alert-%s">%s</div>`,
		template.HTMLEscapeString(alertType), template.HTMLEscapeString(message),
	))
}

// NavButton creates a navigation link styled as a button
func NavButton(text, url, buttonType string, condition bool) template.HTML {
	if !condition {
		return ""
	}

	class := "btn"
	if buttonType != "" {
		class += " btn-" + buttonType
	}

	return template.HTML(fmt.Sprintf(
		`<a href="%s" class="%s">%s</a>`,
		template.HTMLEscapeString(url), class, template.HTMLEscapeString(text),
	))
}

// ConditionalClass adds a CSS class conditionally
func ConditionalClass(baseClass, conditionalClass string, condition bool) string {
	if condition {
		return baseClass + " " + conditionalClass
	}
	return baseClass
}

// Truncate shortens text to length runes
func Truncate(text string, length int) string {
	runes := []rune(text)
	if len(runes) <= length {
		return text
	}
	return string(runes[:length]) + "..."
}

// CreateTemplateFuncMap creates a function map for templates
func CreateTemplateFuncMap() template.FuncMap {
	return template.FuncMap{
		"alertBox":         AlertBox,
		"navButton":        NavButton,
		"conditionalClass": ConditionalClass,
		"truncate":         Truncate,
		"join":             strings.Join,
		"humanSize":        services.HumanSize,
	}
}

// TemplateData is the common data passed to page templates
type TemplateData struct {
	UserEmail       string
	IsAuthenticated bool
	IsAdmin         bool
	CSRFToken       string

	AjaxURL       string
	ToolsURL      string
	MaxUploadSize int64

	PageData interface{}
}

// BuildTemplateData builds common template data from request context
func (app *App) BuildTemplateData(r *http.Request, pageData interface{}) (*TemplateData, error) {
	data := &TemplateData{
		AjaxURL:       "/admin-ajax",
		ToolsURL:      "/admin/tools",
		MaxUploadSize: app.Config.MaxUploadSize,
		PageData:      pageData,
	}

	if userEmail, ok := utils.GetUserEmail(r); ok {
		data.UserEmail = userEmail
		data.IsAuthenticated = true
		data.IsAdmin = utils.IsAdmin(r)
	}

	token, ok := utils.GetCSRFToken(r)
	if data.IsAuthenticated && !ok {
		return nil, fmt.Errorf("csrf token missing from authenticated request")
	}
	data.CSRFToken = token

	return data, nil
}

func (app *App) renderPage(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := app.Templates.Render(w, name, data); err != nil {
		app.Log.WithError(err).WithField("template", name).Error("Failed to render template")
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}
