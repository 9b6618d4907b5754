package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	DefaultTemplateTitle = "Imported Template"
	DefaultTemplateType  = "page"

	// TemplatePostType is the post type every imported template is stored under.
	TemplatePostType  = "elementor_library"
	PostStatusPublish = "publish"

	MetaTemplateData = "_elementor_data"
	MetaTemplateType = "_elementor_template_type"
	MetaEditMode     = "_elementor_edit_mode"
	EditModeBuilder  = "builder"
)

// TemplateDefinition is one JSON file found inside a kit archive.
type TemplateDefinition struct {
	Title   string          `json:"title"`
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`

	// Untitled is set by ApplyDefaults when the title was filled in.
	Untitled bool `json:"-"`
}

// UnmarshalJSON accepts numbers and booleans for title and type and stores
// their text form.
func (d *TemplateDefinition) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title   json.RawMessage `json:"title"`
		Type    json.RawMessage `json:"type"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	title, err := scalarText(raw.Title)
	if err != nil {
		return fmt.Errorf("title: %w", err)
	}
	typ, err := scalarText(raw.Type)
	if err != nil {
		return fmt.Errorf("type: %w", err)
	}

	*d = TemplateDefinition{Title: title, Type: typ, Content: raw.Content}
	return nil
}

// scalarText renders a JSON scalar as text. null and false are empty, true is "1".
func scalarText(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return "", err
	}

	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		if t {
			return "1", nil
		}
		return "", nil
	default:
		return "", fmt.Errorf("expected a string, number or boolean")
	}
}

// ApplyDefaults fills missing fields
func (d *TemplateDefinition) ApplyDefaults() {
	if d.Title == "" {
		d.Title = DefaultTemplateTitle
		d.Untitled = true
	}
	if d.Type == "" {
		d.Type = DefaultTemplateType
	}
	if len(d.Content) == 0 {
		d.Content = json.RawMessage("[]")
	}
}

// ImportedTemplate is returned to the caller for each template written to the content store
type ImportedTemplate struct {
	Title string `json:"title"`
	Type  string `json:"type"`
	ID    int64  `json:"id"`
}

// TemplatePost is the content store row created for a template definition
type TemplatePost struct {
	Title   string
	Type    string
	Content string
	Author  string
}

// ScanOutcome classifies what happened to one scanned file
type ScanOutcome string

const (
	OutcomeImported ScanOutcome = "imported"
	OutcomeSkipped  ScanOutcome = "skipped"
	OutcomeFailed   ScanOutcome = "failed"
)

// ScanResult is the per-file result of an import
type ScanResult struct {
	File     string            `json:"file"`
	Outcome  ScanOutcome       `json:"outcome"`
	Reason   string            `json:"reason,omitempty"`
	Template *ImportedTemplate `json:"template,omitempty"`
}

// ImportReport summarizes one kit import
type ImportReport struct {
	Kit      string             `json:"kit"`
	Imported []ImportedTemplate `json:"imported"`
	Results  []ScanResult       `json:"results"`
}

// Skipped returns the results that did not produce a template.
func (r *ImportReport) Skipped() []ScanResult {
	out := make([]ScanResult, 0)
	for _, res := range r.Results {
		if res.Outcome != OutcomeImported {
			out = append(out, res)
		}
	}
	return out
}
