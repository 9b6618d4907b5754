package services

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed data/template_definition.schema.json
var templateDefinitionSchema []byte

var (
	compileSchemaOnce sync.Once
	compiledSchema    *gojsonschema.Schema
	compileSchemaErr  error
)

func templateSchema() (*gojsonschema.Schema, error) {
	compileSchemaOnce.Do(func() {
		compiledSchema, compileSchemaErr = gojsonschema.NewSchema(
			gojsonschema.NewBytesLoader(templateDefinitionSchema),
		)
	})
	return compiledSchema, compileSchemaErr
}

// ValidateTemplateDefinition checks raw JSON against the template definition schema.
func ValidateTemplateDefinition(data []byte) error {
	schema, err := templateSchema()
	if err != nil {
		return fmt.Errorf("failed to load template schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("template definition is not valid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return numberedErrors("template definition is invalid", msgs)
}

func numberedErrors(prefix string, msgs []string) error {
	if len(msgs) == 1 {
		return fmt.Errorf("%s: %s", prefix, msgs[0])
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s with %d errors:", prefix, len(msgs))
	for i, msg := range msgs {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, msg)
	}
	return errors.New(b.String())
}
