// Package schemas validates LLM-produced JSON artifacts against embedded
// JSON Schemas before the pipeline accepts them.
package schemas

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed *.json
var schemaFiles embed.FS

// Schema names accepted by Validate.
const (
	SchemaTailoredCV       = "tailored_cv.json"
	SchemaCandidateProfile = "candidate_profile.json"
)

var (
	compiled   = make(map[string]*gojsonschema.Schema)
	compiledMu sync.Mutex
)

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// ValidationError represents a schema validation failure with field paths
type ValidationError struct {
	Schema string
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return fmt.Sprintf("schema %s validation failed: %s", e.Schema, strings.Join(parts, "; "))
}

// Validate checks a JSON document against a named embedded schema.
func Validate(schemaName, document string) error {
	schema, err := load(schemaName)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(document))
	if err != nil {
		return fmt.Errorf("failed to validate against %s: %w", schemaName, err)
	}

	if result.Valid() {
		return nil
	}

	verr := &ValidationError{Schema: schemaName}
	for _, desc := range result.Errors() {
		verr.Errors = append(verr.Errors, FieldError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return verr
}

// load compiles and caches an embedded schema.
func load(schemaName string) (*gojsonschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()

	if schema, ok := compiled[schemaName]; ok {
		return schema, nil
	}

	data, err := schemaFiles.ReadFile(schemaName)
	if err != nil {
		return nil, fmt.Errorf("unknown schema %s: %w", schemaName, err)
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", schemaName, err)
	}

	compiled[schemaName] = schema
	return schema, nil
}
