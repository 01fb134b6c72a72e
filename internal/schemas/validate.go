// Package schemas embeds the JSON Schemas for AI response payloads and
// validates raw model output against them before parsing.
package schemas

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed *.schema.json
var schemaFiles embed.FS

// Schema names accepted by Validate. Each maps to an embedded
// <name>.schema.json file.
const (
	JobRequirements = "job_requirements"
	ScoreBreakdown  = "score_breakdown"
	TailoredContent = "tailored_content"
)

// cache stores loaded schema contents to avoid repeated embed reads
var (
	cache   = make(map[string]string)
	cacheMu sync.RWMutex
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// Validate validates JSON content against the named embedded schema.
func Validate(name, jsonContent string) error {
	schemaContent, err := loadSchema(name)
	if err != nil {
		return err
	}
	return ValidateJSONString(schemaContent, jsonContent)
}

// loadSchema reads an embedded schema by name and caches the content.
func loadSchema(name string) (string, error) {
	cacheMu.RLock()
	if content, exists := cache[name]; exists {
		cacheMu.RUnlock()
		return content, nil
	}
	cacheMu.RUnlock()

	filename := name + ".schema.json"
	data, err := schemaFiles.ReadFile(filename)
	if err != nil {
		return "", &SchemaLoadError{
			Path:    filename,
			Message: "no embedded schema with that name",
			Cause:   err,
		}
	}

	content := string(data)
	cacheMu.Lock()
	cache[name] = content
	cacheMu.Unlock()

	return content, nil
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaContent)
	documentLoader := gojsonschema.NewStringLoader(jsonContent)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    "(string schema)",
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	if result.Valid() {
		return nil
	}

	// Build structured error
	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}

	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}
