// Package schemas provides JSON Schema validation for documents exchanged with the record backend.
package schemas

import (
	"embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema names, matching files/<name>.schema.json.
const (
	JobApplicant       = "job_applicant"
	SlackToRavenImport = "slack_to_raven_import"
	ImportResult       = "import_result"
	Config             = "config"
)

//go:embed files/*.schema.json
var schemaFS embed.FS

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Schema string
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
	fmt.Fprintf(&sb, "%s validation failed:", ve.Schema)
	for i, err := range ve.Errors {
		fmt.Fprintf(&sb, "\n  %d. %s: %s", i+1, err.Field, err.Message)
	}
	return sb.String()
}

// Load returns the raw content of a named schema.
func Load(name string) ([]byte, error) {
	path := "files/" + name + ".schema.json"
	data, err := schemaFS.ReadFile(path)
	if err != nil {
		return nil, &SchemaLoadError{
			Path:    path,
			Message: "schema not found",
			Cause:   err,
		}
	}
	return data, nil
}

// ValidateDocument validates a decoded Go value (maps, slices, scalars) against
// the named schema.
func ValidateDocument(name string, doc any) error {
	return validate(name, gojsonschema.NewGoLoader(doc))
}

// ValidateJSON validates raw JSON content against the named schema.
func ValidateJSON(name string, content []byte) error {
	return validate(name, gojsonschema.NewBytesLoader(content))
}

func validate(name string, document gojsonschema.JSONLoader) error {
	schema, err := Load(name)
	if err != nil {
		return err
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), document)
	if err != nil {
		return &SchemaLoadError{
			Path:    name,
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Schema: name,
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
