// internal/common/validation/schema.go
package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const rootField = "(root)"

// Schema is a compiled JSON Schema document.
type Schema struct {
	schema *gojsonschema.Schema
	raw    json.RawMessage
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Compile parses and compiles a JSON Schema.
func Compile(schemaJSON []byte) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON schema: %w", err)
	}
	return &Schema{schema: s, raw: append(json.RawMessage(nil), schemaJSON...)}, nil
}

// MustCompile is Compile for schemas embedded in the binary.
func MustCompile(schemaJSON []byte) *Schema {
	s, err := Compile(schemaJSON)
	if err != nil {
		panic(err)
	}
	return s
}

// Raw returns the schema source.
func (s *Schema) Raw() json.RawMessage {
	return s.raw
}

// Validate checks a JSON document. Malformed JSON is reported as a single
// INVALID_JSON error rather than a Go error.
func (s *Schema) Validate(document []byte) *ValidationResult {
	if !json.Valid(document) {
		return &ValidationResult{Errors: []ValidationError{{
			Field:   rootField,
			Message: "input is not valid JSON",
			Code:    "INVALID_JSON",
		}}}
	}
	return s.run(gojsonschema.NewBytesLoader(document))
}

// ValidateValue checks an already decoded Go value.
func (s *Schema) ValidateValue(v interface{}) *ValidationResult {
	return s.run(gojsonschema.NewGoLoader(v))
}

func (s *Schema) run(loader gojsonschema.JSONLoader) *ValidationResult {
	res, err := s.schema.Validate(loader)
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{
			Field:   rootField,
			Message: err.Error(),
			Code:    "INVALID_JSON",
		}}}
	}
	out := &ValidationResult{Valid: res.Valid()}
	for _, e := range res.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   fieldOf(e),
			Message: e.Description(),
			Code:    strings.ToUpper(e.Type()),
		})
	}
	return out
}

// fieldOf names the offending property, using the missing property for
// required errors reported at the parent.
func fieldOf(e gojsonschema.ResultError) string {
	field := e.Field()
	if e.Type() == "required" {
		if p, ok := e.Details()["property"].(string); ok {
			if field == rootField {
				return p
			}
			return field + "." + p
		}
	}
	return field
}

// GetErrorMessages returns a simple list of error messages.
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		if err.Field == rootField || strings.HasPrefix(err.Message, err.Field+" ") {
			messages[i] = err.Message
			continue
		}
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// Summary joins all messages into one line.
func (vr *ValidationResult) Summary() string {
	return strings.Join(vr.GetErrorMessages(), "; ")
}

// HasErrors checks if validation has errors for specific field.
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// GetErrorsForField returns errors for a field and its children.
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}
