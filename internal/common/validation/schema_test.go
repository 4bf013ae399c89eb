// internal/common/validation/schema_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const askSchema = `{
  "type": "object",
  "properties": {
    "question": {"type": "string", "minLength": 1},
    "options": {
      "type": "object",
      "properties": {"title": {"type": "string"}},
      "required": ["title"]
    }
  },
  "required": ["question"]
}`

func TestSchema_Validate(t *testing.T) {
	schema, err := Compile([]byte(askSchema))
	require.NoError(t, err)

	tests := []struct {
		name          string
		input         string
		expectedValid bool
		expectedField string
		expectedCode  string
	}{
		{
			name:          "valid",
			input:         `{"question": "How many passengers survived?"}`,
			expectedValid: true,
		},
		{
			name:          "missing required field",
			input:         `{}`,
			expectedField: "question",
			expectedCode:  "REQUIRED",
		},
		{
			name:          "wrong type",
			input:         `{"question": 42}`,
			expectedField: "question",
			expectedCode:  "INVALID_TYPE",
		},
		{
			name:          "empty string",
			input:         `{"question": ""}`,
			expectedField: "question",
			expectedCode:  "STRING_GTE",
		},
		{
			name:          "nested required",
			input:         `{"question": "q", "options": {}}`,
			expectedField: "options.title",
			expectedCode:  "REQUIRED",
		},
		{
			name:          "malformed json",
			input:         `{"question": `,
			expectedField: "(root)",
			expectedCode:  "INVALID_JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := schema.Validate([]byte(tt.input))
			assert.Equal(t, tt.expectedValid, result.Valid)
			if tt.expectedValid {
				assert.Empty(t, result.Errors)
				return
			}
			require.NotEmpty(t, result.Errors)
			assert.True(t, result.HasErrors(tt.expectedField), "errors: %+v", result.Errors)
			assert.Equal(t, tt.expectedCode, result.Errors[0].Code)
		})
	}
}

func TestSchema_ValidateValue(t *testing.T) {
	schema := MustCompile([]byte(askSchema))

	result := schema.ValidateValue(map[string]interface{}{"question": "Plot passenger count by sex"})
	assert.True(t, result.Valid)

	result = schema.ValidateValue(map[string]interface{}{"question": true})
	assert.False(t, result.Valid)
	assert.Len(t, result.GetErrorsForField("question"), 1)
}

func TestValidationResult_Messages(t *testing.T) {
	schema := MustCompile([]byte(askSchema))

	result := schema.Validate([]byte(`{}`))
	require.False(t, result.Valid)
	assert.Equal(t, []string{"question is required"}, result.GetErrorMessages())
	assert.Equal(t, "question is required", result.Summary())

	result = schema.Validate([]byte(`not json`))
	assert.Equal(t, "input is not valid JSON", result.Summary())
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile([]byte(`{"type": 12}`))
	assert.Error(t, err)

	assert.Panics(t, func() { MustCompile([]byte(`{`)) })

	s := MustCompile([]byte(askSchema))
	assert.JSONEq(t, askSchema, string(s.Raw()))
}
