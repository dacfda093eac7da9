// internal/common/validation/schema.go
package validation

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidateInput validates a job input document against a JSON schema document
// (both as generic maps, the form the activity registry hands us).
func ValidateInput(input map[string]interface{}, schema map[string]interface{}) (*ValidationResult, error) {
	schemaLoader := gojsonschema.NewGoLoader(schema)
	documentLoader := gojsonschema.NewGoLoader(input)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation setup failed: %w", err)
	}

	if result.Valid() {
		return &ValidationResult{Valid: true}, nil
	}

	out := &ValidationResult{Valid: false}
	for _, resErr := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   resErr.Field(),
			Message: resErr.Description(),
			Code:    resErr.Type(),
		})
	}
	return out, nil
}

// ValidateRawInput validates raw JSON bytes against a schema document.
func ValidateRawInput(raw []byte, schema map[string]interface{}) (*ValidationResult, error) {
	var input map[string]interface{}
	if err := json.Unmarshal(raw, &input); err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(root)",
				Message: fmt.Sprintf("input is not a JSON object: %v", err),
				Code:    "invalid_json",
			}},
		}, nil
	}
	return ValidateInput(input, schema)
}

// FormatErrors flattens a failed result into a single details string.
func FormatErrors(result *ValidationResult) string {
	if result == nil || result.Valid {
		return ""
	}
	details := ""
	for i, e := range result.Errors {
		if i > 0 {
			details += "; "
		}
		details += fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return details
}
