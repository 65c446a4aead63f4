package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationResult reports the outcome of validating one document.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validator checks documents against a compiled JSON schema.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles the given JSON schema document.
func NewValidator(schemaJSON string) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate checks the document and maps schema violations to field errors.
func (v *Validator) Validate(document interface{}) *ValidationResult {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "",
				Message: err.Error(),
				Code:    "INVALID_DOCUMENT",
			}},
		}
	}

	if result.Valid() {
		return &ValidationResult{Valid: true}
	}

	errors := make([]ValidationError, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		errors = append(errors, ValidationError{
			Field:   re.Field(),
			Message: re.Description(),
			Code:    errorCode(re.Type()),
		})
	}
	return &ValidationResult{Valid: false, Errors: errors}
}

// GetErrorMessages returns a simple list of error messages.
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// GetErrorsForField returns errors for a specific field, including nested
// and array element errors under it.
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}

func errorCode(schemaErrType string) string {
	switch schemaErrType {
	case "required":
		return "REQUIRED_FIELD_MISSING"
	case "invalid_type":
		return "INVALID_TYPE"
	case "enum":
		return "INVALID_ENUM_VALUE"
	case "string_gte", "string_lte":
		return "LENGTH_VIOLATION"
	case "number_gte", "number_lte":
		return "RANGE_VIOLATION"
	case "additional_property_not_allowed":
		return "EXTRA_FIELD"
	default:
		return strings.ToUpper(schemaErrType)
	}
}
