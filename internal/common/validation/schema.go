package validation

import (
	"fmt"
	"strings"

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

// surveyAnswersSchema constrains the answer payload collected by the intake
// survey. Unknown answer keys are allowed so the survey can grow without a
// worker redeploy; known keys must carry string values.
var surveyAnswersSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"incomeLevel": map[string]interface{}{
			"type": "string",
		},
		"deviceAccess": map[string]interface{}{
			"type": "string",
		},
		"internetAccess": map[string]interface{}{
			"type": "string",
		},
		"languageSupport": map[string]interface{}{
			"type": "string",
		},
		"learningNeeds": map[string]interface{}{
			"type": "string",
		},
		"gpaRange": map[string]interface{}{
			"type": "string",
		},
		"educationLevel": map[string]interface{}{
			"type": "string",
		},
		"location": map[string]interface{}{
			"type": "string",
		},
		"barriers": map[string]interface{}{
			"type": "string",
		},
		"goals": map[string]interface{}{
			"type": "string",
		},
	},
	"additionalProperties": true,
}

// ValidateSurveyAnswers validates a raw answer map against the survey schema.
func ValidateSurveyAnswers(answers map[string]interface{}) (*ValidationResult, error) {
	return validateAgainst(surveyAnswersSchema, answers)
}

func validateAgainst(schemaMap, data map[string]interface{}) (*ValidationResult, error) {
	schemaLoader := gojsonschema.NewGoLoader(schemaMap)
	documentLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	if result.Valid() {
		return &ValidationResult{Valid: true}, nil
	}

	errs := make([]ValidationError, len(result.Errors()))
	for i, desc := range result.Errors() {
		errs[i] = ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		}
	}

	return &ValidationResult{Valid: false, Errors: errs}, nil
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}
