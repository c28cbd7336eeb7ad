// internal/workers/survey/validate-survey-data/models.go
package validatesurveydata

type Input struct {
	UserID     string                 `json:"userId"`
	SurveyData map[string]interface{} `json:"surveyData"`
}

type Output struct {
	IsValid          bool                   `json:"isValid"`
	ValidatedData    map[string]interface{} `json:"validatedData"`
	ValidationErrors []ValidationError      `json:"validationErrors"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Allowed values per scored survey field. Free-text fields (location,
// barriers, goals) are passed through untouched.
var allowedValues = map[string][]string{
	"incomeLevel":     {"low", "moderate", "middle", "prefer-not-to-say"},
	"deviceAccess":    {"smartphone-only", "smartphone-tablet", "smartphone-computer", "all-devices"},
	"internetAccess":  {"limited", "mobile-only", "home-wifi", "multiple-locations"},
	"languageSupport": {"english-first", "english-second", "multilingual", "need-translation"},
	"learningNeeds":   {"none", "adhd", "dyslexia", "other", "prefer-not-to-say"},
	"gpaRange":        {"3.5-4.0", "3.0-3.4", "2.5-2.9", "below-2.5", "not-applicable"},
	"educationLevel":  {"high-school", "community-college", "undergraduate", "graduate", "other"},
}

var scoredFields = []string{
	"incomeLevel",
	"deviceAccess",
	"internetAccess",
	"languageSupport",
	"learningNeeds",
	"gpaRange",
	"educationLevel",
}

var freeTextFields = []string{"location", "barriers", "goals"}
