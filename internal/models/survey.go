// internal/models/survey.go
package models

// SurveyAnswers holds one user's survey submission. The seven categorical
// fields are scored; location, barriers, and goals are free text and only
// goals participates in match-reason generation.
type SurveyAnswers struct {
	IncomeLevel     string `json:"incomeLevel"`
	DeviceAccess    string `json:"deviceAccess"`
	InternetAccess  string `json:"internetAccess"`
	LanguageSupport string `json:"languageSupport"`
	LearningNeeds   string `json:"learningNeeds"`
	GPARange        string `json:"gpaRange"`
	EducationLevel  string `json:"educationLevel"`
	Location        string `json:"location,omitempty"`
	Barriers        string `json:"barriers,omitempty"`
	Goals           string `json:"goals,omitempty"`
}

// IndexBreakdown is the four-category decomposition stored alongside the
// inclusivity index. The sub-score scales differ from the index's own table
// and are kept that way on purpose.
type IndexBreakdown struct {
	Access    int `json:"access"`
	Financial int `json:"financial"`
	Language  int `json:"language"`
	Academic  int `json:"academic"`
}

// SurveyResponse is the persisted survey row, one per user.
type SurveyResponse struct {
	ID               string         `json:"id"`
	UserID           string         `json:"userId"`
	Answers          SurveyAnswers  `json:"answers"`
	InclusivityIndex int            `json:"inclusivityIndex"`
	IndexBreakdown   IndexBreakdown `json:"indexBreakdown"`
	CreatedAt        string         `json:"createdAt"`
	UpdatedAt        string         `json:"updatedAt"`
}
