// internal/workers/survey/save-survey-response/models.go
package savesurveyresponse

import "scholarship-workers/internal/models"

type Input struct {
	UserID           string                `json:"userId"`
	SurveyData       models.SurveyAnswers  `json:"surveyData"`
	InclusivityIndex int                   `json:"inclusivityIndex"`
	IndexBreakdown   models.IndexBreakdown `json:"indexBreakdown"`
}

type Output struct {
	ResponseID string `json:"responseId"`
	SavedAt    string `json:"savedAt"` // ISO 8601
}
