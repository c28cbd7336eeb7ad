// internal/workers/survey/calculate-inclusivity-index/models.go
package calculateinclusivityindex

import "scholarship-workers/internal/models"

type Input struct {
	UserID     string               `json:"userId"`
	SurveyData models.SurveyAnswers `json:"surveyData"`
}

type Output struct {
	InclusivityIndex int                   `json:"inclusivityIndex"`
	IndexBreakdown   models.IndexBreakdown `json:"indexBreakdown"`
}
