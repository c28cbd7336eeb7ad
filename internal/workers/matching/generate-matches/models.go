// internal/workers/matching/generate-matches/models.go
package generatematches

import "scholarship-workers/internal/models"

// Input is the match-generation payload. InclusivityIndex and SurveyData are
// pointers so a present zero index is distinguishable from an absent field.
type Input struct {
	UserID           string                `json:"userId"`
	InclusivityIndex *int                  `json:"inclusivityIndex"`
	SurveyData       *models.SurveyAnswers `json:"surveyData"`
}

type Output struct {
	MatchCount  int    `json:"matchCount"`
	GeneratedAt string `json:"generatedAt"` // ISO 8601
}
