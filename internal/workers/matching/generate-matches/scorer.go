// internal/workers/matching/generate-matches/scorer.go
package generatematches

import (
	"strings"

	"scholarship-workers/internal/models"
)

// criterionAnswers maps matching_criteria keys to the user's survey answer
// for that criterion. Criteria absent from a scholarship contribute nothing.
func criterionAnswers(answers models.SurveyAnswers) map[string]string {
	return map[string]string{
		"income_level":     answers.IncomeLevel,
		"education_level":  answers.EducationLevel,
		"gpa_range":        answers.GPARange,
		"language_support": answers.LanguageSupport,
		"device_access":    answers.DeviceAccess,
		"internet_access":  answers.InternetAccess,
		"learning_needs":   answers.LearningNeeds,
	}
}

// Criterion evaluation order is fixed so reason and score behavior stays
// reproducible across runs.
var criterionOrder = []string{
	"income_level",
	"education_level",
	"gpa_range",
	"language_support",
	"device_access",
	"internet_access",
	"learning_needs",
}

// Score computes a scholarship's 0-100 match score for one user profile.
// The base score comes from an exclusive type chain: the first branch that
// fires wins and no others stack on top of it.
func Score(scholarship models.Scholarship, inclusivityIndex int, answers models.SurveyAnswers) int {
	total := 0

	switch {
	case scholarship.ScholarshipType == models.TypeNeedBased && inclusivityIndex > 60:
		total += 30
	case scholarship.ScholarshipType == models.TypeMeritBased && inclusivityIndex < 40:
		total += 20
	case scholarship.ScholarshipType == models.TypeFirstGen:
		total += 25
	case scholarship.ScholarshipType == models.TypeSTEM:
		total += 20
	case scholarship.ScholarshipType == models.TypeDiversity:
		total += 25
	}

	userAnswers := criterionAnswers(answers)
	for _, criterion := range criterionOrder {
		mapping, ok := scholarship.MatchingCriteria[criterion]
		if !ok {
			continue
		}
		total += mapping[userAnswers[criterion]]
	}

	if total > 100 {
		return 100
	}
	if total < 0 {
		return 0
	}
	return total
}

// Reasons builds the human-readable match explanations. It never affects the
// score and may return an empty list. Order is the fixed evaluation order.
func Reasons(scholarship models.Scholarship, answers models.SurveyAnswers) []string {
	reasons := []string{}

	if demographicMatch(scholarship.TargetDemographics, "income_levels", answers.IncomeLevel) {
		reasons = append(reasons, "Income level match")
	}
	if demographicMatch(scholarship.TargetDemographics, "education_levels", answers.EducationLevel) {
		reasons = append(reasons, "Education level match")
	}
	if demographicMatch(scholarship.TargetDemographics, "language_support", answers.LanguageSupport) {
		reasons = append(reasons, "Language support needs")
	}
	if demographicMatch(scholarship.TargetDemographics, "learning_needs", answers.LearningNeeds) {
		reasons = append(reasons, "Learning differences support")
	}
	if scholarship.ScholarshipType == models.TypeFirstGen {
		reasons = append(reasons, "First-generation college student support")
	}
	if scholarship.ScholarshipType == models.TypeSTEM &&
		strings.Contains(strings.ToLower(answers.Goals), "stem") {
		reasons = append(reasons, "STEM career goals")
	}

	return reasons
}

func demographicMatch(demographics models.TargetDemographics, dimension, value string) bool {
	if demographics == nil || value == "" {
		return false
	}
	for _, candidate := range demographics[dimension] {
		if candidate == value {
			return true
		}
	}
	return false
}
