// internal/models/scholarship.go
package models

// Scholarship types recognized by the match scorer. Unknown types score a
// base of zero but are still evaluated against matching criteria.
const (
	TypeNeedBased        = "need-based"
	TypeMeritBased       = "merit-based"
	TypeFirstGen         = "first-gen"
	TypeSTEM             = "stem"
	TypeDiversity        = "diversity"
	TypeInternational    = "international"
	TypeCommunityService = "community-service"
	TypeArts             = "arts"
	TypeAthletics        = "athletics"
)

// MatchingCriteria maps a criterion name (income_level, education_level,
// gpa_range, language_support, device_access, internet_access,
// learning_needs) to answer-value point mappings. Absent criteria
// contribute nothing.
type MatchingCriteria map[string]map[string]int

// TargetDemographics maps a demographic dimension to the set of answer
// values that qualify for a human-readable match reason. It never affects
// the score.
type TargetDemographics map[string][]string

// Scholarship is a catalog entry. The catalog is maintained externally;
// this system only reads it.
type Scholarship struct {
	ID                 string             `json:"id"`
	Title              string             `json:"title"`
	Organization       string             `json:"organization"`
	Description        string             `json:"description,omitempty"`
	ScholarshipType    string             `json:"scholarshipType"`
	MatchingCriteria   MatchingCriteria   `json:"matchingCriteria,omitempty"`
	TargetDemographics TargetDemographics `json:"targetDemographics,omitempty"`
	IsActive           bool               `json:"isActive"`
	UpdatedAt          string             `json:"updatedAt,omitempty"`
}
