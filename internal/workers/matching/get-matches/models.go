// internal/workers/matching/get-matches/models.go
package getmatches

type Input struct {
	UserID string `json:"userId"`
	Limit  int    `json:"limit,omitempty"`
}

type Output struct {
	Matches []RankedMatch `json:"matches"`
	Count   int           `json:"count"`
}

// RankedMatch is a persisted match joined with its catalog entry, ordered by
// score for the dashboard feed.
type RankedMatch struct {
	ScholarshipID   string   `json:"scholarshipId"`
	Title           string   `json:"title"`
	Organization    string   `json:"organization"`
	ScholarshipType string   `json:"scholarshipType"`
	MatchScore      int      `json:"matchScore"`
	MatchReasons    []string `json:"matchReasons"`
	UpdatedAt       string   `json:"updatedAt"`
}
