// internal/models/match.go
package models

// ScholarshipMatch is one scored (user, scholarship) pair. Uniqueness on the
// pair is enforced by the batch upsert, not by the struct.
type ScholarshipMatch struct {
	UserID        string   `json:"userId"`
	ScholarshipID string   `json:"scholarshipId"`
	MatchScore    int      `json:"matchScore"`
	MatchReasons  []string `json:"matchReasons"`
}
