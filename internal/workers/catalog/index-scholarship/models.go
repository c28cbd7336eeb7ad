package indexscholarship

// Input contains the job variables for the index-scholarship task
type Input struct {
	ScholarshipID string `json:"scholarshipId"`
}

// Output contains the result written back to the process instance
type Output struct {
	ScholarshipID string `json:"scholarshipId"`
	Indexed       bool   `json:"indexed"`
	IndexedAt     string `json:"indexedAt"`
}
