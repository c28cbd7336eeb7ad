package sendmatchsummary

const (
	TypeMatchesReady = "matches_ready"
	TypeNoMatches    = "no_matches"

	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

// TopMatch is a compact view of a ranked match included in the summary
type TopMatch struct {
	Title        string `json:"title"`
	Organization string `json:"organization"`
	MatchScore   int    `json:"matchScore"`
}

type Input struct {
	UserID           string                 `json:"userId"`
	NotificationType string                 `json:"notificationType"`
	MatchCount       int                    `json:"matchCount"`
	TopMatches       []TopMatch             `json:"topMatches,omitempty"`
	Priority         string                 `json:"priority,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"`
	SentAt         string `json:"sentAt"`
}
