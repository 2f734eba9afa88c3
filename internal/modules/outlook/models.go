package outlook

import "time"

// Outlook is one generated market summary. Generation is best effort, so
// any given day may have zero, one or several of these.
type Outlook struct {
	ID        string    `json:"id"`
	RunDate   string    `json:"run_date"` // YYYY-MM-DD
	Schedule  string    `json:"schedule"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}
