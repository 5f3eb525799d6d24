package domain

import "time"

// Interaction actions recorded when a session changes its filter.
const (
	ActionFilterUpdate = "filter.update"
	ActionFilterReset  = "filter.reset"
)

// Interaction describes one filter change made by a dashboard session,
// together with the size of the view it produced.
type Interaction struct {
	ID          string     `json:"id"`
	SessionID   string     `json:"session_id"`
	Action      string     `json:"action"`
	Filter      FilterSpec `json:"filter"`
	ResultCount int        `json:"result_count"`
	OccurredAt  time.Time  `json:"occurred_at"`
}
