package calllog

import "time"

// Summary is one completed call's record: the mailed summary plus the raw
// transcript it was derived from.
type Summary struct {
	ID         string    `json:"id"`
	CallID     string    `json:"call_id"`
	Status     string    `json:"status"`
	Summary    string    `json:"summary"`
	Transcript string    `json:"transcript"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}
