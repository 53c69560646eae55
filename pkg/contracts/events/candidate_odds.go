package events

import "time"

// Evento publicado no tópico "candidate_odds_updates"
type CandidateOddsUpdated struct {
	RunID          string    `json:"run_id"`
	LastName       string    `json:"last_name"`
	WinProbability float64   `json:"win_probability"`
	Action         string    `json:"action"` // "inserted" | "updated"
	Source         string    `json:"source"` // URL do feed
	UpdatedAt      time.Time `json:"updated_at"`
}
