package events

import "time"

// Evento emitido ao final de cada execução (completa ou abortada).
type IngestionCompleted struct {
	RunID    string    `json:"runId"`
	Status   string    `json:"status"` // "complete" | "aborted"
	Inserted int       `json:"inserted"`
	Updated  int       `json:"updated"`
	Failed   int       `json:"failed"`
	Error    string    `json:"error,omitempty"`
	Ts       time.Time `json:"ts"`
}
