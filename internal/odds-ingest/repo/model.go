package repo

import (
	"database/sql"
	"time"
)

// Candidate é o modelo persistido na tabela candidate.
type Candidate struct {
	ID             int64
	CreatedAt      time.Time
	LastName       string
	WinProbability sql.NullFloat64
}

// Probability devolve nil quando win_probability é NULL
func (c Candidate) Probability() *float64 {
	if !c.WinProbability.Valid {
		return nil
	}
	v := c.WinProbability.Float64
	return &v
}
