package httpapi

import (
	"time"

	"github.com/radieske/election-odds-ingest/internal/odds-ingest/repo"
)

type errorResponse struct {
	Error       int    `json:"error"`
	Description string `json:"description,omitempty"`
}

type candidateResponse struct {
	CandidateID    int64     `json:"candidate_id"`
	CreatedAt      time.Time `json:"created_at"`
	LastName       string    `json:"lastname"`
	WinProbability *float64  `json:"win_probability"`
}

type electionDataResponse struct {
	Data         map[string]string   `json:"data"`
	QueryResults []candidateResponse `json:"queryResults"`
}

func toCandidates(rows []repo.Candidate) []candidateResponse {
	out := make([]candidateResponse, 0, len(rows))
	for _, c := range rows {
		out = append(out, candidateResponse{
			CandidateID:    c.ID,
			CreatedAt:      c.CreatedAt,
			LastName:       c.LastName,
			WinProbability: c.Probability(),
		})
	}
	return out
}
