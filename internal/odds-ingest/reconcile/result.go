package reconcile

import "context"

type Kind string

const (
	KindInserted Kind = "inserted"
	KindUpdated  Kind = "updated"
	KindFailed   Kind = "failed"
)

type Status string

const (
	StatusComplete Status = "complete"
	StatusAborted  Status = "aborted"
)

// Outcome é o resultado de um candidato dentro de uma execução
type Outcome struct {
	Key            string  `json:"key"`
	Kind           Kind    `json:"kind"`
	WinProbability float64 `json:"winProbability,omitempty"`
	Err            error   `json:"-"`
}

// Result agrega os outcomes em ordem de processamento
type Result struct {
	RunID    string    `json:"runId"`
	Outcomes []Outcome `json:"outcomes"`
	Status   Status    `json:"status"`
}

// Counts devolve quantos outcomes existem por kind
func (r Result) Counts() map[Kind]int {
	out := map[Kind]int{KindInserted: 0, KindUpdated: 0, KindFailed: 0}
	for _, o := range r.Outcomes {
		out[o.Kind]++
	}
	return out
}

type runIDKey struct{}

// WithRunID anexa o id da execução ao contexto (logs, eventos)
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

func RunIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
