package sink

import (
	"context"
	"time"

	"github.com/radieske/election-odds-ingest/internal/odds-ingest/reconcile"
	"github.com/radieske/election-odds-ingest/pkg/contracts/events"
)

// Report é o que o pipeline entrega aos sinks ao final de cada execução
type Report struct {
	Result     reconcile.Result
	Err        error // não-nil quando a execução abortou
	Source     string
	FinishedAt time.Time
}

// Sink recebe o relatório; falha de sink nunca altera o resultado da execução
type Sink interface {
	Name() string
	Publish(ctx context.Context, rep Report) error
}

// Completed monta o evento de resumo da execução
func Completed(rep Report) events.IngestionCompleted {
	c := rep.Result.Counts()
	ev := events.IngestionCompleted{
		RunID:    rep.Result.RunID,
		Status:   string(rep.Result.Status),
		Inserted: c[reconcile.KindInserted],
		Updated:  c[reconcile.KindUpdated],
		Failed:   c[reconcile.KindFailed],
		Ts:       rep.FinishedAt,
	}
	if rep.Err != nil {
		ev.Error = rep.Err.Error()
	}
	return ev
}

// CandidateUpdates monta um evento por candidato gravado (failed fica de fora)
func CandidateUpdates(rep Report) []events.CandidateOddsUpdated {
	var out []events.CandidateOddsUpdated
	for _, o := range rep.Result.Outcomes {
		if o.Kind == reconcile.KindFailed {
			continue
		}
		out = append(out, events.CandidateOddsUpdated{
			RunID:          rep.Result.RunID,
			LastName:       o.Key,
			WinProbability: o.WinProbability,
			Action:         string(o.Kind),
			Source:         rep.Source,
			UpdatedAt:      rep.FinishedAt,
		})
	}
	return out
}
