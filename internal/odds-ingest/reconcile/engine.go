package reconcile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/election-odds-ingest/internal/odds-ingest/parser"
	"github.com/radieske/election-odds-ingest/internal/odds-ingest/repo"
)

var ErrNumericCoercion = errors.New("value is not a number")

// Store define as operações de tabela usadas na reconciliação
type Store interface {
	ListAll(ctx context.Context) ([]repo.Candidate, error)
	Update(ctx context.Context, lastName string, winProbability float64) error
	Insert(ctx context.Context, lastName string, winProbability float64) error
}

// Engine decide update vs insert por candidato contra o estado da tabela
type Engine struct {
	store Store
	log   *zap.Logger

	OnOutcome func(Outcome) // métricas
}

func NewEngine(store Store, log *zap.Logger) *Engine {
	return &Engine{store: store, log: log}
}

// Reconcile processa as chaves do snapshot em ordem de documento.
// Erro de coerção falha só a chave; erro de storage aborta e devolve o parcial.
func (e *Engine) Reconcile(ctx context.Context, snap *parser.Snapshot) (Result, error) {
	res := Result{RunID: RunIDFrom(ctx), Status: StatusComplete}
	if res.RunID == "" {
		res.RunID = uuid.NewString()
	}
	log := e.log.With(zap.String("run_id", res.RunID))

	rows, err := e.store.ListAll(ctx)
	if err != nil {
		res.Status = StatusAborted
		return res, storageErr(err)
	}

	// lastname -> existe; inserts desta execução entram no índice
	known := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		known[r.LastName] = struct{}{}
	}

	for _, key := range snap.Keys() {
		raw, _ := snap.Get(key)

		p, err := coerce(raw)
		if err != nil {
			log.Warn("candidate value rejected", zap.String("candidate", key), zap.String("value", raw), zap.Error(err))
			e.record(&res, Outcome{Key: key, Kind: KindFailed, Err: err})
			continue
		}

		kind, err := e.apply(ctx, known, key, p)
		if err != nil {
			log.Error("storage write failed, aborting run",
				zap.String("candidate", key),
				zap.Int("processed", len(res.Outcomes)),
				zap.Error(err),
			)
			res.Status = StatusAborted
			return res, storageErr(err)
		}
		known[key] = struct{}{}
		e.record(&res, Outcome{Key: key, Kind: kind, WinProbability: p})
	}

	c := res.Counts()
	log.Info("reconciliation finished",
		zap.Int("inserted", c[KindInserted]),
		zap.Int("updated", c[KindUpdated]),
		zap.Int("failed", c[KindFailed]),
	)
	return res, nil
}

func (e *Engine) apply(ctx context.Context, known map[string]struct{}, key string, p float64) (Kind, error) {
	if _, ok := known[key]; ok {
		return KindUpdated, e.store.Update(ctx, key, p)
	}

	err := e.store.Insert(ctx, key, p)
	if errors.Is(err, repo.ErrDuplicateKey) {
		// outra execução inseriu depois do ListAll
		e.log.Debug("insert conflict, falling back to update", zap.String("candidate", key))
		return KindUpdated, e.store.Update(ctx, key, p)
	}
	return KindInserted, err
}

func (e *Engine) record(res *Result, o Outcome) {
	res.Outcomes = append(res.Outcomes, o)
	if e.OnOutcome != nil {
		e.OnOutcome(o)
	}
}

func storageErr(err error) error {
	if errors.Is(err, repo.ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %w", repo.ErrStorage, err)
}

// coerce aceita espaços e um "%" final; NaN/Inf não são probabilidades
func coerce(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNumericCoercion, raw)
	}
	return v, nil
}
