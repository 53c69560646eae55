package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/election-odds-ingest/internal/odds-ingest/lock"
	"github.com/radieske/election-odds-ingest/internal/odds-ingest/parser"
	"github.com/radieske/election-odds-ingest/internal/odds-ingest/reconcile"
	"github.com/radieske/election-odds-ingest/internal/odds-ingest/repo"
	"github.com/radieske/election-odds-ingest/internal/odds-ingest/sink"
)

// Fetcher busca o documento bruto do feed
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Lister é a leitura usada pelo preview (/electiondata)
type Lister interface {
	ListAll(ctx context.Context) ([]repo.Candidate, error)
}

// Pipeline executa fetch -> parse -> reconcile sob lock e notifica os sinks
type Pipeline struct {
	Feed   Fetcher
	Parser *parser.Parser
	Engine *reconcile.Engine
	Store  Lister
	Lock   lock.Locker
	Sinks  []sink.Sink
	Source string
	Log    *zap.Logger

	OnRun   func(status string, d time.Duration) // métricas
	OnError func(stage string)                   // métricas por estágio
}

// Run executa uma ingestão completa. Erros de fetch/parse/schema abortam antes
// de qualquer acesso ao banco; erro de storage devolve o resultado parcial.
func (p *Pipeline) Run(ctx context.Context) (reconcile.Result, error) {
	release, err := p.Lock.Acquire(ctx)
	if err != nil {
		p.fail("lock")
		return reconcile.Result{}, err
	}
	defer release()

	start := time.Now()
	runID := uuid.NewString()
	ctx = reconcile.WithRunID(ctx, runID)
	log := p.Log.With(zap.String("run_id", runID))

	raw, err := p.Feed.Fetch(ctx)
	if err != nil {
		log.Warn("feed fetch failed", zap.Error(err))
		p.fail("fetch")
		p.finish("failed", start)
		return reconcile.Result{RunID: runID}, err
	}

	snap, err := p.Parser.Parse(raw)
	if err != nil {
		stage := "parse"
		if errors.Is(err, parser.ErrSchema) {
			stage = "schema"
		}
		log.Warn("feed rejected", zap.String("stage", stage), zap.Int("bytes", len(raw)), zap.Error(err))
		p.fail(stage)
		p.finish("failed", start)
		return reconcile.Result{RunID: runID}, err
	}
	log.Debug("feed parsed", zap.Int("candidates", snap.Len()))

	res, err := p.Engine.Reconcile(ctx, snap)
	if err != nil {
		p.fail("storage")
	}
	p.notify(ctx, log, sink.Report{Result: res, Err: err, Source: p.Source, FinishedAt: time.Now().UTC()})
	p.finish(string(res.Status), start)
	return res, err
}

// Preview busca e interpreta o feed sem gravar, junto com o conteúdo atual da tabela
func (p *Pipeline) Preview(ctx context.Context) (*parser.Snapshot, []repo.Candidate, error) {
	raw, err := p.Feed.Fetch(ctx)
	if err != nil {
		return nil, nil, err
	}
	snap, err := p.Parser.Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	rows, err := p.Store.ListAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	return snap, rows, nil
}

// notify entrega o relatório a todos os sinks; falhas só geram log
func (p *Pipeline) notify(ctx context.Context, log *zap.Logger, rep sink.Report) {
	ctx = context.WithoutCancel(ctx)
	for _, s := range p.Sinks {
		sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := s.Publish(sctx, rep); err != nil {
			log.Warn("result sink failed", zap.String("sink", s.Name()), zap.Error(err))
			p.fail("sink_" + s.Name())
		}
		cancel()
	}
}

func (p *Pipeline) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

func (p *Pipeline) finish(status string, start time.Time) {
	if p.OnRun != nil {
		p.OnRun(status, time.Since(start))
	}
}
