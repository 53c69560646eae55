package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Poller dispara o pipeline periodicamente, além do gatilho HTTP
type Poller struct {
	Pipeline *Pipeline
	Interval time.Duration
	Log      *zap.Logger
}

// Start roda até o contexto ser cancelado; a primeira execução é imediata
func (p *Poller) Start(ctx context.Context) {
	if p.Interval <= 0 {
		return
	}
	p.Log.Info("feed poller started", zap.Duration("interval", p.Interval))

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		p.tick(ctx)
		select {
		case <-ctx.Done():
			p.Log.Info("context canceled, stopping feed poller")
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	res, err := p.Pipeline.Run(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.Log.Warn("scheduled ingestion failed", zap.String("run_id", res.RunID), zap.Error(err))
		}
		return
	}
	p.Log.Info("scheduled ingestion finished", zap.String("run_id", res.RunID), zap.String("status", string(res.Status)))
}
