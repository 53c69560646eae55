package retry

import (
	"context"
	"time"
)

// Options controla tentativas com backoff exponencial.
// Usado apenas no bootstrap (ping de dependências); o pipeline não faz retry.
type Options struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

func DefaultOptions() Options {
	return Options{
		MaxAttempts:     5,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		Multiplier:      2.0,
	}
}

// Do executa fn até sucesso, esgotar tentativas ou o contexto ser cancelado
func Do(ctx context.Context, opts Options, fn func(ctx context.Context) error) error {
	var lastErr error
	interval := opts.InitialInterval

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if lastErr = fn(ctx); lastErr == nil {
			return nil
		}
		if attempt == opts.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}

		next := time.Duration(float64(interval) * opts.Multiplier)
		if next > opts.MaxInterval {
			next = opts.MaxInterval
		}
		interval = next
	}

	return lastErr
}
