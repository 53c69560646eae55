package sink

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/radieske/election-odds-ingest/pkg/contracts/events"
)

const keyLatestRun = "odds-ingest:run:latest"

// RunCache guarda o resumo da última execução no Redis
type RunCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRunCache(c *redis.Client, ttl time.Duration) *RunCache {
	return &RunCache{Client: c, TTL: ttl}
}

func (c *RunCache) Name() string { return "redis_cache" }

func (c *RunCache) Publish(ctx context.Context, rep Report) error {
	b, err := json.Marshal(Completed(rep))
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, keyLatestRun, b, c.TTL).Err()
}

// Latest devolve (evento, true) se houver execução registrada
func (c *RunCache) Latest(ctx context.Context) (events.IngestionCompleted, bool, error) {
	var ev events.IngestionCompleted
	b, err := c.Client.Get(ctx, keyLatestRun).Bytes()
	if err == redis.Nil {
		return ev, false, nil
	}
	if err != nil {
		return ev, false, err
	}
	return ev, true, json.Unmarshal(b, &ev)
}
