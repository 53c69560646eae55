package cache

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/election-odds-ingest/internal/shared/retry"
)

func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	err := retry.Do(ctx, retry.DefaultOptions(), func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return rdb, nil
}
