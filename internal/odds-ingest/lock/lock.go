package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serializa execuções do pipeline. Acquire bloqueia até obter o lock
// ou o contexto expirar; a função devolvida libera o lock.
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// Local é um mutex em processo que respeita cancelamento de contexto
type Local struct {
	sem chan struct{}
}

func NewLocal() *Local {
	return &Local{sem: make(chan struct{}, 1)}
}

func (l *Local) Acquire(ctx context.Context) (func(), error) {
	select {
	case l.sem <- struct{}{}:
		return func() { <-l.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// libera só se o valor ainda for o token de quem adquiriu
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis serializa execuções entre réplicas com SET NX PX.
// O TTL limita quanto tempo um processo morto segura o lock.
type Redis struct {
	Client       *redis.Client
	Key          string
	TTL          time.Duration
	PollInterval time.Duration
}

func NewRedis(c *redis.Client, key string, ttl time.Duration) *Redis {
	return &Redis{Client: c, Key: key, TTL: ttl, PollInterval: 100 * time.Millisecond}
}

func (r *Redis) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	for {
		ok, err := r.Client.SetNX(ctx, r.Key, token, r.TTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				// contexto próprio: o da requisição pode já ter expirado
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = releaseScript.Run(ctx, r.Client, []string{r.Key}, token).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.PollInterval):
		}
	}
}

// Chain adquire os locks em ordem e libera em ordem inversa
type Chain []Locker

func (c Chain) Acquire(ctx context.Context) (func(), error) {
	releases := make([]func(), 0, len(c))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}

	for _, l := range c {
		rel, err := l.Acquire(ctx)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, rel)
	}
	return releaseAll, nil
}
