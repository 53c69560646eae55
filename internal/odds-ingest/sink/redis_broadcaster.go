package sink

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// CandidateUpdate é o payload publicado no canal e repassado ao /ws
type CandidateUpdate struct {
	Candidate string      `json:"candidate"`
	Payload   interface{} `json:"payload"`
}

// RedisBroadcaster publica cada candidato gravado no canal Pub/Sub
type RedisBroadcaster struct {
	r       *redis.Client
	channel string
}

func NewRedisBroadcaster(r *redis.Client, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{r: r, channel: channel}
}

func (b *RedisBroadcaster) Name() string { return "redis_pubsub" }

func (b *RedisBroadcaster) Publish(ctx context.Context, rep Report) error {
	for _, u := range CandidateUpdates(rep) {
		msg, err := json.Marshal(CandidateUpdate{Candidate: u.LastName, Payload: u})
		if err != nil {
			return err
		}
		if err := b.r.Publish(ctx, b.channel, msg).Err(); err != nil {
			return err
		}
	}
	return nil
}
