package queue

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"

	"github.com/routesim/routesim/pkg/model"
	"github.com/routesim/routesim/pkg/ospf"
	"github.com/routesim/routesim/pkg/prefix"
	"github.com/routesim/routesim/pkg/simlog"
)

// Redis is a Queue realization backed by a Redis list, for experiments
// that want the pending-event queue observable outside the simulator
// process. Events are JSON-encoded; ordering is FIFO via LPUSH/RPOP
// (no blocking variants, no pipelining).
type Redis[P prefix.Key] struct {
	client *redis.Client
	ctx    context.Context
	key    string
}

// NewRedis connects to addr/db and uses key as the list name.
func NewRedis[P prefix.Key](addr string, db int, key string) *Redis[P] {
	return &Redis[P]{
		client: redis.NewClient(&redis.Options{Addr: addr, DB: db}),
		ctx:    context.Background(),
		key:    key,
	}
}

func (r *Redis[P]) Push(e Event[P]) {
	data, err := json.Marshal(e)
	if err != nil {
		simlog.WithEvent("queue-push").Errorf("marshal event: %v", err)
		return
	}
	if err := r.client.LPush(r.ctx, r.key, data).Err(); err != nil {
		simlog.WithEvent("queue-push").Errorf("redis LPUSH: %v", err)
	}
}

func (r *Redis[P]) PushMany(events []Event[P]) {
	for _, e := range events {
		r.Push(e)
	}
}

func (r *Redis[P]) Pop() (Event[P], bool) {
	var zero Event[P]
	data, err := r.client.RPop(r.ctx, r.key).Bytes()
	if err == redis.Nil {
		return zero, false
	}
	if err != nil {
		simlog.WithEvent("queue-pop").Errorf("redis RPOP: %v", err)
		return zero, false
	}
	var e Event[P]
	if err := json.Unmarshal(data, &e); err != nil {
		simlog.WithEvent("queue-pop").Errorf("unmarshal event: %v", err)
		return zero, false
	}
	return e, true
}

func (r *Redis[P]) Len() int {
	n, err := r.client.LLen(r.ctx, r.key).Result()
	if err != nil {
		simlog.WithEvent("queue-len").Errorf("redis LLEN: %v", err)
		return 0
	}
	return int(n)
}

func (r *Redis[P]) IsEmpty() bool { return r.Len() == 0 }

// UpdateParams is a no-op: the Redis realization carries no priority model
// of its own, matching FIFO's semantics over a different backing store.
func (r *Redis[P]) UpdateParams([]model.RouterId, *ospf.Topology) {}

// Close releases the underlying Redis client.
func (r *Redis[P]) Close() error { return r.client.Close() }
