//go:build integration || e2e

package queue

import (
	"context"
	"os"
	"testing"

	"github.com/go-redis/redis/v8"

	"github.com/routesim/routesim/pkg/bgp"
	"github.com/routesim/routesim/pkg/prefix/simple"
)

// redisTestAddr returns the address of the test Redis instance:
// ROUTESIM_TEST_REDIS_ADDR if set, otherwise the default local port.
func redisTestAddr() string {
	if addr := os.Getenv("ROUTESIM_TEST_REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

func newTestRedisQueue(t *testing.T) *Redis[simple.Prefix] {
	t.Helper()
	addr := redisTestAddr()
	probe := redis.NewClient(&redis.Options{Addr: addr})
	defer probe.Close()
	if err := probe.Ping(context.Background()).Err(); err != nil {
		t.Skipf("no Redis reachable at %s: %v", addr, err)
	}

	key := "routesim:test:" + t.Name()
	q := NewRedis[simple.Prefix](addr, 0, key)
	t.Cleanup(func() {
		probe.Del(context.Background(), key)
		q.Close()
	})
	return q
}

func TestRedisPopsInPushOrder(t *testing.T) {
	q := newTestRedisQueue(t)
	q.Push(FromBGP(bgp.Event[simple.Prefix]{Target: 1, Prefix: simple.Prefix(10)}))
	q.Push(FromBGP(bgp.Event[simple.Prefix]{Target: 2, Prefix: simple.Prefix(20)}))

	first, ok := q.Pop()
	if !ok || first.Target != 1 {
		t.Fatalf("expected first event targeting router 1, got %+v", first)
	}
	second, ok := q.Pop()
	if !ok || second.Target != 2 {
		t.Fatalf("expected second event targeting router 2, got %+v", second)
	}
	if !q.IsEmpty() {
		t.Fatalf("expected queue to be empty after draining")
	}
}

func TestRedisPushManyPreservesOrderAndLen(t *testing.T) {
	q := newTestRedisQueue(t)
	q.PushMany([]Event[simple.Prefix]{
		FromBGP(bgp.Event[simple.Prefix]{Target: 1}),
		FromBGP(bgp.Event[simple.Prefix]{Target: 2}),
		FromBGP(bgp.Event[simple.Prefix]{Target: 3}),
	})
	if q.Len() != 3 {
		t.Fatalf("expected 3 queued events, got %d", q.Len())
	}
	for _, want := range []int{1, 2, 3} {
		e, ok := q.Pop()
		if !ok || int(e.Target) != want {
			t.Fatalf("expected target %d, got %+v", want, e)
		}
	}
}

func TestRedisPopOnEmptyReturnsFalse(t *testing.T) {
	q := newTestRedisQueue(t)
	if _, ok := q.Pop(); ok {
		t.Fatalf("expected pop on empty queue to return false")
	}
}

func TestRedisSurvivesRoundTripAcrossInstances(t *testing.T) {
	addr := redisTestAddr()
	probe := redis.NewClient(&redis.Options{Addr: addr})
	defer probe.Close()
	if err := probe.Ping(context.Background()).Err(); err != nil {
		t.Skipf("no Redis reachable at %s: %v", addr, err)
	}
	key := "routesim:test:" + t.Name()
	defer probe.Del(context.Background(), key)

	producer := NewRedis[simple.Prefix](addr, 0, key)
	defer producer.Close()
	producer.Push(FromBGP(bgp.Event[simple.Prefix]{Target: 7, Prefix: simple.Prefix(70)}))

	consumer := NewRedis[simple.Prefix](addr, 0, key)
	defer consumer.Close()
	e, ok := consumer.Pop()
	if !ok || e.Target != 7 {
		t.Fatalf("expected a second client to observe the first client's pushed event, got %+v ok=%v", e, ok)
	}
}
