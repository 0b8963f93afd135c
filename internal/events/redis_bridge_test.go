package events

import (
	"context"
	"os"
	"testing"
	"time"

	"schnicken/internal/domain"

	redis "github.com/redis/go-redis/v9"
)

// Integration-style test: runs only if REDIS_ADDR env is set.
func TestRedisBridgeRelaysBetweenInstances(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")})
	defer client.Close()

	channel := "schnicken:test:" + time.Now().Format("150405.000000")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	localA, localB := NewDispatcher(), NewDispatcher()
	a := NewRedisBridge(client, channel, localA)
	b := NewRedisBridge(client, channel, localB)

	received := make(chan domain.Event, 4)
	localB.Subscribe("probe", func(ctx context.Context, e domain.Event) { received <- e })
	echo := make(chan domain.Event, 4)
	localA.Subscribe("probe", func(ctx context.Context, e domain.Event) { echo <- e })

	go b.Run(ctx)
	time.Sleep(200 * time.Millisecond)

	a.Publish(ctx, domain.GameCreated{Game: sampleGame(), At: time.Now()})

	select {
	case e := <-received:
		if e.GameID() != "g1" {
			t.Fatalf("relayed %s", e.GameID())
		}
	case <-time.After(3 * time.Second):
		t.Fatal("event was not relayed")
	}

	// A delivered locally exactly once
	if len(echo) != 1 {
		t.Fatalf("local deliveries on A = %d", len(echo))
	}
}
