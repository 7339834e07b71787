//go:build integration

package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestRedisStore_Integration_RoundTrip(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	store := NewRedisStore(redisClient)
	ctx := context.Background()

	_, ok, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ok {
		t.Error("expected ok=false on empty Redis")
	}

	want := QuotaState{
		Remaining: 4321,
		ResetAt:   time.Now().Add(30 * time.Minute).Truncate(time.Second),
		UpdatedAt: time.Now().Truncate(time.Second),
	}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, ok, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() after Save error = %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true after Save")
	}
	if got.Remaining != want.Remaining {
		t.Errorf("Remaining = %d, want %d", got.Remaining, want.Remaining)
	}
	if !got.ResetAt.Equal(want.ResetAt) {
		t.Errorf("ResetAt = %v, want %v", got.ResetAt, want.ResetAt)
	}
}

func TestRedisStore_Integration_SharedTrackerState(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	logger := zerolog.Nop()

	// Two trackers sharing one Redis see the same server budget.
	writer := NewTracker(NewRedisStore(redisClient), logger)
	reader := NewTracker(NewRedisStore(redisClient), logger)

	resetEpoch := time.Now().Add(15 * time.Minute).Unix()
	headers := http.Header{}
	headers.Set(HeaderQuotaRemaining, "17")
	headers.Set(HeaderQuotaReset, strconv.FormatInt(resetEpoch, 10))

	if err := writer.UpdateFromHeaders(ctx, headers); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	remaining, ok, err := reader.Remaining(ctx)
	if err != nil {
		t.Fatalf("Remaining() error = %v", err)
	}
	if !ok {
		t.Fatal("expected sibling tracker to observe recorded state")
	}
	if remaining != 17 {
		t.Errorf("Remaining = %d, want 17", remaining)
	}

	wait, err := reader.TimeUntilReset(ctx)
	if err != nil {
		t.Fatalf("TimeUntilReset() error = %v", err)
	}
	expected := 15 * time.Minute
	tolerance := 5 * time.Second
	if wait < expected-tolerance || wait > expected+tolerance {
		t.Errorf("TimeUntilReset = %v, want approximately %v", wait, expected)
	}
}
