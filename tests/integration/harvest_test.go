//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gitscout/gitscout/internal/testutil"
	"github.com/gitscout/gitscout/pkg/cache"
	"github.com/gitscout/gitscout/pkg/client"
	"github.com/gitscout/gitscout/pkg/harvest"
	"github.com/gitscout/gitscout/pkg/ratelimit"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

func setupMock(t *testing.T) *testutil.MockGitHub {
	t.Helper()

	mock := testutil.NewMockGitHub()
	t.Cleanup(mock.Close)

	mock.SetResponse("/search/users", testutil.NewHealthyResponse(
		`{"total_count": 2, "items": [{"login": "alice"}, {"login": "bob"}]}`))
	mock.SetUserResponse("alice", testutil.NewHealthyResponse(
		`{"login": "alice", "name": "Alice", "company": "@Acme.com", "location": "Sydney",
		  "hireable": true, "public_repos": 2, "followers": 500, "following": 10,
		  "created_at": "2014-01-01T00:00:00Z"}`))
	mock.SetUserResponse("bob", testutil.NewHealthyResponse(
		`{"login": "bob", "name": "Bob", "location": "Sydney",
		  "public_repos": 1, "followers": 150, "following": 5,
		  "created_at": "2018-06-01T00:00:00Z"}`))
	mock.SetReposResponse("alice", testutil.NewHealthyResponse(
		`[{"full_name": "alice/tool", "language": "Go", "stargazers_count": 40,
		   "license": {"key": "mit"}},
		  {"full_name": "alice/lib", "language": "Go", "stargazers_count": 10}]`))
	mock.SetReposResponse("bob", testutil.NewHealthyResponse(
		`[{"full_name": "bob/site", "language": "TypeScript", "stargazers_count": 5}]`))

	return mock
}

func newClient(t *testing.T, mock *testutil.MockGitHub, redisClient *redis.Client) *client.Client {
	t.Helper()

	cfg := client.DefaultConfig("test-token")
	cfg.BaseURL = mock.URL()
	cfg.MaxCalls = 1000
	cfg.QuotaStore = ratelimit.NewRedisStore(redisClient)
	cfg.Cache = cache.NewManagerWithRedis(redisClient, 5*time.Minute)

	api, err := client.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return api
}

// TestFullHarvestFlow drives a complete run against the mock server with
// Redis-backed quota state and response cache.
func TestFullHarvestFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := setupMock(t)
	api := newClient(t, mock, redisClient)

	opts := harvest.DefaultOptions("Sydney", 100)
	result, err := harvest.New(api).Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Users) != 2 {
		t.Errorf("Expected 2 users, got %d", len(result.Users))
	}
	if len(result.Repos) != 3 {
		t.Errorf("Expected 3 repos, got %d", len(result.Repos))
	}
	if len(result.Failures) != 0 {
		t.Errorf("Expected no failures, got %v", result.Failures)
	}
	if result.Users[0].Company != "ACME" {
		t.Errorf("Expected canonical company ACME, got %q", result.Users[0].Company)
	}
	if result.Report.Languages["Go"] != 2 {
		t.Errorf("Expected 2 Go repos, got %d", result.Report.Languages["Go"])
	}

	// Quota state from the response headers landed in Redis.
	remaining, ok, err := api.Tracker().Remaining(context.Background())
	if err != nil || !ok {
		t.Fatalf("Expected quota state in Redis (ok=%v, err=%v)", ok, err)
	}
	if remaining != 4999 {
		t.Errorf("Expected remaining 4999, got %d", remaining)
	}
}

// TestRepeatHarvestServedFromCache verifies a second run reuses cached
// responses instead of hitting the server again.
func TestRepeatHarvestServedFromCache(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := setupMock(t)
	api := newClient(t, mock, redisClient)

	h := harvest.New(api)
	opts := harvest.DefaultOptions("Sydney", 100)

	if _, err := h.Run(context.Background(), opts); err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	firstCount := mock.GetRequestCount()

	if _, err := h.Run(context.Background(), opts); err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if mock.GetRequestCount() != firstCount {
		t.Errorf("Expected second run to be fully cached, request count went %d -> %d",
			firstCount, mock.GetRequestCount())
	}
}

// TestHarvestRetriesTransientServerErrors verifies the retry path end to end.
func TestHarvestRetriesTransientServerErrors(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := setupMock(t)
	mock.SetHandler("/users/alice", testutil.NewFlakyHandler(1,
		`{"login": "alice", "name": "Alice", "location": "Sydney",
		  "public_repos": 2, "followers": 500}`))

	api := newClient(t, mock, redisClient)

	result, err := harvest.New(api).Run(context.Background(), harvest.DefaultOptions("Sydney", 100))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Users) != 2 {
		t.Errorf("Expected both users despite one 500, got %d", len(result.Users))
	}
	if mock.GetPathCount("/users/alice") != 2 {
		t.Errorf("Expected 2 attempts on flaky endpoint, got %d", mock.GetPathCount("/users/alice"))
	}
}
