// Package testutil provides testing utilities for the gitscout API client.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock API endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockGitHub is a configurable mock GitHub API server for testing.
type MockGitHub struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
	pathCounts        map[string]int
}

// NewMockGitHub creates a new mock GitHub API server.
func NewMockGitHub() *MockGitHub {
	mock := &MockGitHub{
		handlers:   make(map[string]func(w http.ResponseWriter, r *http.Request)),
		pathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.pathCounts[r.URL.Path]++
		mock.LastRequestHeader = r.Header.Clone()
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockGitHub) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockGitHub) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockGitHub) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastRequestHeader = nil
	m.pathCounts = make(map[string]int)
}

// SetHandler sets a custom handler for a specific path.
func (m *MockGitHub) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockGitHub) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetUserResponse configures the user detail endpoint for a login.
func (m *MockGitHub) SetUserResponse(login string, resp MockResponse) {
	m.SetResponse("/users/"+login, resp)
}

// SetReposResponse configures the repository listing endpoint for a login.
func (m *MockGitHub) SetReposResponse(login string, resp MockResponse) {
	m.SetResponse(fmt.Sprintf("/users/%s/repos", login), resp)
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockGitHub) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetPathCount returns the number of requests made to a specific path.
func (m *MockGitHub) GetPathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[path]
}

// defaultHandler provides default GitHub-like responses.
func (m *MockGitHub) defaultHandler(w http.ResponseWriter, r *http.Request) {
	setQuotaHeaders(w, 4999, time.Now().Add(time.Hour))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{}`))
}

func setQuotaHeaders(w http.ResponseWriter, remaining int, resetAt time.Time) {
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
}

// QuotaHeaders builds a header map carrying the GitHub quota headers.
func QuotaHeaders(remaining int, resetAt time.Time) map[string]string {
	return map[string]string{
		"X-RateLimit-Remaining": strconv.Itoa(remaining),
		"X-RateLimit-Reset":     strconv.FormatInt(resetAt.Unix(), 10),
		"Content-Type":          "application/json; charset=utf-8",
	}
}

// NewHealthyResponse creates a standard 200 OK response with quota headers.
func NewHealthyResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers:    QuotaHeaders(4999, time.Now().Add(time.Hour)),
	}
}

// NewQuotaExceededResponse creates the 403 response GitHub returns when the
// request quota is exhausted, with the reset scheduled after delay.
func NewQuotaExceededResponse(delay time.Duration) MockResponse {
	return MockResponse{
		StatusCode: http.StatusForbidden,
		Body:       `{"message": "API rate limit exceeded for user"}`,
		Headers:    QuotaHeaders(0, time.Now().Add(delay)),
	}
}

// NewNotReadyResponse creates a 202 Accepted response for results still
// being computed server-side.
func NewNotReadyResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusAccepted,
		Body:       `{}`,
		Headers:    QuotaHeaders(4998, time.Now().Add(time.Hour)),
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"message": "Internal server error"}`,
		Headers:    QuotaHeaders(4990, time.Now().Add(time.Hour)),
	}
}

// NewFlakyHandler creates a handler that fails with 500 for the first
// failures requests to its path, then serves data.
func NewFlakyHandler(failures int, data string) func(w http.ResponseWriter, r *http.Request) {
	var mu sync.Mutex
	var calls int
	return func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()

		setQuotaHeaders(w, 4990, time.Now().Add(time.Hour))
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if n <= failures {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"message": "Internal server error"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(data))
	}
}
