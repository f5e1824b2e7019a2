package task

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// HTTPEngine queries a task engine over its HTTP status endpoint. Requests
// carry the caller's context so they are cancelled when the request ends; the
// engine is expected to answer quickly and no retrying happens here.
type HTTPEngine struct {
	baseURL string
	client  *http.Client
}

var _ Engine = (*HTTPEngine)(nil)

// NewHTTPEngine builds a client for the engine at baseURL.
func NewHTTPEngine(baseURL string, client *http.Client) (*HTTPEngine, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("task: engine base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("task: parse engine URL: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPEngine{baseURL: baseURL, client: client}, nil
}

func (e *HTTPEngine) Lookup(ctx context.Context, id string) (Status, error) {
	u := e.baseURL + "/tasks/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Status{}, err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return Status{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return Status{}, ErrNotFound
	default:
		return Status{}, fmt.Errorf("task: engine returned status %d", resp.StatusCode)
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return Status{}, fmt.Errorf("task: decode engine response: %w", err)
	}
	return status, nil
}

// MemoryEngine is an in-process Engine used in development mode and in tests.
type MemoryEngine struct {
	mu   sync.RWMutex
	jobs map[string]Status
}

var _ Engine = (*MemoryEngine)(nil)

func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{jobs: make(map[string]Status)}
}

// Set records the state of a job.
func (e *MemoryEngine) Set(id string, status Status) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.jobs[id] = status
}

func (e *MemoryEngine) Lookup(ctx context.Context, id string) (Status, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	status, ok := e.jobs[id]
	if !ok {
		return Status{}, ErrNotFound
	}
	return status, nil
}
