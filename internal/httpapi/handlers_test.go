package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ancestra.org/internal/auth"
	"ancestra.org/internal/person"
	"ancestra.org/internal/task"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	store := auth.NewMemoryStore()
	ctx := context.Background()
	if err := store.Seed(ctx, "user", "123", auth.RoleGuest); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if err := store.Seed(ctx, "admin", "123", auth.RoleOwner); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	codec, err := auth.NewCodec([]byte("test-secret"), "ancestra")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	svc, err := auth.NewService(store, codec)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	people := person.NewMemoryStore()
	people.Put(person.Record{
		Handle: "handle-allen", GrampsID: "person001", Gender: 1,
		Profile: person.Profile{NameGiven: "John", NameSurname: "Allen"},
	})
	people.Put(person.Record{
		Handle: "handle-secret", GrampsID: "person002", Gender: 2, Private: true,
		Profile: person.Profile{NameGiven: "Jane", NameSurname: "Secret"},
	})

	engine := task.NewMemoryEngine()
	engine.Set("job-1", task.Status{State: "STARTED", Info: "export running"})
	proxy, err := task.NewProxy(engine)
	if err != nil {
		t.Fatalf("NewProxy: %v", err)
	}

	api := New(ReadyProbe{}, "test", svc, people, proxy)
	api.SetRateLimit(1000, 1000)

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
	}
}

func (c *apiClient) post(path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) get(path string, headers map[string]string) *http.Response {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("get request: %v", err)
	}
	return resp
}

func (c *apiClient) login(username, password string) (access, refresh string) {
	c.t.Helper()
	resp := c.post("/api/token", map[string]string{"username": username, "password": password}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("unexpected login status: %d", resp.StatusCode)
	}
	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.t.Fatalf("decode token response: %v", err)
	}
	return payload["access_token"], payload["refresh_token"]
}

func bearerHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestTokenEndpoint(t *testing.T) {
	c := newTestAPI(t)

	// No fields at all.
	resp := c.post("/api/token", map[string]string{}, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("empty body: expected 422, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Missing password only.
	resp = c.post("/api/token", map[string]string{"username": "user"}, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("missing password: expected 422, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Wrong password.
	resp = c.post("/api/token", map[string]string{"username": "user", "password": "234"}, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("wrong password: expected 403, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Unknown user gets the identical failure.
	resp = c.post("/api/token", map[string]string{"username": "unknown", "password": "123"}, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("unknown user: expected 403, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Valid login carries both tokens.
	resp = c.post("/api/token", map[string]string{"username": "user", "password": "123"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["access_token"] == "" || body["refresh_token"] == "" {
		t.Fatalf("expected both tokens, got %v", body)
	}
}

func TestTokenEndpointRejectsBadJSON(t *testing.T) {
	c := newTestAPI(t)
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/token", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestRefreshTokenEndpoint(t *testing.T) {
	c := newTestAPI(t)

	// No authorization header.
	resp := c.post("/api/token/refresh", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no header: expected 401, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	access, refresh := c.login("user", "123")

	// Access token where a refresh token is required.
	resp = c.post("/api/token/refresh", nil, bearerHeader(access))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("access token: expected 422, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Garbage token.
	resp = c.post("/api/token/refresh", nil, bearerHeader("not-a-token"))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token: expected 401, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The real thing. Response must carry access_token and nothing else.
	resp = c.post("/api/token/refresh", nil, bearerHeader(refresh))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["access_token"] == "" {
		t.Fatalf("expected access token, got %v", body)
	}
	if _, ok := body["refresh_token"]; ok {
		t.Fatalf("refresh response must not include refresh_token: %v", body)
	}

	// The minted access token works on a protected route.
	resp = c.get("/api/people", bearerHeader(body["access_token"].(string)))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refreshed token rejected: %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	c := newTestAPI(t)

	// A codec frozen in the past signs a token that is expired by now.
	past := time.Now().Add(-48 * time.Hour)
	stale, err := auth.NewCodec([]byte("test-secret"), "ancestra",
		auth.WithCodecClock(func() time.Time { return past }))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	token, err := stale.Encode("user", auth.RoleGuest, auth.KindRefresh, time.Hour)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	resp := c.post("/api/token/refresh", nil, bearerHeader(token))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", resp.StatusCode)
	}
}

func TestPeopleEndpointRequiresToken(t *testing.T) {
	c := newTestAPI(t)

	resp := c.get("/api/people", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if resp.Header.Get("WWW-Authenticate") == "" {
		t.Fatal("expected WWW-Authenticate header")
	}
	resp.Body.Close()

	// A refresh token is not an access credential.
	_, refresh := c.login("user", "123")
	resp = c.get("/api/people", bearerHeader(refresh))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("refresh token on protected route: expected 422, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// A forged token never passes.
	foreign, err := auth.NewCodec([]byte("other-secret"), "ancestra")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	forged, err := foreign.Encode("admin", auth.RoleOwner, auth.KindAccess, time.Hour)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	resp = c.get("/api/people", bearerHeader(forged))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("forged token: expected 401, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestPeopleEndpointPrivacy(t *testing.T) {
	c := newTestAPI(t)
	userAccess, _ := c.login("user", "123")
	adminAccess, _ := c.login("admin", "123")

	var guestView []person.Record
	resp := c.get("/api/people", bearerHeader(userAccess))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("guest list: expected 200, got %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&guestView); err != nil {
		t.Fatalf("decode guest view: %v", err)
	}
	resp.Body.Close()
	if len(guestView) != 1 || guestView[0].GrampsID != "person001" {
		t.Fatalf("guest must see only the public record: %+v", guestView)
	}

	var ownerView []person.Record
	resp = c.get("/api/people", bearerHeader(adminAccess))
	if err := json.NewDecoder(resp.Body).Decode(&ownerView); err != nil {
		t.Fatalf("decode owner view: %v", err)
	}
	resp.Body.Close()
	if len(ownerView) != 2 {
		t.Fatalf("owner must see both records: %+v", ownerView)
	}
}

func TestPersonResourcePrivacy(t *testing.T) {
	c := newTestAPI(t)
	userAccess, _ := c.login("user", "123")
	adminAccess, _ := c.login("admin", "123")

	// Public record is reachable for everyone.
	resp := c.get("/api/people/handle-allen", bearerHeader(userAccess))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("public record: expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["gramps_id"] != "person001" {
		t.Fatalf("unexpected record: %v", body)
	}

	// A private record fetched by a guest is indistinguishable from absent.
	resp = c.get("/api/people/handle-secret", bearerHeader(userAccess))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("private record for guest: expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = c.get("/api/people/handle-secret", bearerHeader(adminAccess))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("private record for owner: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = c.get("/api/people/no-such-handle", bearerHeader(adminAccess))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing record: expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestTaskEndpoint(t *testing.T) {
	c := newTestAPI(t)

	resp := c.get("/api/tasks/job-1", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated: expected 401, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	access, _ := c.login("user", "123")

	resp = c.get("/api/tasks/job-1", bearerHeader(access))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("task status: expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["state"] != "STARTED" || body["info"] != "export running" {
		t.Fatalf("unexpected task payload: %v", body)
	}

	resp = c.get("/api/tasks/no-such-job", bearerHeader(access))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown job: expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestHealthEndpointsArePublic(t *testing.T) {
	c := newTestAPI(t)

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/api/info"} {
		resp := c.get(path, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestMethodNotAllowed(t *testing.T) {
	c := newTestAPI(t)

	resp := c.get("/api/token", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Allow") != http.MethodPost {
		t.Fatalf("unexpected Allow header: %q", resp.Header.Get("Allow"))
	}
}
