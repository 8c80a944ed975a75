package http

import (
	"bytes"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/wavechat/wavechat-server/internal/auth"
	"github.com/wavechat/wavechat-server/internal/config"
	"github.com/wavechat/wavechat-server/internal/core"
	"github.com/wavechat/wavechat-server/internal/store"
	"github.com/wavechat/wavechat-server/internal/store/sqlite"
)

// startTestServer wires an in-memory store, hub, router and auth service
// behind an httptest server.
func startTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}
	authService := auth.NewService(st, jwtConfig)

	logger := zerolog.Nop()
	hub := core.NewHub(&logger)
	router := core.NewRouter(hub, st, &logger)

	cfg := config.Default()
	cfg.Addr = ":0"
	// Keep probes far apart; liveness has its own unit tests.
	cfg.PingInterval = 30 * time.Second
	cfg.PongTimeout = time.Second

	server := NewServer(hub, router, authService, st, cfg, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, st
}

// registerUser creates an account through the API and returns its id and token.
func registerUser(t *testing.T, ts *httptest.Server, username string) (id, token string) {
	t.Helper()

	body, _ := json.Marshal(RegisterRequest{Username: username, Password: "password123"})
	resp, err := ts.Client().Post(ts.URL+"/api/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != stdhttp.StatusCreated {
		t.Fatalf("register %s: unexpected status %d", username, resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if authResp.ID == "" || authResp.Token == "" {
		t.Fatalf("register %s: empty id or token", username)
	}

	return authResp.ID, authResp.Token
}

// authedGet performs a GET with a Bearer token and decodes the JSON response.
func authedGet(t *testing.T, ts *httptest.Server, path, token string, out any) int {
	t.Helper()

	req, err := stdhttp.NewRequest(stdhttp.MethodGet, ts.URL+path, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("get %s: %v", path, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == stdhttp.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s response: %v", path, err)
		}
	}
	return resp.StatusCode
}
