package http

import (
	"bytes"
	"encoding/json"
	stdhttp "net/http"
	"testing"
)

func TestRegisterLoginAndProfile(t *testing.T) {
	ts, _ := startTestServer(t)

	aliceID, _ := registerUser(t, ts, "alice")

	// Duplicate registration is a conflict.
	body, _ := json.Marshal(RegisterRequest{Username: "alice", Password: "password123"})
	resp, err := ts.Client().Post(ts.URL+"/api/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register duplicate: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusConflict {
		t.Fatalf("expected 409 for duplicate, got %d", resp.StatusCode)
	}

	// Wrong password is rejected.
	body, _ = json.Marshal(LoginRequest{Username: "alice", Password: "wrong-password"})
	resp, err = ts.Client().Post(ts.URL+"/api/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login wrong password: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", resp.StatusCode)
	}

	// Correct login returns the user id, the token, and the cookie.
	body, _ = json.Marshal(LoginRequest{Username: "alice", Password: "password123"})
	resp, err = ts.Client().Post(ts.URL+"/api/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("expected 200 for login, got %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if authResp.ID != aliceID || authResp.Token == "" {
		t.Fatalf("unexpected login response: %+v", authResp)
	}

	var cookieToken string
	for _, cookie := range resp.Cookies() {
		if cookie.Name == tokenCookieName {
			cookieToken = cookie.Value
		}
	}
	if cookieToken == "" {
		t.Fatal("login did not set the token cookie")
	}

	// Profile resolves the identity from the token.
	var profile ProfileResponse
	if status := authedGet(t, ts, "/api/profile", authResp.Token, &profile); status != stdhttp.StatusOK {
		t.Fatalf("profile status: %d", status)
	}
	if profile.UserID != aliceID || profile.Username != "alice" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestProfileAcceptsCookieCredential(t *testing.T) {
	ts, _ := startTestServer(t)

	aliceID, token := registerUser(t, ts, "alice")

	req, err := stdhttp.NewRequest(stdhttp.MethodGet, ts.URL+"/api/profile", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.AddCookie(&stdhttp.Cookie{Name: tokenCookieName, Value: token})

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("profile via cookie: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var profile ProfileResponse
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.UserID != aliceID {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestAuthedEndpointsRejectMissingCredentials(t *testing.T) {
	ts, _ := startTestServer(t)

	for _, path := range []string{"/api/profile", "/api/people", "/api/messages/u1"} {
		if status := authedGet(t, ts, path, "", nil); status != stdhttp.StatusUnauthorized {
			t.Fatalf("expected 401 for %s without credentials, got %d", path, status)
		}
	}
}

func TestListPeopleReturnsAllUsers(t *testing.T) {
	ts, _ := startTestServer(t)

	aliceID, aliceToken := registerUser(t, ts, "alice")
	bobID, _ := registerUser(t, ts, "bob")

	var people []UserResponse
	if status := authedGet(t, ts, "/api/people", aliceToken, &people); status != stdhttp.StatusOK {
		t.Fatalf("people status: %d", status)
	}
	if len(people) != 2 {
		t.Fatalf("expected two users, got %+v", people)
	}
	if people[0].ID != aliceID || people[0].Username != "alice" {
		t.Fatalf("unexpected first user: %+v", people[0])
	}
	if people[1].ID != bobID || people[1].Username != "bob" {
		t.Fatalf("unexpected second user: %+v", people[1])
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := startTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}
