package handlers

import (
	"net/http"
	"testing"
)

// registerTestUser creates an account through the register endpoint and
// returns its access token
func registerTestUser(t *testing.T, env *testEnv, username string) string {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	decodeBody(t, rec, &body)
	if body.AccessToken == "" || body.TokenType != "bearer" {
		t.Fatalf("register returned token %q of type %q", body.AccessToken, body.TokenType)
	}
	return body.AccessToken
}

func TestRegisterEndpoint(t *testing.T) {
	env := newTestEnv()
	registerTestUser(t, env, "alice")

	tests := []struct {
		name string
		body map[string]string
	}{
		{
			name: "duplicate username",
			body: map[string]string{"username": "alice", "email": "other@example.com", "password": "password123"},
		},
		{
			name: "duplicate email",
			body: map[string]string{"username": "bob", "email": "alice@example.com", "password": "password123"},
		},
		{
			name: "invalid email",
			body: map[string]string{"username": "carol", "email": "nope", "password": "password123"},
		},
		{
			name: "short password",
			body: map[string]string{"username": "carol", "email": "carol@example.com", "password": "short"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/auth/register", tt.body, "")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv()
	registerTestUser(t, env, "alice")

	rec := env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "alice",
		"password": "password123",
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	decodeBody(t, rec, &body)
	if body.AccessToken == "" {
		t.Error("login returned empty access_token")
	}

	rec = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "alice",
		"password": "wrong-password",
	}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Errorf("WWW-Authenticate = %q, want Bearer", rec.Header().Get("WWW-Authenticate"))
	}
}

func TestMeEndpoint(t *testing.T) {
	env := newTestEnv()
	token := registerTestUser(t, env, "alice")

	rec := env.do(t, http.MethodGet, "/api/auth/me", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	decodeBody(t, rec, &body)
	if body.Username != "alice" || body.Email != "alice@example.com" {
		t.Errorf("me = %+v, want alice's account", body)
	}

	t.Run("missing token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/auth/me", nil, "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
		if rec.Header().Get("WWW-Authenticate") != "Bearer" {
			t.Errorf("WWW-Authenticate = %q, want Bearer", rec.Header().Get("WWW-Authenticate"))
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/auth/me", nil, "not-a-token")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})
}
