package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/smartroots/agribot/internal/core"
)

func TestClient_Login(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Email != "farmer@example.com" || req.Password != "secret1" {
			t.Errorf("unexpected credentials: %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-abc",
			"token_type":   "bearer",
			"user": map[string]string{
				"id": "u1", "name": "Asha", "email": "farmer@example.com",
			},
		})
	})

	grant, err := c.Login(context.Background(), "farmer@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if grant.AccessToken != "tok-abc" {
		t.Errorf("unexpected token: %s", grant.AccessToken)
	}
	if grant.User.Name != "Asha" {
		t.Errorf("unexpected user: %+v", grant.User)
	}
}

func TestClient_Login_BadCredentials(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Incorrect email or password"})
	})

	_, err := c.Login(context.Background(), "farmer@example.com", "wrong")
	if !errors.Is(err, core.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if ErrorDetail(err) != "Incorrect email or password" {
		t.Errorf("unexpected detail: %q", ErrorDetail(err))
	}
}

func TestClient_Signup(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/signup" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req signupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Name != "Asha" {
			t.Errorf("unexpected name: %s", req.Name)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-new",
			"token_type":   "bearer",
			"user":         map[string]string{"id": "u2", "name": "Asha", "email": "a@example.com"},
		})
	})

	grant, err := c.Signup(context.Background(), "Asha", "a@example.com", "secret1")
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if grant.AccessToken != "tok-new" {
		t.Errorf("unexpected token: %s", grant.AccessToken)
	}
}

func TestClient_Signup_DuplicateEmail(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Email already registered"})
	})

	_, err := c.Signup(context.Background(), "Asha", "a@example.com", "secret1")
	if !errors.Is(err, core.ErrBackendStatus) {
		t.Fatalf("expected ErrBackendStatus, got %v", err)
	}
}

func TestClient_Me(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/me" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-abc" {
			t.Errorf("unexpected auth header: %q", got)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"id": "u1", "name": "Asha", "email": "farmer@example.com",
		})
	})

	c.SetToken("tok-abc")
	user, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if user.ID != "u1" {
		t.Errorf("unexpected user: %+v", user)
	}
}
