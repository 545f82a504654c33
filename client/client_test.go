package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func jsonResponse(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func errorResponse(w http.ResponseWriter, status int, code, message string) {
	jsonResponse(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

// newAuthedClient signs a client in against a stub login endpoint mounted on
// mux, so data calls carry a bearer token.
func newAuthedClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()

	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]any{
			"token": "test-token",
			"user":  map[string]string{"id": "user-1", "email": "a@b.com", "display_name": "alice_01"},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	c := New(server.URL)
	if _, err := c.SignIn(context.Background(), "a@b.com", "password123"); err != nil {
		t.Fatalf("sign in failed: %v", err)
	}
	return c
}

func TestClient_SignUp(t *testing.T) {
	t.Run("rejects a bad display name without calling the API", func(t *testing.T) {
		var calls atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		c := New(server.URL)
		_, err := c.SignUp(context.Background(), "ab", "a@b.com", "password123")
		if err == nil {
			t.Fatal("expected a validation error")
		}
		if calls.Load() != 0 {
			t.Errorf("expected no API calls, got %d", calls.Load())
		}
	})

	t.Run("rejects an email without a TLD", func(t *testing.T) {
		c := New("http://unused.invalid")
		_, err := c.SignUp(context.Background(), "alice_01", "foo@bar", "password123")
		if err == nil {
			t.Fatal("expected a validation error")
		}
	})

	t.Run("maps a duplicate email to the friendly message", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/v1/auth/register", func(w http.ResponseWriter, r *http.Request) {
			errorResponse(w, http.StatusConflict, "DUPLICATE_EMAIL", "A user with this email is already registered")
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		c := New(server.URL)
		_, err := c.SignUp(context.Background(), "alice_01", "taken@example.com", "password123")
		if err == nil {
			t.Fatal("expected an error")
		}
		apiErr, ok := err.(*APIError)
		if !ok {
			t.Fatalf("expected *APIError, got %T", err)
		}
		if apiErr.Message != signUpDuplicateMessage {
			t.Errorf("expected friendly duplicate message, got %q", apiErr.Message)
		}
	})

	t.Run("stores the session on success", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/v1/auth/register", func(w http.ResponseWriter, r *http.Request) {
			jsonResponse(w, http.StatusCreated, map[string]any{
				"token": "new-token",
				"user":  map[string]string{"id": "user-1", "email": "a@b.com", "display_name": "alice_01"},
			})
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		c := New(server.URL)
		session, err := c.SignUp(context.Background(), "alice_01", "a@b.com", "password123")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if session.Token != "new-token" {
			t.Errorf("expected token new-token, got %q", session.Token)
		}
		if c.Session() == nil {
			t.Error("expected the session to be stored")
		}
	})
}

func TestClient_SignOut(t *testing.T) {
	mux := http.NewServeMux()
	c := newAuthedClient(t, mux)

	if c.Session() == nil {
		t.Fatal("expected a session after sign in")
	}
	c.SignOut()
	if c.Session() != nil {
		t.Error("expected no session after sign out")
	}
}

func TestClient_BearerToken(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/summary/balance", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		jsonResponse(w, http.StatusOK, map[string]int64{
			"income_cents": 1000, "expense_cents": 400, "balance_cents": 600,
		})
	})
	c := newAuthedClient(t, mux)

	totals, err := c.GetBalance(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("expected bearer token header, got %q", gotAuth)
	}
	if totals.BalanceCents != 600 {
		t.Errorf("expected balance 600, got %d", totals.BalanceCents)
	}
}

func TestClient_CreateCategory(t *testing.T) {
	t.Run("rejects a one-character name locally", func(t *testing.T) {
		c := New("http://unused.invalid")
		_, err := c.CreateCategory(context.Background(), "a")
		if err == nil {
			t.Fatal("expected a validation error")
		}
	})

	t.Run("returns the created category", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/v1/categories", func(w http.ResponseWriter, r *http.Request) {
			var req map[string]string
			json.NewDecoder(r.Body).Decode(&req)
			jsonResponse(w, http.StatusCreated, map[string]string{
				"id": "cat-1", "name": req["name"],
			})
		})
		c := newAuthedClient(t, mux)

		cat, err := c.CreateCategory(context.Background(), "Groceries")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cat.Name != "Groceries" {
			t.Errorf("expected name Groceries, got %q", cat.Name)
		}
	})
}

func TestClient_ErrorDecoding(t *testing.T) {
	t.Run("decodes the structured envelope", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/v1/transactions", func(w http.ResponseWriter, r *http.Request) {
			errorResponse(w, http.StatusNotFound, "TRANSACTION_NOT_FOUND", "Transaction not found")
		})
		c := newAuthedClient(t, mux)

		_, err := c.ListTransactions(context.Background())
		apiErr, ok := err.(*APIError)
		if !ok {
			t.Fatalf("expected *APIError, got %T: %v", err, err)
		}
		if apiErr.Code != "TRANSACTION_NOT_FOUND" || apiErr.Status != http.StatusNotFound {
			t.Errorf("unexpected error: %+v", apiErr)
		}
	})

	t.Run("decodes the middleware's plain error shape", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/v1/transactions", func(w http.ResponseWriter, r *http.Request) {
			jsonResponse(w, http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
		})
		c := newAuthedClient(t, mux)

		_, err := c.ListTransactions(context.Background())
		apiErr, ok := err.(*APIError)
		if !ok {
			t.Fatalf("expected *APIError, got %T: %v", err, err)
		}
		if apiErr.Status != http.StatusUnauthorized {
			t.Errorf("expected 401 status, got %d", apiErr.Status)
		}
	})
}
