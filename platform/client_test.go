package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRetryDelay(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		headers   http.Header
		attempt   int
		want      time.Duration
		retryable bool
	}{
		{"429 with retry-after", 429, http.Header{"Retry-After": {"3"}}, 1, 3 * time.Second, true},
		{"429 without header", 429, http.Header{}, 1, time.Second, true},
		{"429 garbage header", 429, http.Header{"Retry-After": {"soon"}}, 1, time.Second, true},
		{"500 first attempt", 500, http.Header{}, 1, 300 * time.Millisecond, true},
		{"503 second attempt", 503, http.Header{}, 2, time.Second, true},
		{"502 third attempt", 502, http.Header{}, 3, 2 * time.Second, true},
		{"400 not retryable", 400, http.Header{}, 1, 0, false},
		{"200 not retryable", 200, http.Header{}, 1, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, retryable := retryDelay(tc.status, tc.headers, tc.attempt)
			if got != tc.want || retryable != tc.retryable {
				t.Fatalf("retryDelay(%d) = (%v, %v), want (%v, %v)",
					tc.status, got, retryable, tc.want, tc.retryable)
			}
		})
	}
}

func TestPostExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case apiPrefix + "/posts/p-alive":
			_ = json.NewEncoder(w).Encode(Post{ID: "p-alive", Message: "hi"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := New(srv.Client(), srv.URL, "token-1")
	ctx := context.Background()

	exists, err := client.PostExists(ctx, "p-alive")
	if err != nil {
		t.Fatalf("PostExists(p-alive) error = %v", err)
	}
	if !exists {
		t.Fatalf("PostExists(p-alive) = false")
	}

	exists, err = client.PostExists(ctx, "p-gone")
	if err != nil {
		t.Fatalf("PostExists(p-gone) error = %v", err)
	}
	if exists {
		t.Fatalf("PostExists(p-gone) = true")
	}
}

func TestGetPostNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := New(srv.Client(), srv.URL, "token-1")
	if _, err := client.GetPost(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetPost() error = %v, want ErrNotFound", err)
	}
}

func TestDoRetriesServerErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(Post{ID: "p1"})
	}))
	defer srv.Close()

	client := New(srv.Client(), srv.URL, "token-1")
	post, err := client.GetPost(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if post.ID != "p1" {
		t.Fatalf("GetPost() = %+v", post)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestDoDoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := New(srv.Client(), srv.URL, "token-1")
	if _, err := client.GetPost(context.Background(), "p1"); err == nil {
		t.Fatalf("GetPost() error = nil, want http 400")
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

func TestUpdatePostSendsProps(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	client := New(srv.Client(), srv.URL, "token-1")
	props := map[string]any{"url": "https://cb.example.com/hooks/a/b/c/click"}
	if err := client.UpdatePost(context.Background(), "p1", "updated", props); err != nil {
		t.Fatalf("UpdatePost() error = %v", err)
	}
	if got["id"] != "p1" || got["message"] != "updated" {
		t.Fatalf("request body = %v", got)
	}
	sent, ok := got["props"].(map[string]any)
	if !ok || sent["url"] != props["url"] {
		t.Fatalf("props in request = %v", got["props"])
	}
}

func TestClientRequiresConfig(t *testing.T) {
	if err := New(nil, "", "tok").do(context.Background(), http.MethodGet, "/posts/x", nil, nil); err == nil {
		t.Fatalf("missing base url accepted")
	}
	if err := New(nil, "https://example.com", "").do(context.Background(), http.MethodGet, "/posts/x", nil, nil); err == nil {
		t.Fatalf("missing token accepted")
	}
}
