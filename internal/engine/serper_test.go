package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// testInit configures the engine for tests and restores fast retry timing.
func testInit(t *testing.T, c Config) {
	t.Helper()

	saved := DefaultRetryConfig
	DefaultRetryConfig = RetryConfig{MaxRetries: 1, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond, Multiplier: 2}
	t.Cleanup(func() { DefaultRetryConfig = saved })

	if err := Init(c); err != nil {
		t.Fatalf("Init: %v", err)
	}
}

func serperHandler(t *testing.T, wantPath string, payload any) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != wantPath {
			t.Errorf("path = %s, want %s", r.URL.Path, wantPath)
		}
		if got := r.Header.Get("X-API-KEY"); got != "test-key" {
			t.Errorf("X-API-KEY = %q", got)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body["q"] == "" {
			t.Error("request missing query")
		}
		json.NewEncoder(w).Encode(payload)
	}
}

func TestDiscoverSerper(t *testing.T) {
	t.Run("article mode parses organic and drops video links", func(t *testing.T) {
		srv := httptest.NewServer(serperHandler(t, "/search", map[string]any{
			"organic": []map[string]string{
				{"title": "Go Concurrency", "link": "https://go.dev/blog/pipelines", "snippet": "patterns"},
				{"title": "Talk", "link": "https://www.youtube.com/watch?v=f6kdp27TYZs", "snippet": "video"},
				{"title": "Effective Go", "link": "https://go.dev/doc/effective_go", "snippet": "docs"},
			},
		}))
		defer srv.Close()

		testInit(t, Config{SerperAPIKey: "test-key", SerperBaseURL: srv.URL})

		got, err := DiscoverSerper(context.Background(), Query{ID: "q1", Text: "go concurrency", Mode: ModeArticle})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 candidates, got %d: %v", len(got), got)
		}
		if got[0].URL != "https://go.dev/blog/pipelines" || got[0].Source != SourceSerper {
			t.Errorf("unexpected first candidate: %+v", got[0])
		}
	})

	t.Run("video mode parses videos array", func(t *testing.T) {
		srv := httptest.NewServer(serperHandler(t, "/videos", map[string]any{
			"videos": []map[string]string{
				{"title": "Talk", "link": "https://www.youtube.com/watch?v=f6kdp27TYZs", "snippet": "video"},
				{"title": "Blocked", "link": "https://www.netflix.com/title/1", "snippet": "not supported"},
			},
		}))
		defer srv.Close()

		testInit(t, Config{SerperAPIKey: "test-key", SerperBaseURL: srv.URL})

		got, err := DiscoverSerper(context.Background(), Query{ID: "q1", Text: "go talks", Mode: ModeVideo})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 candidate, got %d", len(got))
		}
		if got[0].URL != "https://www.youtube.com/watch?v=f6kdp27TYZs" {
			t.Errorf("got %q", got[0].URL)
		}
	})

	t.Run("rejected request is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		testInit(t, Config{SerperAPIKey: "bad", SerperBaseURL: srv.URL})

		_, err := DiscoverSerper(context.Background(), Query{ID: "q1", Text: "x", Mode: ModeArticle})
		if err == nil {
			t.Fatal("expected error")
		}
		if Classify(err) != KindRemoteRejected {
			t.Errorf("kind = %s, want %s", Classify(err), KindRemoteRejected)
		}
	})

	t.Run("truncates to max candidates", func(t *testing.T) {
		items := make([]map[string]string, 8)
		for i := range items {
			items[i] = map[string]string{
				"title":   "t",
				"link":    "https://example.com/a" + string(rune('0'+i)),
				"snippet": "s",
			}
		}
		srv := httptest.NewServer(serperHandler(t, "/search", map[string]any{"organic": items}))
		defer srv.Close()

		testInit(t, Config{SerperAPIKey: "test-key", SerperBaseURL: srv.URL, MaxCandidates: 3})

		got, err := DiscoverSerper(context.Background(), Query{ID: "q1", Text: "x", Mode: ModeArticle})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 3 {
			t.Errorf("expected 3 candidates, got %d", len(got))
		}
	})
}
