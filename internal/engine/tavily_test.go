package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDiscoverTavily(t *testing.T) {
	t.Run("maps url and content fields", func(t *testing.T) {
		var gotReq tavilyRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/search" {
				t.Errorf("path = %s", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
				t.Errorf("Authorization = %q", got)
			}
			if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
				t.Errorf("decode request: %v", err)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"results": []map[string]any{
					{"title": "Go scheduler", "url": "https://go.dev/blog/scheduler", "content": "deep dive", "score": 0.93},
				},
			})
		}))
		defer srv.Close()

		testInit(t, Config{TavilyAPIKey: "test-key", TavilyBaseURL: srv.URL})

		got, err := DiscoverTavily(context.Background(), Query{ID: "q1", Text: "go scheduler", Mode: ModeArticle})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 candidate, got %d", len(got))
		}
		if got[0].URL != "https://go.dev/blog/scheduler" || got[0].Snippet != "deep dive" || got[0].Source != SourceTavily {
			t.Errorf("unexpected candidate: %+v", got[0])
		}

		if gotReq.Query != "go scheduler" || gotReq.SearchDepth != "advanced" {
			t.Errorf("unexpected request: %+v", gotReq)
		}
		if len(gotReq.ExcludeDomains) == 0 {
			t.Error("article mode should exclude video domains in the payload")
		}
		if len(gotReq.IncludeDomains) != 0 {
			t.Error("article mode should not restrict include domains")
		}
	})

	t.Run("video mode constrains include domains", func(t *testing.T) {
		var gotReq tavilyRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&gotReq)
			json.NewEncoder(w).Encode(map[string]any{"results": []map[string]any{}})
		}))
		defer srv.Close()

		testInit(t, Config{TavilyAPIKey: "test-key", TavilyBaseURL: srv.URL})

		if _, err := DiscoverTavily(context.Background(), Query{ID: "q1", Text: "x", Mode: ModeVideo}); err != nil {
			t.Fatal(err)
		}
		if len(gotReq.IncludeDomains) == 0 {
			t.Error("video mode should constrain include domains")
		}
		if len(gotReq.ExcludeDomains) != 0 {
			t.Error("video mode should not exclude domains")
		}
	})

	t.Run("re-filters results the API let through", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"results": []map[string]any{
					{"title": "Article", "url": "https://example.com/post", "content": "text", "score": 0.9},
					{"title": "Clip", "url": "https://www.tiktok.com/@x/video/1", "content": "video", "score": 0.8},
				},
			})
		}))
		defer srv.Close()

		testInit(t, Config{TavilyAPIKey: "test-key", TavilyBaseURL: srv.URL})

		got, err := DiscoverTavily(context.Background(), Query{ID: "q1", Text: "x", Mode: ModeArticle})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].URL != "https://example.com/post" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("decode failure is classified", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer srv.Close()

		testInit(t, Config{TavilyAPIKey: "test-key", TavilyBaseURL: srv.URL})

		_, err := DiscoverTavily(context.Background(), Query{ID: "q1", Text: "x", Mode: ModeArticle})
		if err == nil {
			t.Fatal("expected error")
		}
		if Classify(err) != KindDecodeFailed {
			t.Errorf("kind = %s, want %s", Classify(err), KindDecodeFailed)
		}
	})
}
