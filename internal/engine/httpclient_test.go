package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewHTTPClient(t *testing.T) {
	t.Run("no global timeout", func(t *testing.T) {
		// Stage budgets (extraction, audio streaming) exceed any single
		// fixed cap, so the deadline must come from the request context.
		if c := NewHTTPClient(); c.Timeout != 0 {
			t.Errorf("client timeout = %s, want none", c.Timeout)
		}
	})

	t.Run("context deadline cancels the request", func(t *testing.T) {
		blocked := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer blocked.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, blocked.URL, nil)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := NewHTTPClient().Do(req); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("err = %v, want deadline exceeded", err)
		}
	})
}
