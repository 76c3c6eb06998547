package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

type serperItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type serperResponse struct {
	Organic []serperItem `json:"organic"`
	Videos  []serperItem `json:"videos"`
}

// DiscoverSerper queries the Serper API for web or video results.
// The endpoint vertical follows the mode: /search for articles, /videos
// for videos. Returns up to MaxCandidates filtered, deduplicated candidates.
func DiscoverSerper(ctx context.Context, q Query) ([]Candidate, error) {
	metrics.SerperRequests.Add(1)

	payload, err := json.Marshal(map[string]string{
		"q":  q.Text,
		"hl": "en",
	})
	if err != nil {
		metrics.SerperErrors.Add(1)
		return nil, Errf(KindInternal, "serper", "marshal payload: %v", err)
	}

	endpoint := fmt.Sprintf("%s/%s", cfg.SerperBaseURL, q.Mode)

	ctx, cancel := context.WithTimeout(ctx, cfg.ProviderTimeout)
	defer cancel()

	release, err := serperLimiter.Acquire(ctx)
	if err != nil {
		metrics.SerperErrors.Add(1)
		return nil, err
	}
	defer release()

	resp, err := RetryHTTP(ctx, DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-API-KEY", cfg.SerperAPIKey)
		req.Header.Set("Content-Type", "application/json")
		return cfg.HTTPClient.Do(req)
	})
	if err != nil {
		metrics.SerperErrors.Add(1)
		return nil, &PipelineError{Kind: Classify(err), Op: "serper", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.SerperErrors.Add(1)
		return nil, Errf(KindRemoteRejected, "serper", "HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		metrics.SerperErrors.Add(1)
		return nil, &PipelineError{Kind: KindRemoteUnreachable, Op: "serper", Err: err}
	}

	var data serperResponse
	if err := json.Unmarshal(body, &data); err != nil {
		metrics.SerperErrors.Add(1)
		return nil, &PipelineError{Kind: KindDecodeFailed, Op: "serper", Err: err}
	}

	items := data.Organic
	if q.Mode == ModeVideo {
		items = data.Videos
	}

	candidates := make([]Candidate, 0, len(items))
	for i, it := range items {
		if it.Link == "" {
			continue
		}
		candidates = append(candidates, Candidate{
			URL:      it.Link,
			Title:    it.Title,
			Snippet:  it.Snippet,
			Source:   SourceSerper,
			RankHint: i,
		})
	}

	candidates = FilterByMode(candidates, q.Mode)
	candidates = DedupCandidates(candidates)
	if len(candidates) > cfg.MaxCandidates {
		candidates = candidates[:cfg.MaxCandidates]
	}

	slog.Debug("serper: discovered",
		slog.String("query_id", q.ID),
		slog.String("mode", string(q.Mode)),
		slog.Int("results", len(candidates)))
	return candidates, nil
}
