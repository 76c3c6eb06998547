package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
)

type tavilyRequest struct {
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	MaxResults     int      `json:"max_results"`
	IncludeDomains []string `json:"include_domains"`
	ExcludeDomains []string `json:"exclude_domains"`
}

type tavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
}

// DiscoverTavily queries the Tavily search API. Mode shaping happens via the
// domain constraints in the payload: article searches exclude video platforms,
// video searches include only the supported ones. Results are still
// re-filtered locally since Tavily's domain matching is not exact.
func DiscoverTavily(ctx context.Context, q Query) ([]Candidate, error) {
	metrics.TavilyRequests.Add(1)

	reqBody := tavilyRequest{
		Query:          q.Text,
		SearchDepth:    "advanced",
		MaxResults:     cfg.MaxCandidates,
		IncludeDomains: []string{},
		ExcludeDomains: []string{},
	}
	switch q.Mode {
	case ModeArticle:
		reqBody.ExcludeDomains = videoDomains
	case ModeVideo:
		reqBody.IncludeDomains = videoWhitelist
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		metrics.TavilyErrors.Add(1)
		return nil, Errf(KindInternal, "tavily", "marshal payload: %v", err)
	}

	endpoint := cfg.TavilyBaseURL + "/search"

	ctx, cancel := context.WithTimeout(ctx, cfg.ProviderTimeout)
	defer cancel()

	release, err := tavilyLimiter.Acquire(ctx)
	if err != nil {
		metrics.TavilyErrors.Add(1)
		return nil, err
	}
	defer release()

	resp, err := RetryHTTP(ctx, DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+cfg.TavilyAPIKey)
		req.Header.Set("Content-Type", "application/json")
		return cfg.HTTPClient.Do(req)
	})
	if err != nil {
		metrics.TavilyErrors.Add(1)
		return nil, &PipelineError{Kind: Classify(err), Op: "tavily", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.TavilyErrors.Add(1)
		return nil, Errf(KindRemoteRejected, "tavily", "HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		metrics.TavilyErrors.Add(1)
		return nil, &PipelineError{Kind: KindRemoteUnreachable, Op: "tavily", Err: err}
	}

	var data tavilyResponse
	if err := json.Unmarshal(body, &data); err != nil {
		metrics.TavilyErrors.Add(1)
		return nil, &PipelineError{Kind: KindDecodeFailed, Op: "tavily", Err: err}
	}

	candidates := make([]Candidate, 0, len(data.Results))
	for i, it := range data.Results {
		if it.URL == "" {
			continue
		}
		candidates = append(candidates, Candidate{
			URL:      it.URL,
			Title:    it.Title,
			Snippet:  it.Content,
			Source:   SourceTavily,
			RankHint: i,
		})
	}

	candidates = FilterByMode(candidates, q.Mode)
	candidates = DedupCandidates(candidates)
	if len(candidates) > cfg.MaxCandidates {
		candidates = candidates[:cfg.MaxCandidates]
	}

	slog.Debug("tavily: discovered",
		slog.String("query_id", q.ID),
		slog.String("mode", string(q.Mode)),
		slog.Int("results", len(candidates)))
	return candidates, nil
}
