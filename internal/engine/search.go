package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Search runs the full pipeline for one query: discover candidates on both
// providers in parallel, merge and dedup, then enrich each candidate with
// article text or a video transcript. Provider failures degrade to the other
// provider's results; enrichment failures are isolated per candidate.
//
// Failed records are dropped from the response unless every candidate failed,
// in which case all failed records are returned so the caller can see what
// went wrong.
func Search(ctx context.Context, q Query) ([]Record, error) {
	metrics.SearchRequests.Add(1)

	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return nil, Errf(KindInternal, "search", "empty query text")
	}
	if !q.Mode.Valid() {
		return nil, Errf(KindInternal, "search", "invalid mode %q", q.Mode)
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.Mode == ModeVideo && cfg.VideoEnricher == nil {
		return nil, Errf(KindInternal, "search", "video mode not configured")
	}

	if cfg.SearchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.SearchTimeout)
		defer cancel()
	}

	cacheKey := CacheKey(string(q.Mode), strings.ToLower(q.Text))
	if records, ok := CacheGetRecords(ctx, cacheKey); ok {
		slog.Info("search: cache hit",
			slog.String("query_id", q.ID),
			slog.Int("results", len(records)))
		return records, nil
	}

	start := time.Now()
	slog.Info("search: started",
		slog.String("query_id", q.ID),
		slog.String("mode", string(q.Mode)),
		slog.String("query", q.Text))

	serperCh := make(chan []Candidate, 1)
	tavilyCh := make(chan []Candidate, 1)

	go func() {
		results, err := DiscoverSerper(ctx, q)
		if err != nil {
			slog.Warn("search: serper discovery failed",
				slog.String("query_id", q.ID),
				slog.Any("error", err))
			results = nil
		}
		serperCh <- results
	}()
	go func() {
		results, err := DiscoverTavily(ctx, q)
		if err != nil {
			slog.Warn("search: tavily discovery failed",
				slog.String("query_id", q.ID),
				slog.Any("error", err))
			results = nil
		}
		tavilyCh <- results
	}()

	serperResults := <-serperCh
	tavilyResults := <-tavilyCh

	candidates := MergeCandidates(serperResults, tavilyResults, cfg.Merge)
	if len(candidates) > cfg.MaxCandidates {
		candidates = candidates[:cfg.MaxCandidates]
	}
	if len(candidates) == 0 {
		slog.Info("search: no candidates", slog.String("query_id", q.ID))
		return []Record{}, nil
	}

	records := enrichAll(ctx, q, candidates)
	records, allFailed := dropFailed(records)

	slog.Info("search: completed",
		slog.String("query_id", q.ID),
		slog.Int("candidates", len(candidates)),
		slog.Int("results", len(records)),
		slog.Duration("elapsed", time.Since(start)))

	// An all-failed set usually means a transient outage; caching it would
	// pin the outage for the whole TTL.
	if !allFailed {
		CacheSetRecords(ctx, cacheKey, records)
	}
	return records, nil
}

// enrichAll fans out enrichment over the candidates with bounded parallelism.
// Output order matches candidate order. A candidate whose enrichment fails
// yields a failed record carrying whatever search-time fields were known.
func enrichAll(ctx context.Context, q Query, candidates []Candidate) []Record {
	perItem := cfg.ExtractorTimeout + 5*time.Second
	if q.Mode == ModeVideo {
		perItem = cfg.VideoItemTimeout
	}

	var outcomes []Outcome[Record]
	if q.Mode == ModeVideo {
		outcomes = MapBounded(ctx, candidates, cfg.Concurrency, perItem,
			func(ctx context.Context, c Candidate) (Record, error) {
				rec, err := cfg.VideoEnricher.Enrich(ctx, c)
				return rec, err
			})
	} else {
		outcomes = MapBounded(ctx, candidates, cfg.Concurrency, perItem,
			func(ctx context.Context, c Candidate) (Record, error) {
				rec, err := ExtractArticle(ctx, c)
				return rec, err
			})
	}

	records := make([]Record, 0, len(outcomes))
	for i, out := range outcomes {
		if out.OK() {
			records = append(records, out.Value)
			continue
		}
		c := candidates[i]
		slog.Warn("search: enrichment failed",
			slog.String("query_id", q.ID),
			slog.String("url", c.URL),
			slog.String("kind", string(out.Failure.Kind)),
			slog.Any("error", out.Failure.Err))
		records = append(records, failedRecord(q.Mode, c))
	}
	return records
}

func failedRecord(mode Mode, c Candidate) Record {
	if mode == ModeVideo {
		return VideoRecord{
			URL:              c.URL,
			Title:            c.Title,
			Snippet:          c.Snippet,
			Source:           c.Source,
			TranscriptSource: TranscriptUnavailable,
			Status:           StatusFailed,
		}
	}
	return ArticleRecord{
		URL:     c.URL,
		Title:   c.Title,
		Snippet: c.Snippet,
		Source:  c.Source,
		Status:  ExtractionFailed,
	}
}

// dropFailed removes failed records, unless every record failed. An
// all-failed response is returned intact so callers can distinguish "nothing
// found" from "everything broke"; the second return reports that case.
func dropFailed(records []Record) ([]Record, bool) {
	kept := make([]Record, 0, len(records))
	for _, r := range records {
		if !r.Failed() {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return records, len(records) > 0
	}
	return kept, false
}
