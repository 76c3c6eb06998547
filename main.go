// websearch is a multi-source search and enrichment service.
//
// Discovers URLs for a query through Serper and Tavily in parallel, merges
// and deduplicates them, then enriches each one: articles get full text via
// Diffbot (with a local readability fallback), videos get metadata and a
// transcript via the YouTube and AssemblyAI APIs.
package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/edulga/websearch/internal/config"
	"github.com/edulga/websearch/internal/engine"
	"github.com/edulga/websearch/internal/engine/video"
)

var version = "dev"

func main() {
	cfg := config.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Level(),
	})))

	if err := initEngine(cfg); err != nil {
		slog.Error("engine init failed", slog.Any("error", err))
		os.Exit(1)
	}

	engine.InitCache(cfg.Cache.RedisURL, cfg.Cache.TTL, cfg.Cache.MaxEntries, cfg.Cache.CleanupInterval)

	slog.Info("starting websearch",
		slog.String("version", version),
		slog.String("addr", cfg.Server.Addr))

	r := setupRouter()
	if err := r.Run(cfg.Server.Addr); err != nil {
		slog.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func initEngine(cfg config.Config) error {
	enricher := video.New(video.Config{
		YouTubeAPIKey:        cfg.Providers.YouTubeAPIKey,
		TranscriberAPIKey:    cfg.Providers.AssemblyAIKey,
		PollInterval:         cfg.Video.PollInterval,
		PollBackoffCap:       cfg.Video.PollBackoffCap,
		TranscriptionTimeout: cfg.Video.TranscriptionTimeout,
		MaxAudioDuration:     cfg.Video.MaxAudioDuration,
		TempDir:              cfg.Video.TempDir,
		Langs:                cfg.Video.Langs,
	})

	return engine.Init(engine.Config{
		SerperAPIKey:         cfg.Providers.SerperAPIKey,
		TavilyAPIKey:         cfg.Providers.TavilyAPIKey,
		DiffbotToken:         cfg.Providers.DiffbotToken,
		ProviderTimeout:      cfg.Pipeline.ProviderTimeout,
		ExtractorTimeout:     cfg.Pipeline.ExtractorTimeout,
		VideoItemTimeout:     cfg.Video.ItemTimeout,
		SearchTimeout:        cfg.Pipeline.SearchTimeout,
		MaxCandidates:        cfg.Pipeline.MaxCandidates,
		Concurrency:          cfg.Pipeline.Concurrency,
		ProviderConcurrency:  cfg.Pipeline.ProviderConcurrency,
		ProviderRPS:          cfg.Pipeline.ProviderRPS,
		PoolWorkers:          cfg.Pipeline.PoolWorkers,
		MaxContentChars:      cfg.Pipeline.MaxContentChars,
		Merge:                engine.MergeOptions{PreferLongerSnippet: cfg.Pipeline.PreferLongerSnippet},
		VideoEnricher:        enricher,
		CacheMaxEntries:      cfg.Cache.MaxEntries,
		CacheCleanupInterval: cfg.Cache.CleanupInterval,
	})
}

func setupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/search", handleSearch)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "websearch"})
	})
	r.GET("/metrics", func(c *gin.Context) {
		c.String(http.StatusOK, engine.FormatMetrics())
	})

	return r
}

func handleSearch(c *gin.Context) {
	q := engine.Query{
		Text: c.Query("query"),
		Mode: engine.Mode(c.DefaultQuery("mode", string(engine.ModeArticle))),
	}
	if q.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter is required"})
		return
	}
	if !q.Mode.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be 'search' or 'videos'"})
		return
	}

	records, err := engine.Search(c.Request.Context(), q)
	if err != nil {
		status := http.StatusBadGateway
		switch engine.Classify(err) {
		case engine.KindInternal:
			status = http.StatusInternalServerError
		case engine.KindCapacityExceeded:
			status = http.StatusServiceUnavailable
		case engine.KindTimedOut:
			status = http.StatusGatewayTimeout
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":   q.Text,
		"mode":    q.Mode,
		"count":   len(records),
		"results": records,
	})
}
