package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	// Provider credentials and endpoints. Base URLs are overridable for tests.
	SerperAPIKey   string
	SerperBaseURL  string // default https://google.serper.dev
	TavilyAPIKey   string
	TavilyBaseURL  string // default https://api.tavily.com
	DiffbotToken   string
	DiffbotBaseURL string // default https://api.diffbot.com

	// Timeouts. VideoItemTimeout bounds one video enrichment end to end and
	// must exceed the transcription timeout configured on the video pipeline.
	ProviderTimeout  time.Duration // per provider discovery call, default 10s
	ExtractorTimeout time.Duration // per article extraction, default 60s
	VideoItemTimeout time.Duration // per video enrichment, default 700s
	SearchTimeout    time.Duration // whole invocation, 0 = uncapped

	MaxCandidates       int     // candidates enriched per invocation, default 10
	Concurrency         int     // fan-out width, default 5
	ProviderConcurrency int     // global in-flight cap per collaborator, default 5
	ProviderRPS         float64 // requests/second per collaborator, 0 = unlimited
	PoolWorkers         int     // blocking-work pool size, default 4
	MaxContentChars     int     // cap on extracted text, default 20000

	Merge MergeOptions

	HTTPClient    *http.Client
	VideoEnricher VideoEnricher // nil = video mode unavailable

	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages.
// Always points to the current cfg value.
var Cfg = &cfg

// Shared collaborator limiters and the blocking-work pool, built by Init.
var (
	pool           *Pool
	serperLimiter  *Limiter
	tavilyLimiter  *Limiter
	diffbotLimiter *Limiter
)

// SharedPool returns the process-wide blocking-work pool.
func SharedPool() *Pool { return pool }

// Init validates the configuration, fills defaults, and builds the shared
// pool and per-collaborator limiters. It must be called before Search.
func Init(c Config) error {
	if c.MaxCandidates < 0 || c.Concurrency < 0 || c.ProviderConcurrency < 0 || c.PoolWorkers < 0 {
		return Errf(KindInternal, "config", "negative concurrency or candidate limit")
	}
	if c.ProviderTimeout < 0 || c.ExtractorTimeout < 0 || c.VideoItemTimeout < 0 || c.SearchTimeout < 0 {
		return Errf(KindInternal, "config", "negative timeout")
	}

	if c.SerperBaseURL == "" {
		c.SerperBaseURL = "https://google.serper.dev"
	}
	if c.TavilyBaseURL == "" {
		c.TavilyBaseURL = "https://api.tavily.com"
	}
	if c.DiffbotBaseURL == "" {
		c.DiffbotBaseURL = "https://api.diffbot.com"
	}
	if c.ProviderTimeout == 0 {
		c.ProviderTimeout = 10 * time.Second
	}
	if c.ExtractorTimeout == 0 {
		c.ExtractorTimeout = 60 * time.Second
	}
	if c.VideoItemTimeout == 0 {
		c.VideoItemTimeout = 700 * time.Second
	}
	if c.MaxCandidates == 0 {
		c.MaxCandidates = 10
	}
	if c.Concurrency == 0 {
		c.Concurrency = 5
	}
	if c.ProviderConcurrency == 0 {
		c.ProviderConcurrency = 5
	}
	if c.PoolWorkers == 0 {
		c.PoolWorkers = 4
	}
	if c.MaxContentChars == 0 {
		c.MaxContentChars = 20000
	}
	if c.HTTPClient == nil {
		c.HTTPClient = NewHTTPClient()
	}

	cfg = c
	Cfg = &cfg

	if pool != nil {
		pool.Close()
	}
	pool = NewPool(c.PoolWorkers)
	serperLimiter = NewLimiter(c.ProviderConcurrency, c.ProviderRPS)
	tavilyLimiter = NewLimiter(c.ProviderConcurrency, c.ProviderRPS)
	diffbotLimiter = NewLimiter(c.ProviderConcurrency, c.ProviderRPS)
	return nil
}
