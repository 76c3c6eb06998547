package config

import (
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "WEBSEARCH_CONFIG"
	serperKeyEnv      = "SERPER_API_KEY"
	tavilyKeyEnv      = "TAVILY_API_KEY"
	diffbotTokenEnv   = "DIFFBOT_API_KEY"
	youtubeKeyEnv     = "YOUTUBE_API_KEY"
	transcriberKeyEnv = "ASSEMBLYAI_API_KEY"
	redisURLEnv       = "REDIS_URL"
	listenAddrEnv     = "LISTEN_ADDR"
)

// Config is the full application configuration, loaded from an optional YAML
// file with environment overrides for secrets and deployment knobs.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Video     VideoConfig     `yaml:"video"`
	Cache     CacheConfig     `yaml:"cache"`
	LogLevel  string          `yaml:"logLevel"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// ProvidersConfig holds credentials for the search and extraction services.
type ProvidersConfig struct {
	SerperAPIKey  string `yaml:"serperApiKey"`
	TavilyAPIKey  string `yaml:"tavilyApiKey"`
	DiffbotToken  string `yaml:"diffbotToken"`
	YouTubeAPIKey string `yaml:"youtubeApiKey"`
	AssemblyAIKey string `yaml:"assemblyaiApiKey"`
}

// PipelineConfig tunes discovery and enrichment behavior.
type PipelineConfig struct {
	MaxCandidates       int           `yaml:"maxCandidates"`
	Concurrency         int           `yaml:"concurrency"`
	ProviderConcurrency int           `yaml:"providerConcurrency"`
	ProviderRPS         float64       `yaml:"providerRps"`
	PoolWorkers         int           `yaml:"poolWorkers"`
	MaxContentChars     int           `yaml:"maxContentChars"`
	ProviderTimeout     time.Duration `yaml:"providerTimeout"`
	ExtractorTimeout    time.Duration `yaml:"extractorTimeout"`
	SearchTimeout       time.Duration `yaml:"searchTimeout"`
	PreferLongerSnippet bool          `yaml:"preferLongerSnippet"`
}

// VideoConfig tunes the video transcript pipeline.
type VideoConfig struct {
	ItemTimeout          time.Duration `yaml:"itemTimeout"`
	PollInterval         time.Duration `yaml:"pollInterval"`
	PollBackoffCap       time.Duration `yaml:"pollBackoffCap"`
	TranscriptionTimeout time.Duration `yaml:"transcriptionTimeout"`
	MaxAudioDuration     time.Duration `yaml:"maxAudioDuration"`
	TempDir              string        `yaml:"tempDir"`
	Langs                []string      `yaml:"langs"`
}

// CacheConfig controls the result cache.
type CacheConfig struct {
	RedisURL        string        `yaml:"redisUrl"`
	TTL             time.Duration `yaml:"ttl"`
	MaxEntries      int           `yaml:"maxEntries"`
	CleanupInterval time.Duration `yaml:"cleanupInterval"`
}

// Load reads the YAML file named by WEBSEARCH_CONFIG (if set) over the
// defaults, then applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("config: cannot read file, using defaults",
				slog.String("path", path), slog.Any("error", err))
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			slog.Warn("config: cannot parse file, using defaults",
				slog.String("path", path), slog.Any("error", err))
			cfg = defaultConfig()
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(serperKeyEnv); v != "" {
		c.Providers.SerperAPIKey = v
	}
	if v := os.Getenv(tavilyKeyEnv); v != "" {
		c.Providers.TavilyAPIKey = v
	}
	if v := os.Getenv(diffbotTokenEnv); v != "" {
		c.Providers.DiffbotToken = v
	}
	if v := os.Getenv(youtubeKeyEnv); v != "" {
		c.Providers.YouTubeAPIKey = v
	}
	if v := os.Getenv(transcriberKeyEnv); v != "" {
		c.Providers.AssemblyAIKey = v
	}
	if v := os.Getenv(redisURLEnv); v != "" {
		c.Cache.RedisURL = v
	}
	if v := os.Getenv(listenAddrEnv); v != "" {
		c.Server.Addr = v
	}
}

// Level parses the configured log level, defaulting to info.
func (c Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Pipeline: PipelineConfig{
			MaxCandidates:       10,
			Concurrency:         5,
			ProviderConcurrency: 5,
			PoolWorkers:         4,
			MaxContentChars:     20000,
			ProviderTimeout:     10 * time.Second,
			ExtractorTimeout:    60 * time.Second,
		},
		Video: VideoConfig{
			ItemTimeout:          700 * time.Second,
			PollInterval:         5 * time.Second,
			PollBackoffCap:       30 * time.Second,
			TranscriptionTimeout: 600 * time.Second,
			MaxAudioDuration:     30 * time.Minute,
			Langs:                []string{"en"},
		},
		Cache: CacheConfig{
			TTL:             15 * time.Minute,
			MaxEntries:      1000,
			CleanupInterval: 5 * time.Minute,
		},
		LogLevel: "info",
	}
}
