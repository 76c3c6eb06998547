package engine

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	SearchRequests     atomic.Int64
	SerperRequests     atomic.Int64
	SerperErrors       atomic.Int64
	TavilyRequests     atomic.Int64
	TavilyErrors       atomic.Int64
	ExtractRequests    atomic.Int64
	ExtractErrors      atomic.Int64
	VideoMetadata      atomic.Int64
	AudioDownloads     atomic.Int64
	TranscriptJobs     atomic.Int64
	TranscriptTimeouts atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"search_requests":     metrics.SearchRequests.Load(),
		"serper_requests":     metrics.SerperRequests.Load(),
		"serper_errors":       metrics.SerperErrors.Load(),
		"tavily_requests":     metrics.TavilyRequests.Load(),
		"tavily_errors":       metrics.TavilyErrors.Load(),
		"extract_requests":    metrics.ExtractRequests.Load(),
		"extract_errors":      metrics.ExtractErrors.Load(),
		"video_metadata":      metrics.VideoMetadata.Load(),
		"audio_downloads":     metrics.AudioDownloads.Load(),
		"transcript_jobs":     metrics.TranscriptJobs.Load(),
		"transcript_timeouts": metrics.TranscriptTimeouts.Load(),
		"cache_hits":          hits,
		"cache_misses":        misses,
	}
}

// FormatMetrics returns metrics as a simple text format for the HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"search_requests",
		"serper_requests", "serper_errors",
		"tavily_requests", "tavily_errors",
		"extract_requests", "extract_errors",
		"video_metadata", "audio_downloads",
		"transcript_jobs", "transcript_timeouts",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the video sub-package.
func IncrVideoMetadata()      { metrics.VideoMetadata.Add(1) }
func IncrAudioDownloads()     { metrics.AudioDownloads.Add(1) }
func IncrTranscriptJobs()     { metrics.TranscriptJobs.Add(1) }
func IncrTranscriptTimeouts() { metrics.TranscriptTimeouts.Add(1) }
