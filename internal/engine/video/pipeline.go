package video

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/edulga/websearch/internal/engine"
)

// Config holds credentials, endpoints, and tuning for video enrichment.
// Base URLs are overridable for tests.
type Config struct {
	YouTubeAPIKey    string
	YouTubeBaseURL   string // default https://www.googleapis.com/youtube/v3
	InnertubeBaseURL string // default https://www.youtube.com/youtubei/v1

	TranscriberAPIKey  string
	TranscriberBaseURL string // default https://api.assemblyai.com

	PollInterval         time.Duration // first poll delay, default 5s
	PollBackoffCap       time.Duration // max delay between polls, default 30s
	TranscriptionTimeout time.Duration // upload to final status, default 600s
	MaxAudioDuration     time.Duration // videos longer than this are not transcribed, default 30m

	TempDir string   // where audio files land, "" = system default
	Langs   []string // caption language preference order
}

// Pipeline enriches video candidates with metadata and transcripts.
// Implements engine.VideoEnricher.
type Pipeline struct {
	cfg Config
}

// New builds a Pipeline, filling config defaults.
func New(c Config) *Pipeline {
	if c.YouTubeBaseURL == "" {
		c.YouTubeBaseURL = "https://www.googleapis.com/youtube/v3"
	}
	if c.InnertubeBaseURL == "" {
		c.InnertubeBaseURL = "https://www.youtube.com/youtubei/v1"
	}
	if c.TranscriberBaseURL == "" {
		c.TranscriberBaseURL = "https://api.assemblyai.com"
	}
	if c.PollInterval == 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.PollBackoffCap == 0 {
		c.PollBackoffCap = 30 * time.Second
	}
	if c.TranscriptionTimeout == 0 {
		c.TranscriptionTimeout = 600 * time.Second
	}
	if c.MaxAudioDuration == 0 {
		c.MaxAudioDuration = 30 * time.Minute
	}
	if len(c.Langs) == 0 {
		c.Langs = []string{"en"}
	}
	return &Pipeline{cfg: c}
}

// Enrich turns a video candidate into a full VideoRecord. The transcript is
// sourced in preference order: native captions, then speech-to-text over the
// downloaded audio track. A video whose transcript cannot be obtained still
// comes back PARTIAL with its metadata; only a video we know nothing about
// produces an error.
func (p *Pipeline) Enrich(ctx context.Context, c engine.Candidate) (engine.VideoRecord, error) {
	rec := engine.VideoRecord{
		URL:              c.URL,
		Title:            c.Title,
		Snippet:          c.Snippet,
		Source:           c.Source,
		TranscriptSource: engine.TranscriptUnavailable,
		Status:           engine.StatusPartial,
	}

	videoID := ExtractVideoID(c.URL)
	if videoID == "" {
		// Whitelisted non-YouTube platform. Keep the search-time fields.
		return rec, nil
	}
	rec.VideoID = videoID

	meta, err := p.fetchMetadata(ctx, videoID)
	if err != nil {
		rec.Status = engine.StatusFailed
		return rec, err
	}
	if meta.Title != "" {
		rec.Title = meta.Title
	}
	rec.Channel = meta.Channel
	rec.DurationSeconds = meta.DurationSeconds
	if rec.Snippet == "" {
		rec.Snippet = engine.Truncate(meta.Description, 500)
	}

	if meta.HasCaptions {
		captions, err := p.fetchCaptions(ctx, videoID)
		if err != nil {
			slog.Warn("video: caption fetch failed, falling back to transcription",
				slog.String("video_id", videoID),
				slog.Any("error", err))
		} else if captions != "" {
			rec.TranscriptText = engine.Truncate(captions, engine.Cfg.MaxContentChars)
			rec.TranscriptSource = engine.TranscriptNativeCaptions
			rec.Status = engine.StatusOK
			return rec, nil
		}
	}

	if time.Duration(meta.DurationSeconds)*time.Second > p.cfg.MaxAudioDuration {
		slog.Info("video: too long to transcribe",
			slog.String("video_id", videoID),
			slog.Int("duration_seconds", meta.DurationSeconds))
		return rec, nil
	}

	// The temp file is created and removed here, not on the pool worker, so
	// an enrichment context that expires mid-download cannot orphan it.
	tmp, err := os.CreateTemp(p.cfg.TempDir, "audio-*.m4a")
	if err != nil {
		slog.Warn("video: cannot create audio temp file",
			slog.String("video_id", videoID),
			slog.Any("error", err))
		return rec, nil
	}
	audioPath := tmp.Name()
	tmp.Close()
	defer os.Remove(audioPath)

	_, err = engine.OnPool(ctx, engine.SharedPool(), func() (struct{}, error) {
		return struct{}{}, p.downloadAudio(ctx, videoID, audioPath)
	})
	if err != nil {
		slog.Warn("video: audio download failed",
			slog.String("video_id", videoID),
			slog.Any("error", err))
		return rec, nil
	}

	text, err := p.transcribe(ctx, audioPath)
	if err != nil {
		slog.Warn("video: transcription failed",
			slog.String("video_id", videoID),
			slog.Any("error", err))
		return rec, nil
	}

	rec.TranscriptText = engine.Truncate(text, engine.Cfg.MaxContentChars)
	rec.TranscriptSource = engine.TranscriptTranscribed
	rec.Status = engine.StatusOK
	return rec, nil
}
