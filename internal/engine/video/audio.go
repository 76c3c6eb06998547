package video

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/edulga/websearch/internal/engine"
)

// pickAudioFormat chooses the highest-bitrate audio-only stream.
func pickAudioFormat(formats []adaptiveFormat) (adaptiveFormat, bool) {
	var best adaptiveFormat
	found := false
	for _, f := range formats {
		if f.URL == "" || !strings.HasPrefix(f.MimeType, "audio/") {
			continue
		}
		if !found || f.Bitrate > best.Bitrate {
			best = f
			found = true
		}
	}
	return best, found
}

// downloadAudio streams a video's audio track into path. The file at path
// must already exist; it is opened, never created, so the caller keeps sole
// ownership of the directory entry and can unlink it at any time.
func (p *Pipeline) downloadAudio(ctx context.Context, videoID, path string) error {
	engine.IncrAudioDownloads()

	player, err := p.fetchPlayer(ctx, videoID)
	if err != nil {
		return err
	}
	if player.StreamingData == nil {
		return engine.Errf(engine.KindUpstreamEmpty, "audio", "no streaming data for %s", videoID)
	}
	format, ok := pickAudioFormat(player.StreamingData.AdaptiveFormats)
	if !ok {
		return engine.Errf(engine.KindUpstreamEmpty, "audio", "no audio stream for %s", videoID)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return engine.Errf(engine.KindInternal, "audio", "open temp file: %v", err)
	}
	defer f.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, format.URL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", ytAndroidUA)

	resp, err := engine.Cfg.HTTPClient.Do(req)
	if err != nil {
		return &engine.PipelineError{Kind: engine.Classify(err), Op: "audio", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return engine.Errf(engine.KindRemoteRejected, "audio", "stream returned HTTP %d", resp.StatusCode)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		return &engine.PipelineError{Kind: engine.Classify(err), Op: "audio", Err: err}
	}
	if err := f.Close(); err != nil {
		return engine.Errf(engine.KindInternal, "audio", "close temp file: %v", err)
	}
	return nil
}
