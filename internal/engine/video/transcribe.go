package video

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/edulga/websearch/internal/engine"
)

// Transcription service client. Three calls: upload raw audio, submit a
// transcript job, poll its status until a terminal answer.

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptRequest struct {
	AudioURL string `json:"audio_url"`
}

type transcriptResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"` // queued | processing | completed | error/failed
	Text   string `json:"text"`
	Error  string `json:"error"`
}

func (p *Pipeline) transcriberDo(ctx context.Context, method, path string, body io.Reader, contentType string) (*transcriptResponse, error) {
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, method, p.cfg.TranscriberBaseURL+path, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", p.cfg.TranscriberAPIKey)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, &engine.PipelineError{Kind: engine.Classify(err), Op: "transcribe", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, engine.Errf(engine.KindRemoteRejected, "transcribe", "HTTP %d from %s", resp.StatusCode, path)
	}

	var out transcriptResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 16<<20)).Decode(&out); err != nil {
		return nil, &engine.PipelineError{Kind: engine.KindDecodeFailed, Op: "transcribe", Err: err}
	}
	return &out, nil
}

// uploadAudio sends the local audio file to the transcription service and
// returns the temporary URL the service assigned to it.
func (p *Pipeline) uploadAudio(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", engine.Errf(engine.KindInternal, "transcribe", "read audio file: %v", err)
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.TranscriberBaseURL+"/v2/upload", bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", p.cfg.TranscriberAPIKey)
		req.Header.Set("Content-Type", "application/octet-stream")
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return "", &engine.PipelineError{Kind: engine.Classify(err), Op: "transcribe", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", engine.Errf(engine.KindRemoteRejected, "transcribe", "upload returned HTTP %d", resp.StatusCode)
	}

	var out uploadResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", &engine.PipelineError{Kind: engine.KindDecodeFailed, Op: "transcribe", Err: err}
	}
	if out.UploadURL == "" {
		return "", engine.Errf(engine.KindDecodeFailed, "transcribe", "upload response missing upload_url")
	}
	return out.UploadURL, nil
}

// submitTranscript creates a transcription job for an uploaded audio URL.
func (p *Pipeline) submitTranscript(ctx context.Context, audioURL string) (*transcriptResponse, error) {
	payload, err := json.Marshal(transcriptRequest{AudioURL: audioURL})
	if err != nil {
		return nil, engine.Errf(engine.KindInternal, "transcribe", "marshal request: %v", err)
	}
	return p.transcriberDo(ctx, http.MethodPost, "/v2/transcript", bytes.NewReader(payload), "application/json")
}

// transcribe runs the full upload, submit, poll sequence against the
// transcription service, tracking progress in the job state machine.
// The whole sequence is bounded by TranscriptionTimeout.
func (p *Pipeline) transcribe(ctx context.Context, audioPath string) (string, error) {
	engine.IncrTranscriptJobs()

	job := newJob()
	ctx, cancel := context.WithTimeout(ctx, p.cfg.TranscriptionTimeout)
	defer cancel()

	audioURL, err := p.uploadAudio(ctx, audioPath)
	if err != nil {
		return "", p.failJob(job, err)
	}
	if err := job.advance(JobUploaded); err != nil {
		return "", err
	}

	submitted, err := p.submitTranscript(ctx, audioURL)
	if err != nil {
		return "", p.failJob(job, err)
	}
	if err := job.advance(JobSubmitted); err != nil {
		return "", err
	}
	job.RemoteID = submitted.ID

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.cfg.PollInterval
	bo.MaxInterval = p.cfg.PollBackoffCap
	bo.Multiplier = 1.5

	for {
		wait := bo.NextBackOff()
		select {
		case <-ctx.Done():
			return "", p.timeOutJob(job)
		case <-time.After(wait):
		}

		status, err := p.transcriberDo(ctx, http.MethodGet, "/v2/transcript/"+job.RemoteID, nil, "")
		if err != nil {
			if ctx.Err() != nil {
				return "", p.timeOutJob(job)
			}
			slog.Warn("transcribe: poll failed",
				slog.String("job_id", job.ID),
				slog.Any("error", err))
			continue
		}
		job.LastPollAt = time.Now()
		job.Attempts++

		switch status.Status {
		case "queued", "processing":
			if job.State != JobProcessing {
				if err := job.advance(JobProcessing); err != nil {
					return "", err
				}
			}
		case "completed":
			if err := job.advance(JobCompleted); err != nil {
				return "", err
			}
			return status.Text, nil
		case "error", "failed":
			return "", p.failJob(job,
				engine.Errf(engine.KindRemoteRejected, "transcribe", "job failed: %s", status.Error))
		default:
			return "", p.failJob(job,
				engine.Errf(engine.KindDecodeFailed, "transcribe", "unknown job status %q", status.Status))
		}
	}
}

func (p *Pipeline) failJob(job *Job, err error) error {
	_ = job.advance(JobFailed)
	return err
}

func (p *Pipeline) timeOutJob(job *Job) error {
	engine.IncrTranscriptTimeouts()
	_ = job.advance(JobTimedOut)
	return engine.Errf(engine.KindTimedOut, "transcribe",
		"job %s timed out after %d polls", job.ID, job.Attempts)
}
