package engine

import "context"

// --- Query types ---

// Mode selects the content vertical for a search.
type Mode string

const (
	// ModeArticle searches text articles ("search" in the public API).
	ModeArticle Mode = "search"
	// ModeVideo searches video content ("videos" in the public API).
	ModeVideo Mode = "videos"
)

// Valid reports whether m is a recognized search mode.
func (m Mode) Valid() bool {
	return m == ModeArticle || m == ModeVideo
}

// Query is one search invocation. Immutable after construction.
type Query struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Mode Mode   `json:"mode"`
}

// --- Discovery types ---

// SourceProvider identifies which search provider surfaced a candidate.
type SourceProvider string

const (
	SourceSerper SourceProvider = "serper"
	SourceTavily SourceProvider = "tavily"
	SourceBoth   SourceProvider = "both"
)

// Candidate is a URL plus provider-supplied title/snippet awaiting enrichment.
// Identity is the URL after canonicalization (see CanonicalURL).
type Candidate struct {
	URL      string         `json:"url"`
	Title    string         `json:"title"`
	Snippet  string         `json:"snippet"`
	Source   SourceProvider `json:"retrieved_source"`
	RankHint int            `json:"rank_hint"`
}

// --- Enriched record types ---

// ExtractionStatus reports how article extraction went.
type ExtractionStatus string

const (
	ExtractionOK     ExtractionStatus = "ok"
	ExtractionEmpty  ExtractionStatus = "empty"
	ExtractionFailed ExtractionStatus = "failed"
)

// RecordStatus reports overall enrichment fidelity for a video.
type RecordStatus string

const (
	StatusOK RecordStatus = "ok"
	// StatusPartial means metadata is known but the transcript is unavailable.
	StatusPartial RecordStatus = "partial"
	StatusFailed  RecordStatus = "failed"
)

// TranscriptSource says where a video transcript came from.
type TranscriptSource string

const (
	TranscriptNativeCaptions TranscriptSource = "native_captions"
	TranscriptTranscribed    TranscriptSource = "transcribed"
	TranscriptUnavailable    TranscriptSource = "unavailable"
)

// ArticleRecord is a fully enriched text result.
// Text may be empty when Status != ExtractionOK.
type ArticleRecord struct {
	URL         string           `json:"url"`
	Title       string           `json:"title"`
	Snippet     string           `json:"snippet,omitempty"`
	Source      SourceProvider   `json:"retrieved_source,omitempty"`
	Text        string           `json:"text"`
	Author      string           `json:"author,omitempty"`
	Site        string           `json:"site,omitempty"`
	PublishedAt string           `json:"published_at,omitempty"`
	Language    string           `json:"language,omitempty"`
	Status      ExtractionStatus `json:"extraction_status"`
}

// Failed implements Record.
func (a ArticleRecord) Failed() bool { return a.Status == ExtractionFailed }

// VideoRecord is a fully enriched video result.
type VideoRecord struct {
	URL              string           `json:"url"`
	VideoID          string           `json:"video_id"`
	Title            string           `json:"title"`
	Channel          string           `json:"channel"`
	Snippet          string           `json:"snippet,omitempty"`
	Source           SourceProvider   `json:"retrieved_source,omitempty"`
	DurationSeconds  int              `json:"duration"`
	TranscriptText   string           `json:"transcript"`
	TranscriptSource TranscriptSource `json:"transcript_source"`
	Status           RecordStatus     `json:"status"`
}

// Failed implements Record.
func (v VideoRecord) Failed() bool { return v.Status == StatusFailed }

// Record is one enriched search result: an ArticleRecord or a VideoRecord.
type Record interface {
	Failed() bool
}

// VideoEnricher converts a video candidate into a VideoRecord.
// Implemented by the video pipeline and injected via Config, so the engine
// stays decoupled from the video package.
type VideoEnricher interface {
	Enrich(ctx context.Context, c Candidate) (VideoRecord, error)
}
