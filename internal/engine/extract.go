package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

type diffbotObject struct {
	Title  string   `json:"title"`
	Text   string   `json:"text"`
	Author string   `json:"author"`
	Site   string   `json:"site"`
	Date   string   `json:"date"`
	Lang   string   `json:"humanLanguage"`
	Tags   []string `json:"tags"`
}

type diffbotResponse struct {
	Objects []diffbotObject `json:"objects"`
}

// ExtractArticle enriches a discovered candidate with full article text.
// Diffbot's Article API is tried first. When it fails or returns nothing,
// the page is fetched directly and parsed locally. A candidate whose page
// yields no body text comes back with an EMPTY status, still carrying the
// search-time title and snippet.
func ExtractArticle(ctx context.Context, c Candidate) (ArticleRecord, error) {
	metrics.ExtractRequests.Add(1)

	rec := ArticleRecord{
		URL:     c.URL,
		Title:   c.Title,
		Snippet: c.Snippet,
		Source:  c.Source,
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.ExtractorTimeout)
	defer cancel()

	obj, err := extractWithDiffbot(ctx, c.URL)
	if err != nil {
		slog.Warn("extract: diffbot failed, trying local parse",
			slog.String("url", c.URL),
			slog.Any("error", err))
		return extractLocally(ctx, rec)
	}

	if obj.Title != "" {
		rec.Title = obj.Title
	}
	rec.Author = obj.Author
	rec.Site = obj.Site
	rec.PublishedAt = obj.Date
	rec.Language = obj.Lang

	text := strings.TrimSpace(obj.Text)
	if text == "" {
		rec.Status = ExtractionEmpty
		return rec, nil
	}
	rec.Text = Truncate(text, cfg.MaxContentChars)
	rec.Status = ExtractionOK
	return rec, nil
}

func extractWithDiffbot(ctx context.Context, rawURL string) (*diffbotObject, error) {
	release, err := diffbotLimiter.Acquire(ctx)
	if err != nil {
		metrics.ExtractErrors.Add(1)
		return nil, err
	}
	defer release()

	params := url.Values{}
	params.Set("token", cfg.DiffbotToken)
	params.Set("url", rawURL)
	params.Set("discussion", "false")
	params.Set("timeout", fmt.Sprintf("%d", cfg.ExtractorTimeout.Milliseconds()))
	endpoint := cfg.DiffbotBaseURL + "/v3/article?" + params.Encode()

	resp, err := RetryHTTP(ctx, DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		return cfg.HTTPClient.Do(req)
	})
	if err != nil {
		metrics.ExtractErrors.Add(1)
		return nil, &PipelineError{Kind: Classify(err), Op: "diffbot", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ExtractErrors.Add(1)
		return nil, Errf(KindRemoteRejected, "diffbot", "HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		metrics.ExtractErrors.Add(1)
		return nil, &PipelineError{Kind: KindRemoteUnreachable, Op: "diffbot", Err: err}
	}

	var data diffbotResponse
	if err := json.Unmarshal(body, &data); err != nil {
		metrics.ExtractErrors.Add(1)
		return nil, &PipelineError{Kind: KindDecodeFailed, Op: "diffbot", Err: err}
	}
	if len(data.Objects) == 0 {
		return nil, Errf(KindUpstreamEmpty, "diffbot", "no article object for %s", rawURL)
	}
	return &data.Objects[0], nil
}

// extractLocally fetches the page and parses it with readability, falling
// back to goquery selectors when the readability heuristics reject the page.
func extractLocally(ctx context.Context, rec ArticleRecord) (ArticleRecord, error) {
	resp, err := RetryHTTP(ctx, DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rec.URL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", UserAgentChrome)
		return cfg.HTTPClient.Do(req)
	})
	if err != nil {
		metrics.ExtractErrors.Add(1)
		rec.Status = ExtractionFailed
		return rec, &PipelineError{Kind: Classify(err), Op: "extract", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ExtractErrors.Add(1)
		rec.Status = ExtractionFailed
		return rec, Errf(KindRemoteRejected, "extract", "HTTP %d fetching %s", resp.StatusCode, rec.URL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		metrics.ExtractErrors.Add(1)
		rec.Status = ExtractionFailed
		return rec, &PipelineError{Kind: KindRemoteUnreachable, Op: "extract", Err: err}
	}

	title, text := parseArticleHTML(body, rec.URL)
	if title != "" && rec.Title == "" {
		rec.Title = title
	}
	if text == "" {
		rec.Status = ExtractionEmpty
		return rec, nil
	}
	rec.Text = Truncate(text, cfg.MaxContentChars)
	rec.Status = ExtractionOK
	return rec, nil
}

func parseArticleHTML(body []byte, rawURL string) (title, text string) {
	parsedURL, _ := url.Parse(rawURL)

	article, err := readability.FromReader(strings.NewReader(string(body)), parsedURL)
	if err == nil {
		md, mdErr := htmltomarkdown.ConvertString(article.Content)
		if mdErr != nil {
			md = article.TextContent
		}
		return article.Title, strings.TrimSpace(md)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", ""
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find("script, style, noscript, iframe, svg, header, footer, nav, aside").Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})

	contentSel := doc.Find("article, main, .content, .post-content, #content").First()
	if contentSel.Length() == 0 {
		contentSel = doc.Find("body")
	}

	var lines []string
	for _, line := range strings.Split(contentSel.Text(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return title, strings.Join(lines, "\n")
}
