package engine

import (
	"errors"
	"net/http"
	"time"
)

// NewHTTPClient creates an HTTP client with connection pooling suitable for
// the provider and enrichment calls. The client carries no overall timeout:
// request lifetimes are bounded by the per-stage context deadlines, which
// exceed any single fixed cap (long extractions, audio stream downloads).
// Connection setup is still bounded so a dead host fails fast.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:          20,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       60 * time.Second,
			TLSHandshakeTimeout:   15 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			return nil
		},
	}
}
