package engine

import (
	"net/url"
	"strings"
)

// Tracking query parameters stripped during canonicalization.
var trackingParams = map[string]bool{
	"gclid":   true,
	"fbclid":  true,
	"msclkid": true,
}

// CanonicalURL normalizes a URL for deduplication: lowercase scheme and host,
// default port stripped, trailing slash removed on the path root only,
// utm_*/click-tracker query parameters removed, fragment dropped.
// URLs without a scheme get https (providers occasionally return bare hosts).
func CanonicalURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", Errf(KindInternal, "canonical", "empty URL")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	switch {
	case u.Scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	u.Host = host

	if u.Path == "/" {
		u.Path = ""
	}

	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			if trackingParams[key] || strings.HasPrefix(strings.ToLower(key), "utm_") {
				q.Del(key)
			}
		}
		u.RawQuery = q.Encode()
	}

	u.Fragment = ""
	u.RawFragment = ""

	return u.String(), nil
}

// canonicalKey is CanonicalURL for map keys: on parse failure it falls back
// to the trimmed lowercase raw string so broken URLs still dedup consistently.
func canonicalKey(raw string) string {
	c, err := CanonicalURL(raw)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(raw))
	}
	return c
}
