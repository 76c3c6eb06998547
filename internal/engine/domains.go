package engine

import (
	"net/url"
	"strings"
)

// videoDomains lists known video hosting or embedding domains. Links on these
// domains are excluded from article searches since they carry no extractable
// article body.
var videoDomains = []string{
	"youtube.com", "youtu.be", "vimeo.com", "dailymotion.com", "metacafe.com",
	"twitch.tv", "bilibili.com", "veoh.com", "vevo.com",

	"facebook.com", "fb.watch", "instagram.com", "tiktok.com", "x.com", "twitter.com",
	"linkedin.com/video",

	"coursera.org/lecture", "udemy.com/course", "edx.org/course", "khanacademy.org/video",

	"netflix.com", "hulu.com", "primevideo.com", "disneyplus.com",
	"player.vimeo.com", "video.google.com", "cdn.jwplayer.com", "videos.cdn", "dai.ly",
}

// videoWhitelist lists the platforms kept in video search results. Only these
// have metadata and transcript support.
var videoWhitelist = []string{
	"youtube.com", "youtu.be", "vimeo.com", "dailymotion.com",
	"twitch.tv", "bilibili.com",

	"linkedin.com/video",

	"coursera.org/lecture", "udemy.com/course", "edx.org/course", "khanacademy.org/video",

	"video.google.com",
}

func matchesDomainList(link string, list []string) bool {
	host := ""
	if u, err := url.Parse(link); err == nil {
		host = strings.ToLower(u.Host)
	}
	lower := strings.ToLower(link)
	for _, d := range list {
		if strings.Contains(host, d) || strings.Contains(lower, d) {
			return true
		}
	}
	return false
}

// IsVideoLink reports whether the URL belongs to a known video domain.
func IsVideoLink(link string) bool {
	return matchesDomainList(link, videoDomains)
}

// IsAllowedVideoLink reports whether the URL belongs to a supported video platform.
func IsAllowedVideoLink(link string) bool {
	return matchesDomainList(link, videoWhitelist)
}

// FilterByMode drops candidates that do not fit the search mode: video links
// are removed from article searches, and only whitelisted platforms survive
// video searches.
func FilterByMode(in []Candidate, mode Mode) []Candidate {
	out := make([]Candidate, 0, len(in))
	for _, c := range in {
		switch mode {
		case ModeArticle:
			if IsVideoLink(c.URL) {
				continue
			}
		case ModeVideo:
			if !IsAllowedVideoLink(c.URL) {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}
