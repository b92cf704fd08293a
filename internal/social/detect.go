// Package social turns short-form video and article links into posts.
package social

import (
	"net/url"
	"strings"

	"github.com/hpungsan/tweetsched/internal/errors"
)

// Platform names where a link points.
type Platform string

const (
	TikTok    Platform = "tiktok"
	Instagram Platform = "instagram"
	YouTube   Platform = "youtube"
	Article   Platform = "article"
)

// newsHosts are host fragments treated as article sites.
var newsHosts = []string{
	"bbc.", "cnn.", "reuters.", "news.", "medium.", "blog.",
	"forbes.", "techcrunch.", "theverge.", "wired.", "nytimes.",
	"washingtonpost.", "guardian.", "bloomberg.",
}

// articlePaths are path fragments that mark an article on any host.
var articlePaths = []string{"/article/", "/post/", "/blog/", "/news/", ".html", ".htm"}

// Detect classifies rawURL by host, then by path.
func Detect(rawURL string) (Platform, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", errors.NewInvalidRequest("url must be an absolute http(s) URL")
	}

	host := strings.ToLower(u.Host)
	switch {
	case strings.Contains(host, "tiktok"):
		return TikTok, nil
	case strings.Contains(host, "instagram"):
		return Instagram, nil
	case strings.Contains(host, "youtube") || strings.Contains(host, "youtu.be"):
		return YouTube, nil
	}

	for _, h := range newsHosts {
		if strings.Contains(host, h) {
			return Article, nil
		}
	}
	path := strings.ToLower(u.Path)
	for _, p := range articlePaths {
		if strings.Contains(path, p) {
			return Article, nil
		}
	}
	return "", errors.NewUnsupportedPlatform(rawURL)
}
