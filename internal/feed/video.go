// File: internal/feed/video.go
package feed

import (
	"net/url"
	"regexp"
	"strings"
)

// EmbedBase is the canonical player URL prefix for a resolvable video id.
const EmbedBase = "https://www.youtube.com/embed/"

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{6,}$`)

// VideoReference identifies the video to embed. It is immutable once built;
// construct it with NewVideoReference.
type VideoReference struct {
	id           string
	canonicalURL string
	embedURL     string
}

// NewVideoReference derives the embed URL from id, falling back to the id
// found in canonicalURL and finally to canonicalURL itself.
func NewVideoReference(id, canonicalURL string) VideoReference {
	id = strings.TrimSpace(id)
	canonicalURL = strings.TrimSpace(canonicalURL)
	if id == "" {
		id = ExtractVideoID(canonicalURL)
	}
	embed := canonicalURL
	if id != "" {
		embed = EmbedBase + id
	}
	return VideoReference{id: id, canonicalURL: canonicalURL, embedURL: embed}
}

// ID returns the platform video id, or "" when it could not be resolved.
func (v VideoReference) ID() string { return v.id }

// CanonicalURL returns the watch URL the feed advertised.
func (v VideoReference) CanonicalURL() string { return v.canonicalURL }

// EmbedURL returns the URL typed into the editor's video dialog.
func (v VideoReference) EmbedURL() string { return v.embedURL }

// HasID reports whether the reference carries a resolvable id.
func (v VideoReference) HasID() bool { return v.id != "" }

func (v VideoReference) String() string {
	if v.id != "" {
		return v.id
	}
	return v.canonicalURL
}

// ExtractVideoID pulls the video id out of the URL shapes the platform uses:
// youtu.be/<id>, youtube.com/watch?v=<id>, /embed/<id> and /shorts/<id>.
// It returns "" when raw is not a recognizable video URL.
func ExtractVideoID(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	var candidate string
	switch {
	case host == "youtu.be":
		candidate = segments[0]
	case host == "youtube.com" || host == "music.youtube.com" || host == "youtube-nocookie.com":
		if v := u.Query().Get("v"); v != "" {
			candidate = v
			break
		}
		if len(segments) >= 2 {
			switch segments[0] {
			case "embed", "shorts", "live", "v":
				candidate = segments[1]
			}
		}
	}
	if !videoIDPattern.MatchString(candidate) {
		return ""
	}
	return candidate
}

// IsVideoHost reports whether src points at one of the given video domains.
// A domain matches itself and any of its subdomains.
func IsVideoHost(src string, domains []string) bool {
	u, err := url.Parse(strings.TrimSpace(src))
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		// Protocol-relative or bare values still count when they name the host.
		lowered := strings.ToLower(src)
		for _, d := range domains {
			if strings.Contains(lowered, strings.ToLower(d)) {
				return true
			}
		}
		return false
	}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimPrefix(d, "."))
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
