// File: internal/feed/client.go
package feed

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/xkilldash9x/dailyembed/internal/config"
	"github.com/xkilldash9x/dailyembed/internal/observability"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// maxFeedBytes caps how much of a feed response is read.
const maxFeedBytes = 8 << 20

const defaultUserAgent = "dailyembed/1.0 (+feed-resolver)"

// Entry is a single video announced by the feed.
type Entry struct {
	Video     VideoReference
	Title     string
	Published time.Time
}

// Resolver yields the most recent video. It is the seam the workflow depends on.
type Resolver interface {
	Latest(ctx context.Context) (Entry, error)
}

// Client fetches and parses the channel's Atom feed.
type Client struct {
	url    string
	http   *http.Client
	logger *zap.Logger
}

// NewClient builds a feed client. A nil httpClient gets a transport that
// negotiates compressed responses.
func NewClient(cfg config.FeedConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(cfg.Timeout)
	}
	if logger == nil {
		logger = observability.GetLogger()
	}
	return &Client{
		url:    cfg.URL,
		http:   httpClient,
		logger: logger.Named("feed"),
	}
}

// NewHTTPClient returns an http.Client whose transport decodes br, gzip and
// deflate bodies itself.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   15 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
		// The compression transport owns decoding.
		DisableCompression: true,
	}
	return &http.Client{
		Transport: newCompressionTransport(base),
		Timeout:   timeout,
	}
}

// Latest fetches the feed and returns its first entry, which the platform
// guarantees is the newest upload.
func (c *Client) Latest(ctx context.Context) (Entry, error) {
	c.logger.Info("Fetching video feed.", observability.Phase(observability.PhaseFeed), observability.URL(c.url))

	body, err := c.fetch(ctx)
	if err != nil {
		return Entry{}, err
	}
	entries, err := ParseFeed(body)
	if err != nil {
		return Entry{}, &FeedError{URL: c.url, Reason: "malformed feed", Err: err}
	}
	if len(entries) == 0 {
		return Entry{}, &FeedError{URL: c.url, Reason: "no entries", Err: ErrEmptyFeed}
	}

	latest := entries[0]
	if latest.Video.CanonicalURL() == "" && !latest.Video.HasID() {
		return Entry{}, &FeedError{URL: c.url, Reason: "latest entry has no link"}
	}
	c.logger.Info("Latest video resolved.",
		observability.Phase(observability.PhaseFeed),
		zap.String("video_id", latest.Video.ID()),
		zap.String("title", latest.Title),
		observability.URL(latest.Video.CanonicalURL()))
	return latest, nil
}

func (c *Client) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &FeedError{URL: c.url, Reason: "invalid request", Err: err}
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "application/atom+xml, application/xml;q=0.9, */*;q=0.1")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FeedError{URL: c.url, Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FeedError{URL: c.url, Reason: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, &FeedError{URL: c.url, Reason: "reading body", Err: err}
	}
	return body, nil
}

// ParseFeed decodes an Atom document into entries in document order.
func ParseFeed(data []byte) ([]Entry, error) {
	doc := etree.NewDocument()
	// Feeds declaring a legacy encoding are transcoded to UTF-8.
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil || root.Tag != "feed" {
		return nil, fmt.Errorf("root element is not an Atom feed")
	}

	var entries []Entry
	for _, el := range root.SelectElements("entry") {
		entries = append(entries, parseEntry(el))
	}
	return entries, nil
}

func parseEntry(el *etree.Element) Entry {
	var id, link, title string
	if e := el.SelectElement("yt:videoId"); e != nil {
		id = strings.TrimSpace(e.Text())
	}
	if id == "" {
		// <id>yt:video:XXXX</id>
		if e := el.SelectElement("id"); e != nil {
			if v, ok := strings.CutPrefix(strings.TrimSpace(e.Text()), "yt:video:"); ok {
				id = v
			}
		}
	}
	for _, l := range el.SelectElements("link") {
		rel := l.SelectAttrValue("rel", "alternate")
		if rel == "alternate" {
			link = strings.TrimSpace(l.SelectAttrValue("href", ""))
			break
		}
	}
	if link == "" && id != "" {
		link = "https://www.youtube.com/watch?v=" + id
	}
	if e := el.SelectElement("title"); e != nil {
		title = strings.TrimSpace(e.Text())
	}

	entry := Entry{Video: NewVideoReference(id, link), Title: title}
	if e := el.SelectElement("published"); e != nil {
		if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Text())); err == nil {
			entry.Published = ts
		}
	}
	return entry
}
