// File: internal/feed/client_test.go
package feed

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/dailyembed/internal/config"
	"go.uber.org/zap"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns:media="http://search.yahoo.com/mrss/" xmlns="http://www.w3.org/2005/Atom">
 <title>Canal</title>
 <entry>
  <id>yt:video:abc123XYZ_-</id>
  <yt:videoId>abc123XYZ_-</yt:videoId>
  <title>Evangelio de hoy</title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=abc123XYZ_-"/>
  <published>2024-05-02T10:00:00+00:00</published>
 </entry>
 <entry>
  <id>yt:video:older000001</id>
  <yt:videoId>older000001</yt:videoId>
  <title>Ayer</title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=older000001"/>
 </entry>
</feed>`

const emptyFeed = `<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"><title>nada</title></feed>`

func newTestClient(url string) *Client {
	return NewClient(config.FeedConfig{URL: url, Timeout: 5 * time.Second}, nil, zap.NewNop())
}

func serve(t *testing.T, status int, encoding string, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept-Encoding"), "br")
		if encoding != "" {
			w.Header().Set("Content-Encoding", encoding)
		}
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientLatest(t *testing.T) {
	t.Run("returns the first entry", func(t *testing.T) {
		srv := serve(t, http.StatusOK, "", []byte(sampleFeed))

		entry, err := newTestClient(srv.URL).Latest(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "abc123XYZ_-", entry.Video.ID())
		assert.Equal(t, "https://www.youtube.com/watch?v=abc123XYZ_-", entry.Video.CanonicalURL())
		assert.Equal(t, "https://www.youtube.com/embed/abc123XYZ_-", entry.Video.EmbedURL())
		assert.Equal(t, "Evangelio de hoy", entry.Title)
		assert.Equal(t, 2024, entry.Published.Year())
	})

	t.Run("empty feed is a feed error", func(t *testing.T) {
		srv := serve(t, http.StatusOK, "", []byte(emptyFeed))

		_, err := newTestClient(srv.URL).Latest(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrEmptyFeed))
		var feedErr *FeedError
		assert.True(t, errors.As(err, &feedErr))
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := serve(t, http.StatusOK, "", []byte("<html><body>oops"))

		_, err := newTestClient(srv.URL).Latest(context.Background())
		var feedErr *FeedError
		require.True(t, errors.As(err, &feedErr))
		assert.Equal(t, "malformed feed", feedErr.Reason)
	})

	t.Run("non-200 status", func(t *testing.T) {
		srv := serve(t, http.StatusServiceUnavailable, "", nil)

		_, err := newTestClient(srv.URL).Latest(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status 503")
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv := serve(t, http.StatusOK, "", []byte(sampleFeed))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newTestClient(srv.URL).Latest(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestClientDecompression(t *testing.T) {
	var gz, br, zl bytes.Buffer

	gw := gzip.NewWriter(&gz)
	_, _ = gw.Write([]byte(sampleFeed))
	require.NoError(t, gw.Close())

	bw := brotli.NewWriter(&br)
	_, _ = bw.Write([]byte(sampleFeed))
	require.NoError(t, bw.Close())

	zw := zlib.NewWriter(&zl)
	_, _ = zw.Write([]byte(sampleFeed))
	require.NoError(t, zw.Close())

	cases := map[string][]byte{
		"gzip":    gz.Bytes(),
		"br":      br.Bytes(),
		"deflate": zl.Bytes(),
	}
	for encoding, body := range cases {
		t.Run(encoding, func(t *testing.T) {
			srv := serve(t, http.StatusOK, encoding, body)
			entry, err := newTestClient(srv.URL).Latest(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "abc123XYZ_-", entry.Video.ID())
		})
	}

	t.Run("unsupported encoding", func(t *testing.T) {
		srv := serve(t, http.StatusOK, "compress", []byte(sampleFeed))
		_, err := newTestClient(srv.URL).Latest(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported Content-Encoding")
	})
}

func TestParseFeedFallbacks(t *testing.T) {
	doc := `<feed xmlns="http://www.w3.org/2005/Atom">
 <entry><id>yt:video:onlyIdHere1</id><title>Sin enlace</title></entry>
</feed>`
	entries, err := ParseFeed([]byte(doc))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "onlyIdHere1", entries[0].Video.ID())
	assert.Equal(t, "https://www.youtube.com/watch?v=onlyIdHere1", entries[0].Video.CanonicalURL())

	_, err = ParseFeed([]byte(`<rss><channel/></rss>`))
	assert.Error(t, err)
}

func TestParseFeedLegacyEncoding(t *testing.T) {
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		`<feed xmlns="http://www.w3.org/2005/Atom"><entry><id>yt:video:latin1Vid0</id>` +
		"<title>Reflexi\xf3n del d\xeda</title></entry></feed>"

	entries, err := ParseFeed([]byte(doc))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Reflexión del día", entries[0].Title)
}
