// File: internal/editor/formatter_test.go
package editor

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/dailyembed/internal/browser"
	"github.com/xkilldash9x/dailyembed/internal/feed"
	"go.uber.org/zap/zaptest"
)

func TestFormatterPollsUntilEmbedAppears(t *testing.T) {
	ed := newFakeEditor("https://www.youtube.com/embed/new222")
	ed.formatAfter = 3
	f := NewFormatter(testEditorConfig(), videoDomains, fastBrowserConfig(), zaptest.NewLogger(t))

	require.NoError(t, f.Format(context.Background(), ed.Element, currentVideo))
	assert.Equal(t, 4, ed.formatCalls)

	script := ed.Scripts[len(ed.Scripts)-1]
	assert.Contains(t, script, `const videoId = "new222";`)
	assert.Contains(t, script, "const width = 840;")
	assert.Contains(t, script, "const height = 472;")
	assert.Contains(t, script, `target.style.maxWidth = "100%";`)
}

func TestFormatterTimesOut(t *testing.T) {
	ed := newFakeEditor()
	ed.formatAfter = 1 << 30
	f := NewFormatter(testEditorConfig(), videoDomains, fastBrowserConfig(), zaptest.NewLogger(t))

	err := f.Format(context.Background(), ed.Element, currentVideo)
	require.Error(t, err)
	var te *browser.TimeoutError
	assert.ErrorAs(t, err, &te)
	assert.Contains(t, err.Error(), "new222")
}

func TestFormatEmbedFnWithoutID(t *testing.T) {
	ref := feed.NewVideoReference("", "https://example.org/video")
	fn := formatEmbedFn("iframe.ql-video", ref.ID(), videoDomains, 840, 472)
	assert.Contains(t, fn, `const videoId = "";`)
	assert.Contains(t, fn, `["youtube.com","youtu.be","youtube-nocookie.com"]`)
	assert.False(t, strings.Contains(fn, "%!"), "format verbs must render cleanly")
}
