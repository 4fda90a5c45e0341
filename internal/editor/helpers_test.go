// File: internal/editor/helpers_test.go
package editor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/xkilldash9x/dailyembed/internal/browser"
	"github.com/xkilldash9x/dailyembed/internal/browser/browsertest"
)

var removeIndicesRe = regexp.MustCompile(`for \(const i of (\[[^\]]*\])\)`)

// fakeEditor answers the editor's injected scripts from an in-memory list
// of embed sources.
type fakeEditor struct {
	*browsertest.Element

	mu          sync.Mutex
	embeds      []string
	hasMarker   bool
	formatAfter int
	formatCalls int
	cursor      string
}

func newFakeEditor(srcs ...string) *fakeEditor {
	ed := &fakeEditor{Element: browsertest.NewElement(""), embeds: srcs}
	ed.Element.CallFunc = ed.call
	return ed
}

func (f *fakeEditor) srcs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.embeds...)
}

func (f *fakeEditor) call(fn string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case strings.Contains(fn, "map((node, index)"):
		out := make([]EmbedNode, len(f.embeds))
		for i, s := range f.embeds {
			out[i] = EmbedNode{Index: i, Src: s}
		}
		return json.RawMessage(browser.JSValue(out)), nil

	case strings.Contains(fn, "node.remove()"):
		m := removeIndicesRe.FindStringSubmatch(fn)
		if m == nil {
			return nil, fmt.Errorf("unexpected removal script: %s", fn)
		}
		var idx []int
		if err := browser.Decode([]byte(m[1]), &idx); err != nil {
			return nil, err
		}
		sort.Sort(sort.Reverse(sort.IntSlice(idx)))
		removed := 0
		for _, i := range idx {
			if i < len(f.embeds) {
				f.embeds = append(f.embeds[:i], f.embeds[i+1:]...)
				removed++
			}
		}
		return json.RawMessage(browser.JSValue(removed)), nil

	case strings.Contains(fn, "ql-align-center"):
		f.formatCalls++
		return json.RawMessage(browser.JSValue(f.formatCalls > f.formatAfter)), nil

	case strings.Contains(fn, "setStartAfter"):
		if f.hasMarker {
			f.cursor = "marker"
		}
		return json.RawMessage(browser.JSValue(f.hasMarker)), nil

	case strings.Contains(fn, "selectNodeContents"):
		f.cursor = "end"
		return json.RawMessage("true"), nil
	}
	return json.RawMessage("null"), nil
}
