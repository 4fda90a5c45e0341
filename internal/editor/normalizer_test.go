// File: internal/editor/normalizer_test.go
package editor

import (
	"context"
	"sort"
	"strings"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/dailyembed/internal/config"
	"github.com/xkilldash9x/dailyembed/internal/feed"
	"go.uber.org/zap/zaptest"
)

var videoDomains = []string{"youtube.com", "youtu.be", "youtube-nocookie.com"}

func nodes(srcs ...string) []EmbedNode {
	out := make([]EmbedNode, len(srcs))
	for i, s := range srcs {
		out[i] = EmbedNode{Index: i, Src: s}
	}
	return out
}

// applyPlan returns what the editor would hold after plan ran, reindexed
// the way a fresh snapshot would see it.
func applyPlan(in []EmbedNode, plan Plan) []EmbedNode {
	drop := make(map[int]bool, len(plan.Remove))
	for _, i := range plan.Remove {
		drop[i] = true
	}
	var srcs []string
	for _, n := range in {
		if !drop[n.Index] {
			srcs = append(srcs, n.Src)
		}
	}
	return nodes(srcs...)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		nodes []EmbedNode
		ref   feed.VideoReference
		want  Plan
	}{
		{
			name: "scenario A keeps only the current video",
			nodes: nodes(
				"https://www.youtube.com/embed/x?videoId=abc123",
				"https://www.youtube.com/embed/x?videoId=xyz999",
			),
			ref:  feed.NewVideoReference("abc123", "https://www.youtube.com/watch?v=abc123"),
			want: Plan{Outcome: AlreadyPresent, Keep: 0, Remove: []int{1}},
		},
		{
			name:  "scenario B removes a stale video and asks for insertion",
			nodes: nodes("https://www.youtube.com/embed/old111"),
			ref:   feed.NewVideoReference("new222", "https://www.youtube.com/watch?v=new222"),
			want:  Plan{Outcome: NeedsInsertion, Keep: -1, Remove: []int{0}},
		},
		{
			name: "duplicates of the current video collapse to the first",
			nodes: nodes(
				"https://www.youtube.com/embed/old111",
				"https://www.youtube.com/embed/abc123",
				"https://www.youtube.com/embed/abc123?rel=0",
				"https://youtu.be/zzz",
			),
			ref:  feed.NewVideoReference("abc123", ""),
			want: Plan{Outcome: AlreadyPresent, Keep: 1, Remove: []int{0, 2, 3}},
		},
		{
			name:  "non video embeds are left alone",
			nodes: nodes("https://player.vimeo.com/video/1", "https://www.youtube.com/embed/abc123"),
			ref:   feed.NewVideoReference("abc123", ""),
			want:  Plan{Outcome: AlreadyPresent, Keep: 1, Remove: []int{}},
		},
		{
			name:  "empty editor",
			nodes: nil,
			ref:   feed.NewVideoReference("abc123", ""),
			want:  Plan{Outcome: NeedsInsertion, Keep: -1, Remove: []int{}},
		},
		{
			name:  "no id matches by canonical url",
			nodes: nodes("https://www.youtube.com/playlist?list=PL1&index=2", "https://www.youtube.com/embed/old"),
			ref:   feed.NewVideoReference("", "https://www.youtube.com/playlist?list=PL1"),
			want:  Plan{Outcome: AlreadyPresent, Keep: 0, Remove: []int{1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.nodes, tt.ref, videoDomains)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	ref := feed.NewVideoReference("abc123", "")
	in := nodes(
		"https://www.youtube.com/embed/abc123",
		"https://www.youtube.com/embed/abc123",
		"https://www.youtube-nocookie.com/embed/other",
	)

	first := Normalize(in, ref, videoDomains)
	after := applyPlan(in, first)
	second := Normalize(after, ref, videoDomains)

	assert.Equal(t, first.Outcome, second.Outcome)
	assert.Empty(t, second.Remove)
	require.Len(t, after, 1)
	assert.Contains(t, after[0].Src, "abc123")
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "already_present", AlreadyPresent.String())
	assert.Equal(t, "needs_insertion", NeedsInsertion.String())
	assert.Equal(t, "Outcome(7)", Outcome(7).String())
}

func TestNormalizerApply(t *testing.T) {
	ctx := context.Background()
	ed := newFakeEditor(
		"https://www.youtube.com/embed/old111",
		"https://www.youtube.com/embed/new222",
		"https://www.youtube.com/embed/new222",
	)
	n := NewNormalizer(testEditorConfig(), videoDomains, zaptest.NewLogger(t))
	ref := feed.NewVideoReference("new222", "")

	plan, err := n.Apply(ctx, ed.Element, ref)
	require.NoError(t, err)
	assert.Equal(t, AlreadyPresent, plan.Outcome)
	assert.Equal(t, []string{"https://www.youtube.com/embed/new222"}, ed.srcs())

	again, err := n.Apply(ctx, ed.Element, ref)
	require.NoError(t, err)
	assert.Equal(t, AlreadyPresent, again.Outcome)
	assert.Empty(t, again.Remove)
}

var fuzzSources = []string{
	"https://www.youtube.com/embed/",
	"https://youtu.be/",
	"https://www.youtube-nocookie.com/embed/",
	"https://player.vimeo.com/video/",
	"",
}

type fuzzEditor struct {
	Picks []uint8
	IDs   []string
	RefID string
}

func FuzzNormalize(f *testing.F) {
	f.Add([]byte("seed-one-abc123"))
	f.Add([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	f.Fuzz(func(t *testing.T, data []byte) {
		var in fuzzEditor
		if err := fuzz.NewConsumer(data).GenerateStruct(&in); err != nil {
			return
		}
		if len(in.Picks) > 64 {
			in.Picks = in.Picks[:64]
		}
		srcs := make([]string, len(in.Picks))
		for i, p := range in.Picks {
			id := in.RefID
			if len(in.IDs) > 0 && p%2 == 1 {
				id = in.IDs[int(p)%len(in.IDs)]
			}
			srcs[i] = fuzzSources[int(p)%len(fuzzSources)] + id
		}
		ref := feed.NewVideoReference(strings.TrimSpace(in.RefID), "")
		before := nodes(srcs...)

		plan := Normalize(before, ref, videoDomains)
		if !sort.IntsAreSorted(plan.Remove) {
			t.Fatalf("removal set not ascending: %v", plan.Remove)
		}
		for _, i := range plan.Remove {
			if i == plan.Keep {
				t.Fatalf("kept node %d scheduled for removal", i)
			}
		}

		after := applyPlan(before, plan)
		second := Normalize(after, ref, videoDomains)
		if len(second.Remove) != 0 || second.Outcome != plan.Outcome {
			t.Fatalf("not idempotent: first=%+v second=%+v", plan, second)
		}

		matches := 0
		for _, n := range after {
			if feed.IsVideoHost(n.Src, videoDomains) {
				if !referencesVideo(n.Src, ref) {
					t.Fatalf("foreign video survived: %q", n.Src)
				}
				matches++
			}
		}
		if matches > 1 {
			t.Fatalf("%d embeds of the current video remain", matches)
		}
	})
}

func testEditorConfig() config.EditorConfig {
	return config.NewDefaultConfig().Editor()
}
