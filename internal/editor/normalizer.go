// File: internal/editor/normalizer.go
package editor

import (
	"context"
	"fmt"
	"strings"

	"github.com/xkilldash9x/dailyembed/internal/browser"
	"github.com/xkilldash9x/dailyembed/internal/config"
	"github.com/xkilldash9x/dailyembed/internal/feed"
	"github.com/xkilldash9x/dailyembed/internal/observability"
	"go.uber.org/zap"
)

// EmbedNode is one video embed inside the editor, addressed by its position
// among the nodes matched by the embed selector.
type EmbedNode struct {
	Index int    `json:"index"`
	Src   string `json:"src"`
}

// Outcome is the result of normalizing the editor's embeds.
type Outcome int

const (
	// NeedsInsertion means no embed references the current video.
	NeedsInsertion Outcome = iota
	// AlreadyPresent means exactly one embed of the current video remains.
	AlreadyPresent
)

func (o Outcome) String() string {
	switch o {
	case AlreadyPresent:
		return "already_present"
	case NeedsInsertion:
		return "needs_insertion"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Plan is the minimal mutation that makes the editor hold at most one embed
// of the current video and none of any other recognized video.
type Plan struct {
	Outcome Outcome
	// Keep is the index of the retained embed, or -1.
	Keep int
	// Remove lists embed indices to delete, in ascending order.
	Remove []int
}

// Normalize computes the plan for nodes. Embeds whose source is not on one
// of domains are never touched.
func Normalize(nodes []EmbedNode, ref feed.VideoReference, domains []string) Plan {
	var matches, others []int
	for _, n := range nodes {
		if !feed.IsVideoHost(n.Src, domains) {
			continue
		}
		if referencesVideo(n.Src, ref) {
			matches = append(matches, n.Index)
		} else {
			others = append(others, n.Index)
		}
	}

	if len(matches) > 0 {
		return Plan{
			Outcome: AlreadyPresent,
			Keep:    matches[0],
			Remove:  sortedUnion(matches[1:], others),
		}
	}
	return Plan{Outcome: NeedsInsertion, Keep: -1, Remove: sortedUnion(nil, others)}
}

func referencesVideo(src string, ref feed.VideoReference) bool {
	if id := ref.ID(); id != "" && strings.Contains(src, id) {
		return true
	}
	if embed := ref.EmbedURL(); embed != "" && strings.Contains(src, embed) {
		return true
	}
	return false
}

// sortedUnion merges two ascending index lists.
func sortedUnion(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j >= len(b) || (i < len(a) && a[i] < b[j]):
			out = append(out, a[i])
			i++
		default:
			out = append(out, b[j])
			j++
		}
	}
	return out
}

// -- Applying plans to a live editor --

// Normalizer snapshots the editor's embeds, plans in Go and removes through
// an injected script.
type Normalizer struct {
	cfg     config.EditorConfig
	domains []string
	logger  *zap.Logger
}

// NewNormalizer creates a normalizer for the configured embed selector.
func NewNormalizer(cfg config.EditorConfig, domains []string, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{cfg: cfg, domains: domains, logger: logger.Named("normalizer")}
}

// Snapshot lists the embeds currently inside the editor.
func (n *Normalizer) Snapshot(ctx context.Context, editor browser.Element) ([]EmbedNode, error) {
	nodes, err := browser.CallAs[[]EmbedNode](ctx, editor, snapshotEmbedsFn(n.cfg.EmbedSelector))
	if err != nil {
		return nil, fmt.Errorf("snapshotting embeds: %w", err)
	}
	return nodes, nil
}

// Apply normalizes the editor in place and reports whether an insertion is
// still needed.
func (n *Normalizer) Apply(ctx context.Context, editor browser.Element, ref feed.VideoReference) (Plan, error) {
	nodes, err := n.Snapshot(ctx, editor)
	if err != nil {
		return Plan{}, err
	}
	plan := Normalize(nodes, ref, n.domains)

	if len(plan.Remove) > 0 {
		removed, err := browser.CallAs[int](ctx, editor, removeEmbedsFn(n.cfg.EmbedSelector, plan.Remove))
		if err != nil {
			return plan, fmt.Errorf("removing embeds: %w", err)
		}
		if removed != len(plan.Remove) {
			return plan, fmt.Errorf("removed %d of %d embeds; editor changed underneath", removed, len(plan.Remove))
		}
	}

	n.logger.Info("Embeds normalized.",
		observability.Phase(observability.PhaseEditor),
		zap.Stringer("outcome", plan.Outcome),
		zap.Int("embeds", len(nodes)),
		zap.Ints("removed", plan.Remove),
	)
	return plan, nil
}
