// File: internal/observability/fields.go
package observability

import (
	"go.uber.org/zap"
)

// Structured field keys shared by every component.
const (
	KeyPhase   = "phase"
	KeyURL     = "url"
	KeyLabel   = "label"
	KeyAttempt = "attempt"
	KeyRunID   = "run_id"
)

// Workflow phases used as the value of the "phase" field.
const (
	PhaseFeed     = "feed"
	PhaseLogin    = "login"
	PhaseNavigate = "navigate"
	PhaseLink     = "link_resolution"
	PhaseItems    = "items"
	PhaseEditor   = "editor"
	PhaseSave     = "save"
)

func Phase(p string) zap.Field  { return zap.String(KeyPhase, p) }
func URL(u string) zap.Field    { return zap.String(KeyURL, u) }
func Label(l string) zap.Field  { return zap.String(KeyLabel, l) }
func Attempt(n int) zap.Field   { return zap.Int(KeyAttempt, n) }
func RunID(id string) zap.Field { return zap.String(KeyRunID, id) }
