// File: internal/editor/cursor.go
package editor

import (
	"context"

	"github.com/xkilldash9x/dailyembed/internal/browser"
	"go.uber.org/zap"
)

// PlaceCursor puts the caret right after the block containing marker, or at
// the end of the editor when no block does. Failures are logged; the caller
// continues with whatever selection the editor had.
func PlaceCursor(ctx context.Context, editor browser.Element, marker string, logger *zap.Logger) {
	if marker != "" {
		ok, err := browser.CallAs[bool](ctx, editor, cursorAfterMarkerFn(marker))
		if err == nil && ok {
			logger.Debug("Cursor placed after marker.", zap.String("marker", marker))
			return
		}
		if err != nil {
			logger.Debug("Placing cursor after marker failed.", zap.Error(err))
		}
	}
	if _, err := editor.Call(ctx, cursorAtEndFn); err != nil {
		logger.Warn("Could not place cursor at end of editor.", zap.Error(err))
		return
	}
	logger.Debug("Cursor placed at end of editor.")
}
