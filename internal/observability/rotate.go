// File: internal/observability/rotate.go
package observability

import (
	"io"
	"sync"
	"time"
)

// rotatable is the slice of *lumberjack.Logger the daily rotator needs.
type rotatable interface {
	io.Writer
	Rotate() error
}

// dailyRotator forces a rotation the first time it is written to on a new
// calendar day, on top of the size based rotation lumberjack already does.
type dailyRotator struct {
	mu      sync.Mutex
	w       rotatable
	now     func() time.Time
	lastDay string
}

func newDailyRotator(w rotatable) *dailyRotator {
	return &dailyRotator{w: w, now: time.Now}
}

func (d *dailyRotator) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	today := d.now().Format("2006-01-02")
	if d.lastDay != "" && d.lastDay != today {
		if err := d.w.Rotate(); err != nil {
			return 0, err
		}
	}
	d.lastDay = today
	return d.w.Write(p)
}
