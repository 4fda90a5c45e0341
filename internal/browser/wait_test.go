// internal/browser/wait_test.go
package browser

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWaitUntil(t *testing.T) {
	t.Run("returns once the condition holds", func(t *testing.T) {
		var calls atomic.Int32
		err := WaitUntil(context.Background(), "third poll", time.Second, time.Millisecond,
			func(context.Context) (bool, error) {
				return calls.Add(1) >= 3, nil
			})
		require.NoError(t, err)
		assert.EqualValues(t, 3, calls.Load())
	})

	t.Run("evaluates at least once with a zero timeout", func(t *testing.T) {
		var calls atomic.Int32
		err := WaitUntil(context.Background(), "instant", 0, time.Millisecond,
			func(context.Context) (bool, error) {
				calls.Add(1)
				return true, nil
			})
		require.NoError(t, err)
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("timeout carries the last condition error", func(t *testing.T) {
		boom := errors.New("node detached")
		err := WaitUntil(context.Background(), "editor", 20*time.Millisecond, 2*time.Millisecond,
			func(context.Context) (bool, error) { return false, boom })

		var te *TimeoutError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, "editor", te.What)
		assert.ErrorIs(t, err, boom)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Contains(t, err.Error(), "waiting for editor")
	})

	t.Run("parent cancellation is not a timeout", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := WaitUntil(ctx, "never", time.Second, time.Millisecond,
			func(context.Context) (bool, error) { return false, nil })

		assert.ErrorIs(t, err, context.Canceled)
		var te *TimeoutError
		assert.False(t, errors.As(err, &te))
	})
}
