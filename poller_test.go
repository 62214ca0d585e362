package hub

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHubPoller(t *testing.T) {
	t.Run("jobs are called after at least the initial delay, and then called repeatedly", func(t *testing.T) {
		poller := newHubPoller()

		poller.Start()
		defer poller.Stop()

		var called int64

		poller.Add(2*time.Millisecond, func(ctx context.Context) bool {
			atomic.AddInt64(&called, 1)
			return true
		})

		assert.Eventually(t, func() bool {
			return atomic.LoadInt64(&called) > 1
		}, time.Second, time.Millisecond)
	})

	t.Run("jobs returning false are not rescheduled", func(t *testing.T) {
		poller := newHubPoller()

		poller.Start()
		defer poller.Stop()

		var called int64

		poller.Add(2*time.Millisecond, func(ctx context.Context) bool {
			atomic.AddInt64(&called, 1)
			return false
		})

		assert.Eventually(t, func() bool {
			return atomic.LoadInt64(&called) == 1
		}, time.Second, time.Millisecond)

		time.Sleep(10 * time.Millisecond)

		assert.Equal(t, int64(1), atomic.LoadInt64(&called))
	})

	t.Run("cancelled jobs stop running", func(t *testing.T) {
		poller := newHubPoller()

		poller.Start()
		defer poller.Stop()

		var called int64

		cancel := poller.Add(2*time.Millisecond, func(ctx context.Context) bool {
			atomic.AddInt64(&called, 1)
			return true
		})

		assert.Eventually(t, func() bool {
			return atomic.LoadInt64(&called) >= 1
		}, time.Second, time.Millisecond)

		cancel()

		settled := atomic.LoadInt64(&called)
		time.Sleep(20 * time.Millisecond)

		assert.LessOrEqual(t, atomic.LoadInt64(&called), settled+1)
	})
}
