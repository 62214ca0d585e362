package coordinator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"github.com/stretchr/testify/assert"
)

func testLogger() logwrap.Logger {
	return logwrap.New(discard.Discard())
}

func TestCoordinator_Refresh(t *testing.T) {
	t.Run("a successful fetch publishes data, success flag and clears the last error", func(t *testing.T) {
		c := New("test", func(ctx context.Context) (interface{}, error) {
			return map[string]int{"value": 1}, nil
		}, testLogger())

		v, err := c.Refresh(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, map[string]int{"value": 1}, v)

		assert.Equal(t, map[string]int{"value": 1}, c.Data())
		assert.True(t, c.LastUpdateSuccess())
		assert.NoError(t, c.LastError())
		assert.False(t, c.LastUpdated().IsZero())
	})

	t.Run("concurrent refreshes while a fetch is in flight share one upstream call and one result", func(t *testing.T) {
		var calls int32
		entered := make(chan struct{})
		enteredOnce := sync.Once{}
		release := make(chan struct{})

		c := New("test", func(ctx context.Context) (interface{}, error) {
			atomic.AddInt32(&calls, 1)
			enteredOnce.Do(func() { close(entered) })
			<-release
			return "shared", nil
		}, testLogger())

		results := make(chan interface{}, 5)

		go func() {
			v, _ := c.Refresh(context.Background())
			results <- v
		}()

		<-entered

		for i := 0; i < 4; i++ {
			go func() {
				v, _ := c.Refresh(context.Background())
				results <- v
			}()
		}

		time.Sleep(10 * time.Millisecond)
		close(release)

		for i := 0; i < 5; i++ {
			assert.Equal(t, "shared", <-results)
		}

		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("a recoverable failure retains stale data and flags the cycle, the next success replaces it", func(t *testing.T) {
		responses := []func() (interface{}, error){
			func() (interface{}, error) { return map[string]int{"value": 1}, nil },
			func() (interface{}, error) { return nil, UpdateFailedError{Inner: errors.New("network")} },
			func() (interface{}, error) { return map[string]int{"value": 2}, nil },
		}
		call := 0

		c := New("test", func(ctx context.Context) (interface{}, error) {
			defer func() { call++ }()
			return responses[call]()
		}, testLogger())

		v, err := c.Refresh(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, map[string]int{"value": 1}, v)

		v, err = c.Refresh(context.Background())
		assert.Error(t, err)
		assert.Equal(t, map[string]int{"value": 1}, v)
		assert.Equal(t, map[string]int{"value": 1}, c.Data())
		assert.False(t, c.LastUpdateSuccess())
		assert.Error(t, c.LastError())

		v, err = c.Refresh(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, map[string]int{"value": 2}, v)
		assert.True(t, c.LastUpdateSuccess())
		assert.NoError(t, c.LastError())
	})

	t.Run("an unclassified error is converted to a recoverable update failure", func(t *testing.T) {
		c := New("test", func(ctx context.Context) (interface{}, error) {
			return nil, errors.New("vendor sdk misbehaved")
		}, testLogger())

		_, err := c.Refresh(context.Background())

		var updateErr UpdateFailedError
		assert.ErrorAs(t, err, &updateErr)
		assert.False(t, c.LastUpdateSuccess())
	})

	t.Run("a panicking fetch is recovered and treated as a recoverable failure", func(t *testing.T) {
		c := New("test", func(ctx context.Context) (interface{}, error) {
			panic("vendor sdk blew up")
		}, testLogger())

		_, err := c.Refresh(context.Background())

		var updateErr UpdateFailedError
		assert.ErrorAs(t, err, &updateErr)
	})

	t.Run("an authentication failure is preserved and not retried, even with retries enabled", func(t *testing.T) {
		var calls int32

		c := NewWithSettings("test", func(ctx context.Context) (interface{}, error) {
			atomic.AddInt32(&calls, 1)
			return nil, AuthFailedError{Inner: errors.New("credentials rejected")}
		}, testLogger(), Settings{RetryAttempts: 3, RetryTimeout: 50 * time.Millisecond})

		_, err := c.Refresh(context.Background())

		var authErr AuthFailedError
		assert.ErrorAs(t, err, &authErr)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("a caller whose context ends stops waiting without disturbing other waiters", func(t *testing.T) {
		entered := make(chan struct{})
		release := make(chan struct{})

		c := New("test", func(ctx context.Context) (interface{}, error) {
			close(entered)
			<-release
			return "late", nil
		}, testLogger())

		waiterResult := make(chan interface{}, 1)

		go func() {
			v, _ := c.Refresh(context.Background())
			waiterResult <- v
		}()

		<-entered

		cancelledCtx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := c.Refresh(cancelledCtx)
		assert.ErrorIs(t, err, context.Canceled)

		close(release)
		assert.Equal(t, "late", <-waiterResult)
	})
}

func TestCoordinator_Listeners(t *testing.T) {
	t.Run("every listener is invoked once per cycle, after data has been published", func(t *testing.T) {
		c := New("test", func(ctx context.Context) (interface{}, error) {
			return 42, nil
		}, testLogger())

		var observedOne, observedTwo []interface{}

		c.AddListener(func() {
			observedOne = append(observedOne, c.Data())
		})
		c.AddListener(func() {
			observedTwo = append(observedTwo, c.Data())
		})

		_, err := c.Refresh(context.Background())
		assert.NoError(t, err)

		assert.Equal(t, []interface{}{42}, observedOne)
		assert.Equal(t, []interface{}{42}, observedTwo)
	})

	t.Run("listeners are invoked on failed cycles too", func(t *testing.T) {
		c := New("test", func(ctx context.Context) (interface{}, error) {
			return nil, UpdateFailedError{Inner: errors.New("network")}
		}, testLogger())

		notified := 0
		c.AddListener(func() {
			notified++
			assert.False(t, c.LastUpdateSuccess())
		})

		_, _ = c.Refresh(context.Background())
		assert.Equal(t, 1, notified)
	})

	t.Run("removing a listener stops further notifications", func(t *testing.T) {
		c := New("test", func(ctx context.Context) (interface{}, error) {
			return 42, nil
		}, testLogger())

		notified := 0
		cancel := c.AddListener(func() {
			notified++
		})

		_, _ = c.Refresh(context.Background())
		cancel()
		_, _ = c.Refresh(context.Background())

		assert.Equal(t, 1, notified)
	})

	t.Run("a listener unsubscribing during its own invocation does not disturb co-registered listeners", func(t *testing.T) {
		c := New("test", func(ctx context.Context) (interface{}, error) {
			return 42, nil
		}, testLogger())

		var cancelSelf func()
		selfNotified := 0
		otherNotified := 0

		cancelSelf = c.AddListener(func() {
			selfNotified++
			cancelSelf()
		})
		c.AddListener(func() {
			otherNotified++
		})

		assert.NotPanics(t, func() {
			_, _ = c.Refresh(context.Background())
		})

		assert.Equal(t, 1, selfNotified)
		assert.Equal(t, 1, otherNotified)

		_, _ = c.Refresh(context.Background())
		assert.Equal(t, 1, selfNotified)
		assert.Equal(t, 2, otherNotified)
	})
}

func TestCoordinator_RequestRefresh(t *testing.T) {
	t.Run("a request while idle executes immediately, a burst within the cooldown collapses to one fetch", func(t *testing.T) {
		var calls int32

		c := NewWithSettings("test", func(ctx context.Context) (interface{}, error) {
			atomic.AddInt32(&calls, 1)
			return nil, nil
		}, testLogger(), Settings{Cooldown: 50 * time.Millisecond})

		c.RequestRefresh()
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

		for i := 0; i < 5; i++ {
			c.RequestRefresh()
		}

		time.Sleep(100 * time.Millisecond)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("stop cancels a pending debounced refresh", func(t *testing.T) {
		var calls int32

		c := NewWithSettings("test", func(ctx context.Context) (interface{}, error) {
			atomic.AddInt32(&calls, 1)
			return nil, nil
		}, testLogger(), Settings{Cooldown: 30 * time.Millisecond})

		_, _ = c.Refresh(context.Background())
		c.RequestRefresh()
		c.Stop()

		time.Sleep(60 * time.Millisecond)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})
}
