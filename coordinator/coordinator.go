package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/retry"
	"golang.org/x/sync/singleflight"
)

const DefaultFetchTimeout = 15 * time.Second
const DefaultRequestCooldown = 2 * time.Second

// FetchFunc retrieves the current state of an upstream source. It should
// honour ctx cancellation and return UpdateFailedError or AuthFailedError
// to classify failures; any other error is treated as recoverable.
type FetchFunc func(ctx context.Context) (interface{}, error)

// UpdateFailedError marks a recoverable fetch failure, such as a network
// blip or a rate limit. Previously fetched data is retained.
type UpdateFailedError struct {
	Inner error
}

func (e UpdateFailedError) Error() string {
	return fmt.Sprintf("update failed: %s", e.Inner.Error())
}

func (e UpdateFailedError) Unwrap() error {
	return e.Inner
}

// AuthFailedError marks a fetch rejected due to invalid credentials. The
// host should trigger re-authentication rather than retry.
type AuthFailedError struct {
	Inner error
}

func (e AuthFailedError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Inner.Error())
}

func (e AuthFailedError) Unwrap() error {
	return e.Inner
}

type Settings struct {
	// FetchTimeout bounds a single fetch attempt, zero uses
	// DefaultFetchTimeout.
	FetchTimeout time.Duration
	// Cooldown is the coalescing window for RequestRefresh, zero uses
	// DefaultRequestCooldown.
	Cooldown time.Duration
	// RetryAttempts above one enables in-cycle retries of recoverable
	// failures, each attempt bounded by RetryTimeout.
	RetryAttempts int
	RetryTimeout  time.Duration
}

// Source is the read side of a Coordinator, consumed by capability
// implementations.
type Source interface {
	Name() string
	Refresh(ctx context.Context) (interface{}, error)
	RequestRefresh()
	Data() interface{}
	LastUpdateSuccess() bool
	LastError() error
	LastUpdated() time.Time
	AddListener(cb func()) func()
}

// Coordinator runs a fetch function on demand, exposing the latest result
// to any number of listeners. Concurrent Refresh calls collapse onto one
// in-flight fetch, whose result all callers share. Scheduling of periodic
// refreshes is left to the caller.
type Coordinator struct {
	name     string
	fetch    FetchFunc
	logger   *logwrap.Logger
	settings Settings

	group singleflight.Group

	m                 *sync.RWMutex
	data              interface{}
	lastUpdateSuccess bool
	lastError         error
	lastUpdated       time.Time
	lastAttempt       time.Time

	listenerMutex  *sync.Mutex
	listeners      map[int]func()
	nextListenerId int

	debounceMutex *sync.Mutex
	debounceTimer *time.Timer
	stopped       bool
}

func New(name string, fetch FetchFunc, l logwrap.Logger) *Coordinator {
	return NewWithSettings(name, fetch, l, Settings{})
}

func NewWithSettings(name string, fetch FetchFunc, l logwrap.Logger, s Settings) *Coordinator {
	if s.FetchTimeout <= 0 {
		s.FetchTimeout = DefaultFetchTimeout
	}

	if s.Cooldown <= 0 {
		s.Cooldown = DefaultRequestCooldown
	}

	if s.RetryAttempts < 1 {
		s.RetryAttempts = 1
	}

	if s.RetryTimeout <= 0 {
		s.RetryTimeout = s.FetchTimeout
	}

	l.AddOptionsToLogger(logwrap.Datum("Coordinator", name))

	return &Coordinator{
		name:     name,
		fetch:    fetch,
		logger:   &l,
		settings: s,

		m:             &sync.RWMutex{},
		listenerMutex: &sync.Mutex{},
		listeners:     map[int]func(){},
		debounceMutex: &sync.Mutex{},
	}
}

func (c *Coordinator) Name() string {
	return c.name
}

func (c *Coordinator) Data() interface{} {
	c.m.RLock()
	defer c.m.RUnlock()

	return c.data
}

func (c *Coordinator) LastUpdateSuccess() bool {
	c.m.RLock()
	defer c.m.RUnlock()

	return c.lastUpdateSuccess
}

func (c *Coordinator) LastError() error {
	c.m.RLock()
	defer c.m.RUnlock()

	return c.lastError
}

func (c *Coordinator) LastUpdated() time.Time {
	c.m.RLock()
	defer c.m.RUnlock()

	return c.lastUpdated
}

// Refresh performs an immediate fetch and waits for it to complete. If a
// fetch is already in flight the caller waits on that execution instead of
// starting another, and receives its result. A caller whose ctx ends stops
// waiting, the shared fetch continues for any other waiters and its result
// is still published.
func (c *Coordinator) Refresh(ctx context.Context) (interface{}, error) {
	ch := c.group.DoChan("refresh", c.refreshCycle)

	select {
	case r := <-ch:
		return r.Val, r.Err
	case <-ctx.Done():
		return c.Data(), ctx.Err()
	}
}

// RequestRefresh asks for a refresh without waiting for it. Requests made
// while the coordinator is idle execute immediately, bursts within the
// cooldown window collapse into a single deferred fetch.
func (c *Coordinator) RequestRefresh() {
	c.debounceMutex.Lock()
	defer c.debounceMutex.Unlock()

	if c.stopped || c.debounceTimer != nil {
		return
	}

	c.m.RLock()
	sinceAttempt := time.Since(c.lastAttempt)
	c.m.RUnlock()

	if sinceAttempt >= c.settings.Cooldown {
		go func() {
			_, _ = c.Refresh(context.Background())
		}()
		return
	}

	c.debounceTimer = time.AfterFunc(c.settings.Cooldown-sinceAttempt, func() {
		c.debounceMutex.Lock()
		c.debounceTimer = nil
		stopped := c.stopped
		c.debounceMutex.Unlock()

		if !stopped {
			_, _ = c.Refresh(context.Background())
		}
	})
}

// Stop cancels any pending debounced refresh. A fetch already in flight
// completes and its waiters still receive a result.
func (c *Coordinator) Stop() {
	c.debounceMutex.Lock()
	defer c.debounceMutex.Unlock()

	c.stopped = true

	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
		c.debounceTimer = nil
	}
}

// AddListener registers a callback invoked after every completed refresh
// cycle, success or failure, once state has been published. The returned
// function removes the listener and is safe to call from within the
// callback itself.
func (c *Coordinator) AddListener(cb func()) func() {
	c.listenerMutex.Lock()
	id := c.nextListenerId
	c.nextListenerId++
	c.listeners[id] = cb
	c.listenerMutex.Unlock()

	return func() {
		c.listenerMutex.Lock()
		defer c.listenerMutex.Unlock()

		delete(c.listeners, id)
	}
}

func (c *Coordinator) refreshCycle() (interface{}, error) {
	c.m.Lock()
	c.lastAttempt = time.Now()
	c.m.Unlock()

	v, err := c.attemptFetch()

	c.m.Lock()
	if err == nil {
		c.data = v
		c.lastUpdateSuccess = true
		c.lastError = nil
		c.lastUpdated = time.Now()
	} else {
		c.lastUpdateSuccess = false
		c.lastError = err
	}
	retained := c.data
	c.m.Unlock()

	c.notifyListeners()

	if err != nil {
		return retained, err
	}

	return v, nil
}

func (c *Coordinator) attemptFetch() (interface{}, error) {
	var v interface{}
	var fetchErr error

	if c.settings.RetryAttempts > 1 {
		retryErr := retry.Retry(context.Background(), c.settings.RetryTimeout, c.settings.RetryAttempts, func(ctx context.Context) error {
			v, fetchErr = c.callFetch(ctx)

			var authErr AuthFailedError
			if errors.As(fetchErr, &authErr) {
				// Replaying rejected credentials will not recover, end the
				// retry loop and surface via fetchErr.
				return nil
			}

			return fetchErr
		})

		if fetchErr == nil {
			fetchErr = retryErr
		}
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), c.settings.FetchTimeout)
		v, fetchErr = c.callFetch(ctx)
		cancel()
	}

	if fetchErr == nil {
		return v, nil
	}

	return nil, c.classifyError(fetchErr)
}

func (c *Coordinator) callFetch(ctx context.Context) (v interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch panicked: %v", r)
		}
	}()

	return c.fetch(ctx)
}

func (c *Coordinator) classifyError(err error) error {
	var authErr AuthFailedError
	var updateErr UpdateFailedError

	switch {
	case errors.As(err, &authErr):
		return err
	case errors.As(err, &updateErr):
		return err
	default:
		c.logger.LogWarn(context.Background(), "Fetch returned an unclassified error, treating as recoverable.", logwrap.Err(err))
		return UpdateFailedError{Inner: err}
	}
}

func (c *Coordinator) notifyListeners() {
	c.listenerMutex.Lock()
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	c.listenerMutex.Unlock()

	for _, id := range ids {
		c.listenerMutex.Lock()
		cb, present := c.listeners[id]
		c.listenerMutex.Unlock()

		if present {
			cb()
		}
	}
}

var _ Source = (*Coordinator)(nil)
