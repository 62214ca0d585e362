package hub

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

const pollerBacklog = 200
const pollerWorkers = 4
const workerMaximumJobDuration = 15 * time.Second

type hubPoller struct {
	pollerWork chan pollerWork
	pollerStop chan bool

	randLock *sync.Mutex
	rand     *rand.Rand
}

type pollerWork struct {
	interval time.Duration
	fn       func(context.Context) bool
}

func newHubPoller() *hubPoller {
	return &hubPoller{
		randLock: &sync.Mutex{},
	}
}

func (p *hubPoller) Start() {
	p.pollerStop = make(chan bool, pollerWorkers)
	p.pollerWork = make(chan pollerWork, pollerBacklog)

	for i := 0; i < pollerWorkers; i++ {
		go p.worker()
	}

	p.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
}

func (p *hubPoller) Stop() {
	for i := 0; i < pollerWorkers; i++ {
		p.pollerStop <- true
	}
}

// Add schedules fn to run every interval, the first run delayed by a random
// fraction of the interval to spread load across jobs added together. The
// returned function cancels future runs, a run already in progress completes.
func (p *hubPoller) Add(interval time.Duration, fn func(context.Context) bool) func() {
	var cancelled int32

	work := pollerWork{
		interval: interval,
		fn: func(ctx context.Context) bool {
			if atomic.LoadInt32(&cancelled) != 0 {
				return false
			}

			return fn(ctx)
		},
	}

	p.randLock.Lock()
	initialWait := time.Duration(float64(interval) * p.rand.Float64())
	p.randLock.Unlock()

	time.AfterFunc(initialWait, func() {
		p.pollerWork <- work
	})

	return func() {
		atomic.StoreInt32(&cancelled, 1)
	}
}

func (p *hubPoller) worker() {
	for {
		select {
		case work := <-p.pollerWork:
			ctx, cancel := context.WithTimeout(context.Background(), workerMaximumJobDuration)

			if work.fn(ctx) {
				time.AfterFunc(work.interval, func() {
					p.pollerWork <- work
				})
			}

			cancel()
		case <-p.pollerStop:
			return
		}
	}
}
