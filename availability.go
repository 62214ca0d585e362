package hub

import (
	"errors"
	"sync"

	"github.com/shimmeringbee/hub/coordinator"
	"github.com/shimmeringbee/hub/entity"
	"github.com/shimmeringbee/persistence/converter"
)

// availabilityWatcher turns a coordinator's update outcomes into hub events.
// AvailabilityChanged is emitted whenever the success flag flips, including
// on the first completed cycle. ReauthRequired is emitted once per outage
// when the failure is an authentication failure, re-armed by the next
// successful update.
type availabilityWatcher struct {
	hub *Hub
	ir  *integrationRuntime
	c   *coordinator.Coordinator

	m           *sync.Mutex
	initialised bool
	available   bool
	reauthSent  bool
}

func (h *Hub) watchCoordinator(ir *integrationRuntime, c *coordinator.Coordinator) func() {
	w := &availabilityWatcher{
		hub: h,
		ir:  ir,
		c:   c,
		m:   &sync.Mutex{},
	}

	return c.AddListener(w.coordinatorUpdated)
}

func (w *availabilityWatcher) coordinatorUpdated() {
	success := w.c.LastUpdateSuccess()

	w.m.Lock()
	changed := !w.initialised || w.available != success
	w.initialised = true
	w.available = success

	sendReauth := false

	if success {
		w.reauthSent = false
	} else {
		var authErr coordinator.AuthFailedError
		if errors.As(w.c.LastError(), &authErr) && !w.reauthSent {
			w.reauthSent = true
			sendReauth = true
		}
	}
	w.m.Unlock()

	if changed {
		w.hub.sendEvent(entity.AvailabilityChanged{
			Integration: w.ir.name,
			Coordinator: w.c.Name(),
			Available:   success,
		})
	}

	if success {
		converter.Store(w.ir.coordinatorSection(w.c.Name()), "LastSuccess", w.c.LastUpdated(), converter.TimeEncoder)
	}

	if sendReauth {
		w.hub.sendEvent(entity.ReauthRequired{
			Integration: w.ir.name,
			Coordinator: w.c.Name(),
			Reason:      w.c.LastError(),
		})
	}
}
