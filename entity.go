package hub

import (
	"sort"
	"sync"

	"github.com/shimmeringbee/hub/caps"
	"github.com/shimmeringbee/hub/entity"
)

type hubEntity struct {
	identifier entity.Identifier

	m          *sync.RWMutex
	capability map[entity.Capability]interface{}
}

var _ entity.Entity = (*hubEntity)(nil)

func (e *hubEntity) Identifier() entity.Identifier {
	return e.identifier
}

func (e *hubEntity) Capabilities() []entity.Capability {
	e.m.RLock()
	defer e.m.RUnlock()

	var out []entity.Capability
	for c := range e.capability {
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

func (e *hubEntity) Capability(c entity.Capability) interface{} {
	e.m.RLock()
	defer e.m.RUnlock()

	return e.capability[c]
}

func (e *hubEntity) HasCapability(c entity.Capability) bool {
	e.m.RLock()
	defer e.m.RUnlock()

	_, found := e.capability[c]
	return found
}

func (e *hubEntity) addCapability(c entity.Capability, impl interface{}) {
	e.m.Lock()
	defer e.m.Unlock()

	e.capability[c] = impl
}

func (e *hubEntity) removeCapability(c entity.Capability) {
	e.m.Lock()
	defer e.m.Unlock()

	delete(e.capability, c)
}

func (e *hubEntity) hasImplementation(name string) bool {
	e.m.RLock()
	defer e.m.RUnlock()

	for _, impl := range e.capability {
		if hc, ok := impl.(caps.HubCapability); ok && hc.ImplName() == name {
			return true
		}
	}

	return false
}

// attachFlags registers a capability implementation under its primary flag,
// and additionally under PollableFlag when it can refresh on demand. The
// flags attached are returned so callers can emit events per flag.
func attachFlags(e *hubEntity, c caps.HubCapability) []entity.Capability {
	flags := []entity.Capability{c.Capability()}

	if _, ok := c.(entity.Pollable); ok {
		flags = append(flags, entity.PollableFlag)
	}

	for _, flag := range flags {
		e.addCapability(flag, c)
	}

	return flags
}
