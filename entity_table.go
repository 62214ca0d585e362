package hub

import (
	"context"
	"sync"

	"github.com/shimmeringbee/hub/entity"
)

func (h *Hub) createEntity(id entity.Identifier) (*hubEntity, bool) {
	h.entityLock.Lock()
	e, found := h.entity[id]
	if !found {
		e = &hubEntity{
			identifier: id,
			m:          &sync.RWMutex{},
			capability: map[entity.Capability]interface{}{},
		}
		h.entity[id] = e
	}
	h.entityLock.Unlock()

	if !found {
		h.callbacks.Call(context.Background(), internalEntityAdded{entity: e})
	}

	return e, !found
}

func (h *Hub) getEntity(id entity.Identifier) *hubEntity {
	h.entityLock.RLock()
	defer h.entityLock.RUnlock()

	return h.entity[id]
}

func (h *Hub) removeEntity(id entity.Identifier) bool {
	h.entityLock.Lock()
	e, found := h.entity[id]
	if found {
		delete(h.entity, id)
	}
	h.entityLock.Unlock()

	if found {
		h.callbacks.Call(context.Background(), internalEntityRemoved{entity: e})
	}

	return found
}

// Entity returns the live entity for an identifier, if present.
func (h *Hub) Entity(id entity.Identifier) (entity.Entity, bool) {
	e := h.getEntity(id)
	if e == nil {
		return nil, false
	}

	return e, true
}

func (h *Hub) Entities() []entity.Entity {
	h.entityLock.RLock()
	defer h.entityLock.RUnlock()

	var out []entity.Entity
	for _, e := range h.entity {
		out = append(out, e)
	}

	return out
}
