package hub

import (
	"context"

	"github.com/shimmeringbee/hub/entity"
)

type internalEntityAdded struct {
	entity *hubEntity
}

type internalEntityRemoved struct {
	entity *hubEntity
}

func (h *Hub) entityAddedCallback(_ context.Context, e internalEntityAdded) error {
	h.sendEvent(entity.EntityAdded{Entity: e.entity})
	return nil
}

func (h *Hub) entityRemovedCallback(_ context.Context, e internalEntityRemoved) error {
	h.sendEvent(entity.EntityRemoved{Entity: e.entity})
	return nil
}
