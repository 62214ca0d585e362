package hub

import (
	"context"

	"github.com/shimmeringbee/hub/caps"
	"github.com/shimmeringbee/hub/caps/factory"
	"github.com/shimmeringbee/hub/entity"
	"github.com/shimmeringbee/logwrap"
)

func (h *Hub) loadIntegration(pctx context.Context, ir *integrationRuntime) {
	ctx, end := h.logger.Segment(pctx, "Loading persisted entities.", logwrap.Datum("Integration", ir.name))
	defer end()

	for _, id := range h.entityListFromPersistence(ir.name) {
		h.loadEntity(ctx, ir, id)
	}
}

func (h *Hub) loadEntity(pctx context.Context, ir *integrationRuntime, id entity.Identifier) {
	ctx, end := h.logger.Segment(pctx, "Loading entity data.", logwrap.Datum("Entity", id.String()))
	defer end()

	e, _ := h.createEntity(id)

	capSection := h.sectionForEntity(id).Section("capability")

	for _, cName := range capSection.SectionKeys() {
		cctx, cend := h.logger.Segment(ctx, "Loading capability data.", logwrap.Datum("capability", cName))

		cSection := capSection.Section(cName)

		if capImpl, found := cSection.String("implementation"); found {
			if e.hasImplementation(capImpl) {
				// Already attached live by integration setup this run.
				cend()
				continue
			}

			if capI := factory.Create(capImpl, ir); capI == nil {
				h.logger.LogError(cctx, "Could not find capability implementation.", logwrap.Datum("implementation", capImpl))
			} else {
				capI.Init(e, cSection.Section("data"))

				attached, err := capI.Load(cctx)
				if err != nil {
					h.logger.LogError(cctx, "Error while loading from persistence.", logwrap.Err(err), logwrap.Datum("implementation", capImpl))
				}

				if attached {
					for _, flag := range attachFlags(e, capI) {
						h.sendEvent(entity.CapabilityAdded{Entity: e, Capability: flag})
					}
				} else {
					h.logger.LogWarn(cctx, "Rejected capability attach from persistence.", logwrap.Datum("implementation", capImpl))
					_ = capI.Detach(cctx, caps.FailedAttach)
				}
			}
		}

		cend()
	}
}
