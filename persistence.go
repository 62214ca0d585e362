package hub

import (
	"github.com/shimmeringbee/hub/entity"
	"github.com/shimmeringbee/persistence"
)

func (h *Hub) sectionForIntegration(name string) persistence.Section {
	return h.section.Section("integration", name)
}

func (h *Hub) sectionForEntity(id entity.Identifier) persistence.Section {
	return h.sectionForIntegration(id.Integration).Section("entity", id.ID)
}

func (h *Hub) sectionRemoveEntity(id entity.Identifier) bool {
	return h.sectionForIntegration(id.Integration).Section("entity").SectionDelete(id.ID)
}

func (h *Hub) entityListFromPersistence(integration string) []entity.Identifier {
	var entityList []entity.Identifier

	for _, k := range h.sectionForIntegration(integration).Section("entity").SectionKeys() {
		entityList = append(entityList, entity.Identifier{Integration: integration, ID: k})
	}

	return entityList
}
