package hub

import (
	"testing"

	"github.com/shimmeringbee/hub/entity"
	"github.com/shimmeringbee/persistence/impl/memory"
	"github.com/stretchr/testify/assert"
)

func TestHub_persistenceSections(t *testing.T) {
	t.Run("entity sections are nested under their integration and enumerable", func(t *testing.T) {
		h := New(memory.New())

		one := entity.Identifier{Integration: "octopus", ID: "meter"}
		two := entity.Identifier{Integration: "octopus", ID: "gas"}
		other := entity.Identifier{Integration: "hue", ID: "lounge"}

		h.sectionForEntity(one).Set("k", "v")
		h.sectionForEntity(two).Set("k", "v")
		h.sectionForEntity(other).Set("k", "v")

		assert.ElementsMatch(t, []entity.Identifier{one, two}, h.entityListFromPersistence("octopus"))
		assert.ElementsMatch(t, []entity.Identifier{other}, h.entityListFromPersistence("hue"))
	})

	t.Run("removing an entity section only affects that entity", func(t *testing.T) {
		h := New(memory.New())

		one := entity.Identifier{Integration: "octopus", ID: "meter"}
		two := entity.Identifier{Integration: "octopus", ID: "gas"}

		h.sectionForEntity(one).Set("k", "v")
		h.sectionForEntity(two).Set("k", "v")

		assert.True(t, h.sectionRemoveEntity(one))
		assert.False(t, h.sectionRemoveEntity(one))

		assert.ElementsMatch(t, []entity.Identifier{two}, h.entityListFromPersistence("octopus"))
	})
}
