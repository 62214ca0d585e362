package product_information

import (
	"context"
	"testing"

	"github.com/shimmeringbee/hub/entity"
	"github.com/shimmeringbee/persistence/impl/memory"
	"github.com/stretchr/testify/assert"
)

func TestProductInformation(t *testing.T) {
	t.Run("has basic capability functions", func(t *testing.T) {
		pi := Implementation{}

		assert.Equal(t, entity.DeviceInfoFlag, pi.Capability())
		assert.Equal(t, entity.StandardNames[entity.DeviceInfoFlag], pi.Name())
		assert.Equal(t, "GenericProductInformation", pi.ImplName())
	})

	t.Run("accepts data on attach and returns via DeviceInfo", func(t *testing.T) {
		pi := NewProductInformation()
		pi.Init(nil, memory.New())

		attached, err := pi.Attach(nil, map[string]any{
			"Model":        "NEXUS-7",
			"Manufacturer": "Tyrell Corporation",
			"Serial":       "N7FAA52318",
		})
		assert.True(t, attached)
		assert.NoError(t, err)

		actualInfo, err := pi.DeviceInfo(nil)
		assert.NoError(t, err)

		expectedInfo := entity.Info{
			Manufacturer: "Tyrell Corporation",
			Model:        "NEXUS-7",
			Serial:       "N7FAA52318",
			Version:      "",
		}

		assert.Equal(t, expectedInfo, actualInfo)
	})

	t.Run("fails to attach if data is not string", func(t *testing.T) {
		pi := NewProductInformation()
		pi.Init(nil, memory.New())

		attached, err := pi.Attach(nil, map[string]any{
			"Model": 7,
		})
		assert.False(t, attached)
		assert.Error(t, err)
	})

	t.Run("capturing state and reloading should result in same output state", func(t *testing.T) {
		s := memory.New()
		pi1 := NewProductInformation()
		pi1.Init(nil, s)

		attached, err := pi1.Attach(nil, map[string]any{
			"Model":        "NEXUS-7",
			"Manufacturer": "Tyrell Corporation",
			"Serial":       "N7FAA52318",
			"Version":      "1.0.0",
		})
		assert.True(t, attached)
		assert.NoError(t, err)

		pi2 := NewProductInformation()
		pi2.Init(nil, s)

		attached, err = pi2.Load(context.TODO())
		assert.True(t, attached)
		assert.NoError(t, err)

		out1, _ := pi1.DeviceInfo(nil)
		out2, _ := pi2.DeviceInfo(nil)

		assert.Equal(t, out1, out2)
	})
}
