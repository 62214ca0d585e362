package factory

import (
	"github.com/shimmeringbee/hub/caps"
	"github.com/shimmeringbee/hub/caps/generic/product_information"
	"github.com/shimmeringbee/hub/caps/generic/value_sensor"
	"github.com/shimmeringbee/hub/entity"
)

const GenericProductInformation = "GenericProductInformation"
const GenericValueSensor = "GenericValueSensor"

// Mapping lists the capability implementations which can be reconstructed
// from persistence alone. GenericToggle is absent as it requires a control
// function from its integration, so is re-attached on integration setup.
var Mapping = map[string]entity.Capability{
	GenericProductInformation: entity.DeviceInfoFlag,
	GenericValueSensor:        entity.ValueSensorFlag,
}

func Create(name string, iface caps.HubInterface) caps.HubCapability {
	switch name {
	case GenericProductInformation:
		return product_information.NewProductInformation()
	case GenericValueSensor:
		return value_sensor.NewValueSensor(iface)
	default:
		return nil
	}
}
