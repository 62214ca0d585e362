package product_information

import (
	"context"
	"fmt"
	"sync"

	"github.com/shimmeringbee/hub/caps"
	"github.com/shimmeringbee/hub/entity"
	"github.com/shimmeringbee/persistence"
)

type Implementation struct {
	s  persistence.Section
	m  *sync.RWMutex
	pi *entity.Info
}

func NewProductInformation() *Implementation {
	return &Implementation{m: &sync.RWMutex{}}
}

func (g *Implementation) ImplName() string {
	return "GenericProductInformation"
}

func (g *Implementation) Init(_ entity.Entity, section persistence.Section) {
	g.s = section
}

func (g *Implementation) Load(_ context.Context) (bool, error) {
	g.m.Lock()
	defer g.m.Unlock()

	g.pi = &entity.Info{}
	g.pi.Manufacturer, _ = g.s.String("Manufacturer")
	g.pi.Model, _ = g.s.String("Model")
	g.pi.Version, _ = g.s.String("Version")
	g.pi.Serial, _ = g.s.String("Serial")

	return true, nil
}

func (g *Implementation) Capability() entity.Capability {
	return entity.DeviceInfoFlag
}

func (g *Implementation) Name() string {
	return entity.StandardNames[entity.DeviceInfoFlag]
}

func (g *Implementation) Attach(_ context.Context, m map[string]any) (bool, error) {
	g.m.Lock()
	defer g.m.Unlock()

	newPI := &entity.Info{}
	attach := false

	for k, v := range m {
		stringV, ok := v.(string)
		if !ok {
			return g.pi != nil, fmt.Errorf("failed to cast '%s' value to string", k)
		}

		if len(stringV) > 0 {
			switch k {
			case "Manufacturer":
				newPI.Manufacturer = stringV
				g.s.Set("Manufacturer", stringV)
				attach = true
			case "Model":
				newPI.Model = stringV
				g.s.Set("Model", stringV)
				attach = true
			case "Version":
				newPI.Version = stringV
				g.s.Set("Version", stringV)
				attach = true
			case "Serial":
				newPI.Serial = stringV
				g.s.Set("Serial", stringV)
				attach = true
			}
		}
	}

	if attach {
		g.pi = newPI
	}

	return attach, nil
}

func (g *Implementation) Detach(_ context.Context, _ caps.DetachType) error {
	return nil
}

func (g *Implementation) DeviceInfo(_ context.Context) (entity.Info, error) {
	g.m.RLock()
	defer g.m.RUnlock()
	return *g.pi, nil
}

var _ entity.HasDeviceInfo = (*Implementation)(nil)
var _ caps.HubCapability = (*Implementation)(nil)
var _ entity.BasicCapability = (*Implementation)(nil)
