package value_sensor

import (
	"context"
	"fmt"
	"sync"

	"github.com/shimmeringbee/hub/caps"
	"github.com/shimmeringbee/hub/coordinator"
	"github.com/shimmeringbee/hub/entity"
	"github.com/shimmeringbee/persistence"
)

// Update is sent on the hub event stream whenever the sensor observes a new
// value from its coordinator.
type Update struct {
	Identifier entity.Identifier
	Value      entity.Value
}

// Implementation surfaces a single numeric field of coordinator data as a
// ValueSensor, tracking availability of the upstream.
type Implementation struct {
	hi caps.HubInterface
	s  persistence.Section
	e  entity.Entity

	m      *sync.RWMutex
	source coordinator.Source
	field  string
	units  string
	value  entity.Value
	cancel func()
}

func NewValueSensor(hi caps.HubInterface) *Implementation {
	return &Implementation{hi: hi, m: &sync.RWMutex{}}
}

func (g *Implementation) ImplName() string {
	return "GenericValueSensor"
}

func (g *Implementation) Capability() entity.Capability {
	return entity.ValueSensorFlag
}

func (g *Implementation) Name() string {
	return entity.StandardNames[entity.ValueSensorFlag]
}

func (g *Implementation) Init(e entity.Entity, section persistence.Section) {
	g.e = e
	g.s = section
}

func (g *Implementation) Attach(_ context.Context, m map[string]any) (bool, error) {
	coordName, ok := m[caps.DataKeyCoordinator].(string)
	if !ok || len(coordName) == 0 {
		return false, fmt.Errorf("required metadata missing: %s", caps.DataKeyCoordinator)
	}

	field, ok := m[caps.DataKeyField].(string)
	if !ok || len(field) == 0 {
		return false, fmt.Errorf("required metadata missing: %s", caps.DataKeyField)
	}

	units, _ := m[caps.DataKeyUnits].(string)

	g.s.Set(caps.DataKeyCoordinator, coordName)
	g.s.Set(caps.DataKeyField, field)
	g.s.Set(caps.DataKeyUnits, units)

	return g.bind(coordName, field, units)
}

func (g *Implementation) Load(_ context.Context) (bool, error) {
	coordName, ok := g.s.String(caps.DataKeyCoordinator)
	if !ok {
		return false, fmt.Errorf("capability missing config parameter: %s", caps.DataKeyCoordinator)
	}

	field, ok := g.s.String(caps.DataKeyField)
	if !ok {
		return false, fmt.Errorf("capability missing config parameter: %s", caps.DataKeyField)
	}

	units, _ := g.s.String(caps.DataKeyUnits)

	return g.bind(coordName, field, units)
}

func (g *Implementation) bind(coordName string, field string, units string) (bool, error) {
	source, found := g.hi.Coordinator(coordName)
	if !found {
		return false, fmt.Errorf("unknown coordinator: %s", coordName)
	}

	g.m.Lock()
	if g.cancel != nil {
		g.cancel()
	}

	g.source = source
	g.field = field
	g.units = units
	g.cancel = source.AddListener(g.sourceUpdated)
	g.m.Unlock()

	if source.LastUpdateSuccess() {
		g.sourceUpdated()
	}

	return true, nil
}

func (g *Implementation) Detach(_ context.Context, _ caps.DetachType) error {
	g.m.Lock()
	defer g.m.Unlock()

	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}

	return nil
}

func (g *Implementation) sourceUpdated() {
	g.m.RLock()
	source := g.source
	field := g.field
	units := g.units
	g.m.RUnlock()

	if source == nil || !source.LastUpdateSuccess() {
		return
	}

	v, ok := extractField(source.Data(), field)
	if !ok {
		return
	}

	newValue := entity.Value{Value: v, Units: units, At: source.LastUpdated()}

	g.m.Lock()
	changed := g.value != newValue
	g.value = newValue
	g.m.Unlock()

	if changed && g.e != nil {
		g.hi.SendEvent(Update{Identifier: g.e.Identifier(), Value: newValue})
	}
}

func (g *Implementation) Refresh(ctx context.Context) error {
	g.m.RLock()
	source := g.source
	g.m.RUnlock()

	if source == nil {
		return entity.ErrNotSupported
	}

	_, err := source.Refresh(ctx)
	return err
}

func (g *Implementation) RequestRefresh() {
	g.m.RLock()
	source := g.source
	g.m.RUnlock()

	if source != nil {
		source.RequestRefresh()
	}
}

func (g *Implementation) Reading(_ context.Context) (entity.Value, error) {
	g.m.RLock()
	defer g.m.RUnlock()

	return g.value, nil
}

func (g *Implementation) Available(_ context.Context) (bool, error) {
	g.m.RLock()
	source := g.source
	g.m.RUnlock()

	if source == nil {
		return false, nil
	}

	return source.LastUpdateSuccess(), nil
}

func extractField(data any, field string) (float64, bool) {
	m, ok := data.(map[string]any)
	if !ok {
		return 0, false
	}

	switch v := m[field].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

var _ entity.ValueSensor = (*Implementation)(nil)
var _ entity.WithAvailability = (*Implementation)(nil)
var _ entity.Pollable = (*Implementation)(nil)
var _ caps.HubCapability = (*Implementation)(nil)
var _ entity.BasicCapability = (*Implementation)(nil)
