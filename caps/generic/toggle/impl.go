package toggle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shimmeringbee/hub/caps"
	"github.com/shimmeringbee/hub/coordinator"
	"github.com/shimmeringbee/hub/entity"
	"github.com/shimmeringbee/persistence"
	"github.com/shimmeringbee/retry"
)

const DefaultControlTimeout = 3000 * time.Millisecond
const DefaultControlRetries = 5

// ControlFunc changes the state of the upstream device or service. It is
// supplied by the owning integration and usually wraps a vendor API call.
type ControlFunc func(ctx context.Context, on bool) error

// Update is sent on the hub event stream when the observed state changes.
type Update struct {
	Identifier entity.Identifier
	State      bool
}

// Implementation provides Toggleable backed by an integration control
// function, optionally confirming state through a coordinator field. State
// is updated optimistically on successful control calls and corrected by
// the next coordinator cycle.
type Implementation struct {
	hi      caps.HubInterface
	s       persistence.Section
	e       entity.Entity
	control ControlFunc

	m      *sync.RWMutex
	source coordinator.Source
	field  string
	cancel func()
	state  bool
}

func NewToggle(hi caps.HubInterface, control ControlFunc) *Implementation {
	return &Implementation{hi: hi, control: control, m: &sync.RWMutex{}}
}

func (g *Implementation) ImplName() string {
	return "GenericToggle"
}

func (g *Implementation) Capability() entity.Capability {
	return entity.ToggleableFlag
}

func (g *Implementation) Name() string {
	return entity.StandardNames[entity.ToggleableFlag]
}

func (g *Implementation) Init(e entity.Entity, section persistence.Section) {
	g.e = e
	g.s = section
}

func (g *Implementation) Attach(_ context.Context, m map[string]any) (bool, error) {
	if g.control == nil {
		return false, fmt.Errorf("toggle requires a control function")
	}

	coordName, _ := m[caps.DataKeyCoordinator].(string)
	field, _ := m[caps.DataKeyField].(string)

	g.s.Set(caps.DataKeyCoordinator, coordName)
	g.s.Set(caps.DataKeyField, field)

	if len(coordName) > 0 {
		return g.bind(coordName, field)
	}

	return true, nil
}

func (g *Implementation) Load(_ context.Context) (bool, error) {
	if g.control == nil {
		return false, fmt.Errorf("toggle requires a control function")
	}

	coordName, _ := g.s.String(caps.DataKeyCoordinator)
	field, _ := g.s.String(caps.DataKeyField)

	if len(coordName) > 0 {
		return g.bind(coordName, field)
	}

	return true, nil
}

func (g *Implementation) bind(coordName string, field string) (bool, error) {
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

func (g *Implementation) On(ctx context.Context) error {
	return g.set(ctx, true)
}

func (g *Implementation) Off(ctx context.Context) error {
	return g.set(ctx, false)
}

func (g *Implementation) set(ctx context.Context, on bool) error {
	if err := retry.Retry(ctx, DefaultControlTimeout, DefaultControlRetries, func(ctx context.Context) error {
		return g.control(ctx, on)
	}); err != nil {
		return err
	}

	g.setState(on)

	g.m.RLock()
	source := g.source
	g.m.RUnlock()

	if source != nil {
		source.RequestRefresh()
	}

	return nil
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

func (g *Implementation) Status(_ context.Context) (bool, error) {
	g.m.RLock()
	defer g.m.RUnlock()

	return g.state, nil
}

func (g *Implementation) sourceUpdated() {
	g.m.RLock()
	source := g.source
	field := g.field
	g.m.RUnlock()

	if source == nil || !source.LastUpdateSuccess() {
		return
	}

	if on, ok := extractState(source.Data(), field); ok {
		g.setState(on)
	}
}

func (g *Implementation) setState(on bool) {
	g.m.Lock()
	changed := g.state != on
	g.state = on
	g.m.Unlock()

	if changed && g.e != nil {
		g.hi.SendEvent(Update{Identifier: g.e.Identifier(), State: on})
	}
}

func extractState(data any, field string) (bool, bool) {
	m, ok := data.(map[string]any)
	if !ok {
		return false, false
	}

	switch v := m[field].(type) {
	case bool:
		return v, true
	case float64:
		return v != 0, true
	case int:
		return v != 0, true
	default:
		return false, false
	}
}

var _ entity.Toggleable = (*Implementation)(nil)
var _ entity.Pollable = (*Implementation)(nil)
var _ caps.HubCapability = (*Implementation)(nil)
var _ entity.BasicCapability = (*Implementation)(nil)
