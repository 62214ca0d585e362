package hub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shimmeringbee/hub/caps"
	"github.com/shimmeringbee/hub/coordinator"
	"github.com/shimmeringbee/hub/entity"
	"github.com/shimmeringbee/hub/rules"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/persistence"
	"github.com/shimmeringbee/persistence/converter"
	"golang.org/x/sync/semaphore"
)

// Integration adapts one third party API into entities. Implementations are
// constructed by the application, handed to the hub before Start and driven
// entirely through the Runtime passed to Setup.
type Integration interface {
	// IntegrationName returns a stable identifier, used as the first half of
	// every entity identifier and as the persistence key for the integration.
	IntegrationName() string
	// Setup validates configuration and registers the integration's
	// coordinators, entities and capabilities through the runtime. An error
	// aborts setup, nothing registered is polled and an
	// IntegrationSetupFailed event is emitted.
	Setup(ctx context.Context, rt Runtime) error
	Teardown(ctx context.Context) error
}

// Runtime is the hub's service surface handed to an integration during Setup.
type Runtime interface {
	Logger() logwrap.Logger
	Section() persistence.Section
	// NewCoordinator creates and registers a named coordinator. A positive
	// interval schedules automatic refreshes on the hub's shared poller, zero
	// leaves refreshing entirely to RequestRefresh and manual Refresh calls.
	NewCoordinator(name string, fetch coordinator.FetchFunc, interval time.Duration, settings coordinator.Settings) (*coordinator.Coordinator, error)
	Coordinator(name string) (coordinator.Source, bool)
	AddEntity(ctx context.Context, id string) (entity.Entity, error)
	RemoveEntity(ctx context.Context, id string) error
	AttachCapability(ctx context.Context, e entity.Entity, c caps.HubCapability, metadata map[string]interface{}) (bool, error)
	SendEvent(event interface{})
}

type integrationRuntime struct {
	hub         *Hub
	integration Integration
	name        string

	setupSem *semaphore.Weighted

	coordLock    *sync.RWMutex
	coordinators map[string]*coordinator.Coordinator
	cancels      []func()
}

func newIntegrationRuntime(h *Hub, i Integration, name string) *integrationRuntime {
	return &integrationRuntime{
		hub:         h,
		integration: i,
		name:        name,

		setupSem: semaphore.NewWeighted(1),

		coordLock:    &sync.RWMutex{},
		coordinators: map[string]*coordinator.Coordinator{},
	}
}

var _ Runtime = (*integrationRuntime)(nil)
var _ caps.HubInterface = (*integrationRuntime)(nil)

func (ir *integrationRuntime) Logger() logwrap.Logger {
	l := ir.hub.logger
	l.AddOptionsToLogger(logwrap.Datum("Integration", ir.name))
	return l
}

func (ir *integrationRuntime) Section() persistence.Section {
	return ir.hub.sectionForIntegration(ir.name)
}

func (ir *integrationRuntime) coordinatorSection(name string) persistence.Section {
	return ir.Section().Section("coordinator", name)
}

func (ir *integrationRuntime) NewCoordinator(name string, fetch coordinator.FetchFunc, interval time.Duration, settings coordinator.Settings) (*coordinator.Coordinator, error) {
	ir.coordLock.Lock()
	if _, present := ir.coordinators[name]; present {
		ir.coordLock.Unlock()
		return nil, fmt.Errorf("duplicate coordinator: %s", name)
	}

	c := coordinator.NewWithSettings(name, fetch, ir.Logger(), settings)
	ir.coordinators[name] = c
	ir.coordLock.Unlock()

	converter.Store(ir.coordinatorSection(name), "Interval", interval, converter.DurationEncoder)

	cancels := []func(){ir.hub.watchCoordinator(ir, c), c.Stop}

	if interval > 0 {
		cancels = append(cancels, ir.hub.poller.Add(interval, func(ctx context.Context) bool {
			_, _ = c.Refresh(ctx)
			return true
		}))
	}

	ir.coordLock.Lock()
	ir.cancels = append(ir.cancels, cancels...)
	ir.coordLock.Unlock()

	return c, nil
}

func (ir *integrationRuntime) Coordinator(name string) (coordinator.Source, bool) {
	ir.coordLock.RLock()
	defer ir.coordLock.RUnlock()

	c, found := ir.coordinators[name]
	if !found {
		return nil, false
	}

	return c, true
}

func (ir *integrationRuntime) AddEntity(ctx context.Context, id string) (entity.Entity, error) {
	identifier := entity.Identifier{Integration: ir.name, ID: id}

	e, created := ir.hub.createEntity(identifier)
	if created {
		converter.Store(ir.hub.sectionForEntity(identifier), "Created", time.Now(), converter.TimeEncoder)
		ir.Logger().LogInfo(ctx, "Entity added.", logwrap.Datum("Entity", identifier.String()))
	}

	return e, nil
}

func (ir *integrationRuntime) RemoveEntity(ctx context.Context, id string) error {
	identifier := entity.Identifier{Integration: ir.name, ID: id}

	e := ir.hub.getEntity(identifier)
	if e == nil {
		return entity.ErrEntityNotFound
	}

	detached := map[caps.HubCapability]bool{}

	for _, flag := range e.Capabilities() {
		if hc, ok := e.Capability(flag).(caps.HubCapability); ok && !detached[hc] {
			detached[hc] = true

			if err := hc.Detach(ctx, caps.EntityRemoved); err != nil {
				ir.Logger().LogWarn(ctx, "Capability failed to detach cleanly.", logwrap.Datum("Entity", identifier.String()), logwrap.Err(err))
			}
		}

		e.removeCapability(flag)
		ir.hub.sendEvent(entity.CapabilityRemoved{Entity: e, Capability: flag})
	}

	ir.hub.removeEntity(identifier)
	ir.hub.sectionRemoveEntity(identifier)

	ir.Logger().LogInfo(ctx, "Entity removed.", logwrap.Datum("Entity", identifier.String()))

	return nil
}

func (ir *integrationRuntime) AttachCapability(ctx context.Context, e entity.Entity, c caps.HubCapability, metadata map[string]interface{}) (bool, error) {
	he := ir.hub.getEntity(e.Identifier())
	if he == nil {
		return false, entity.ErrEntityNotFound
	}

	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	if ir.hub.ruleEngine != nil {
		out, err := ir.hub.ruleEngine.Execute(ir.ruleInput(ctx, he, c.ImplName()))
		if err != nil {
			return false, fmt.Errorf("rule execution: %w", err)
		}

		v, allowed := out.Capabilities[c.ImplName()]
		if !allowed {
			ir.Logger().LogInfo(ctx, "Capability rejected by rules.", logwrap.Datum("Entity", he.identifier.String()), logwrap.Datum("Implementation", c.ImplName()))
			return false, nil
		}

		if settings, ok := v.(map[string]interface{}); ok {
			for k, sv := range settings {
				metadata[k] = sv
			}
		}
	}

	cSection := ir.hub.sectionForEntity(he.identifier).Section("capability", c.ImplName())
	cSection.Set("implementation", c.ImplName())

	c.Init(he, cSection.Section("data"))

	attached, err := c.Attach(ctx, metadata)
	if attached {
		for _, flag := range attachFlags(he, c) {
			ir.hub.sendEvent(entity.CapabilityAdded{Entity: he, Capability: flag})
		}
	} else {
		_ = c.Detach(ctx, caps.FailedAttach)
		ir.hub.sectionForEntity(he.identifier).Section("capability").SectionDelete(c.ImplName())
	}

	return attached, err
}

func (ir *integrationRuntime) ruleInput(ctx context.Context, he *hubEntity, implName string) rules.Input {
	in := rules.Input{
		Integration: ir.name,
		Entity:      he.identifier.ID,
		Capability:  implName,
	}

	if di, ok := he.Capability(entity.DeviceInfoFlag).(entity.HasDeviceInfo); ok {
		if info, err := di.DeviceInfo(ctx); err == nil {
			in.Product = rules.InputProductData{
				Name:         info.Model,
				Manufacturer: info.Manufacturer,
				Version:      info.Version,
				Serial:       info.Serial,
			}
		}
	}

	return in
}

func (ir *integrationRuntime) SendEvent(event interface{}) {
	ir.hub.sendEvent(event)
}

func (ir *integrationRuntime) teardown(pctx context.Context) {
	ctx, end := ir.Logger().Segment(pctx, "Tearing down integration.")
	defer end()

	if err := ir.integration.Teardown(ctx); err != nil {
		ir.Logger().LogError(ctx, "Integration teardown failed.", logwrap.Err(err))
	}

	ir.coordLock.Lock()
	cancels := ir.cancels
	ir.cancels = nil
	ir.coordLock.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}
