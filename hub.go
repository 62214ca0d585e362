package hub

import (
	"context"
	"fmt"
	"sync"

	"github.com/shimmeringbee/callbacks"
	"github.com/shimmeringbee/hub/entity"
	"github.com/shimmeringbee/hub/rules"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"github.com/shimmeringbee/persistence"
)

// Hub hosts a set of integrations, each adapting one third party API into
// entities. The hub owns scheduling, persistence, the entity table and the
// outward event stream; integrations own fetching and shaping data.
type Hub struct {
	logger  logwrap.Logger
	section persistence.Section

	events chan interface{}

	integrationLock *sync.RWMutex
	integration     map[string]*integrationRuntime

	entityLock *sync.RWMutex
	entity     map[entity.Identifier]*hubEntity

	callbacks callbacks.AdderCaller

	ruleEngine *rules.Engine

	poller *hubPoller

	running bool
}

func New(s persistence.Section) *Hub {
	h := &Hub{
		logger:  logwrap.New(discard.Discard()),
		section: s,

		events: make(chan interface{}, 100),

		integrationLock: &sync.RWMutex{},
		integration:     map[string]*integrationRuntime{},

		entityLock: &sync.RWMutex{},
		entity:     map[entity.Identifier]*hubEntity{},

		callbacks: callbacks.Create(),

		poller: newHubPoller(),
	}

	h.callbacks.Add(h.entityAddedCallback)
	h.callbacks.Add(h.entityRemovedCallback)

	return h
}

// WithRuleEngine makes the engine authoritative over capability attachment:
// an implementation absent from the engine's output for an entity will not
// attach. Must be called before Start.
func (h *Hub) WithRuleEngine(e *rules.Engine) {
	h.ruleEngine = e
}

func (h *Hub) AddIntegration(i Integration) error {
	h.integrationLock.Lock()
	defer h.integrationLock.Unlock()

	if h.running {
		return fmt.Errorf("integrations must be added before the hub is started")
	}

	name := i.IntegrationName()

	if _, present := h.integration[name]; present {
		return fmt.Errorf("duplicate integration: %s", name)
	}

	h.integration[name] = newIntegrationRuntime(h, i, name)

	return nil
}

func (h *Hub) Start(pctx context.Context) error {
	h.integrationLock.Lock()
	if h.running {
		h.integrationLock.Unlock()
		return fmt.Errorf("hub already started")
	}
	h.running = true

	var irs []*integrationRuntime
	for _, ir := range h.integration {
		irs = append(irs, ir)
	}
	h.integrationLock.Unlock()

	ctx, end := h.logger.Segment(pctx, "Starting hub.")
	defer end()

	h.poller.Start()

	for _, ir := range irs {
		h.setupIntegration(ctx, ir)
	}

	return nil
}

func (h *Hub) Stop(pctx context.Context) error {
	h.integrationLock.Lock()
	running := h.running
	h.running = false

	var irs []*integrationRuntime
	for _, ir := range h.integration {
		irs = append(irs, ir)
	}
	h.integrationLock.Unlock()

	if !running {
		return nil
	}

	ctx, end := h.logger.Segment(pctx, "Stopping hub.")
	defer end()

	for _, ir := range irs {
		ir.teardown(ctx)
	}

	h.poller.Stop()

	return nil
}

func (h *Hub) setupIntegration(pctx context.Context, ir *integrationRuntime) {
	if !ir.setupSem.TryAcquire(1) {
		h.logger.LogWarn(pctx, "Integration setup already in progress.", logwrap.Datum("Integration", ir.name))
		return
	}
	defer ir.setupSem.Release(1)

	ctx, end := h.logger.Segment(pctx, "Setting up integration.", logwrap.Datum("Integration", ir.name))
	defer end()

	if err := ir.integration.Setup(ctx, ir); err != nil {
		h.logger.LogError(ctx, "Integration setup failed, integration will not run.", logwrap.Err(err))
		h.sendEvent(entity.IntegrationSetupFailed{Integration: ir.name, Reason: err})
		return
	}

	h.loadIntegration(ctx, ir)
}
