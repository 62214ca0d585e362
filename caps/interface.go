package caps

import (
	"context"

	"github.com/shimmeringbee/hub/coordinator"
	"github.com/shimmeringbee/hub/entity"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/persistence"
)

const (
	DataKeyCoordinator = "Coordinator"
	DataKeyField       = "Field"
	DataKeyUnits       = "Units"
)

type DetachType int

const (
	// EntityRemoved is used when the entity has been removed from the hub, this has already occurred, and no
	// further communication with the upstream should be assumed possible.
	EntityRemoved DetachType = iota
	// NoLongerConfigured is used when rules or a re-run of integration setup no longer produce this capability,
	// or it is being replaced by a different implementation.
	NoLongerConfigured
	// FailedAttach is used when an Attach failed.
	FailedAttach
)

type HubCapability interface {
	// BasicCapability functions should also be present.
	entity.BasicCapability
	// Init is used upon creation of the capability to provide the owning entity and persistence.
	Init(entity.Entity, persistence.Section)
	// Attach is used to attach or re-attach the capability to an entity, with integration supplied metadata.
	// It returns true if everything is successful and the capability should be attached, or false if it
	// should not.
	Attach(context.Context, map[string]any) (bool, error)
	// Load restores the capability from persisted state. It returns true if everything needed was present and
	// the capability should reattach.
	Load(context.Context) (bool, error)
	// Detach is called when a capability is removed from an entity. This will be called after an Attach that
	// returned false, even if it was a new attach.
	Detach(context.Context, DetachType) error
	// ImplName returns the implementation name of the capability.
	ImplName() string
}

// HubInterface is the view of the hub handed to capability implementations.
type HubInterface interface {
	Logger() logwrap.Logger
	// Coordinator resolves a coordinator owned by the same integration by name.
	Coordinator(name string) (coordinator.Source, bool)
	// SendEvent allows a capability to publish event messages.
	SendEvent(any)
}
