package entity

// Events emitted on the hub event stream. Consumers receive these from
// Hub.ReadEvent and should switch on type.

type EntityAdded struct {
	Entity Entity
}

type EntityRemoved struct {
	Entity Entity
}

type CapabilityAdded struct {
	Entity     Entity
	Capability Capability
}

type CapabilityRemoved struct {
	Entity     Entity
	Capability Capability
}

// AvailabilityChanged is emitted when a coordinator transitions between
// succeeding and failing, covering every entity fed by it.
type AvailabilityChanged struct {
	Integration string
	Coordinator string
	Available   bool
}

// ReauthRequired is emitted once per outage when a coordinator fetch fails
// with an authentication error, rather than being retried blindly. The host
// should prompt the user to re-authenticate the integration.
type ReauthRequired struct {
	Integration string
	Coordinator string
	Reason      error
}

type IntegrationSetupFailed struct {
	Integration string
	Reason      error
}
