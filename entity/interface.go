package entity

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Identifier uniquely names an entity within a hub, scoped by the
// integration that owns it.
type Identifier struct {
	Integration string
	ID          string
}

func (i Identifier) String() string {
	return fmt.Sprintf("%s/%s", i.Integration, i.ID)
}

// Capability is a flag enumerating a behaviour an entity may expose. The
// concrete implementation is retrieved with Entity.Capability and asserted
// against the matching interface below.
type Capability int

const (
	DeviceInfoFlag Capability = iota + 1
	PollableFlag
	ToggleableFlag
	ValueSensorFlag
	AvailabilityFlag
)

var StandardNames = map[Capability]string{
	DeviceInfoFlag:   "DeviceInfo",
	PollableFlag:     "Pollable",
	ToggleableFlag:   "Toggleable",
	ValueSensorFlag:  "ValueSensor",
	AvailabilityFlag: "Availability",
}

type Entity interface {
	Identifier() Identifier
	Capabilities() []Capability
	Capability(Capability) interface{}
	HasCapability(Capability) bool
}

var ErrEntityNotFound = errors.New("entity not found")
var ErrDoesNotHaveCapability = errors.New("entity does not have capability")
var ErrNotSupported = errors.New("operation not supported by capability implementation")

// BasicCapability functions are implemented by every capability
// implementation attached to an entity.
type BasicCapability interface {
	Capability() Capability
	Name() string
}

type Info struct {
	Manufacturer string
	Model        string
	Version      string
	Serial       string
}

type HasDeviceInfo interface {
	DeviceInfo(context.Context) (Info, error)
}

// Pollable is present on entities backed by a polled upstream, permitting
// an on demand refresh outside the scheduled interval.
type Pollable interface {
	Refresh(context.Context) error
	RequestRefresh()
}

type Toggleable interface {
	On(context.Context) error
	Off(context.Context) error
	Status(context.Context) (bool, error)
}

type Value struct {
	Value float64
	Units string
	At    time.Time
}

type ValueSensor interface {
	Reading(context.Context) (Value, error)
}

// WithAvailability reports whether the upstream behind an entity is
// currently reachable. Entities remain registered while unavailable.
type WithAvailability interface {
	Available(context.Context) (bool, error)
}
