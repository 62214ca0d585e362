package mocks

import (
	"context"
	"time"

	"github.com/shimmeringbee/hub"
	"github.com/shimmeringbee/hub/caps"
	"github.com/shimmeringbee/hub/coordinator"
	"github.com/shimmeringbee/hub/entity"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/persistence"
	"github.com/stretchr/testify/mock"
)

type MockRuntime struct {
	mock.Mock
}

func (m *MockRuntime) Logger() logwrap.Logger {
	return m.Called().Get(0).(logwrap.Logger)
}

func (m *MockRuntime) Section() persistence.Section {
	return m.Called().Get(0).(persistence.Section)
}

func (m *MockRuntime) NewCoordinator(name string, fetch coordinator.FetchFunc, interval time.Duration, settings coordinator.Settings) (*coordinator.Coordinator, error) {
	args := m.Called(name, fetch, interval, settings)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*coordinator.Coordinator), args.Error(1)
}

func (m *MockRuntime) Coordinator(name string) (coordinator.Source, bool) {
	args := m.Called(name)

	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}

	return args.Get(0).(coordinator.Source), args.Bool(1)
}

func (m *MockRuntime) AddEntity(ctx context.Context, id string) (entity.Entity, error) {
	args := m.Called(ctx, id)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(entity.Entity), args.Error(1)
}

func (m *MockRuntime) RemoveEntity(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRuntime) AttachCapability(ctx context.Context, e entity.Entity, c caps.HubCapability, metadata map[string]interface{}) (bool, error) {
	args := m.Called(ctx, e, c, metadata)
	return args.Bool(0), args.Error(1)
}

func (m *MockRuntime) SendEvent(event interface{}) {
	m.Called(event)
}

var _ hub.Runtime = (*MockRuntime)(nil)
