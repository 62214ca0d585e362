package caps

import (
	"context"

	"github.com/shimmeringbee/hub/coordinator"
	"github.com/shimmeringbee/hub/entity"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/persistence"
	"github.com/stretchr/testify/mock"
)

type MockHubInterface struct {
	mock.Mock
}

func (m *MockHubInterface) Logger() logwrap.Logger {
	return m.Called().Get(0).(logwrap.Logger)
}

func (m *MockHubInterface) Coordinator(name string) (coordinator.Source, bool) {
	args := m.Called(name)

	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}

	return args.Get(0).(coordinator.Source), args.Bool(1)
}

func (m *MockHubInterface) SendEvent(a any) {
	m.Called(a)
}

var _ HubInterface = (*MockHubInterface)(nil)

type MockHubCapability struct {
	mock.Mock
}

func (m *MockHubCapability) Capability() entity.Capability {
	return m.Called().Get(0).(entity.Capability)
}

func (m *MockHubCapability) Name() string {
	return m.Called().String(0)
}

func (m *MockHubCapability) Init(e entity.Entity, s persistence.Section) {
	m.Called(e, s)
}

func (m *MockHubCapability) Attach(ctx context.Context, md map[string]any) (bool, error) {
	args := m.Called(ctx, md)
	return args.Bool(0), args.Error(1)
}

func (m *MockHubCapability) Load(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockHubCapability) Detach(ctx context.Context, dt DetachType) error {
	return m.Called(ctx, dt).Error(0)
}

func (m *MockHubCapability) ImplName() string {
	return m.Called().String(0)
}

var _ HubCapability = (*MockHubCapability)(nil)
