package coordinator

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) Name() string {
	return m.Called().String(0)
}

func (m *MockSource) Refresh(ctx context.Context) (interface{}, error) {
	args := m.Called(ctx)
	return args.Get(0), args.Error(1)
}

func (m *MockSource) RequestRefresh() {
	m.Called()
}

func (m *MockSource) Data() interface{} {
	return m.Called().Get(0)
}

func (m *MockSource) LastUpdateSuccess() bool {
	return m.Called().Bool(0)
}

func (m *MockSource) LastError() error {
	return m.Called().Error(0)
}

func (m *MockSource) LastUpdated() time.Time {
	return m.Called().Get(0).(time.Time)
}

func (m *MockSource) AddListener(cb func()) func() {
	args := m.Called(cb)
	return args.Get(0).(func())
}

var _ Source = (*MockSource)(nil)
