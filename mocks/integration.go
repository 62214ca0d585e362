package mocks

import (
	"context"

	"github.com/shimmeringbee/hub"
	"github.com/stretchr/testify/mock"
)

type MockIntegration struct {
	mock.Mock
}

func (m *MockIntegration) IntegrationName() string {
	return m.Called().String(0)
}

func (m *MockIntegration) Setup(ctx context.Context, rt hub.Runtime) error {
	return m.Called(ctx, rt).Error(0)
}

func (m *MockIntegration) Teardown(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

var _ hub.Integration = (*MockIntegration)(nil)
