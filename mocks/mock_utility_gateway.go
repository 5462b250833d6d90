package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
)

// MockUtilityGateway is a mock implementation of port.UtilityGateway.
type MockUtilityGateway struct {
	mock.Mock
}

func (m *MockUtilityGateway) Submit(ctx context.Context, sub *domain.Submission, endpointOverride string) error {
	args := m.Called(ctx, sub, endpointOverride)
	return args.Error(0)
}
