package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
)

// MockWebhookEndpointRepo is a mock implementation of port.WebhookEndpointRepository.
type MockWebhookEndpointRepo struct {
	mock.Mock
}

func (m *MockWebhookEndpointRepo) Create(ctx context.Context, ep *domain.WebhookEndpoint) error {
	args := m.Called(ctx, ep)
	return args.Error(0)
}

func (m *MockWebhookEndpointRepo) ListActiveByBusiness(ctx context.Context, businessID uuid.UUID) ([]domain.WebhookEndpoint, error) {
	args := m.Called(ctx, businessID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WebhookEndpoint), args.Error(1)
}

func (m *MockWebhookEndpointRepo) Delete(ctx context.Context, businessID, id uuid.UUID) error {
	args := m.Called(ctx, businessID, id)
	return args.Error(0)
}
