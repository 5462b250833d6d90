package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockWebhookEmitter is a mock implementation of port.WebhookEmitter.
type MockWebhookEmitter struct {
	mock.Mock
}

func (m *MockWebhookEmitter) Emit(ctx context.Context, businessID uuid.UUID, event string, data interface{}) {
	m.Called(ctx, businessID, event, data)
}
