package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
)

// MockExecutionRepo is a mock implementation of port.WorkflowExecutionRepository.
type MockExecutionRepo struct {
	mock.Mock
}

func (m *MockExecutionRepo) Create(ctx context.Context, exec *domain.WorkflowExecution) error {
	args := m.Called(ctx, exec)
	return args.Error(0)
}

func (m *MockExecutionRepo) GetByID(ctx context.Context, businessID, id uuid.UUID) (*domain.WorkflowExecution, error) {
	args := m.Called(ctx, businessID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WorkflowExecution), args.Error(1)
}

func (m *MockExecutionRepo) Update(ctx context.Context, exec *domain.WorkflowExecution) error {
	args := m.Called(ctx, exec)
	return args.Error(0)
}
