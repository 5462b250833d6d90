package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
	"github.com/Onebillie/onebillconvo-sub004/internal/service"
)

// MockParseRouterService is a mock implementation of service.ParseRouterService.
type MockParseRouterService struct {
	mock.Mock
}

func (m *MockParseRouterService) Route(ctx context.Context, input *service.RouteInput) (*domain.ParseResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParseResult), args.Error(1)
}

func (m *MockParseRouterService) GetByID(ctx context.Context, businessID, id uuid.UUID) (*domain.ParseResult, error) {
	args := m.Called(ctx, businessID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParseResult), args.Error(1)
}

func (m *MockParseRouterService) ListByBusiness(ctx context.Context, businessID uuid.UUID, status domain.ParseStatus, offset, limit int) ([]domain.ParseResult, int, error) {
	args := m.Called(ctx, businessID, status, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ParseResult), args.Int(1), args.Error(2)
}

func (m *MockParseRouterService) Requeue(ctx context.Context, businessID, id uuid.UUID) (*domain.ParseResult, error) {
	args := m.Called(ctx, businessID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParseResult), args.Error(1)
}

func (m *MockParseRouterService) ParseAttachment(ctx context.Context, businessID uuid.UUID, attachmentID, messageID, providerOverride string) (*domain.ParseResult, error) {
	args := m.Called(ctx, businessID, attachmentID, messageID, providerOverride)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParseResult), args.Error(1)
}

func (m *MockParseRouterService) ProcessQueued(ctx context.Context, pr *domain.ParseResult) {
	m.Called(ctx, pr)
}
