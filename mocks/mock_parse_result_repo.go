package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
)

// MockParseResultRepo is a mock implementation of port.ParseResultRepository.
type MockParseResultRepo struct {
	mock.Mock
}

func (m *MockParseResultRepo) Create(ctx context.Context, pr *domain.ParseResult) error {
	args := m.Called(ctx, pr)
	return args.Error(0)
}

func (m *MockParseResultRepo) GetByID(ctx context.Context, businessID, id uuid.UUID) (*domain.ParseResult, error) {
	args := m.Called(ctx, businessID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParseResult), args.Error(1)
}

func (m *MockParseResultRepo) GetSuccessByAttachment(ctx context.Context, businessID uuid.UUID, attachmentID string) (*domain.ParseResult, error) {
	args := m.Called(ctx, businessID, attachmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParseResult), args.Error(1)
}

func (m *MockParseResultRepo) GetLatestByAttachment(ctx context.Context, businessID uuid.UUID, attachmentID string) (*domain.ParseResult, error) {
	args := m.Called(ctx, businessID, attachmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParseResult), args.Error(1)
}

func (m *MockParseResultRepo) UpdateStatus(ctx context.Context, pr *domain.ParseResult) error {
	args := m.Called(ctx, pr)
	return args.Error(0)
}

func (m *MockParseResultRepo) ListByBusiness(ctx context.Context, businessID uuid.UUID, status domain.ParseStatus, offset, limit int) ([]domain.ParseResult, int, error) {
	args := m.Called(ctx, businessID, status, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ParseResult), args.Int(1), args.Error(2)
}

func (m *MockParseResultRepo) ListRequeueable(ctx context.Context, now, staleBefore time.Time, limit int) ([]domain.ParseResult, error) {
	args := m.Called(ctx, now, staleBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ParseResult), args.Error(1)
}
