package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Onebillie/onebillconvo-sub004/internal/port"
)

// MockAttachmentFetcher is a mock implementation of port.AttachmentFetcher.
type MockAttachmentFetcher struct {
	mock.Mock
}

func (m *MockAttachmentFetcher) Fetch(ctx context.Context, url string) (*port.FetchedFile, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.FetchedFile), args.Error(1)
}
