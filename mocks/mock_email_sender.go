package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockEmailSender is a mock implementation of port.EmailSender.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendNotification(ctx context.Context, toEmail, subject, textBody string) error {
	args := m.Called(ctx, toEmail, subject, textBody)
	return args.Error(0)
}
