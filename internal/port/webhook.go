package port

import (
	"context"

	"github.com/google/uuid"
)

// WebhookEmitter delivers event payloads to a business's registered endpoints.
// Delivery is best effort: failures are logged, never returned.
type WebhookEmitter interface {
	Emit(ctx context.Context, businessID uuid.UUID, event string, data interface{})
}
