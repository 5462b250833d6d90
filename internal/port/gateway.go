package port

import (
	"context"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
)

// UtilityGateway forwards a submission to the downstream utility integration.
type UtilityGateway interface {
	// Submit sends one submission. The endpoint may be overridden per business
	// via the pipeline profile; an empty override uses the configured default.
	Submit(ctx context.Context, sub *domain.Submission, endpointOverride string) error
}
