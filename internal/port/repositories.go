package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
)

// BusinessRepository reads tenant records.
type BusinessRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Business, error)
}

// ParseResultRepository persists the parse-attempt ledger.
type ParseResultRepository interface {
	Create(ctx context.Context, pr *domain.ParseResult) error
	GetByID(ctx context.Context, businessID, id uuid.UUID) (*domain.ParseResult, error)
	// GetSuccessByAttachment returns the successful parse for an attachment,
	// or domain.ErrParseResultNotFound. This is the idempotency check.
	GetSuccessByAttachment(ctx context.Context, businessID uuid.UUID, attachmentID string) (*domain.ParseResult, error)
	// GetLatestByAttachment returns the most recent parse row for an
	// attachment regardless of status.
	GetLatestByAttachment(ctx context.Context, businessID uuid.UUID, attachmentID string) (*domain.ParseResult, error)
	UpdateStatus(ctx context.Context, pr *domain.ParseResult) error
	ListByBusiness(ctx context.Context, businessID uuid.UUID, status domain.ParseStatus, offset, limit int) ([]domain.ParseResult, int, error)
	// ListRequeueable returns queued rows whose retry-after has passed plus
	// processing rows untouched since staleBefore.
	ListRequeueable(ctx context.Context, now, staleBefore time.Time, limit int) ([]domain.ParseResult, error)
}

// SubmissionRepository persists utility submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, sub *domain.Submission) error
	GetByID(ctx context.Context, businessID, id uuid.UUID) (*domain.Submission, error)
	UpdateStatus(ctx context.Context, sub *domain.Submission) error
	ListByBusiness(ctx context.Context, businessID uuid.UUID, offset, limit int) ([]domain.Submission, int, error)
	ListByAttachment(ctx context.Context, businessID uuid.UUID, attachmentID string) ([]domain.Submission, error)
}

// WorkflowRepository persists workflow definitions and their steps.
type WorkflowRepository interface {
	Create(ctx context.Context, wf *domain.Workflow) error
	GetByID(ctx context.Context, businessID, id uuid.UUID) (*domain.Workflow, error)
	ListByBusiness(ctx context.Context, businessID uuid.UUID, offset, limit int) ([]domain.Workflow, int, error)
	Delete(ctx context.Context, businessID, id uuid.UUID) error
}

// WorkflowExecutionRepository persists workflow runs.
type WorkflowExecutionRepository interface {
	Create(ctx context.Context, exec *domain.WorkflowExecution) error
	GetByID(ctx context.Context, businessID, id uuid.UUID) (*domain.WorkflowExecution, error)
	Update(ctx context.Context, exec *domain.WorkflowExecution) error
}

// AuditRepository appends to the audit log. Entries are never mutated.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
	ListBySubject(ctx context.Context, businessID uuid.UUID, subjectType, subjectID string, offset, limit int) ([]domain.AuditEntry, int, error)
}

// CustomerRepository reads customer contact records for phone resolution.
type CustomerRepository interface {
	GetByID(ctx context.Context, businessID, id uuid.UUID) (*domain.Customer, error)
}

// PipelineProfileRepository reads and writes per-business pipeline configuration.
type PipelineProfileRepository interface {
	GetByBusiness(ctx context.Context, businessID uuid.UUID) (*domain.PipelineProfile, error)
	Upsert(ctx context.Context, profile *domain.PipelineProfile) error
}

// WebhookEndpointRepository persists registered webhook receivers.
type WebhookEndpointRepository interface {
	Create(ctx context.Context, ep *domain.WebhookEndpoint) error
	ListActiveByBusiness(ctx context.Context, businessID uuid.UUID) ([]domain.WebhookEndpoint, error)
	Delete(ctx context.Context, businessID, id uuid.UUID) error
}
