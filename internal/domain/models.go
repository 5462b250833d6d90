package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Business represents an isolated tenant of the messaging platform.
type Business struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Customer represents a contact owning the conversation an attachment arrived on.
type Customer struct {
	ID            uuid.UUID `db:"id" json:"id"`
	BusinessID    uuid.UUID `db:"business_id" json:"business_id"`
	Name          string    `db:"name" json:"name"`
	Phone         string    `db:"phone" json:"phone"`
	WhatsAppPhone string    `db:"whatsapp_phone" json:"whatsapp_phone"`
	Email         string    `db:"email" json:"email"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// PipelineProfile is the per-business configuration for the ingestion pipeline.
// Behavior that was once keyed off a hardcoded tenant id lives here instead.
type PipelineProfile struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	BusinessID         uuid.UUID `db:"business_id" json:"business_id"`
	AutoSubmit         bool      `db:"auto_submit" json:"auto_submit"`
	ClassifierProvider string    `db:"classifier_provider" json:"classifier_provider"`
	GatewayEndpoint    string    `db:"gateway_endpoint" json:"gateway_endpoint"`
	NotifyEmail        string    `db:"notify_email" json:"notify_email"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// ParseResult is one row per (attachment, processing attempt). At most one
// success row exists per attachment; the attachment id is the idempotency key.
type ParseResult struct {
	ID                  uuid.UUID       `db:"id" json:"id"`
	BusinessID          uuid.UUID       `db:"business_id" json:"business_id"`
	AttachmentID        string          `db:"attachment_id" json:"attachment_id"`
	MessageID           string          `db:"message_id" json:"message_id"`
	CustomerID          *uuid.UUID      `db:"customer_id" json:"customer_id"`
	SourceURL           string          `db:"source_url" json:"source_url"`
	FileName            string          `db:"file_name" json:"file_name"`
	Status              ParseStatus     `db:"status" json:"status"`
	DocumentType        UtilityDocType  `db:"document_type" json:"document_type"`
	Confidence          float64         `db:"confidence" json:"confidence"`
	ParsedData          json.RawMessage `db:"parsed_data" json:"parsed_data"`
	FieldConfidence     json.RawMessage `db:"field_confidence" json:"field_confidence"`
	LowConfidenceFields json.RawMessage `db:"low_confidence_fields" json:"low_confidence_fields"`
	ErrorMessage        string          `db:"error_message" json:"error_message"`
	Attempts            int             `db:"attempts" json:"attempts"`
	RetryAfter          *time.Time      `db:"retry_after" json:"retry_after"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time       `db:"updated_at" json:"updated_at"`
}

// Submission is one row per billable sub-entity detected in a parsed document.
type Submission struct {
	ID              uuid.UUID        `db:"id" json:"id"`
	BusinessID      uuid.UUID        `db:"business_id" json:"business_id"`
	CustomerID      *uuid.UUID       `db:"customer_id" json:"customer_id"`
	ParseResultID   uuid.UUID        `db:"parse_result_id" json:"parse_result_id"`
	AttachmentID    string           `db:"attachment_id" json:"attachment_id"`
	DocumentType    UtilityDocType   `db:"document_type" json:"document_type"`
	Phone           string           `db:"phone" json:"phone"`
	MPRN            string           `db:"mprn" json:"mprn"`
	GPRN            string           `db:"gprn" json:"gprn"`
	MeterConfigCode string           `db:"meter_config_code" json:"meter_config_code"`
	DemandGroupCode string           `db:"demand_group_code" json:"demand_group_code"`
	ReadingValue    string           `db:"reading_value" json:"reading_value"`
	ReadingUnit     string           `db:"reading_unit" json:"reading_unit"`
	SourceFileURL   string           `db:"source_file_url" json:"source_file_url"`
	Status          SubmissionStatus `db:"status" json:"status"`
	ErrorMessage    string           `db:"error_message" json:"error_message"`
	Payload         json.RawMessage  `db:"payload" json:"payload"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}

// Validate checks that the submission carries the mandatory identifier for
// its document type.
func (s *Submission) Validate() error {
	if s.Phone == "" {
		return ErrPhoneUnresolved
	}
	switch s.DocumentType {
	case DocTypeElectricity:
		if s.MPRN == "" {
			return ErrMissingIdentifier
		}
	case DocTypeGas:
		if s.GPRN == "" {
			return ErrMissingIdentifier
		}
	case DocTypeMeter:
		if s.ReadingValue == "" {
			return ErrMissingIdentifier
		}
	default:
		return ErrUnknownDocType
	}
	return nil
}

// Workflow is a named, business-scoped collection of steps.
type Workflow struct {
	ID         uuid.UUID      `db:"id" json:"id"`
	BusinessID uuid.UUID      `db:"business_id" json:"business_id"`
	Name       string         `db:"name" json:"name"`
	IsActive   bool           `db:"is_active" json:"is_active"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
	Steps      []WorkflowStep `db:"-" json:"steps,omitempty"`
}

// WorkflowStep is a single typed step. Successors are referenced by id;
// a nil successor terminates that path.
type WorkflowStep struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	WorkflowID    uuid.UUID       `db:"workflow_id" json:"workflow_id"`
	Type          StepType        `db:"step_type" json:"type"`
	Position      int             `db:"position" json:"position"`
	Config        json.RawMessage `db:"config" json:"config"`
	NextOnSuccess *uuid.UUID      `db:"next_on_success" json:"next_on_success"`
	NextOnFailure *uuid.UUID      `db:"next_on_failure" json:"next_on_failure"`
}

// WorkflowExecution is one row per triggered run.
type WorkflowExecution struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	WorkflowID   uuid.UUID       `db:"workflow_id" json:"workflow_id"`
	BusinessID   uuid.UUID       `db:"business_id" json:"business_id"`
	AttachmentID string          `db:"attachment_id" json:"attachment_id"`
	MessageID    string          `db:"message_id" json:"message_id"`
	TriggerType  string          `db:"trigger_type" json:"trigger_type"`
	Status       ExecutionStatus `db:"status" json:"status"`
	Context      json.RawMessage `db:"context" json:"context"`
	ErrorMessage string          `db:"error_message" json:"error_message"`
	StartedAt    time.Time       `db:"started_at" json:"started_at"`
	CompletedAt  *time.Time      `db:"completed_at" json:"completed_at"`
}

// AuditEntry is an append-only record of a pipeline or workflow lifecycle event.
type AuditEntry struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	BusinessID  uuid.UUID       `db:"business_id" json:"business_id"`
	SubjectType string          `db:"subject_type" json:"subject_type"`
	SubjectID   string          `db:"subject_id" json:"subject_id"`
	Action      AuditAction     `db:"action" json:"action"`
	Details     json.RawMessage `db:"details" json:"details"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// WebhookEndpoint is a registered receiver for outbound event payloads.
type WebhookEndpoint struct {
	ID         uuid.UUID `db:"id" json:"id"`
	BusinessID uuid.UUID `db:"business_id" json:"business_id"`
	URL        string    `db:"url" json:"url"`
	Secret     string    `db:"secret" json:"-"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
