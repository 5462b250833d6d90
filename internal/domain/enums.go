package domain

// UtilityDocType is the classification assigned to an inbound attachment.
type UtilityDocType string

const (
	DocTypeMeter       UtilityDocType = "meter"
	DocTypeElectricity UtilityDocType = "electricity"
	DocTypeGas         UtilityDocType = "gas"
	DocTypeUnknown     UtilityDocType = "unknown"
)

// ValidDocTypes is the set of classifications the model is allowed to return.
var ValidDocTypes = map[UtilityDocType]bool{
	DocTypeMeter:       true,
	DocTypeElectricity: true,
	DocTypeGas:         true,
}

// ParseStatus represents the lifecycle of a parse attempt.
type ParseStatus string

const (
	ParseStatusPending    ParseStatus = "pending"
	ParseStatusProcessing ParseStatus = "processing"
	ParseStatusQueued     ParseStatus = "queued"
	ParseStatusSuccess    ParseStatus = "success"
	ParseStatusFailed     ParseStatus = "failed"
)

// SubmissionStatus represents the lifecycle of a utility submission.
type SubmissionStatus string

const (
	SubmissionStatusPending   SubmissionStatus = "pending"
	SubmissionStatusSubmitted SubmissionStatus = "submitted"
	SubmissionStatusFailed    SubmissionStatus = "failed"
)

// StepType identifies the behavior of a workflow step.
type StepType string

const (
	StepTypeParse        StepType = "parse"
	StepTypeDocumentType StepType = "document_type"
	StepTypeCondition    StepType = "condition"
	StepTypeTransform    StepType = "transform"
	StepTypeAPIAction    StepType = "api_action"
	StepTypeDelay        StepType = "delay"
	StepTypeEnd          StepType = "end"
)

// ValidStepTypes is the set of step types the engine executes.
var ValidStepTypes = map[StepType]bool{
	StepTypeParse:        true,
	StepTypeDocumentType: true,
	StepTypeCondition:    true,
	StepTypeTransform:    true,
	StepTypeAPIAction:    true,
	StepTypeDelay:        true,
	StepTypeEnd:          true,
}

// ExecutionStatus represents the lifecycle of a workflow execution.
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// AuditAction identifies an audit log entry type.
type AuditAction string

const (
	AuditParseCompleted      AuditAction = "parse.completed"
	AuditParseFailed         AuditAction = "parse.failed"
	AuditParseQueued         AuditAction = "parse.queued"
	AuditParseRequeued       AuditAction = "parse.requeued"
	AuditSubmissionCreated   AuditAction = "submission.created"
	AuditSubmissionSubmitted AuditAction = "submission.submitted"
	AuditSubmissionFailed    AuditAction = "submission.failed"
	AuditSubmissionDropped   AuditAction = "submission.dropped"
	AuditWorkflowStarted     AuditAction = "workflow.started"
	AuditWorkflowCompleted   AuditAction = "workflow.completed"
	AuditWorkflowFailed      AuditAction = "workflow.failed"
)

// AllowedContentTypes is the set of attachment MIME types the classifier accepts.
var AllowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}
