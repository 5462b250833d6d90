package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
	"github.com/Onebillie/onebillconvo-sub004/internal/port"
)

// AttachmentParser is the slice of the parse router the engine needs for
// parse and document_type steps.
type AttachmentParser interface {
	ParseAttachment(ctx context.Context, businessID uuid.UUID, attachmentID, messageID, providerOverride string) (*domain.ParseResult, error)
}

// TriggerInput identifies the workflow to run and the attachment that
// triggered it.
type TriggerInput struct {
	WorkflowID   uuid.UUID
	BusinessID   uuid.UUID
	AttachmentID string
	MessageID    string
	TriggerType  string
}

// Engine executes workflow definitions step by step. Steps run strictly
// sequentially within one execution; concurrency across executions is the
// caller's concern because each run owns its context and its row.
type Engine struct {
	workflows  port.WorkflowRepository
	executions port.WorkflowExecutionRepository
	audits     port.AuditRepository
	parser     AttachmentParser
	client     *http.Client
	maxSteps   int
	baseDelay  time.Duration
	sleep      func(time.Duration)
}

// NewEngine creates a workflow engine. maxSteps bounds the traversal loop:
// workflow graphs carry no cycle protection at authoring time, so the ceiling
// is what turns an accidental cycle into a failed execution instead of a hung
// invocation.
func NewEngine(
	workflows port.WorkflowRepository,
	executions port.WorkflowExecutionRepository,
	audits port.AuditRepository,
	parser AttachmentParser,
	client *http.Client,
	maxSteps int,
) *Engine {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if maxSteps <= 0 {
		maxSteps = 100
	}
	return &Engine{
		workflows:  workflows,
		executions: executions,
		audits:     audits,
		parser:     parser,
		client:     client,
		maxSteps:   maxSteps,
		baseDelay:  time.Second,
		sleep:      time.Sleep,
	}
}

// SetSleep replaces the delay/backoff sleeper (for testing).
func (e *Engine) SetSleep(sleep func(time.Duration)) {
	e.sleep = sleep
}

// Execute runs a workflow to termination and returns the finalized execution
// row. The returned error is non-nil only when the execution itself failed;
// a run that completed after routing through failure paths is a success.
func (e *Engine) Execute(ctx context.Context, in TriggerInput) (*domain.WorkflowExecution, error) {
	wf, err := e.workflows.GetByID(ctx, in.BusinessID, in.WorkflowID)
	if err != nil {
		return nil, err
	}
	if !wf.IsActive {
		return nil, domain.ErrWorkflowInactive
	}
	if len(wf.Steps) == 0 {
		return nil, domain.ErrWorkflowHasNoSteps
	}

	execCtx := NewContext()
	execCtx.Set("attachment_id", StringValue(in.AttachmentID))
	execCtx.Set("message_id", StringValue(in.MessageID))
	execCtx.Set("trigger_type", StringValue(in.TriggerType))

	snapshot, err := execCtx.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("snapshotting initial context: %w", err)
	}
	exec := &domain.WorkflowExecution{
		ID:           uuid.New(),
		WorkflowID:   wf.ID,
		BusinessID:   in.BusinessID,
		AttachmentID: in.AttachmentID,
		MessageID:    in.MessageID,
		TriggerType:  in.TriggerType,
		Status:       domain.ExecutionStatusRunning,
		Context:      snapshot,
		StartedAt:    time.Now().UTC(),
	}
	if err := e.executions.Create(ctx, exec); err != nil {
		return nil, fmt.Errorf("creating execution: %w", err)
	}
	e.audit(ctx, exec, domain.AuditWorkflowStarted, map[string]interface{}{
		"workflow_id": wf.ID.String(),
		"trigger":     in.TriggerType,
	})

	runErr := e.run(ctx, wf, exec, execCtx)
	e.finalize(ctx, exec, execCtx, runErr)
	if runErr != nil {
		return exec, runErr
	}
	return exec, nil
}

func (e *Engine) run(ctx context.Context, wf *domain.Workflow, exec *domain.WorkflowExecution, execCtx *Context) error {
	byID := make(map[uuid.UUID]*domain.WorkflowStep, len(wf.Steps))
	first := &wf.Steps[0]
	for i := range wf.Steps {
		step := &wf.Steps[i]
		byID[step.ID] = step
		if step.Position < first.Position {
			first = step
		}
	}

	step := first
	for count := 0; step != nil; count++ {
		if count >= e.maxSteps {
			return fmt.Errorf("%w: more than %d steps executed in workflow %s", domain.ErrStepCeilingExceeded, e.maxSteps, wf.ID)
		}
		if step.Type == domain.StepTypeEnd {
			return nil
		}

		next, err := e.runStep(ctx, exec, execCtx, step)
		if err != nil {
			log.Printf("workflow.Engine: step %s (%s) failed in execution %s: %v", step.ID, step.Type, exec.ID, err)
			if step.NextOnFailure == nil {
				return err
			}
			next = step.NextOnFailure
		}

		if next == nil {
			return nil
		}
		step = byID[*next]
		if step == nil {
			return fmt.Errorf("%w: successor %s not found", domain.ErrInvalidStepConfig, next)
		}
	}
	return nil
}

// runStep executes one step and returns the id of the successor to follow.
// For condition steps the boolean result picks the successor directly; for
// every other type a nil error means next_on_success.
func (e *Engine) runStep(ctx context.Context, exec *domain.WorkflowExecution, execCtx *Context, step *domain.WorkflowStep) (*uuid.UUID, error) {
	switch step.Type {
	case domain.StepTypeParse, domain.StepTypeDocumentType:
		if err := e.runParseStep(ctx, exec, execCtx, step); err != nil {
			return nil, err
		}
		return step.NextOnSuccess, nil

	case domain.StepTypeCondition:
		cfg, err := decodeConfig[ConditionConfig](step)
		if err != nil {
			return nil, err
		}
		ok, err := EvaluateConditions(cfg, execCtx)
		if err != nil {
			return nil, err
		}
		execCtx.Set("condition_result", BoolValue(ok))
		if ok {
			return step.NextOnSuccess, nil
		}
		return step.NextOnFailure, nil

	case domain.StepTypeTransform:
		cfg, err := decodeConfig[TransformConfig](step)
		if err != nil {
			return nil, err
		}
		if err := ApplyMappings(cfg, execCtx); err != nil {
			return nil, err
		}
		return step.NextOnSuccess, nil

	case domain.StepTypeAPIAction:
		cfg, err := decodeConfig[APIActionConfig](step)
		if err != nil {
			return nil, err
		}
		if err := e.runAPIAction(ctx, execCtx, cfg); err != nil {
			return nil, err
		}
		return step.NextOnSuccess, nil

	case domain.StepTypeDelay:
		cfg, err := decodeConfig[DelayConfig](step)
		if err != nil {
			return nil, err
		}
		d, err := cfg.AsDuration()
		if err != nil {
			return nil, err
		}
		e.sleep(d)
		return step.NextOnSuccess, nil

	default:
		return nil, fmt.Errorf("%w: unknown step type %q", domain.ErrInvalidStepConfig, step.Type)
	}
}

func (e *Engine) runParseStep(ctx context.Context, exec *domain.WorkflowExecution, execCtx *Context, step *domain.WorkflowStep) error {
	cfg, err := decodeConfig[ParseConfig](step)
	if err != nil {
		return err
	}
	pr, err := e.parser.ParseAttachment(ctx, exec.BusinessID, exec.AttachmentID, exec.MessageID, cfg.Provider)
	if err != nil {
		return err
	}
	if err := execCtx.SetJSON("parsed_data", pr.ParsedData); err != nil {
		return err
	}
	execCtx.Set("document_type", StringValue(string(pr.DocumentType)))
	execCtx.Set("confidence_score", NumberValue(pr.Confidence))
	execCtx.Set("parse_result_id", StringValue(pr.ID.String()))
	return nil
}

func (e *Engine) runAPIAction(ctx context.Context, execCtx *Context, cfg *APIActionConfig) error {
	if cfg.URL == "" {
		return fmt.Errorf("%w: api_action requires a url", domain.ErrInvalidStepConfig)
	}
	method := strings.ToUpper(cfg.Method)
	if method == "" {
		method = http.MethodPost
	}

	url := ResolveTemplate(cfg.URL, execCtx)
	headers := ResolveTemplateMap(cfg.Headers, execCtx)
	body := ResolveTemplate(cfg.Body, execCtx)

	policy := RetryPolicy{MaxAttempts: cfg.MaxRetries + 1, BaseDelay: e.baseDelay, Sleep: e.sleep}
	var lastStatus int
	var lastBody []byte
	err := policy.Do(ctx, func() error {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		if body != "" && req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := e.client.Do(req)
		if err != nil {
			return fmt.Errorf("calling %s: %w", url, err)
		}
		defer func() { _ = resp.Body.Close() }()

		lastStatus = resp.StatusCode
		lastBody, _ = io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("api_action %s returned status %d", url, resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		return err
	}

	respCtx := map[string]Value{"status": NumberValue(float64(lastStatus))}
	if parsed, jsonErr := ValueFromJSON(lastBody); jsonErr == nil {
		respCtx["body"] = parsed
	} else {
		respCtx["body"] = StringValue(string(lastBody))
	}
	execCtx.Set("last_api_response", MapValue(respCtx))
	return nil
}

// finalize persists the terminal status and context snapshot, and appends the
// completion audit entry. Persistence failures here are logged, not returned:
// the run's outcome is already decided and must not be masked.
func (e *Engine) finalize(ctx context.Context, exec *domain.WorkflowExecution, execCtx *Context, runErr error) {
	if snapshot, err := execCtx.Snapshot(); err == nil {
		exec.Context = snapshot
	} else {
		log.Printf("workflow.Engine: snapshotting context for execution %s: %v", exec.ID, err)
	}

	now := time.Now().UTC()
	exec.CompletedAt = &now
	if runErr != nil {
		exec.Status = domain.ExecutionStatusFailed
		exec.ErrorMessage = runErr.Error()
	} else {
		exec.Status = domain.ExecutionStatusCompleted
	}

	if err := e.executions.Update(ctx, exec); err != nil {
		log.Printf("workflow.Engine: updating execution %s: %v", exec.ID, err)
	}

	action := domain.AuditWorkflowCompleted
	details := map[string]interface{}{"workflow_id": exec.WorkflowID.String()}
	if runErr != nil {
		action = domain.AuditWorkflowFailed
		details["error"] = runErr.Error()
	}
	e.audit(ctx, exec, action, details)
}

// audit appends an entry; failures never block the run.
func (e *Engine) audit(ctx context.Context, exec *domain.WorkflowExecution, action domain.AuditAction, details map[string]interface{}) {
	raw, err := json.Marshal(details)
	if err != nil {
		raw = []byte("{}")
	}
	entry := &domain.AuditEntry{
		ID:          uuid.New(),
		BusinessID:  exec.BusinessID,
		SubjectType: "workflow_execution",
		SubjectID:   exec.ID.String(),
		Action:      action,
		Details:     raw,
		CreatedAt:   time.Now().UTC(),
	}
	if err := e.audits.Create(ctx, entry); err != nil {
		log.Printf("workflow.Engine: writing audit entry for execution %s: %v", exec.ID, err)
	}
}
