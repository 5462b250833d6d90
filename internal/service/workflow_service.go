package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
	"github.com/Onebillie/onebillconvo-sub004/internal/port"
	"github.com/Onebillie/onebillconvo-sub004/internal/workflow"
)

// CreateWorkflowInput is the DTO for creating a workflow definition.
type CreateWorkflowInput struct {
	BusinessID uuid.UUID
	Name       string
	IsActive   bool
	Steps      []domain.WorkflowStep
}

// TriggerWorkflowInput is the DTO for triggering a workflow run.
type TriggerWorkflowInput struct {
	BusinessID   uuid.UUID
	WorkflowID   uuid.UUID
	AttachmentID string
	MessageID    string
	TriggerType  string
}

// WorkflowService manages workflow definitions and triggers executions.
type WorkflowService interface {
	Create(ctx context.Context, input *CreateWorkflowInput) (*domain.Workflow, error)
	GetByID(ctx context.Context, businessID, id uuid.UUID) (*domain.Workflow, error)
	ListByBusiness(ctx context.Context, businessID uuid.UUID, offset, limit int) ([]domain.Workflow, int, error)
	Delete(ctx context.Context, businessID, id uuid.UUID) error
	Trigger(ctx context.Context, input *TriggerWorkflowInput) (*domain.WorkflowExecution, error)
	GetExecution(ctx context.Context, businessID, id uuid.UUID) (*domain.WorkflowExecution, error)
}

type workflowService struct {
	workflows  port.WorkflowRepository
	executions port.WorkflowExecutionRepository
	engine     *workflow.Engine
	emitter    port.WebhookEmitter
}

// NewWorkflowService creates a WorkflowService.
func NewWorkflowService(
	workflows port.WorkflowRepository,
	executions port.WorkflowExecutionRepository,
	engine *workflow.Engine,
	emitter port.WebhookEmitter,
) WorkflowService {
	return &workflowService{
		workflows:  workflows,
		executions: executions,
		engine:     engine,
		emitter:    emitter,
	}
}

func (s *workflowService) Create(ctx context.Context, input *CreateWorkflowInput) (*domain.Workflow, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("workflow name is required")
	}
	if len(input.Steps) == 0 {
		return nil, domain.ErrWorkflowHasNoSteps
	}
	for i := range input.Steps {
		step := &input.Steps[i]
		if !domain.ValidStepTypes[step.Type] {
			return nil, fmt.Errorf("%w: unknown step type %q", domain.ErrInvalidStepConfig, step.Type)
		}
		if step.ID == uuid.Nil {
			step.ID = uuid.New()
		}
		if step.Position == 0 {
			step.Position = i + 1
		}
	}

	wf := &domain.Workflow{
		ID:         uuid.New(),
		BusinessID: input.BusinessID,
		Name:       input.Name,
		IsActive:   input.IsActive,
		Steps:      input.Steps,
	}
	if err := s.workflows.Create(ctx, wf); err != nil {
		return nil, err
	}
	return wf, nil
}

func (s *workflowService) GetByID(ctx context.Context, businessID, id uuid.UUID) (*domain.Workflow, error) {
	return s.workflows.GetByID(ctx, businessID, id)
}

func (s *workflowService) ListByBusiness(ctx context.Context, businessID uuid.UUID, offset, limit int) ([]domain.Workflow, int, error) {
	return s.workflows.ListByBusiness(ctx, businessID, offset, limit)
}

func (s *workflowService) Delete(ctx context.Context, businessID, id uuid.UUID) error {
	return s.workflows.Delete(ctx, businessID, id)
}

func (s *workflowService) Trigger(ctx context.Context, input *TriggerWorkflowInput) (*domain.WorkflowExecution, error) {
	triggerType := input.TriggerType
	if triggerType == "" {
		triggerType = "manual"
	}

	exec, err := s.engine.Execute(ctx, workflow.TriggerInput{
		WorkflowID:   input.WorkflowID,
		BusinessID:   input.BusinessID,
		AttachmentID: input.AttachmentID,
		MessageID:    input.MessageID,
		TriggerType:  triggerType,
	})
	if exec != nil && s.emitter != nil {
		event := "workflow.completed"
		if err != nil {
			event = "workflow.failed"
		}
		s.emitter.Emit(ctx, input.BusinessID, event, map[string]interface{}{
			"execution_id": exec.ID.String(),
			"workflow_id":  input.WorkflowID.String(),
			"status":       string(exec.Status),
		})
	}
	return exec, err
}

func (s *workflowService) GetExecution(ctx context.Context, businessID, id uuid.UUID) (*domain.WorkflowExecution, error) {
	return s.executions.GetByID(ctx, businessID, id)
}
