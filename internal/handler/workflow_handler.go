package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
	"github.com/Onebillie/onebillconvo-sub004/internal/middleware"
	"github.com/Onebillie/onebillconvo-sub004/internal/port"
	"github.com/Onebillie/onebillconvo-sub004/internal/service"
)

// WorkflowHandler handles workflow definition and trigger endpoints.
type WorkflowHandler struct {
	workflows service.WorkflowService
	audits    port.AuditRepository
}

// NewWorkflowHandler creates a new WorkflowHandler.
func NewWorkflowHandler(workflows service.WorkflowService, audits port.AuditRepository) *WorkflowHandler {
	return &WorkflowHandler{workflows: workflows, audits: audits}
}

type workflowStepRequest struct {
	ID            string          `json:"id"`
	Type          string          `json:"type" binding:"required"`
	Position      int             `json:"position"`
	Config        json.RawMessage `json:"config"`
	NextOnSuccess string          `json:"next_on_success"`
	NextOnFailure string          `json:"next_on_failure"`
}

type createWorkflowRequest struct {
	Name     string                `json:"name" binding:"required"`
	IsActive *bool                 `json:"is_active"`
	Steps    []workflowStepRequest `json:"steps" binding:"required"`
}

// Create handles POST /api/v1/workflows
func (h *WorkflowHandler) Create(c *gin.Context) {
	businessID, err := middleware.GetBusinessID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing business context")
		return
	}

	var req createWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	steps, err := decodeSteps(req.Steps)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_STEP", err.Error())
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	wf, err := h.workflows.Create(c.Request.Context(), &service.CreateWorkflowInput{
		BusinessID: businessID,
		Name:       req.Name,
		IsActive:   isActive,
		Steps:      steps,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, wf)
}

// decodeSteps converts request steps into domain steps, resolving the string
// successor references to UUIDs.
func decodeSteps(reqs []workflowStepRequest) ([]domain.WorkflowStep, error) {
	steps := make([]domain.WorkflowStep, len(reqs))
	for i, r := range reqs {
		step := domain.WorkflowStep{
			Type:     domain.StepType(r.Type),
			Position: r.Position,
			Config:   r.Config,
		}
		if r.ID != "" {
			id, err := uuid.Parse(r.ID)
			if err != nil {
				return nil, err
			}
			step.ID = id
		}
		if r.NextOnSuccess != "" {
			id, err := uuid.Parse(r.NextOnSuccess)
			if err != nil {
				return nil, err
			}
			step.NextOnSuccess = &id
		}
		if r.NextOnFailure != "" {
			id, err := uuid.Parse(r.NextOnFailure)
			if err != nil {
				return nil, err
			}
			step.NextOnFailure = &id
		}
		steps[i] = step
	}
	return steps, nil
}

// List handles GET /api/v1/workflows
func (h *WorkflowHandler) List(c *gin.Context) {
	businessID, err := middleware.GetBusinessID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing business context")
		return
	}
	offset, limit := pagination(c)

	wfs, total, err := h.workflows.ListByBusiness(c.Request.Context(), businessID, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, wfs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/workflows/:id
func (h *WorkflowHandler) GetByID(c *gin.Context) {
	businessID, err := middleware.GetBusinessID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing business context")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "id must be a UUID")
		return
	}

	wf, err := h.workflows.GetByID(c.Request.Context(), businessID, id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, wf)
}

// Delete handles DELETE /api/v1/workflows/:id
func (h *WorkflowHandler) Delete(c *gin.Context) {
	businessID, err := middleware.GetBusinessID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing business context")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "id must be a UUID")
		return
	}

	if err := h.workflows.Delete(c.Request.Context(), businessID, id); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

type triggerRequest struct {
	AttachmentID string `json:"attachment_id"`
	MessageID    string `json:"message_id"`
	TriggerType  string `json:"trigger_type"`
}

// Trigger handles POST /api/v1/workflows/:id/trigger
func (h *WorkflowHandler) Trigger(c *gin.Context) {
	businessID, err := middleware.GetBusinessID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing business context")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "id must be a UUID")
		return
	}

	var req triggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	exec, err := h.workflows.Trigger(c.Request.Context(), &service.TriggerWorkflowInput{
		BusinessID:   businessID,
		WorkflowID:   id,
		AttachmentID: req.AttachmentID,
		MessageID:    req.MessageID,
		TriggerType:  req.TriggerType,
	})
	if err != nil {
		// A failed execution still carries its id and audit trail.
		if exec != nil {
			status, code, msg := MapDomainError(err)
			if status == http.StatusInternalServerError {
				status, code = http.StatusUnprocessableEntity, "EXECUTION_FAILED"
				msg = exec.ErrorMessage
			}
			c.JSON(status, APIResponse{Success: false, Data: exec, Error: &APIError{Code: code, Message: msg}})
			return
		}
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"execution_id": exec.ID, "status": exec.Status})
}

// GetExecution handles GET /api/v1/executions/:id
func (h *WorkflowHandler) GetExecution(c *gin.Context) {
	businessID, err := middleware.GetBusinessID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing business context")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "id must be a UUID")
		return
	}

	exec, err := h.workflows.GetExecution(c.Request.Context(), businessID, id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, exec)
}

// ExecutionAudit handles GET /api/v1/executions/:id/audit
func (h *WorkflowHandler) ExecutionAudit(c *gin.Context) {
	businessID, err := middleware.GetBusinessID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing business context")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "id must be a UUID")
		return
	}
	offset, limit := pagination(c)

	// The execution lookup enforces tenancy before the log is read.
	if _, err := h.workflows.GetExecution(c.Request.Context(), businessID, id); err != nil {
		HandleError(c, err)
		return
	}

	entries, total, err := h.audits.ListBySubject(c.Request.Context(), businessID, "workflow_execution", id.String(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, entries, PagMeta{Total: total, Offset: offset, Limit: limit})
}
