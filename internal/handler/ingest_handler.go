package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
	"github.com/Onebillie/onebillconvo-sub004/internal/middleware"
	"github.com/Onebillie/onebillconvo-sub004/internal/port"
	"github.com/Onebillie/onebillconvo-sub004/internal/service"
)

// IngestHandler handles inbound attachment ingestion.
type IngestHandler struct {
	pipeline service.SubmissionPipeline
	router   service.ParseRouterService
	profiles port.PipelineProfileRepository
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(pipeline service.SubmissionPipeline, router service.ParseRouterService, profiles port.PipelineProfileRepository) *IngestHandler {
	return &IngestHandler{pipeline: pipeline, router: router, profiles: profiles}
}

type ingestRequest struct {
	AttachmentID string `json:"attachment_id" binding:"required"`
	MessageID    string `json:"message_id" binding:"required"`
	CustomerID   string `json:"customer_id"`
	SourceURL    string `json:"source_url" binding:"required"`
	FileName     string `json:"file_name"`
}

// Ingest handles POST /api/v1/ingest. Businesses with auto-submit enabled run
// the full pipeline; the rest only classify and persist the parse result.
func (h *IngestHandler) Ingest(c *gin.Context) {
	businessID, err := middleware.GetBusinessID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing business context")
		return
	}

	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	var customerID *uuid.UUID
	if req.CustomerID != "" {
		id, parseErr := uuid.Parse(req.CustomerID)
		if parseErr != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_CUSTOMER_ID", "customer_id must be a UUID")
			return
		}
		customerID = &id
	}

	ctx := c.Request.Context()
	businessName := middleware.GetBusinessName(c)

	// Auto-submit is opt-in per business via the pipeline profile.
	autoSubmit := false
	if profile, profErr := h.profiles.GetByBusiness(ctx, businessID); profErr == nil {
		autoSubmit = profile.AutoSubmit
	}

	if autoSubmit {
		result, err := h.pipeline.Process(ctx, &service.ProcessInput{
			BusinessID:   businessID,
			BusinessName: businessName,
			AttachmentID: req.AttachmentID,
			MessageID:    req.MessageID,
			CustomerID:   customerID,
			SourceURL:    req.SourceURL,
			FileName:     req.FileName,
		})
		if err != nil {
			if errors.Is(err, domain.ErrNoUtilityData) || errors.Is(err, domain.ErrPhoneUnresolved) {
				status, code, msg := MapDomainError(err)
				c.JSON(status, APIResponse{Success: false, Data: result, Error: &APIError{Code: code, Message: msg}})
				return
			}
			HandleError(c, err)
			return
		}
		RespondOK(c, result)
		return
	}

	pr, err := h.router.Route(ctx, &service.RouteInput{
		BusinessID:   businessID,
		BusinessName: businessName,
		AttachmentID: req.AttachmentID,
		MessageID:    req.MessageID,
		CustomerID:   customerID,
		SourceURL:    req.SourceURL,
		FileName:     req.FileName,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, pr)
}
