package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
	"github.com/Onebillie/onebillconvo-sub004/internal/middleware"
	"github.com/Onebillie/onebillconvo-sub004/internal/port"
)

// ProfileHandler manages per-business pipeline settings.
type ProfileHandler struct {
	profiles port.PipelineProfileRepository
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles port.PipelineProfileRepository) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Get handles GET /api/v1/pipeline-profile
func (h *ProfileHandler) Get(c *gin.Context) {
	businessID, err := middleware.GetBusinessID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing business context")
		return
	}

	profile, err := h.profiles.GetByBusiness(c.Request.Context(), businessID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			// No explicit profile yet. Report the effective defaults.
			RespondOK(c, &domain.PipelineProfile{BusinessID: businessID})
			return
		}
		HandleError(c, err)
		return
	}
	RespondOK(c, profile)
}

type updateProfileRequest struct {
	AutoSubmit         bool   `json:"auto_submit"`
	ClassifierProvider string `json:"classifier_provider"`
	GatewayEndpoint    string `json:"gateway_endpoint"`
	NotifyEmail        string `json:"notify_email"`
}

// Update handles PUT /api/v1/pipeline-profile
func (h *ProfileHandler) Update(c *gin.Context) {
	businessID, err := middleware.GetBusinessID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing business context")
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	profile := &domain.PipelineProfile{
		ID:                 uuid.New(),
		BusinessID:         businessID,
		AutoSubmit:         req.AutoSubmit,
		ClassifierProvider: req.ClassifierProvider,
		GatewayEndpoint:    req.GatewayEndpoint,
		NotifyEmail:        req.NotifyEmail,
	}
	if err := h.profiles.Upsert(c.Request.Context(), profile); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, profile)
}
