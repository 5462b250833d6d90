package handler

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
	"github.com/Onebillie/onebillconvo-sub004/internal/middleware"
	"github.com/Onebillie/onebillconvo-sub004/internal/port"
)

// WebhookEndpointHandler manages registered webhook receivers.
type WebhookEndpointHandler struct {
	endpoints port.WebhookEndpointRepository
}

// NewWebhookEndpointHandler creates a new WebhookEndpointHandler.
func NewWebhookEndpointHandler(endpoints port.WebhookEndpointRepository) *WebhookEndpointHandler {
	return &WebhookEndpointHandler{endpoints: endpoints}
}

type createEndpointRequest struct {
	URL    string `json:"url" binding:"required"`
	Secret string `json:"secret"`
}

// Create handles POST /api/v1/webhook-endpoints
func (h *WebhookEndpointHandler) Create(c *gin.Context) {
	businessID, err := middleware.GetBusinessID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing business context")
		return
	}

	var req createEndpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	secret := req.Secret
	if secret == "" {
		secret, err = generateSecret()
		if err != nil {
			HandleError(c, err)
			return
		}
	}

	ep := &domain.WebhookEndpoint{
		ID:         uuid.New(),
		BusinessID: businessID,
		URL:        req.URL,
		Secret:     secret,
		IsActive:   true,
	}
	if err := h.endpoints.Create(c.Request.Context(), ep); err != nil {
		HandleError(c, err)
		return
	}
	// The secret is only returned here. Subsequent reads omit it.
	RespondCreated(c, gin.H{"endpoint": ep, "secret": secret})
}

func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// List handles GET /api/v1/webhook-endpoints
func (h *WebhookEndpointHandler) List(c *gin.Context) {
	businessID, err := middleware.GetBusinessID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing business context")
		return
	}

	eps, err := h.endpoints.ListActiveByBusiness(c.Request.Context(), businessID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, eps)
}

// Delete handles DELETE /api/v1/webhook-endpoints/:id
func (h *WebhookEndpointHandler) Delete(c *gin.Context) {
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

	if err := h.endpoints.Delete(c.Request.Context(), businessID, id); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
