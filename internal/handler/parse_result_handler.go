package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
	"github.com/Onebillie/onebillconvo-sub004/internal/middleware"
	"github.com/Onebillie/onebillconvo-sub004/internal/service"
)

// ParseResultHandler handles parse result operator endpoints.
type ParseResultHandler struct {
	router service.ParseRouterService
}

// NewParseResultHandler creates a new ParseResultHandler.
func NewParseResultHandler(router service.ParseRouterService) *ParseResultHandler {
	return &ParseResultHandler{router: router}
}

// List handles GET /api/v1/parse-results
func (h *ParseResultHandler) List(c *gin.Context) {
	businessID, err := middleware.GetBusinessID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing business context")
		return
	}
	offset, limit := pagination(c)
	status := domain.ParseStatus(c.Query("status"))

	results, total, err := h.router.ListByBusiness(c.Request.Context(), businessID, status, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, results, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/parse-results/:id
func (h *ParseResultHandler) GetByID(c *gin.Context) {
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

	pr, err := h.router.GetByID(c.Request.Context(), businessID, id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, pr)
}

// Requeue handles POST /api/v1/parse-results/:id/requeue
func (h *ParseResultHandler) Requeue(c *gin.Context) {
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

	pr, err := h.router.Requeue(c.Request.Context(), businessID, id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, pr)
}

// pagination reads offset/limit query params with sane bounds.
func pagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return offset, limit
}
