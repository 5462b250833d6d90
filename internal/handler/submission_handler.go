package handler

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Onebillie/onebillconvo-sub004/internal/export"
	"github.com/Onebillie/onebillconvo-sub004/internal/middleware"
	"github.com/Onebillie/onebillconvo-sub004/internal/port"
)

// exportBatchLimit caps how many rows one export pulls.
const exportBatchLimit = 10000

// SubmissionHandler handles submission operator endpoints.
type SubmissionHandler struct {
	submissions port.SubmissionRepository
}

// NewSubmissionHandler creates a new SubmissionHandler.
func NewSubmissionHandler(submissions port.SubmissionRepository) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

// List handles GET /api/v1/submissions
func (h *SubmissionHandler) List(c *gin.Context) {
	businessID, err := middleware.GetBusinessID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing business context")
		return
	}
	offset, limit := pagination(c)

	subs, total, err := h.submissions.ListByBusiness(c.Request.Context(), businessID, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, subs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/submissions/:id
func (h *SubmissionHandler) GetByID(c *gin.Context) {
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

	sub, err := h.submissions.GetByID(c.Request.Context(), businessID, id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, sub)
}

// Export handles GET /api/v1/submissions/export?format=csv|xlsx
func (h *SubmissionHandler) Export(c *gin.Context) {
	businessID, err := middleware.GetBusinessID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing business context")
		return
	}

	subs, _, err := h.submissions.ListByBusiness(c.Request.Context(), businessID, 0, exportBatchLimit)
	if err != nil {
		HandleError(c, err)
		return
	}

	name := middleware.GetBusinessName(c)
	if name == "" {
		name = "submissions"
	}

	switch c.DefaultQuery("format", "csv") {
	case "xlsx":
		var buf bytes.Buffer
		if err := export.WriteXLSX(&buf, subs); err != nil {
			HandleError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+export.BuildFilename(name, "xlsx")+`"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())

	case "csv":
		var buf bytes.Buffer
		buf.Write(export.BOM)
		w := export.NewWriter(&buf)
		if err := w.WriteHeader(); err != nil {
			HandleError(c, err)
			return
		}
		if err := w.WriteSubmissions(subs); err != nil {
			HandleError(c, err)
			return
		}
		w.Flush()
		if err := w.Error(); err != nil {
			HandleError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+export.BuildFilename(name, "csv")+`"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())

	default:
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be csv or xlsx")
	}
}
