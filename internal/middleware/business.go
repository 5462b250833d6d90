package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Onebillie/onebillconvo-sub004/internal/port"
)

const (
	// ContextKeyBusinessID is the gin context key holding the tenant id.
	ContextKeyBusinessID = "business_id"
	// ContextKeyBusinessName is the gin context key holding the tenant name.
	ContextKeyBusinessName = "business_name"
)

// BusinessContext resolves the X-Business-ID header to an active business and
// stores its id and name on the request context. Every tenant-scoped route
// sits behind it.
func BusinessContext(businesses port.BusinessRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-Business-ID")
		if raw == "" {
			abort(c, http.StatusBadRequest, "MISSING_BUSINESS_ID", "X-Business-ID header required")
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			abort(c, http.StatusBadRequest, "INVALID_BUSINESS_ID", "X-Business-ID must be a UUID")
			return
		}

		business, err := businesses.GetByID(c.Request.Context(), id)
		if err != nil {
			abort(c, http.StatusNotFound, "BUSINESS_NOT_FOUND", "business not found")
			return
		}
		if !business.IsActive {
			abort(c, http.StatusForbidden, "BUSINESS_INACTIVE", "business is inactive")
			return
		}

		c.Set(ContextKeyBusinessID, business.ID)
		c.Set(ContextKeyBusinessName, business.Name)
		c.Next()
	}
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   gin.H{"code": code, "message": msg},
	})
}

// GetBusinessID returns the business id set by BusinessContext.
func GetBusinessID(c *gin.Context) (uuid.UUID, error) {
	v, exists := c.Get(ContextKeyBusinessID)
	if !exists {
		return uuid.Nil, errors.New("business context missing")
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.New("business context malformed")
	}
	return id, nil
}

// GetBusinessName returns the business name set by BusinessContext.
func GetBusinessName(c *gin.Context) string {
	return c.GetString(ContextKeyBusinessName)
}
