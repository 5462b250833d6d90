package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrBusinessInactive):
		return http.StatusForbidden, "BUSINESS_INACTIVE", "business is inactive"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; allowed: pdf, jpg, png"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrNoUtilityData):
		return http.StatusBadRequest, "NO_UTILITY_DATA", "no valid utility data found in document"
	case errors.Is(err, domain.ErrPhoneUnresolved):
		return http.StatusBadRequest, "PHONE_UNRESOLVED", "no phone number could be resolved for routing"
	case errors.Is(err, domain.ErrMissingIdentifier):
		return http.StatusBadRequest, "MISSING_IDENTIFIER", "submission is missing its mandatory identifier"
	case errors.Is(err, domain.ErrMissingSubmissionID):
		return http.StatusInternalServerError, "MISSING_SUBMISSION_ID", "submission has no retrievable id"
	case errors.Is(err, domain.ErrUnknownDocType):
		return http.StatusBadRequest, "UNKNOWN_DOCUMENT_TYPE", "unknown document type"
	case errors.Is(err, domain.ErrParseResultNotFound):
		return http.StatusNotFound, "PARSE_RESULT_NOT_FOUND", "parse result not found"
	case errors.Is(err, domain.ErrParseNotRequeueable):
		return http.StatusConflict, "PARSE_NOT_REQUEUEABLE", "only failed or stuck parses can be requeued"
	case errors.Is(err, domain.ErrSubmissionNotFound):
		return http.StatusNotFound, "SUBMISSION_NOT_FOUND", "submission not found"
	case errors.Is(err, domain.ErrWorkflowNotFound):
		return http.StatusNotFound, "WORKFLOW_NOT_FOUND", "workflow not found"
	case errors.Is(err, domain.ErrWorkflowInactive):
		return http.StatusConflict, "WORKFLOW_INACTIVE", "workflow is inactive"
	case errors.Is(err, domain.ErrWorkflowHasNoSteps):
		return http.StatusBadRequest, "WORKFLOW_HAS_NO_STEPS", "workflow has no steps"
	case errors.Is(err, domain.ErrExecutionNotFound):
		return http.StatusNotFound, "EXECUTION_NOT_FOUND", "workflow execution not found"
	case errors.Is(err, domain.ErrStepCeilingExceeded):
		return http.StatusUnprocessableEntity, "STEP_CEILING_EXCEEDED", "workflow exceeded the step execution ceiling"
	case errors.Is(err, domain.ErrInvalidStepConfig):
		return http.StatusBadRequest, "INVALID_STEP_CONFIG", "workflow step configuration is invalid"
	case errors.Is(err, domain.ErrProfileNotFound):
		return http.StatusNotFound, "PROFILE_NOT_FOUND", "pipeline profile not found"
	case errors.Is(err, domain.ErrEndpointNotFound):
		return http.StatusNotFound, "ENDPOINT_NOT_FOUND", "webhook endpoint not found"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Printf("[%s] internal error: %v", requestID, err)
	}
	RespondError(c, status, code, msg)
}
