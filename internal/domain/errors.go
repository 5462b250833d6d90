package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrBusinessInactive    = errors.New("business is inactive")
	ErrUnsupportedFileType = errors.New("unsupported attachment type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrNoUtilityData       = errors.New("no valid utility data found")
	ErrPhoneUnresolved     = errors.New("no phone number could be resolved for submission")
	ErrMissingIdentifier   = errors.New("submission is missing its mandatory identifier")
	ErrMissingSubmissionID = errors.New("missing submission ID")
	ErrUnknownDocType      = errors.New("unknown document type")
	ErrParseResultNotFound = errors.New("parse result not found")
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrWorkflowNotFound    = errors.New("workflow not found")
	ErrWorkflowInactive    = errors.New("workflow is inactive")
	ErrWorkflowHasNoSteps  = errors.New("workflow has no steps")
	ErrExecutionNotFound   = errors.New("workflow execution not found")
	ErrStepCeilingExceeded = errors.New("workflow step ceiling exceeded")
	ErrInvalidStepConfig   = errors.New("invalid step configuration")
	ErrProfileNotFound     = errors.New("pipeline profile not found")
	ErrEndpointNotFound    = errors.New("webhook endpoint not found")
	ErrParseNotRequeueable = errors.New("parse result is not in a requeueable state")
)
