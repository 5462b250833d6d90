package workflow_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
	"github.com/Onebillie/onebillconvo-sub004/internal/workflow"
	"github.com/Onebillie/onebillconvo-sub004/mocks"
)

// stubParser returns a fixed parse result for every attachment.
type stubParser struct {
	pr  *domain.ParseResult
	err error
}

func (s *stubParser) ParseAttachment(_ context.Context, _ uuid.UUID, _, _, _ string) (*domain.ParseResult, error) {
	return s.pr, s.err
}

type engineMocks struct {
	workflows  *mocks.MockWorkflowRepo
	executions *mocks.MockExecutionRepo
	audits     *mocks.MockAuditRepo
}

func newEngine(parser workflow.AttachmentParser, maxSteps int) (*workflow.Engine, *engineMocks) {
	m := &engineMocks{
		workflows:  new(mocks.MockWorkflowRepo),
		executions: new(mocks.MockExecutionRepo),
		audits:     new(mocks.MockAuditRepo),
	}
	e := workflow.NewEngine(m.workflows, m.executions, m.audits, parser, nil, maxSteps)
	e.SetSleep(func(time.Duration) {})
	return e, m
}

func (m *engineMocks) expectRun(wf *domain.Workflow) {
	m.workflows.On("GetByID", mock.Anything, wf.BusinessID, wf.ID).Return(wf, nil)
	m.executions.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.executions.On("Update", mock.Anything, mock.Anything).Return(nil)
	m.audits.On("Create", mock.Anything, mock.Anything).Return(nil)
}

func idPtr(id uuid.UUID) *uuid.UUID { return &id }

func trigger(wf *domain.Workflow) workflow.TriggerInput {
	return workflow.TriggerInput{
		WorkflowID:   wf.ID,
		BusinessID:   wf.BusinessID,
		AttachmentID: "att-1",
		MessageID:    "msg-1",
		TriggerType:  "attachment_received",
	}
}

func contextMap(t *testing.T, exec *domain.WorkflowExecution) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	assert.NoError(t, json.Unmarshal(exec.Context, &m))
	return m
}

func parseResult(confidence float64) *domain.ParseResult {
	return &domain.ParseResult{
		ID:           uuid.New(),
		Status:       domain.ParseStatusSuccess,
		DocumentType: domain.DocTypeElectricity,
		Confidence:   confidence,
		ParsedData:   json.RawMessage(`{"electricity_bill":{"mprn":"10001234567"}}`),
	}
}

// confidenceWorkflow parses the attachment, then routes on the confidence
// score: below the threshold marks the document for review, at or above it
// marks it approved.
func confidenceWorkflow(businessID uuid.UUID) *domain.Workflow {
	wfID := uuid.New()
	parseID := uuid.New()
	condID := uuid.New()
	approveID := uuid.New()
	reviewID := uuid.New()

	return &domain.Workflow{
		ID:         wfID,
		BusinessID: businessID,
		Name:       "confidence gate",
		IsActive:   true,
		Steps: []domain.WorkflowStep{
			{
				ID: parseID, WorkflowID: wfID, Type: domain.StepTypeParse, Position: 0,
				NextOnSuccess: idPtr(condID),
			},
			{
				ID: condID, WorkflowID: wfID, Type: domain.StepTypeCondition, Position: 1,
				Config: json.RawMessage(`{
					"conditions": [{"field": "confidence_score", "operator": "less_than", "value": 0.7}]
				}`),
				NextOnSuccess: idPtr(reviewID),
				NextOnFailure: idPtr(approveID),
			},
			{
				ID: approveID, WorkflowID: wfID, Type: domain.StepTypeTransform, Position: 2,
				Config: json.RawMessage(`{"mappings": [{"source": "document_type", "output": "approved"}]}`),
			},
			{
				ID: reviewID, WorkflowID: wfID, Type: domain.StepTypeTransform, Position: 3,
				Config: json.RawMessage(`{"mappings": [{"source": "document_type", "output": "needs_review"}]}`),
			},
		},
	}
}

func TestEngine_ConditionRoutesTrueBranch(t *testing.T) {
	businessID := uuid.New()
	wf := confidenceWorkflow(businessID)
	engine, m := newEngine(&stubParser{pr: parseResult(0.5)}, 100)
	m.expectRun(wf)

	exec, err := engine.Execute(context.Background(), trigger(wf))

	assert.NoError(t, err)
	assert.Equal(t, domain.ExecutionStatusCompleted, exec.Status)

	ctx := contextMap(t, exec)
	assert.Equal(t, true, ctx["condition_result"])
	transformed := ctx["transformed_data"].(map[string]interface{})
	assert.Contains(t, transformed, "needs_review")
	assert.NotContains(t, transformed, "approved")
}

func TestEngine_ConditionRoutesFalseBranch(t *testing.T) {
	businessID := uuid.New()
	wf := confidenceWorkflow(businessID)
	engine, m := newEngine(&stubParser{pr: parseResult(0.9)}, 100)
	m.expectRun(wf)

	exec, err := engine.Execute(context.Background(), trigger(wf))

	assert.NoError(t, err)
	assert.Equal(t, domain.ExecutionStatusCompleted, exec.Status)

	transformed := contextMap(t, exec)["transformed_data"].(map[string]interface{})
	assert.Contains(t, transformed, "approved")
	assert.NotContains(t, transformed, "needs_review")
}

func TestEngine_ParseStepPopulatesContext(t *testing.T) {
	businessID := uuid.New()
	wfID := uuid.New()
	wf := &domain.Workflow{
		ID: wfID, BusinessID: businessID, Name: "parse only", IsActive: true,
		Steps: []domain.WorkflowStep{
			{ID: uuid.New(), WorkflowID: wfID, Type: domain.StepTypeParse, Position: 0},
		},
	}
	pr := parseResult(0.93)
	engine, m := newEngine(&stubParser{pr: pr}, 100)
	m.expectRun(wf)

	exec, err := engine.Execute(context.Background(), trigger(wf))

	assert.NoError(t, err)
	ctx := contextMap(t, exec)
	assert.Equal(t, "electricity", ctx["document_type"])
	assert.Equal(t, 0.93, ctx["confidence_score"])
	assert.Equal(t, pr.ID.String(), ctx["parse_result_id"])
	parsed := ctx["parsed_data"].(map[string]interface{})
	assert.Contains(t, parsed, "electricity_bill")
}

func TestEngine_StepFailureRoutesNextOnFailure(t *testing.T) {
	businessID := uuid.New()
	wfID := uuid.New()
	parseID := uuid.New()
	fallbackID := uuid.New()
	wf := &domain.Workflow{
		ID: wfID, BusinessID: businessID, Name: "failure path", IsActive: true,
		Steps: []domain.WorkflowStep{
			{
				ID: parseID, WorkflowID: wfID, Type: domain.StepTypeParse, Position: 0,
				NextOnFailure: idPtr(fallbackID),
			},
			{
				ID: fallbackID, WorkflowID: wfID, Type: domain.StepTypeTransform, Position: 1,
				Config: json.RawMessage(`{"mappings": [{"source": "attachment_id", "output": "fallback_ran"}]}`),
			},
		},
	}
	engine, m := newEngine(&stubParser{err: fmt.Errorf("classifier down")}, 100)
	m.expectRun(wf)

	exec, err := engine.Execute(context.Background(), trigger(wf))

	// The failure was routed, so the run completes.
	assert.NoError(t, err)
	assert.Equal(t, domain.ExecutionStatusCompleted, exec.Status)
	transformed := contextMap(t, exec)["transformed_data"].(map[string]interface{})
	assert.Contains(t, transformed, "fallback_ran")
}

func TestEngine_StepFailureWithoutRouteFailsExecution(t *testing.T) {
	businessID := uuid.New()
	wfID := uuid.New()
	wf := &domain.Workflow{
		ID: wfID, BusinessID: businessID, Name: "no failure path", IsActive: true,
		Steps: []domain.WorkflowStep{
			{ID: uuid.New(), WorkflowID: wfID, Type: domain.StepTypeParse, Position: 0},
		},
	}
	engine, m := newEngine(&stubParser{err: fmt.Errorf("classifier down")}, 100)
	m.expectRun(wf)

	exec, err := engine.Execute(context.Background(), trigger(wf))

	assert.Error(t, err)
	assert.Equal(t, domain.ExecutionStatusFailed, exec.Status)
	assert.Contains(t, exec.ErrorMessage, "classifier down")
}

func TestEngine_CycleHitsStepCeiling(t *testing.T) {
	businessID := uuid.New()
	wfID := uuid.New()
	aID := uuid.New()
	bID := uuid.New()
	wf := &domain.Workflow{
		ID: wfID, BusinessID: businessID, Name: "cycle", IsActive: true,
		Steps: []domain.WorkflowStep{
			{
				ID: aID, WorkflowID: wfID, Type: domain.StepTypeTransform, Position: 0,
				Config:        json.RawMessage(`{"mappings": [{"source": "attachment_id", "output": "a"}]}`),
				NextOnSuccess: idPtr(bID),
			},
			{
				ID: bID, WorkflowID: wfID, Type: domain.StepTypeTransform, Position: 1,
				Config:        json.RawMessage(`{"mappings": [{"source": "attachment_id", "output": "b"}]}`),
				NextOnSuccess: idPtr(aID),
			},
		},
	}
	engine, m := newEngine(&stubParser{}, 10)
	m.expectRun(wf)

	exec, err := engine.Execute(context.Background(), trigger(wf))

	assert.ErrorIs(t, err, domain.ErrStepCeilingExceeded)
	assert.Equal(t, domain.ExecutionStatusFailed, exec.Status)
}

func TestEngine_UnknownSuccessorFails(t *testing.T) {
	businessID := uuid.New()
	wfID := uuid.New()
	wf := &domain.Workflow{
		ID: wfID, BusinessID: businessID, Name: "dangling", IsActive: true,
		Steps: []domain.WorkflowStep{
			{
				ID: uuid.New(), WorkflowID: wfID, Type: domain.StepTypeTransform, Position: 0,
				Config:        json.RawMessage(`{"mappings": [{"source": "attachment_id", "output": "x"}]}`),
				NextOnSuccess: idPtr(uuid.New()),
			},
		},
	}
	engine, m := newEngine(&stubParser{}, 100)
	m.expectRun(wf)

	exec, err := engine.Execute(context.Background(), trigger(wf))

	assert.ErrorIs(t, err, domain.ErrInvalidStepConfig)
	assert.Equal(t, domain.ExecutionStatusFailed, exec.Status)
}

func TestEngine_InactiveWorkflowRejected(t *testing.T) {
	businessID := uuid.New()
	wfID := uuid.New()
	wf := &domain.Workflow{
		ID: wfID, BusinessID: businessID, IsActive: false,
		Steps: []domain.WorkflowStep{{ID: uuid.New(), Type: domain.StepTypeEnd}},
	}
	engine, m := newEngine(&stubParser{}, 100)
	m.workflows.On("GetByID", mock.Anything, businessID, wfID).Return(wf, nil)

	_, err := engine.Execute(context.Background(), trigger(wf))
	assert.ErrorIs(t, err, domain.ErrWorkflowInactive)
	m.executions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestEngine_EmptyWorkflowRejected(t *testing.T) {
	businessID := uuid.New()
	wfID := uuid.New()
	wf := &domain.Workflow{ID: wfID, BusinessID: businessID, IsActive: true}
	engine, m := newEngine(&stubParser{}, 100)
	m.workflows.On("GetByID", mock.Anything, businessID, wfID).Return(wf, nil)

	_, err := engine.Execute(context.Background(), trigger(wf))
	assert.ErrorIs(t, err, domain.ErrWorkflowHasNoSteps)
}

func TestEngine_DelayStepSleeps(t *testing.T) {
	businessID := uuid.New()
	wfID := uuid.New()
	wf := &domain.Workflow{
		ID: wfID, BusinessID: businessID, Name: "delay", IsActive: true,
		Steps: []domain.WorkflowStep{
			{
				ID: uuid.New(), WorkflowID: wfID, Type: domain.StepTypeDelay, Position: 0,
				Config: json.RawMessage(`{"duration": 2, "unit": "minutes"}`),
			},
		},
	}
	engine, m := newEngine(&stubParser{}, 100)
	m.expectRun(wf)

	var slept time.Duration
	engine.SetSleep(func(d time.Duration) { slept += d })

	exec, err := engine.Execute(context.Background(), trigger(wf))

	assert.NoError(t, err)
	assert.Equal(t, domain.ExecutionStatusCompleted, exec.Status)
	assert.Equal(t, 2*time.Minute, slept)
}

func TestEngine_APIActionRetriesAndStoresResponse(t *testing.T) {
	var calls int32
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		gotPath = r.URL.RequestURI()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accepted": true}`))
	}))
	defer server.Close()

	businessID := uuid.New()
	wfID := uuid.New()
	wf := &domain.Workflow{
		ID: wfID, BusinessID: businessID, Name: "notify", IsActive: true,
		Steps: []domain.WorkflowStep{
			{
				ID: uuid.New(), WorkflowID: wfID, Type: domain.StepTypeAPIAction, Position: 0,
				Config: json.RawMessage(fmt.Sprintf(`{
					"method": "POST",
					"url": "%s/hook?att={{attachment_id}}",
					"body": "{\"attachment\": \"{{attachment_id}}\"}",
					"max_retries": 2
				}`, server.URL)),
			},
		},
	}
	engine, m := newEngine(&stubParser{}, 100)
	m.expectRun(wf)

	exec, err := engine.Execute(context.Background(), trigger(wf))

	assert.NoError(t, err)
	assert.Equal(t, domain.ExecutionStatusCompleted, exec.Status)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, "/hook?att=att-1", gotPath)

	resp := contextMap(t, exec)["last_api_response"].(map[string]interface{})
	assert.Equal(t, 200.0, resp["status"])
	body := resp["body"].(map[string]interface{})
	assert.Equal(t, true, body["accepted"])
}

func TestEngine_APIActionExhaustedRetriesFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	businessID := uuid.New()
	wfID := uuid.New()
	wf := &domain.Workflow{
		ID: wfID, BusinessID: businessID, Name: "notify", IsActive: true,
		Steps: []domain.WorkflowStep{
			{
				ID: uuid.New(), WorkflowID: wfID, Type: domain.StepTypeAPIAction, Position: 0,
				Config: json.RawMessage(fmt.Sprintf(`{"url": "%s/hook", "max_retries": 1}`, server.URL)),
			},
		},
	}
	engine, m := newEngine(&stubParser{}, 100)
	m.expectRun(wf)

	exec, err := engine.Execute(context.Background(), trigger(wf))

	assert.Error(t, err)
	assert.Equal(t, domain.ExecutionStatusFailed, exec.Status)
	assert.Contains(t, exec.ErrorMessage, "status 502")
}

func TestEngine_EndStepTerminates(t *testing.T) {
	businessID := uuid.New()
	wfID := uuid.New()
	endID := uuid.New()
	wf := &domain.Workflow{
		ID: wfID, BusinessID: businessID, Name: "short", IsActive: true,
		Steps: []domain.WorkflowStep{
			{
				ID: uuid.New(), WorkflowID: wfID, Type: domain.StepTypeTransform, Position: 0,
				Config:        json.RawMessage(`{"mappings": [{"source": "attachment_id", "output": "ran"}]}`),
				NextOnSuccess: idPtr(endID),
			},
			{ID: endID, WorkflowID: wfID, Type: domain.StepTypeEnd, Position: 1},
		},
	}
	engine, m := newEngine(&stubParser{}, 100)
	m.expectRun(wf)

	exec, err := engine.Execute(context.Background(), trigger(wf))

	assert.NoError(t, err)
	assert.Equal(t, domain.ExecutionStatusCompleted, exec.Status)
}
