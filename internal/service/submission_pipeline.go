package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
	"github.com/Onebillie/onebillconvo-sub004/internal/port"
)

// ProcessInput is the DTO for running an attachment through the
// auto-submission pipeline.
type ProcessInput struct {
	BusinessID   uuid.UUID
	BusinessName string
	AttachmentID string
	MessageID    string
	CustomerID   *uuid.UUID
	SourceURL    string
	FileName     string
}

// SubmissionOutcome is the per-entity result of one pipeline run. Entities
// are independent units of work: one failing never rolls back another.
type SubmissionOutcome struct {
	DocumentType domain.UtilityDocType `json:"document_type"`
	Outcome      string                `json:"outcome"`
	SubmissionID *uuid.UUID            `json:"submission_id,omitempty"`
	Error        string                `json:"error,omitempty"`
}

const (
	OutcomeSubmitted = "submitted"
	OutcomeFailed    = "failed"
	OutcomeDropped   = "dropped"
)

// ProcessResult aggregates the parse result and the per-entity outcomes.
type ProcessResult struct {
	ParseResult *domain.ParseResult `json:"parse_result"`
	Outcomes    []SubmissionOutcome `json:"submissions"`
}

// SubmissionPipeline turns a classified document into utility submissions and
// forwards them to the downstream integration.
type SubmissionPipeline interface {
	Process(ctx context.Context, input *ProcessInput) (*ProcessResult, error)
}

type submissionPipeline struct {
	router       ParseRouterService
	parseRepo    port.ParseResultRepository
	subRepo      port.SubmissionRepository
	customerRepo port.CustomerRepository
	profileRepo  port.PipelineProfileRepository
	auditRepo    port.AuditRepository
	gateway      port.UtilityGateway
	emitter      port.WebhookEmitter
	email        port.EmailSender
}

// NewSubmissionPipeline creates a SubmissionPipeline.
func NewSubmissionPipeline(
	router ParseRouterService,
	parseRepo port.ParseResultRepository,
	subRepo port.SubmissionRepository,
	customerRepo port.CustomerRepository,
	profileRepo port.PipelineProfileRepository,
	auditRepo port.AuditRepository,
	gateway port.UtilityGateway,
	emitter port.WebhookEmitter,
	email port.EmailSender,
) SubmissionPipeline {
	return &submissionPipeline{
		router:       router,
		parseRepo:    parseRepo,
		subRepo:      subRepo,
		customerRepo: customerRepo,
		profileRepo:  profileRepo,
		auditRepo:    auditRepo,
		gateway:      gateway,
		emitter:      emitter,
		email:        email,
	}
}

// flexString decodes a JSON string or number into a string, because the
// model is inconsistent about quoting meter readings and point references.
type flexString string

func (f *flexString) UnmarshalJSON(raw []byte) error {
	if len(raw) == 0 || string(raw) == "null" {
		*f = ""
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// parsedUtilityFields is the slice of the extracted payload the pipeline
// reads. Absent groups decode to nil.
type parsedUtilityFields struct {
	Phone           flexString `json:"phone"`
	ElectricityBill *struct {
		MPRN            flexString `json:"mprn"`
		MeterConfigCode flexString `json:"meter_config_code"`
		DemandGroupCode flexString `json:"demand_group_code"`
	} `json:"electricity_bill"`
	GasBill *struct {
		GPRN flexString `json:"gprn"`
	} `json:"gas_bill"`
	MeterReading *struct {
		Value flexString `json:"value"`
		Unit  flexString `json:"unit"`
	} `json:"meter_reading"`
}

func (p *submissionPipeline) Process(ctx context.Context, input *ProcessInput) (*ProcessResult, error) {
	pr, err := p.router.Route(ctx, &RouteInput{
		BusinessID:   input.BusinessID,
		BusinessName: input.BusinessName,
		AttachmentID: input.AttachmentID,
		MessageID:    input.MessageID,
		CustomerID:   input.CustomerID,
		SourceURL:    input.SourceURL,
		FileName:     input.FileName,
	})
	if err != nil {
		return nil, err
	}
	if pr.Status != domain.ParseStatusSuccess {
		return &ProcessResult{ParseResult: pr}, fmt.Errorf("parsing attachment %s: %s", input.AttachmentID, pr.ErrorMessage)
	}

	var fields parsedUtilityFields
	if err := json.Unmarshal(pr.ParsedData, &fields); err != nil {
		return &ProcessResult{ParseResult: pr}, fmt.Errorf("decoding parsed fields: %w", err)
	}

	phone, err := p.resolvePhone(ctx, pr, string(fields.Phone))
	if err != nil {
		return &ProcessResult{ParseResult: pr}, err
	}

	candidates := p.detectSubEntities(pr, &fields, phone)

	var endpointOverride string
	if profile, profErr := p.profileRepo.GetByBusiness(ctx, input.BusinessID); profErr == nil {
		endpointOverride = profile.GatewayEndpoint
	}

	outcomes := make([]SubmissionOutcome, 0, len(candidates))
	validCount := 0
	for i := range candidates {
		sub := &candidates[i]
		if err := sub.Validate(); err != nil {
			// Identifier extraction is the known weak point; a missing one
			// drops the entity without failing the run.
			log.Printf("submissionPipeline.Process: dropping %s entity for attachment %s: %v", sub.DocumentType, input.AttachmentID, err)
			p.audit(ctx, pr.BusinessID, "parse_result", pr.ID.String(), domain.AuditSubmissionDropped, map[string]interface{}{
				"document_type": string(sub.DocumentType), "reason": err.Error(),
			})
			outcomes = append(outcomes, SubmissionOutcome{
				DocumentType: sub.DocumentType,
				Outcome:      OutcomeDropped,
				Error:        err.Error(),
			})
			continue
		}
		validCount++
		outcomes = append(outcomes, p.submit(ctx, pr, sub, endpointOverride))
	}

	if validCount == 0 {
		pr.Status = domain.ParseStatusFailed
		pr.ErrorMessage = domain.ErrNoUtilityData.Error()
		if updErr := p.parseRepo.UpdateStatus(ctx, pr); updErr != nil {
			log.Printf("submissionPipeline.Process: marking %s failed: %v", pr.ID, updErr)
		}
		p.audit(ctx, pr.BusinessID, "parse_result", pr.ID.String(), domain.AuditParseFailed, map[string]interface{}{
			"error": domain.ErrNoUtilityData.Error(),
		})
		p.notify(ctx, pr.BusinessID, fmt.Sprintf("Attachment %s: no valid utility data", input.AttachmentID),
			fmt.Sprintf("Attachment %s (message %s) was classified as %s but contained no submittable utility entity.",
				input.AttachmentID, input.MessageID, pr.DocumentType))
		return &ProcessResult{ParseResult: pr, Outcomes: outcomes}, domain.ErrNoUtilityData
	}

	p.emit(ctx, pr.BusinessID, "pipeline.completed", map[string]interface{}{
		"attachment_id":   input.AttachmentID,
		"parse_result_id": pr.ID.String(),
		"submissions":     outcomes,
	})
	return &ProcessResult{ParseResult: pr, Outcomes: outcomes}, nil
}

// resolvePhone applies the fallback chain: document phone, then the owning
// customer's WhatsApp phone, then their general phone. No phone fails the
// whole run because phone is the routing key downstream.
func (p *submissionPipeline) resolvePhone(ctx context.Context, pr *domain.ParseResult, docPhone string) (string, error) {
	if phone := NormalizePhone(docPhone); phone != "" {
		return phone, nil
	}
	if pr.CustomerID != nil {
		customer, err := p.customerRepo.GetByID(ctx, pr.BusinessID, *pr.CustomerID)
		if err == nil {
			if phone := NormalizePhone(customer.WhatsAppPhone); phone != "" {
				return phone, nil
			}
			if phone := NormalizePhone(customer.Phone); phone != "" {
				return phone, nil
			}
		} else {
			log.Printf("submissionPipeline.resolvePhone: loading customer %s: %v", *pr.CustomerID, err)
		}
	}
	return "", domain.ErrPhoneUnresolved
}

// NormalizePhone strips formatting and the international prefix: all
// non-digit characters are removed, then a leading 00.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return strings.TrimPrefix(b.String(), "00")
}

// detectSubEntities applies the precedence rule: electricity and gas bills
// are independent and may both come from one document, but a bare meter
// reading is submitted only when neither bill is present. A reading printed
// on a bill belongs to that bill and must not double-submit.
func (p *submissionPipeline) detectSubEntities(pr *domain.ParseResult, fields *parsedUtilityFields, phone string) []domain.Submission {
	base := domain.Submission{
		BusinessID:    pr.BusinessID,
		CustomerID:    pr.CustomerID,
		ParseResultID: pr.ID,
		AttachmentID:  pr.AttachmentID,
		Phone:         phone,
		SourceFileURL: pr.SourceURL,
		Status:        domain.SubmissionStatusPending,
		Payload:       pr.ParsedData,
	}

	var subs []domain.Submission
	if fields.ElectricityBill != nil {
		sub := base
		sub.ID = uuid.New()
		sub.DocumentType = domain.DocTypeElectricity
		sub.MPRN = string(fields.ElectricityBill.MPRN)
		sub.MeterConfigCode = string(fields.ElectricityBill.MeterConfigCode)
		sub.DemandGroupCode = string(fields.ElectricityBill.DemandGroupCode)
		subs = append(subs, sub)
	}
	if fields.GasBill != nil {
		sub := base
		sub.ID = uuid.New()
		sub.DocumentType = domain.DocTypeGas
		sub.GPRN = string(fields.GasBill.GPRN)
		subs = append(subs, sub)
	}
	if len(subs) == 0 && fields.MeterReading != nil {
		sub := base
		sub.ID = uuid.New()
		sub.DocumentType = domain.DocTypeMeter
		sub.ReadingValue = string(fields.MeterReading.Value)
		sub.ReadingUnit = string(fields.MeterReading.Unit)
		subs = append(subs, sub)
	}
	return subs
}

// submit persists one submission and forwards it downstream. Failures are
// confined to this entity's outcome.
func (p *submissionPipeline) submit(ctx context.Context, pr *domain.ParseResult, sub *domain.Submission, endpointOverride string) SubmissionOutcome {
	if err := p.subRepo.Create(ctx, sub); err != nil {
		// A concurrent redelivery may have created the row already; report
		// the entity as failed but keep processing siblings.
		log.Printf("submissionPipeline.submit: creating %s submission for %s: %v", sub.DocumentType, sub.AttachmentID, err)
		return SubmissionOutcome{DocumentType: sub.DocumentType, Outcome: OutcomeFailed, Error: err.Error()}
	}

	// The persisted row must carry a usable id before anything downstream
	// references it. Without one there is no row to mark failed either, so
	// the outcome alone records the reason.
	if sub.ID == uuid.Nil {
		log.Printf("submissionPipeline.submit: %s submission for %s persisted without an id", sub.DocumentType, sub.AttachmentID)
		return SubmissionOutcome{DocumentType: sub.DocumentType, Outcome: OutcomeFailed, Error: domain.ErrMissingSubmissionID.Error()}
	}

	p.audit(ctx, sub.BusinessID, "submission", sub.ID.String(), domain.AuditSubmissionCreated, map[string]interface{}{
		"document_type": string(sub.DocumentType),
	})

	if err := p.gateway.Submit(ctx, sub, endpointOverride); err != nil {
		sub.Status = domain.SubmissionStatusFailed
		sub.ErrorMessage = err.Error()
		if updErr := p.subRepo.UpdateStatus(ctx, sub); updErr != nil {
			log.Printf("submissionPipeline.submit: updating %s: %v", sub.ID, updErr)
		}
		p.audit(ctx, sub.BusinessID, "submission", sub.ID.String(), domain.AuditSubmissionFailed, map[string]interface{}{
			"error": err.Error(),
		})
		p.emit(ctx, sub.BusinessID, "submission.failed", sub)
		return SubmissionOutcome{DocumentType: sub.DocumentType, Outcome: OutcomeFailed, SubmissionID: &sub.ID, Error: err.Error()}
	}

	sub.Status = domain.SubmissionStatusSubmitted
	sub.ErrorMessage = ""
	if err := p.subRepo.UpdateStatus(ctx, sub); err != nil {
		log.Printf("submissionPipeline.submit: updating %s: %v", sub.ID, err)
	}
	p.audit(ctx, sub.BusinessID, "submission", sub.ID.String(), domain.AuditSubmissionSubmitted, nil)
	p.emit(ctx, sub.BusinessID, "submission.submitted", sub)
	return SubmissionOutcome{DocumentType: sub.DocumentType, Outcome: OutcomeSubmitted, SubmissionID: &sub.ID}
}

func (p *submissionPipeline) audit(ctx context.Context, businessID uuid.UUID, subjectType, subjectID string, action domain.AuditAction, details map[string]interface{}) {
	if p.auditRepo == nil {
		return
	}
	raw, err := json.Marshal(details)
	if err != nil || details == nil {
		raw = json.RawMessage("{}")
	}
	entry := &domain.AuditEntry{
		ID:          uuid.New(),
		BusinessID:  businessID,
		SubjectType: subjectType,
		SubjectID:   subjectID,
		Action:      action,
		Details:     raw,
	}
	if err := p.auditRepo.Create(ctx, entry); err != nil {
		log.Printf("submissionPipeline.audit: writing %s entry for %s: %v", action, subjectID, err)
	}
}

func (p *submissionPipeline) emit(ctx context.Context, businessID uuid.UUID, event string, data interface{}) {
	if p.emitter == nil {
		return
	}
	p.emitter.Emit(ctx, businessID, event, data)
}

// notify sends an operator email when the business profile carries a
// notification address. Best effort.
func (p *submissionPipeline) notify(ctx context.Context, businessID uuid.UUID, subject, body string) {
	if p.email == nil {
		return
	}
	profile, err := p.profileRepo.GetByBusiness(ctx, businessID)
	if err != nil || profile.NotifyEmail == "" {
		return
	}
	if err := p.email.SendNotification(ctx, profile.NotifyEmail, subject, body); err != nil {
		log.Printf("submissionPipeline.notify: sending to %s: %v", profile.NotifyEmail, err)
	}
}
