package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Onebillie/onebillconvo-sub004/internal/classifier"
	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
	"github.com/Onebillie/onebillconvo-sub004/internal/port"
)

const defaultMaxParseAttempts = 5

// RouteInput is the DTO for routing an inbound attachment through
// classification.
type RouteInput struct {
	BusinessID       uuid.UUID
	BusinessName     string
	AttachmentID     string
	MessageID        string
	CustomerID       *uuid.UUID
	SourceURL        string
	FileName         string
	ProviderOverride string
}

// ParseRouterService routes attachments to the classifier, enforcing the
// success-row idempotency check and the two-phase status write.
type ParseRouterService interface {
	Route(ctx context.Context, input *RouteInput) (*domain.ParseResult, error)
	GetByID(ctx context.Context, businessID, id uuid.UUID) (*domain.ParseResult, error)
	ListByBusiness(ctx context.Context, businessID uuid.UUID, status domain.ParseStatus, offset, limit int) ([]domain.ParseResult, int, error)
	// Requeue marks a stuck or failed parse for another attempt.
	Requeue(ctx context.Context, businessID, id uuid.UUID) (*domain.ParseResult, error)
	// ParseAttachment re-routes a previously seen attachment, recovering the
	// source URL from the latest parse row. Used by workflow parse steps.
	ParseAttachment(ctx context.Context, businessID uuid.UUID, attachmentID, messageID, providerOverride string) (*domain.ParseResult, error)
	// ProcessQueued runs one requeued parse row through classification again.
	ProcessQueued(ctx context.Context, pr *domain.ParseResult)
}

type parseRouterService struct {
	parseRepo   port.ParseResultRepository
	profileRepo port.PipelineProfileRepository
	auditRepo   port.AuditRepository
	fetcher     port.AttachmentFetcher
	classifier  port.DocumentClassifier
	byProvider  map[string]port.DocumentClassifier
	maxAttempts int
}

// NewParseRouterService creates a ParseRouterService. byProvider maps
// provider names to single-provider classifiers so a business profile or a
// workflow step can pin one instead of the default fallback chain.
func NewParseRouterService(
	parseRepo port.ParseResultRepository,
	profileRepo port.PipelineProfileRepository,
	auditRepo port.AuditRepository,
	fetcher port.AttachmentFetcher,
	defaultClassifier port.DocumentClassifier,
	byProvider map[string]port.DocumentClassifier,
	maxAttempts int,
) ParseRouterService {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxParseAttempts
	}
	return &parseRouterService{
		parseRepo:   parseRepo,
		profileRepo: profileRepo,
		auditRepo:   auditRepo,
		fetcher:     fetcher,
		classifier:  defaultClassifier,
		byProvider:  byProvider,
		maxAttempts: maxAttempts,
	}
}

func (s *parseRouterService) Route(ctx context.Context, input *RouteInput) (*domain.ParseResult, error) {
	// Idempotency: webhook redelivery must not re-bill the same attachment.
	if existing, err := s.parseRepo.GetSuccessByAttachment(ctx, input.BusinessID, input.AttachmentID); err == nil {
		log.Printf("parseRouterService.Route: attachment %s already parsed, returning cached result", input.AttachmentID)
		return existing, nil
	} else if !errors.Is(err, domain.ErrParseResultNotFound) {
		return nil, err
	}

	pr := &domain.ParseResult{
		ID:           uuid.New(),
		BusinessID:   input.BusinessID,
		AttachmentID: input.AttachmentID,
		MessageID:    input.MessageID,
		CustomerID:   input.CustomerID,
		SourceURL:    input.SourceURL,
		FileName:     input.FileName,
		Status:       domain.ParseStatusPending,
	}
	if err := s.parseRepo.Create(ctx, pr); err != nil {
		return nil, fmt.Errorf("creating parse result: %w", err)
	}

	pr.Status = domain.ParseStatusProcessing
	pr.Attempts = 1
	if err := s.parseRepo.UpdateStatus(ctx, pr); err != nil {
		return nil, fmt.Errorf("marking parse result processing: %w", err)
	}

	s.classify(ctx, pr, input.BusinessName, input.ProviderOverride)
	return pr, nil
}

// classify fetches the attachment, runs the classifier, and writes the
// terminal (or queued) status onto pr.
func (s *parseRouterService) classify(ctx context.Context, pr *domain.ParseResult, businessName, providerOverride string) {
	file, err := s.fetcher.Fetch(ctx, pr.SourceURL)
	if err != nil {
		s.failParse(ctx, pr, fmt.Sprintf("fetching attachment: %v", err))
		return
	}

	output, err := s.selectClassifier(ctx, pr.BusinessID, providerOverride).Classify(ctx, port.ClassifyInput{
		FileBytes:    file.Bytes,
		FileName:     pr.FileName,
		ContentType:  file.ContentType,
		BusinessName: businessName,
	})
	if err != nil {
		s.handleClassifyError(ctx, pr, err)
		return
	}

	lowConf, _ := json.Marshal(output.LowConfidenceFields)
	pr.Status = domain.ParseStatusSuccess
	pr.DocumentType = output.Classification
	pr.Confidence = output.Confidence
	pr.ParsedData = output.Fields
	pr.FieldConfidence = output.FieldConfidence
	pr.LowConfidenceFields = lowConf
	pr.ErrorMessage = ""
	pr.RetryAfter = nil

	if err := s.parseRepo.UpdateStatus(ctx, pr); err != nil {
		log.Printf("parseRouterService.classify: saving results for %s: %v", pr.ID, err)
		return
	}

	changes, _ := json.Marshal(map[string]interface{}{
		"document_type": string(pr.DocumentType),
		"confidence":    pr.Confidence,
		"model":         output.ModelUsed,
		"attempt":       pr.Attempts,
	})
	s.audit(ctx, pr, domain.AuditParseCompleted, changes)
	log.Printf("parseRouterService.classify: attachment %s classified as %s (%.2f)", pr.AttachmentID, pr.DocumentType, pr.Confidence)
}

// selectClassifier resolves the effective backend: an explicit override wins,
// then the business profile's pinned provider, then the default chain.
func (s *parseRouterService) selectClassifier(ctx context.Context, businessID uuid.UUID, override string) port.DocumentClassifier {
	name := override
	if name == "" {
		if profile, err := s.profileRepo.GetByBusiness(ctx, businessID); err == nil {
			name = profile.ClassifierProvider
		}
	}
	if name != "" {
		if c, ok := s.byProvider[name]; ok {
			return c
		}
		log.Printf("parseRouterService.selectClassifier: provider %q not configured, using default", name)
	}
	return s.classifier
}

// handleClassifyError queues rate-limited attempts for retry and fails
// everything else. Malformed model output is never requeued.
func (s *parseRouterService) handleClassifyError(ctx context.Context, pr *domain.ParseResult, classifyErr error) {
	var rlErr *classifier.RateLimitError
	if errors.As(classifyErr, &rlErr) && pr.Attempts < s.maxAttempts {
		retryAt := time.Now().Add(rlErr.RetryAfter)
		pr.Status = domain.ParseStatusQueued
		pr.ErrorMessage = fmt.Sprintf("rate limited by %s, queued for retry", rlErr.Provider)
		pr.RetryAfter = &retryAt
		if err := s.parseRepo.UpdateStatus(ctx, pr); err != nil {
			log.Printf("parseRouterService.handleClassifyError: queueing %s: %v", pr.ID, err)
			return
		}
		changes, _ := json.Marshal(map[string]interface{}{
			"retry_after": retryAt.Format(time.RFC3339), "attempt": pr.Attempts,
		})
		s.audit(ctx, pr, domain.AuditParseQueued, changes)
		log.Printf("parseRouterService.handleClassifyError: attachment %s queued for retry after %s", pr.AttachmentID, retryAt.Format(time.RFC3339))
		return
	}
	s.failParse(ctx, pr, fmt.Sprintf("classifying attachment: %v", classifyErr))
}

func (s *parseRouterService) failParse(ctx context.Context, pr *domain.ParseResult, errMsg string) {
	log.Printf("parseRouterService.failParse: parse %s failed: %s", pr.ID, errMsg)
	pr.Status = domain.ParseStatusFailed
	pr.ErrorMessage = errMsg
	pr.RetryAfter = nil
	if err := s.parseRepo.UpdateStatus(ctx, pr); err != nil {
		log.Printf("parseRouterService.failParse: updating status for %s: %v", pr.ID, err)
	}
	changes, _ := json.Marshal(map[string]interface{}{"error": errMsg, "attempt": pr.Attempts})
	s.audit(ctx, pr, domain.AuditParseFailed, changes)
}

func (s *parseRouterService) GetByID(ctx context.Context, businessID, id uuid.UUID) (*domain.ParseResult, error) {
	return s.parseRepo.GetByID(ctx, businessID, id)
}

func (s *parseRouterService) ListByBusiness(ctx context.Context, businessID uuid.UUID, status domain.ParseStatus, offset, limit int) ([]domain.ParseResult, int, error) {
	return s.parseRepo.ListByBusiness(ctx, businessID, status, offset, limit)
}

func (s *parseRouterService) Requeue(ctx context.Context, businessID, id uuid.UUID) (*domain.ParseResult, error) {
	pr, err := s.parseRepo.GetByID(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	// Success rows are immutable; pending rows have not run yet.
	if pr.Status != domain.ParseStatusFailed && pr.Status != domain.ParseStatusProcessing {
		return nil, domain.ErrParseNotRequeueable
	}

	pr.Status = domain.ParseStatusQueued
	pr.ErrorMessage = ""
	pr.RetryAfter = nil
	if err := s.parseRepo.UpdateStatus(ctx, pr); err != nil {
		return nil, err
	}
	changes, _ := json.Marshal(map[string]interface{}{"attempt": pr.Attempts})
	s.audit(ctx, pr, domain.AuditParseRequeued, changes)
	return pr, nil
}

func (s *parseRouterService) ParseAttachment(ctx context.Context, businessID uuid.UUID, attachmentID, messageID, providerOverride string) (*domain.ParseResult, error) {
	if existing, err := s.parseRepo.GetSuccessByAttachment(ctx, businessID, attachmentID); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrParseResultNotFound) {
		return nil, err
	}

	latest, err := s.parseRepo.GetLatestByAttachment(ctx, businessID, attachmentID)
	if err != nil {
		return nil, fmt.Errorf("attachment %s has no parse history: %w", attachmentID, err)
	}

	pr, err := s.Route(ctx, &RouteInput{
		BusinessID:       businessID,
		AttachmentID:     attachmentID,
		MessageID:        messageID,
		CustomerID:       latest.CustomerID,
		SourceURL:        latest.SourceURL,
		FileName:         latest.FileName,
		ProviderOverride: providerOverride,
	})
	if err != nil {
		return nil, err
	}
	if pr.Status != domain.ParseStatusSuccess {
		return nil, fmt.Errorf("parsing attachment %s: %s", attachmentID, pr.ErrorMessage)
	}
	return pr, nil
}

func (s *parseRouterService) ProcessQueued(ctx context.Context, pr *domain.ParseResult) {
	pr.Status = domain.ParseStatusProcessing
	pr.Attempts++
	if err := s.parseRepo.UpdateStatus(ctx, pr); err != nil {
		log.Printf("parseRouterService.ProcessQueued: claiming %s: %v", pr.ID, err)
		return
	}
	s.classify(ctx, pr, "", "")
}

// audit appends an entry; failures never block the parse flow.
func (s *parseRouterService) audit(ctx context.Context, pr *domain.ParseResult, action domain.AuditAction, details json.RawMessage) {
	if s.auditRepo == nil {
		return
	}
	if details == nil {
		details = json.RawMessage("{}")
	}
	entry := &domain.AuditEntry{
		ID:          uuid.New(),
		BusinessID:  pr.BusinessID,
		SubjectType: "parse_result",
		SubjectID:   pr.ID.String(),
		Action:      action,
		Details:     details,
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		log.Printf("parseRouterService.audit: writing %s entry for %s: %v", action, pr.ID, err)
	}
}
