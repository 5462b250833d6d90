package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
	"github.com/Onebillie/onebillconvo-sub004/internal/port"
)

type parseResultRepo struct {
	db *sqlx.DB
}

// NewParseResultRepo creates a new PostgreSQL-backed ParseResultRepository.
func NewParseResultRepo(db *sqlx.DB) port.ParseResultRepository {
	return &parseResultRepo{db: db}
}

func (r *parseResultRepo) Create(ctx context.Context, pr *domain.ParseResult) error {
	now := time.Now().UTC()
	pr.CreatedAt = now
	pr.UpdatedAt = now

	query := `INSERT INTO parse_results (
		id, business_id, attachment_id, message_id, customer_id,
		source_url, file_name, status, document_type, confidence,
		parsed_data, field_confidence, low_confidence_fields,
		error_message, attempts, retry_after, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9, $10,
		$11, $12, $13,
		$14, $15, $16, $17, $18
	)`

	_, err := r.db.ExecContext(ctx, query,
		pr.ID, pr.BusinessID, pr.AttachmentID, pr.MessageID, pr.CustomerID,
		pr.SourceURL, pr.FileName, pr.Status, pr.DocumentType, pr.Confidence,
		pr.ParsedData, pr.FieldConfidence, pr.LowConfidenceFields,
		pr.ErrorMessage, pr.Attempts, pr.RetryAfter, pr.CreatedAt, pr.UpdatedAt)
	if err != nil {
		return fmt.Errorf("parseResultRepo.Create: %w", err)
	}
	return nil
}

func (r *parseResultRepo) GetByID(ctx context.Context, businessID, id uuid.UUID) (*domain.ParseResult, error) {
	var pr domain.ParseResult
	err := r.db.GetContext(ctx, &pr,
		"SELECT * FROM parse_results WHERE id = $1 AND business_id = $2", id, businessID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrParseResultNotFound
		}
		return nil, fmt.Errorf("parseResultRepo.GetByID: %w", err)
	}
	return &pr, nil
}

func (r *parseResultRepo) GetSuccessByAttachment(ctx context.Context, businessID uuid.UUID, attachmentID string) (*domain.ParseResult, error) {
	var pr domain.ParseResult
	err := r.db.GetContext(ctx, &pr,
		`SELECT * FROM parse_results
		 WHERE business_id = $1 AND attachment_id = $2 AND status = $3
		 ORDER BY created_at DESC LIMIT 1`,
		businessID, attachmentID, domain.ParseStatusSuccess)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrParseResultNotFound
		}
		return nil, fmt.Errorf("parseResultRepo.GetSuccessByAttachment: %w", err)
	}
	return &pr, nil
}

func (r *parseResultRepo) GetLatestByAttachment(ctx context.Context, businessID uuid.UUID, attachmentID string) (*domain.ParseResult, error) {
	var pr domain.ParseResult
	err := r.db.GetContext(ctx, &pr,
		`SELECT * FROM parse_results
		 WHERE business_id = $1 AND attachment_id = $2
		 ORDER BY created_at DESC LIMIT 1`,
		businessID, attachmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrParseResultNotFound
		}
		return nil, fmt.Errorf("parseResultRepo.GetLatestByAttachment: %w", err)
	}
	return &pr, nil
}

func (r *parseResultRepo) UpdateStatus(ctx context.Context, pr *domain.ParseResult) error {
	pr.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE parse_results SET
			status = $1, document_type = $2, confidence = $3,
			parsed_data = $4, field_confidence = $5, low_confidence_fields = $6,
			error_message = $7, attempts = $8, retry_after = $9, updated_at = $10
		 WHERE id = $11 AND business_id = $12`,
		pr.Status, pr.DocumentType, pr.Confidence,
		pr.ParsedData, pr.FieldConfidence, pr.LowConfidenceFields,
		pr.ErrorMessage, pr.Attempts, pr.RetryAfter, pr.UpdatedAt,
		pr.ID, pr.BusinessID)
	if err != nil {
		return fmt.Errorf("parseResultRepo.UpdateStatus: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("parseResultRepo.UpdateStatus rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrParseResultNotFound
	}
	return nil
}

func (r *parseResultRepo) ListByBusiness(ctx context.Context, businessID uuid.UUID, status domain.ParseStatus, offset, limit int) ([]domain.ParseResult, int, error) {
	where := "WHERE business_id = $1"
	args := []interface{}{businessID}
	if status != "" {
		where += " AND status = $2"
		args = append(args, status)
	}

	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM parse_results "+where, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("parseResultRepo.ListByBusiness count: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT * FROM parse_results %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var results []domain.ParseResult
	err = r.db.SelectContext(ctx, &results, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("parseResultRepo.ListByBusiness: %w", err)
	}
	return results, total, nil
}

func (r *parseResultRepo) ListRequeueable(ctx context.Context, now, staleBefore time.Time, limit int) ([]domain.ParseResult, error) {
	var results []domain.ParseResult
	err := r.db.SelectContext(ctx, &results,
		`SELECT * FROM parse_results
		 WHERE (status = $1 AND (retry_after IS NULL OR retry_after <= $2))
		    OR (status = $3 AND updated_at < $4)
		 ORDER BY updated_at ASC LIMIT $5`,
		domain.ParseStatusQueued, now, domain.ParseStatusProcessing, staleBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("parseResultRepo.ListRequeueable: %w", err)
	}
	return results, nil
}
