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

type submissionRepo struct {
	db *sqlx.DB
}

// NewSubmissionRepo creates a new PostgreSQL-backed SubmissionRepository.
func NewSubmissionRepo(db *sqlx.DB) port.SubmissionRepository {
	return &submissionRepo{db: db}
}

func (r *submissionRepo) Create(ctx context.Context, sub *domain.Submission) error {
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	query := `INSERT INTO submissions (
		id, business_id, customer_id, parse_result_id, attachment_id,
		document_type, phone, mprn, gprn, meter_config_code, demand_group_code,
		reading_value, reading_unit, source_file_url, status, error_message,
		payload, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9, $10, $11,
		$12, $13, $14, $15, $16,
		$17, $18, $19
	)`

	_, err := r.db.ExecContext(ctx, query,
		sub.ID, sub.BusinessID, sub.CustomerID, sub.ParseResultID, sub.AttachmentID,
		sub.DocumentType, sub.Phone, sub.MPRN, sub.GPRN, sub.MeterConfigCode, sub.DemandGroupCode,
		sub.ReadingValue, sub.ReadingUnit, sub.SourceFileURL, sub.Status, sub.ErrorMessage,
		sub.Payload, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("submissionRepo.Create: %w", err)
	}
	return nil
}

func (r *submissionRepo) GetByID(ctx context.Context, businessID, id uuid.UUID) (*domain.Submission, error) {
	var sub domain.Submission
	err := r.db.GetContext(ctx, &sub,
		"SELECT * FROM submissions WHERE id = $1 AND business_id = $2", id, businessID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("submissionRepo.GetByID: %w", err)
	}
	return &sub, nil
}

func (r *submissionRepo) UpdateStatus(ctx context.Context, sub *domain.Submission) error {
	sub.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE submissions SET status = $1, error_message = $2, updated_at = $3
		 WHERE id = $4 AND business_id = $5`,
		sub.Status, sub.ErrorMessage, sub.UpdatedAt, sub.ID, sub.BusinessID)
	if err != nil {
		return fmt.Errorf("submissionRepo.UpdateStatus: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("submissionRepo.UpdateStatus rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrSubmissionNotFound
	}
	return nil
}

func (r *submissionRepo) ListByBusiness(ctx context.Context, businessID uuid.UUID, offset, limit int) ([]domain.Submission, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM submissions WHERE business_id = $1", businessID)
	if err != nil {
		return nil, 0, fmt.Errorf("submissionRepo.ListByBusiness count: %w", err)
	}

	var subs []domain.Submission
	err = r.db.SelectContext(ctx, &subs,
		`SELECT * FROM submissions WHERE business_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		businessID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("submissionRepo.ListByBusiness: %w", err)
	}
	return subs, total, nil
}

func (r *submissionRepo) ListByAttachment(ctx context.Context, businessID uuid.UUID, attachmentID string) ([]domain.Submission, error) {
	var subs []domain.Submission
	err := r.db.SelectContext(ctx, &subs,
		`SELECT * FROM submissions WHERE business_id = $1 AND attachment_id = $2
		 ORDER BY created_at ASC`,
		businessID, attachmentID)
	if err != nil {
		return nil, fmt.Errorf("submissionRepo.ListByAttachment: %w", err)
	}
	return subs, nil
}
