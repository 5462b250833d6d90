package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
	"github.com/Onebillie/onebillconvo-sub004/internal/port"
)

type auditRepo struct {
	db *sqlx.DB
}

// NewAuditRepo creates a new PostgreSQL-backed AuditRepository.
func NewAuditRepo(db *sqlx.DB) port.AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Create(ctx context.Context, entry *domain.AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, business_id, subject_type, subject_id, action, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.BusinessID, entry.SubjectType, entry.SubjectID,
		entry.Action, entry.Details, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("auditRepo.Create: %w", err)
	}
	return nil
}

func (r *auditRepo) ListBySubject(ctx context.Context, businessID uuid.UUID, subjectType, subjectID string, offset, limit int) ([]domain.AuditEntry, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM audit_log
		 WHERE business_id = $1 AND subject_type = $2 AND subject_id = $3`,
		businessID, subjectType, subjectID)
	if err != nil {
		return nil, 0, fmt.Errorf("auditRepo.ListBySubject count: %w", err)
	}

	var entries []domain.AuditEntry
	err = r.db.SelectContext(ctx, &entries,
		`SELECT * FROM audit_log
		 WHERE business_id = $1 AND subject_type = $2 AND subject_id = $3
		 ORDER BY created_at DESC LIMIT $4 OFFSET $5`,
		businessID, subjectType, subjectID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("auditRepo.ListBySubject: %w", err)
	}
	return entries, total, nil
}
