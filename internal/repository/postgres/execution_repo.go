package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
	"github.com/Onebillie/onebillconvo-sub004/internal/port"
)

type executionRepo struct {
	db *sqlx.DB
}

// NewExecutionRepo creates a new PostgreSQL-backed WorkflowExecutionRepository.
func NewExecutionRepo(db *sqlx.DB) port.WorkflowExecutionRepository {
	return &executionRepo{db: db}
}

func (r *executionRepo) Create(ctx context.Context, exec *domain.WorkflowExecution) error {
	query := `INSERT INTO workflow_executions (
		id, workflow_id, business_id, attachment_id, message_id,
		trigger_type, status, context, error_message, started_at, completed_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9, $10, $11
	)`

	_, err := r.db.ExecContext(ctx, query,
		exec.ID, exec.WorkflowID, exec.BusinessID, exec.AttachmentID, exec.MessageID,
		exec.TriggerType, exec.Status, exec.Context, exec.ErrorMessage, exec.StartedAt, exec.CompletedAt)
	if err != nil {
		return fmt.Errorf("executionRepo.Create: %w", err)
	}
	return nil
}

func (r *executionRepo) GetByID(ctx context.Context, businessID, id uuid.UUID) (*domain.WorkflowExecution, error) {
	var exec domain.WorkflowExecution
	err := r.db.GetContext(ctx, &exec,
		"SELECT * FROM workflow_executions WHERE id = $1 AND business_id = $2", id, businessID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrExecutionNotFound
		}
		return nil, fmt.Errorf("executionRepo.GetByID: %w", err)
	}
	return &exec, nil
}

func (r *executionRepo) Update(ctx context.Context, exec *domain.WorkflowExecution) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE workflow_executions SET
			status = $1, context = $2, error_message = $3, completed_at = $4
		 WHERE id = $5 AND business_id = $6`,
		exec.Status, exec.Context, exec.ErrorMessage, exec.CompletedAt,
		exec.ID, exec.BusinessID)
	if err != nil {
		return fmt.Errorf("executionRepo.Update: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("executionRepo.Update rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrExecutionNotFound
	}
	return nil
}
