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

type workflowRepo struct {
	db *sqlx.DB
}

// NewWorkflowRepo creates a new PostgreSQL-backed WorkflowRepository.
func NewWorkflowRepo(db *sqlx.DB) port.WorkflowRepository {
	return &workflowRepo{db: db}
}

// Create inserts the workflow and its steps in one transaction so a
// half-written definition can never be triggered.
func (r *workflowRepo) Create(ctx context.Context, wf *domain.Workflow) error {
	now := time.Now().UTC()
	wf.CreatedAt = now
	wf.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("workflowRepo.Create begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO workflows (id, business_id, name, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		wf.ID, wf.BusinessID, wf.Name, wf.IsActive, wf.CreatedAt, wf.UpdatedAt)
	if err != nil {
		return fmt.Errorf("workflowRepo.Create workflow: %w", err)
	}

	for i := range wf.Steps {
		step := &wf.Steps[i]
		step.WorkflowID = wf.ID
		_, err = tx.ExecContext(ctx,
			`INSERT INTO workflow_steps (
				id, workflow_id, step_type, position, config,
				next_on_success, next_on_failure
			) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			step.ID, step.WorkflowID, step.Type, step.Position, step.Config,
			step.NextOnSuccess, step.NextOnFailure)
		if err != nil {
			return fmt.Errorf("workflowRepo.Create step %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("workflowRepo.Create commit: %w", err)
	}
	return nil
}

func (r *workflowRepo) GetByID(ctx context.Context, businessID, id uuid.UUID) (*domain.Workflow, error) {
	var wf domain.Workflow
	err := r.db.GetContext(ctx, &wf,
		"SELECT * FROM workflows WHERE id = $1 AND business_id = $2", id, businessID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrWorkflowNotFound
		}
		return nil, fmt.Errorf("workflowRepo.GetByID: %w", err)
	}

	err = r.db.SelectContext(ctx, &wf.Steps,
		"SELECT * FROM workflow_steps WHERE workflow_id = $1 ORDER BY position ASC", id)
	if err != nil {
		return nil, fmt.Errorf("workflowRepo.GetByID steps: %w", err)
	}
	return &wf, nil
}

func (r *workflowRepo) ListByBusiness(ctx context.Context, businessID uuid.UUID, offset, limit int) ([]domain.Workflow, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM workflows WHERE business_id = $1", businessID)
	if err != nil {
		return nil, 0, fmt.Errorf("workflowRepo.ListByBusiness count: %w", err)
	}

	var wfs []domain.Workflow
	err = r.db.SelectContext(ctx, &wfs,
		`SELECT * FROM workflows WHERE business_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		businessID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("workflowRepo.ListByBusiness: %w", err)
	}
	return wfs, total, nil
}

func (r *workflowRepo) Delete(ctx context.Context, businessID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM workflows WHERE id = $1 AND business_id = $2", id, businessID)
	if err != nil {
		return fmt.Errorf("workflowRepo.Delete: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("workflowRepo.Delete rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrWorkflowNotFound
	}
	return nil
}
