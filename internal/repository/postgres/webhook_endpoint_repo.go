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

type webhookEndpointRepo struct {
	db *sqlx.DB
}

// NewWebhookEndpointRepo creates a new PostgreSQL-backed WebhookEndpointRepository.
func NewWebhookEndpointRepo(db *sqlx.DB) port.WebhookEndpointRepository {
	return &webhookEndpointRepo{db: db}
}

func (r *webhookEndpointRepo) Create(ctx context.Context, ep *domain.WebhookEndpoint) error {
	if ep.CreatedAt.IsZero() {
		ep.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO webhook_endpoints (id, business_id, url, secret, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		ep.ID, ep.BusinessID, ep.URL, ep.Secret, ep.IsActive, ep.CreatedAt)
	if err != nil {
		return fmt.Errorf("webhookEndpointRepo.Create: %w", err)
	}
	return nil
}

func (r *webhookEndpointRepo) ListActiveByBusiness(ctx context.Context, businessID uuid.UUID) ([]domain.WebhookEndpoint, error) {
	var eps []domain.WebhookEndpoint
	err := r.db.SelectContext(ctx, &eps,
		`SELECT * FROM webhook_endpoints
		 WHERE business_id = $1 AND is_active = true
		 ORDER BY created_at ASC`,
		businessID)
	if err != nil {
		return nil, fmt.Errorf("webhookEndpointRepo.ListActiveByBusiness: %w", err)
	}
	return eps, nil
}

func (r *webhookEndpointRepo) Delete(ctx context.Context, businessID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM webhook_endpoints WHERE id = $1 AND business_id = $2", id, businessID)
	if err != nil {
		return fmt.Errorf("webhookEndpointRepo.Delete: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("webhookEndpointRepo.Delete rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrEndpointNotFound
	}
	return nil
}
