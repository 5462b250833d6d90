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

type profileRepo struct {
	db *sqlx.DB
}

// NewProfileRepo creates a new PostgreSQL-backed PipelineProfileRepository.
func NewProfileRepo(db *sqlx.DB) port.PipelineProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) GetByBusiness(ctx context.Context, businessID uuid.UUID) (*domain.PipelineProfile, error) {
	var p domain.PipelineProfile
	err := r.db.GetContext(ctx, &p,
		"SELECT * FROM pipeline_profiles WHERE business_id = $1", businessID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("profileRepo.GetByBusiness: %w", err)
	}
	return &p, nil
}

func (r *profileRepo) Upsert(ctx context.Context, profile *domain.PipelineProfile) error {
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO pipeline_profiles (
			id, business_id, auto_submit, classifier_provider,
			gateway_endpoint, notify_email, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (business_id) DO UPDATE SET
			auto_submit = EXCLUDED.auto_submit,
			classifier_provider = EXCLUDED.classifier_provider,
			gateway_endpoint = EXCLUDED.gateway_endpoint,
			notify_email = EXCLUDED.notify_email,
			updated_at = EXCLUDED.updated_at`,
		profile.ID, profile.BusinessID, profile.AutoSubmit, profile.ClassifierProvider,
		profile.GatewayEndpoint, profile.NotifyEmail, profile.CreatedAt, profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("profileRepo.Upsert: %w", err)
	}
	return nil
}
