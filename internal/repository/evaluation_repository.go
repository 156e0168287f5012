package repository

import (
	"context"
	"fmt"

	"claim-evaluation-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type EvaluationRepository struct {
	db *sqlx.DB
}

func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// Create stores a completed claim evaluation.
func (r *EvaluationRepository) Create(ctx context.Context, record *models.EvaluationRecord) error {
	query := `
		INSERT INTO claim_evaluation (
			id, user_id, crop_type, land_size, expected_yield, claim_amount,
			image_hash, approved, damage_confidence, predicted_yield,
			fraud_detected, fraud_score, is_duplicate, reason,
			recommendations, created_at
		) VALUES (
			:id, :user_id, :crop_type, :land_size, :expected_yield, :claim_amount,
			:image_hash, :approved, :damage_confidence, :predicted_yield,
			:fraud_detected, :fraud_score, :is_duplicate, :reason,
			:recommendations, :created_at
		)
	`

	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("failed to insert claim evaluation: %w", err)
	}
	return nil
}

// GetByID retrieves a stored evaluation by its ID.
func (r *EvaluationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.EvaluationRecord, error) {
	var record models.EvaluationRecord
	query := `
		SELECT id, user_id, crop_type, land_size, expected_yield, claim_amount,
		       image_hash, approved, damage_confidence, predicted_yield,
		       fraud_detected, fraud_score, is_duplicate, reason,
		       recommendations, created_at
		FROM claim_evaluation
		WHERE id = $1
	`

	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, fmt.Errorf("failed to get claim evaluation by id: %w", err)
	}
	return &record, nil
}

// GetByUserID retrieves stored evaluations for a user, newest first.
func (r *EvaluationRepository) GetByUserID(ctx context.Context, userID string) ([]models.EvaluationRecord, error) {
	var records []models.EvaluationRecord
	query := `
		SELECT id, user_id, crop_type, land_size, expected_yield, claim_amount,
		       image_hash, approved, damage_confidence, predicted_yield,
		       fraud_detected, fraud_score, is_duplicate, reason,
		       recommendations, created_at
		FROM claim_evaluation
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	if err := r.db.SelectContext(ctx, &records, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get claim evaluations for user: %w", err)
	}
	return records, nil
}
