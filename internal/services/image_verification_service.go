package services

import (
	"context"
	"fmt"
	"log/slog"

	"claim-evaluation-service/internal/imaging"
	"claim-evaluation-service/internal/ml"
	"claim-evaluation-service/internal/models"
	"claim-evaluation-service/internal/repository"
)

// ImageVerificationService produces the damage and duplicate signals
// for a submitted claim image.
type ImageVerificationService struct {
	loader      imaging.Loader
	damageModel ml.DamageModel
	hashStore   repository.HashStore
}

func NewImageVerificationService(loader imaging.Loader, damageModel ml.DamageModel, hashStore repository.HashStore) *ImageVerificationService {
	return &ImageVerificationService{
		loader:      loader,
		damageModel: damageModel,
		hashStore:   hashStore,
	}
}

// Verify loads the referenced image, estimates damage confidence and
// runs the duplicate check. The hash-store insertion is the one side
// effect: a non-duplicate image joins the seen set atomically with its
// membership check.
func (s *ImageVerificationService) Verify(ctx context.Context, imageRef, cropType string) (*models.ImageVerificationResult, error) {
	if !s.damageModel.Readiness().Ready() {
		return nil, fmt.Errorf("%w: damage classifier", models.ErrModelUnavailable)
	}

	data, err := s.loader.Load(ctx, imageRef)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: could not process image %s: %v", models.ErrInputFormat, imageRef, err)
	}

	probability, err := s.damageModel.Predict(img)
	if err != nil {
		return nil, fmt.Errorf("damage prediction failed: %w", err)
	}
	damageConfidence := round2(probability * 100.0)

	imageHash := imaging.ComputeHash(data)
	isDuplicate, duplicateConfidence, err := s.hashStore.CheckAndInsert(ctx, imageHash)
	if err != nil {
		return nil, fmt.Errorf("duplicate check failed: %w", err)
	}

	result := &models.ImageVerificationResult{
		DamageConfidence:    damageConfidence,
		IsDuplicate:         isDuplicate,
		DuplicateConfidence: round2(duplicateConfidence),
		ImageHash:           imageHash,
	}

	slog.Info("image verification completed",
		"image_ref", imageRef,
		"crop_type", cropType,
		"damage_confidence", result.DamageConfidence,
		"is_duplicate", result.IsDuplicate)

	return result, nil
}

// Readiness reports the damage model state for health checks.
func (s *ImageVerificationService) Readiness() ml.Readiness {
	return s.damageModel.Readiness()
}
