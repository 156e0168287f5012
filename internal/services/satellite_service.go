package services

import (
	"context"
	"fmt"
	"log/slog"

	"claim-evaluation-service/internal/imaging"
	"claim-evaluation-service/internal/ml"
	"claim-evaluation-service/internal/models"
)

// SatelliteVerificationService classifies satellite crop imagery into
// {healthy, damaged, cloud_cover, no_crop} as an independent check on
// ground-level damage evidence.
type SatelliteVerificationService struct {
	loader imaging.Loader
	model  ml.SatelliteModel
}

func NewSatelliteVerificationService(loader imaging.Loader, model ml.SatelliteModel) *SatelliteVerificationService {
	return &SatelliteVerificationService{loader: loader, model: model}
}

// Verify classifies the referenced satellite image.
func (s *SatelliteVerificationService) Verify(ctx context.Context, imageRef string) (*models.SatelliteVerificationResult, error) {
	if !s.model.Readiness().Ready() {
		return nil, fmt.Errorf("%w: satellite classifier", models.ErrModelUnavailable)
	}

	data, err := s.loader.Load(ctx, imageRef)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: could not process satellite image %s: %v", models.ErrInputFormat, imageRef, err)
	}

	probabilities, err := s.model.Predict(img)
	if err != nil {
		return nil, fmt.Errorf("satellite classification failed: %w", err)
	}

	classes := s.model.Classes()
	if len(probabilities) != len(classes) {
		return nil, fmt.Errorf("satellite model returned %d probabilities for %d classes", len(probabilities), len(classes))
	}

	best := 0
	byClass := make(map[string]float64, len(classes))
	for i, p := range probabilities {
		byClass[classes[i]] = round2(p)
		if p > probabilities[best] {
			best = i
		}
	}

	result := &models.SatelliteVerificationResult{
		PredictedClass:     classes[best],
		Confidence:         round2(probabilities[best] * 100.0),
		ClassProbabilities: byClass,
		IsDamaged:          classes[best] == "damaged",
	}

	slog.Info("satellite verification completed",
		"image_ref", imageRef,
		"predicted_class", result.PredictedClass,
		"confidence", result.Confidence)

	return result, nil
}

// Readiness reports the satellite model state for health checks.
func (s *SatelliteVerificationService) Readiness() ml.Readiness {
	return s.model.Readiness()
}
