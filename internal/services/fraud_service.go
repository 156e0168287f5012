package services

import (
	"fmt"
	"log/slog"
	"math"

	"claim-evaluation-service/internal/ml"
	"claim-evaluation-service/internal/models"
)

// FraudDetectionService scores claims for anomalies and attributes the
// result to specific derived features.
type FraudDetectionService struct {
	model ml.AnomalyModel
}

func NewFraudDetectionService(model ml.AnomalyModel) *FraudDetectionService {
	return &FraudDetectionService{model: model}
}

// Detect runs the anomaly model over the fraud feature vector and
// rescales its output onto the bounded [0,100] fraud-score scale.
//
// The rescaling and confidence transforms are preserved exactly as the
// fusion thresholds (50/60/70) were tuned against them.
func (s *FraudDetectionService) Detect(req models.FraudDetectionRequest) (*models.FraudDetectionResult, error) {
	if !s.model.Readiness().Ready() {
		return nil, fmt.Errorf("%w: fraud detector", models.ErrModelUnavailable)
	}

	areaHectares, err := LandSizeToHectares(req.LandSize)
	if err != nil {
		return nil, err
	}

	weather := ExtractWeather(req.Weather)
	features := BuildFraudFeatures(req, areaHectares, weather)

	label, raw, err := s.model.Score(features)
	if err != nil {
		return nil, fmt.Errorf("fraud scoring failed: %w", err)
	}

	// IsolationForest convention: -1 = anomaly, +1 = normal; lower raw
	// scores are more anomalous.
	fraudDetected := label == -1
	fraudScore := clampFloat((1.0-(raw+1.0)/2.0)*100.0, 0.0, 100.0)
	confidence := clampFloat(math.Abs(raw)*50.0, 50.0, 100.0)

	result := &models.FraudDetectionResult{
		FraudDetected:   fraudDetected,
		FraudScore:      round2(fraudScore),
		AnomalyFeatures: identifyAnomalyFeatures(features, fraudDetected),
		Confidence:      round2(confidence),
	}

	slog.Info("fraud detection completed",
		"user_id", req.UserID,
		"fraud_detected", result.FraudDetected,
		"fraud_score", result.FraudScore)

	return result, nil
}

// Readiness reports the anomaly model state for health checks.
func (s *FraudDetectionService) Readiness() ml.Readiness {
	return s.model.Readiness()
}

// identifyAnomalyFeatures attributes a fraud detection to the derived
// features that look abnormal. The rule order is fixed and every
// matching rule is reported, not just the first.
func identifyAnomalyFeatures(features []float64, fraudDetected bool) []string {
	if !fraudDetected {
		return nil
	}

	var anomalies []string

	if features[models.FraudFeatClaimToYieldRatio] > 1000 {
		anomalies = append(anomalies, "Unusually high claim amount relative to expected yield")
	}

	yieldPerHectare := features[models.FraudFeatYieldPerHectare]
	if yieldPerHectare < 10 {
		anomalies = append(anomalies, "Suspiciously low yield per hectare")
	} else if yieldPerHectare > 100 {
		anomalies = append(anomalies, "Unusually high yield per hectare")
	}

	if features[models.FraudFeatClaimPerHectare] > 50000 {
		anomalies = append(anomalies, "Extremely high claim amount per hectare")
	}

	if features[models.FraudFeatHistoricalClaims] > 5 {
		anomalies = append(anomalies, "High number of historical claims")
	}

	if features[models.FraudFeatWeatherAnomalyScore] > 50 {
		anomalies = append(anomalies, "Unusual weather conditions reported")
	}

	if len(anomalies) == 0 {
		anomalies = append(anomalies, "Multiple factors indicate potential fraud")
	}

	return anomalies
}
