package services

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"claim-evaluation-service/internal/ml"
	"claim-evaluation-service/internal/models"
)

// YieldPredictionService estimates crop yield from agronomic inputs.
type YieldPredictionService struct {
	model ml.YieldModel
	now   func() time.Time
}

func NewYieldPredictionService(model ml.YieldModel) *YieldPredictionService {
	return &YieldPredictionService{
		model: model,
		now:   time.Now,
	}
}

// defaultYieldConfidence is reported until the training pipeline
// exports prediction intervals.
const defaultYieldConfidence = 85.0

// Predict runs the yield model over the derived feature vector and
// attaches a risk level plus agronomy recommendations.
func (s *YieldPredictionService) Predict(req models.YieldPredictionRequest) (*models.YieldPredictionResult, error) {
	if !s.model.Readiness().Ready() {
		return nil, fmt.Errorf("%w: yield predictor", models.ErrModelUnavailable)
	}

	areaHectares, err := LandSizeToHectares(req.LandSize)
	if err != nil {
		return nil, err
	}

	weather := ExtractWeather(req.Weather)
	features := BuildYieldFeatures(req, areaHectares, weather, s.now())

	predicted, err := s.model.Predict(features)
	if err != nil {
		return nil, fmt.Errorf("yield prediction failed: %w", err)
	}
	predicted = math.Max(0, predicted)

	riskLevel := determineRiskLevel(predicted, req.FertilizerUsage, weather)

	result := &models.YieldPredictionResult{
		PredictedYield:  round2(predicted),
		Confidence:      defaultYieldConfidence,
		RiskLevel:       riskLevel,
		Recommendations: yieldRecommendations(req.CropType, predicted, req.FertilizerUsage, weather, riskLevel),
	}

	slog.Info("yield prediction completed",
		"crop_type", req.CropType,
		"predicted_yield", result.PredictedYield,
		"risk_level", result.RiskLevel)

	return result, nil
}

// Readiness reports the yield model state for health checks.
func (s *YieldPredictionService) Readiness() ml.Readiness {
	return s.model.Readiness()
}

// determineRiskLevel grades growing conditions from rainfall extremes,
// fertilizer input and the predicted yield itself. It reads the
// resolved weather record, so an unreported rainfall is the default 0
// and counts as a drought-side extreme.
func determineRiskLevel(predictedYield, fertilizerUsage float64, weather models.WeatherFeatures) string {
	if weather.Rainfall > 200 || weather.Rainfall < 50 {
		return "high"
	}

	if fertilizerUsage < 30 {
		return "medium"
	}

	if predictedYield < 20 {
		return "high"
	}

	return "low"
}

func yieldRecommendations(cropType string, predictedYield, fertilizerUsage float64, weather models.WeatherFeatures, riskLevel string) []string {
	var recommendations []string

	if fertilizerUsage < 50 {
		recommendations = append(recommendations, "Consider increasing organic fertilizer usage by 15-20% for better soil health")
	}

	if weather.Rainfall < 50 {
		recommendations = append(recommendations, "Irrigation levels should be monitored closely due to low rainfall")
	} else if weather.Rainfall > 200 {
		recommendations = append(recommendations, "Take measures to prevent waterlogging due to excessive rainfall")
	}

	if riskLevel == "high" {
		recommendations = append(recommendations, "High risk detected - consider consulting agricultural experts")
	}

	if predictedYield < 30 {
		recommendations = append(recommendations, "Yield prediction is below average - review farming practices and consider crop rotation")
	}

	switch strings.ToLower(strings.TrimSpace(cropType)) {
	case "rice":
		recommendations = append(recommendations, "Monitor water levels closely during flowering stage for optimal rice yield")
	case "wheat":
		recommendations = append(recommendations, "Ensure proper irrigation during grain filling stage")
	}

	if len(recommendations) == 0 {
		recommendations = append(recommendations, "Conditions look favorable - maintain current farming practices")
	}

	return recommendations
}
