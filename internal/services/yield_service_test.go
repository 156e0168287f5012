package services

import (
	"errors"
	"testing"
	"time"

	"claim-evaluation-service/internal/ml"
	"claim-evaluation-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

type stubYieldModel struct {
	yield     float64
	readiness ml.Readiness
}

func (m *stubYieldModel) Predict(_ []float64) (float64, error) {
	return m.yield, nil
}

func (m *stubYieldModel) Readiness() ml.Readiness {
	return m.readiness
}

func yieldRequest() models.YieldPredictionRequest {
	rain := 100.0
	return models.YieldPredictionRequest{
		CropType:        "rice",
		LandSize:        "2 hectare",
		SowingDate:      "2025-06-15",
		SoilType:        "alluvial",
		IrrigationType:  "flood",
		FertilizerUsage: 60,
		Weather:         &models.WeatherInput{Rainfall: &rain},
	}
}

func weatherWithRainfall(rainfall float64) models.WeatherFeatures {
	w := ExtractWeather(nil)
	w.Rainfall = rainfall
	return w
}

func newTestYieldService(model ml.YieldModel) *YieldPredictionService {
	service := NewYieldPredictionService(model)
	service.now = func() time.Time {
		return time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	}
	return service
}

// ============================================================================
// TEST SUITE 1: PREDICTION
// ============================================================================

func TestPredictYield_Basic(t *testing.T) {
	service := newTestYieldService(&stubYieldModel{yield: 42.5, readiness: ml.ReadinessLoaded})

	result, err := service.Predict(yieldRequest())

	require.NoError(t, err)
	assert.Equal(t, 42.5, result.PredictedYield)
	assert.Equal(t, 85.0, result.Confidence)
	assert.Equal(t, "low", result.RiskLevel)
}

func TestPredictYield_NoWeatherGradesHighRisk(t *testing.T) {
	service := newTestYieldService(&stubYieldModel{yield: 42.5, readiness: ml.ReadinessLoaded})
	req := yieldRequest()
	req.Weather = nil

	result, err := service.Predict(req)

	require.NoError(t, err)
	assert.Equal(t, "high", result.RiskLevel)
	assert.Contains(t, result.Recommendations, "Irrigation levels should be monitored closely due to low rainfall")
}

func TestPredictYield_NegativePredictionClampsToZero(t *testing.T) {
	service := newTestYieldService(&stubYieldModel{yield: -3.2, readiness: ml.ReadinessLoaded})

	result, err := service.Predict(yieldRequest())

	require.NoError(t, err)
	assert.Equal(t, 0.0, result.PredictedYield)
}

func TestPredictYield_ModelUninitialized(t *testing.T) {
	service := newTestYieldService(&stubYieldModel{readiness: ml.ReadinessUninitialized})

	_, err := service.Predict(yieldRequest())

	assert.True(t, errors.Is(err, models.ErrModelUnavailable))
}

func TestPredictYield_BadLandSize(t *testing.T) {
	service := newTestYieldService(&stubYieldModel{yield: 40, readiness: ml.ReadinessLoaded})
	req := yieldRequest()
	req.LandSize = "plenty"

	_, err := service.Predict(req)

	assert.True(t, errors.Is(err, models.ErrInputFormat))
}

// ============================================================================
// TEST SUITE 2: RISK LEVEL
// ============================================================================

func TestDetermineRiskLevel_RainfallExtremes(t *testing.T) {
	assert.Equal(t, "high", determineRiskLevel(40, 60, weatherWithRainfall(250)))
	assert.Equal(t, "high", determineRiskLevel(40, 60, weatherWithRainfall(30)))
}

func TestDetermineRiskLevel_MissingRainfallCountsAsDrought(t *testing.T) {
	// An unreported rainfall resolves to the default 0 and grades high,
	// same as an explicit drought reading.
	assert.Equal(t, "high", determineRiskLevel(40, 60, ExtractWeather(nil)))
}

func TestDetermineRiskLevel_LowFertilizer(t *testing.T) {
	assert.Equal(t, "medium", determineRiskLevel(40, 20, weatherWithRainfall(100)))
}

func TestDetermineRiskLevel_LowPredictedYield(t *testing.T) {
	assert.Equal(t, "high", determineRiskLevel(15, 60, weatherWithRainfall(100)))
}

func TestDetermineRiskLevel_Favorable(t *testing.T) {
	assert.Equal(t, "low", determineRiskLevel(40, 60, weatherWithRainfall(100)))
}

// ============================================================================
// TEST SUITE 3: RECOMMENDATIONS
// ============================================================================

func TestYieldRecommendations_LowFertilizer(t *testing.T) {
	recs := yieldRecommendations("cotton", 40, 30, weatherWithRainfall(100), "low")

	assert.Contains(t, recs, "Consider increasing organic fertilizer usage by 15-20% for better soil health")
}

func TestYieldRecommendations_RainfallExtremes(t *testing.T) {
	recs := yieldRecommendations("cotton", 40, 60, weatherWithRainfall(30), "high")
	assert.Contains(t, recs, "Irrigation levels should be monitored closely due to low rainfall")

	recs = yieldRecommendations("cotton", 40, 60, weatherWithRainfall(250), "high")
	assert.Contains(t, recs, "Take measures to prevent waterlogging due to excessive rainfall")
}

func TestYieldRecommendations_CropSpecific(t *testing.T) {
	recs := yieldRecommendations("Rice", 40, 60, weatherWithRainfall(100), "low")
	assert.Contains(t, recs, "Monitor water levels closely during flowering stage for optimal rice yield")

	recs = yieldRecommendations("wheat", 40, 60, weatherWithRainfall(100), "low")
	assert.Contains(t, recs, "Ensure proper irrigation during grain filling stage")
}

func TestYieldRecommendations_FavorableFallback(t *testing.T) {
	recs := yieldRecommendations("cotton", 40, 60, weatherWithRainfall(100), "low")

	require.Len(t, recs, 1)
	assert.Equal(t, "Conditions look favorable - maintain current farming practices", recs[0])
}
