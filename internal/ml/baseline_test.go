package ml

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"claim-evaluation-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

func solidImage(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func yieldFeatures(crop, area, days, irrigation, fertilizerKgHa, rainfall float64) []float64 {
	features := make([]float64, models.YieldFeatureCount)
	features[models.YieldFeatCropType] = crop
	features[models.YieldFeatAreaHectares] = area
	features[models.YieldFeatDaysSinceSowing] = days
	features[models.YieldFeatIrrigationType] = irrigation
	features[models.YieldFeatFertilizerKgPerHa] = fertilizerKgHa
	features[models.YieldFeatRainfall] = rainfall
	return features
}

// ============================================================================
// TEST SUITE 1: BASELINE DAMAGE MODEL
// ============================================================================

func TestBaselineDamageModel_GreenCropLooksHealthy(t *testing.T) {
	model := NewBaselineDamageModel()

	p, err := model.Predict(solidImage(color.RGBA{R: 30, G: 180, B: 40, A: 255}))

	require.NoError(t, err)
	assert.Equal(t, 0.0, p, "a fully green field should show no damage")
}

func TestBaselineDamageModel_BrownFieldLooksDamaged(t *testing.T) {
	model := NewBaselineDamageModel()

	p, err := model.Predict(solidImage(color.RGBA{R: 150, G: 100, B: 50, A: 255}))

	require.NoError(t, err)
	assert.Equal(t, 1.0, p, "a field with no green dominance reads as fully damaged")
}

func TestBaselineDamageModel_Readiness(t *testing.T) {
	assert.Equal(t, ReadinessFallbackDefault, NewBaselineDamageModel().Readiness())
	assert.True(t, NewBaselineDamageModel().Readiness().Ready())
}

// ============================================================================
// TEST SUITE 2: BASELINE YIELD MODEL
// ============================================================================

func TestBaselineYieldModel_MatureRiceCrop(t *testing.T) {
	model := NewBaselineYieldModel()

	// Rice (45 q/ha), 2 ha, mature (>=120 days), flood (factor 1.00),
	// 100 kg/ha fertilizer (factor 1.0), normal rain.
	features := yieldFeatures(0, 2, 150, 2, 100, 100)

	yield, err := model.Predict(features)

	require.NoError(t, err)
	assert.InDelta(t, 90.0, yield, 0.001)
}

func TestBaselineYieldModel_DroughtPenalty(t *testing.T) {
	model := NewBaselineYieldModel()

	normal, err := model.Predict(yieldFeatures(0, 2, 150, 2, 100, 100))
	require.NoError(t, err)

	drought, err := model.Predict(yieldFeatures(0, 2, 150, 2, 100, 20))
	require.NoError(t, err)

	assert.InDelta(t, normal*0.85, drought, 0.001, "rainfall outside 50-150mm costs 15%")
}

func TestBaselineYieldModel_YoungCropScalesDown(t *testing.T) {
	model := NewBaselineYieldModel()

	mature, err := model.Predict(yieldFeatures(0, 2, 120, 2, 100, 100))
	require.NoError(t, err)

	young, err := model.Predict(yieldFeatures(0, 2, 60, 2, 100, 100))
	require.NoError(t, err)

	assert.InDelta(t, mature*0.5, young, 0.001, "a crop at half its cycle yields half")
}

func TestBaselineYieldModel_WrongVectorLength(t *testing.T) {
	model := NewBaselineYieldModel()

	_, err := model.Predict([]float64{1, 2, 3})

	assert.Error(t, err)
}

// ============================================================================
// TEST SUITE 3: BASELINE ANOMALY MODEL
// ============================================================================

func TestBaselineAnomalyModel_CleanClaimIsNormal(t *testing.T) {
	model := NewBaselineAnomalyModel()

	features := make([]float64, models.FraudFeatureCount)
	features[models.FraudFeatYieldPerHectare] = 40

	label, raw, err := model.Score(features)

	require.NoError(t, err)
	assert.Equal(t, 1, label)
	assert.Equal(t, 0.5, raw)
}

func TestBaselineAnomalyModel_StackedPenaltiesFlagFraud(t *testing.T) {
	model := NewBaselineAnomalyModel()

	features := make([]float64, models.FraudFeatureCount)
	features[models.FraudFeatClaimToYieldRatio] = 1500 // +0.5
	features[models.FraudFeatYieldPerHectare] = 5      // +0.3
	features[models.FraudFeatClaimPerHectare] = 60000  // +0.4

	label, raw, err := model.Score(features)

	require.NoError(t, err)
	assert.Equal(t, -1, label)
	assert.InDelta(t, -0.7, raw, 0.001)
}

func TestBaselineAnomalyModel_WeatherPenaltyIsProportional(t *testing.T) {
	model := NewBaselineAnomalyModel()

	features := make([]float64, models.FraudFeatureCount)
	features[models.FraudFeatYieldPerHectare] = 40
	features[models.FraudFeatWeatherAnomalyScore] = 50

	label, raw, err := model.Score(features)

	require.NoError(t, err)
	assert.Equal(t, 1, label)
	assert.InDelta(t, 0.3, raw, 0.001, "weather score 50 costs 0.2")
}

// ============================================================================
// TEST SUITE 4: BASELINE SATELLITE MODEL
// ============================================================================

func TestBaselineSatelliteModel_GreenTileReadsHealthy(t *testing.T) {
	model := NewBaselineSatelliteModel()

	probs, err := model.Predict(solidImage(color.RGBA{R: 30, G: 160, B: 40, A: 255}))

	require.NoError(t, err)
	require.Len(t, probs, len(SatelliteClasses))

	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	assert.Equal(t, "healthy", SatelliteClasses[best])
}

func TestBaselineSatelliteModel_BrightTileReadsCloud(t *testing.T) {
	model := NewBaselineSatelliteModel()

	probs, err := model.Predict(solidImage(color.RGBA{R: 250, G: 250, B: 252, A: 255}))

	require.NoError(t, err)

	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	assert.Equal(t, "cloud_cover", SatelliteClasses[best])
}

func TestBaselineSatelliteModel_ProbabilitiesSumToOne(t *testing.T) {
	model := NewBaselineSatelliteModel()

	probs, err := model.Predict(solidImage(color.RGBA{R: 120, G: 90, B: 60, A: 255}))

	require.NoError(t, err)
	var total float64
	for _, p := range probs {
		total += p
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

// ============================================================================
// TEST SUITE 5: ARTIFACT LOADING
// ============================================================================

func TestLoadYieldModel_MissingArtifactFallsBack(t *testing.T) {
	model := LoadYieldModel(t.TempDir())

	assert.Equal(t, ReadinessFallbackDefault, model.Readiness())
}

func TestLoadYieldModel_ValidArtifact(t *testing.T) {
	dir := t.TempDir()
	artifact := `{"intercept": 5.0, "weights": [0,0,0,0,0,0,0,0,0,0,0,0,0]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "yield_model.json"), []byte(artifact), 0o644))

	model := LoadYieldModel(dir)

	assert.Equal(t, ReadinessLoaded, model.Readiness())
	yield, err := model.Predict(make([]float64, models.YieldFeatureCount))
	require.NoError(t, err)
	assert.Equal(t, 5.0, yield)
}

func TestLoadAnomalyModel_MissingArtifactFallsBack(t *testing.T) {
	model := LoadAnomalyModel(t.TempDir())

	assert.Equal(t, ReadinessFallbackDefault, model.Readiness())
}

func TestLoadAnomalyModel_InvalidThresholdFallsBack(t *testing.T) {
	dir := t.TempDir()
	artifact := `{"means": [0], "stds": [1], "threshold": 0}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fraud_model.json"), []byte(artifact), 0o644))

	model := LoadAnomalyModel(dir)

	assert.Equal(t, ReadinessFallbackDefault, model.Readiness())
}

func TestGaussianAnomalyModel_ZeroDeviationIsNormal(t *testing.T) {
	model := &GaussianAnomalyModel{
		Means:     make([]float64, models.FraudFeatureCount),
		Stds:      onesVector(models.FraudFeatureCount),
		Threshold: 3,
	}

	label, raw, err := model.Score(make([]float64, models.FraudFeatureCount))

	require.NoError(t, err)
	assert.Equal(t, 1, label)
	assert.Equal(t, 0.5, raw)
}

func onesVector(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}
