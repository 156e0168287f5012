package services

import (
	"log/slog"
	"math"
	"time"

	"claim-evaluation-service/internal/models"
)

const (
	// fertilizerAcreFactor converts fertilizer from kg/acre input to
	// kg/hectare for the yield vector.
	fertilizerAcreFactor = 0.4047

	// defaultDaysSinceSowing stands in when the sowing date cannot be
	// parsed; a claim without a usable date must still vectorize.
	defaultDaysSinceSowing = 90

	sowingDateLayout = "2006-01-02"
)

// DaysSinceSowing returns the calendar days between now and the sowing
// date, clamped to zero. An unparseable date degrades to the default
// with a warning instead of failing the pipeline.
func DaysSinceSowing(sowingDate string, now time.Time) float64 {
	sowing, err := time.Parse(sowingDateLayout, sowingDate)
	if err != nil {
		slog.Warn("unparseable sowing date, using default crop age", "sowing_date", sowingDate, "default_days", defaultDaysSinceSowing)
		return defaultDaysSinceSowing
	}

	days := now.Sub(sowing).Hours() / 24.0
	return math.Max(0, math.Floor(days))
}

// SeasonFlags derives the Kharif/Rabi indicator pair from the sowing
// month. Kharif covers June-October, Rabi November-April. May belongs
// to neither season and both flags stay 0; the models were fit with
// that gap, so it is preserved rather than papered over.
func SeasonFlags(sowingDate string) (kharif, rabi float64) {
	sowing, err := time.Parse(sowingDateLayout, sowingDate)
	if err != nil {
		return 0, 0
	}

	month := int(sowing.Month())
	if month >= 6 && month <= 10 {
		kharif = 1
	}
	if month >= 11 || month <= 4 {
		rabi = 1
	}
	return kharif, rabi
}

// WeatherAnomalyScore accumulates penalty points for weather readings
// outside their normal ranges, capped at 100. A deliberately simple
// additive rule model so the score stays interpretable.
func WeatherAnomalyScore(w models.WeatherFeatures) float64 {
	score := 0.0

	if w.Temperature < 20 || w.Temperature > 35 {
		score += 30
	}
	if w.Rainfall < 50 || w.Rainfall > 150 {
		score += 40
	}
	if w.Humidity < 40 || w.Humidity > 80 {
		score += 30
	}

	return math.Min(100.0, score)
}

// BuildYieldFeatures derives the 13-element yield vector. The order is
// fixed by the models package constants and must not change. Pure:
// identical inputs and the same "now" produce identical vectors.
func BuildYieldFeatures(req models.YieldPredictionRequest, areaHectares float64, weather models.WeatherFeatures, now time.Time) []float64 {
	kharif, rabi := SeasonFlags(req.SowingDate)

	features := make([]float64, models.YieldFeatureCount)
	features[models.YieldFeatCropType] = models.EncodeCropType(NormalizeCropType(req.CropType))
	features[models.YieldFeatAreaHectares] = areaHectares
	features[models.YieldFeatDaysSinceSowing] = DaysSinceSowing(req.SowingDate, now)
	features[models.YieldFeatSoilType] = models.EncodeSoilType(NormalizeSoilType(req.SoilType))
	features[models.YieldFeatIrrigationType] = models.EncodeIrrigationType(NormalizeIrrigationType(req.IrrigationType))
	features[models.YieldFeatFertilizerKgPerHa] = req.FertilizerUsage / fertilizerAcreFactor
	features[models.YieldFeatTemperature] = weather.Temperature
	features[models.YieldFeatRainfall] = weather.Rainfall
	features[models.YieldFeatHumidity] = weather.Humidity
	features[models.YieldFeatWindSpeed] = weather.WindSpeed
	features[models.YieldFeatSunshineHours] = weather.SunshineHours
	features[models.YieldFeatSeasonKharif] = kharif
	features[models.YieldFeatSeasonRabi] = rabi
	return features
}

// BuildFraudFeatures derives the 12-element fraud vector. Ratio
// features are defined as 0 when their denominator is not positive, so
// degenerate claims score instead of dividing by zero.
func BuildFraudFeatures(req models.FraudDetectionRequest, areaHectares float64, weather models.WeatherFeatures) []float64 {
	yieldPerHectare := 0.0
	claimPerHectare := 0.0
	if areaHectares > 0 {
		yieldPerHectare = req.ExpectedYield / areaHectares
		claimPerHectare = req.ClaimAmount / areaHectares
	}

	claimToYieldRatio := 0.0
	if req.ExpectedYield > 0 {
		claimToYieldRatio = req.ClaimAmount / req.ExpectedYield
	}

	features := make([]float64, models.FraudFeatureCount)
	features[models.FraudFeatCropType] = models.EncodeCropType(NormalizeCropType(req.CropType))
	features[models.FraudFeatAreaHectares] = areaHectares
	features[models.FraudFeatExpectedYield] = req.ExpectedYield
	features[models.FraudFeatClaimAmount] = req.ClaimAmount
	features[models.FraudFeatYieldPerHectare] = yieldPerHectare
	features[models.FraudFeatClaimPerHectare] = claimPerHectare
	features[models.FraudFeatClaimToYieldRatio] = claimToYieldRatio
	features[models.FraudFeatHistoricalClaims] = float64(req.HistoricalClaims)
	features[models.FraudFeatTemperature] = weather.Temperature
	features[models.FraudFeatRainfall] = weather.Rainfall
	features[models.FraudFeatHumidity] = weather.Humidity
	features[models.FraudFeatWeatherAnomalyScore] = WeatherAnomalyScore(weather)
	return features
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
