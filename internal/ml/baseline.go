package ml

import (
	"fmt"
	"image"

	"claim-evaluation-service/internal/models"
)

// The baseline models below back the degrade-don't-crash policy: when
// no trained artifact is available the service still answers, just on
// interpretable heuristics instead of a fitted estimator. All of them
// report ReadinessFallbackDefault and are fully deterministic.

// BaselineDamageModel estimates damage from vegetation color. Healthy
// crops are green-dominant; damaged or dried crops shift to brown and
// yellow, shrinking the green-pixel fraction.
type BaselineDamageModel struct{}

func NewBaselineDamageModel() *BaselineDamageModel {
	return &BaselineDamageModel{}
}

func (m *BaselineDamageModel) Predict(img image.Image) (float64, error) {
	green := greenFraction(img)
	p := 1.0 - 1.25*green
	return clamp(p, 0, 1), nil
}

func (m *BaselineDamageModel) Readiness() Readiness {
	return ReadinessFallbackDefault
}

// BaselineYieldModel predicts quintals from per-crop reference yields
// scaled by irrigation, fertilizer, rainfall and crop age factors.
type BaselineYieldModel struct{}

func NewBaselineYieldModel() *BaselineYieldModel {
	return &BaselineYieldModel{}
}

// Reference yields in quintals per hectare, indexed by crop code.
var baselineYieldPerHectare = []float64{45, 35, 18, 700, 55}

var irrigationYieldFactor = []float64{1.10, 1.05, 1.00, 0.85}

func (m *BaselineYieldModel) Predict(features []float64) (float64, error) {
	if len(features) != models.YieldFeatureCount {
		return 0, fmt.Errorf("expected %d yield features, got %d", models.YieldFeatureCount, len(features))
	}

	crop := int(features[models.YieldFeatCropType])
	if crop < 0 || crop >= len(baselineYieldPerHectare) {
		crop = 0
	}
	base := baselineYieldPerHectare[crop] * features[models.YieldFeatAreaHectares]

	irrigation := int(features[models.YieldFeatIrrigationType])
	if irrigation < 0 || irrigation >= len(irrigationYieldFactor) {
		irrigation = 2
	}
	base *= irrigationYieldFactor[irrigation]

	fertilizer := clamp(0.8+features[models.YieldFeatFertilizerKgPerHa]/500.0, 0.8, 1.15)
	base *= fertilizer

	rain := features[models.YieldFeatRainfall]
	if rain < 50 || rain > 150 {
		base *= 0.85
	}

	growth := clamp(features[models.YieldFeatDaysSinceSowing]/120.0, 0, 1)
	base *= growth

	return base, nil
}

func (m *BaselineYieldModel) Readiness() Readiness {
	return ReadinessFallbackDefault
}

// BaselineAnomalyModel scores fraud vectors with additive penalties
// over the same derived features a fitted detector would weigh. The
// raw score follows the IsolationForest convention: it starts at 0.5
// (clearly normal) and sinks below zero as penalties accumulate.
type BaselineAnomalyModel struct{}

func NewBaselineAnomalyModel() *BaselineAnomalyModel {
	return &BaselineAnomalyModel{}
}

func (m *BaselineAnomalyModel) Score(features []float64) (int, float64, error) {
	if len(features) != models.FraudFeatureCount {
		return 0, 0, fmt.Errorf("expected %d fraud features, got %d", models.FraudFeatureCount, len(features))
	}

	penalty := features[models.FraudFeatWeatherAnomalyScore] / 100.0 * 0.4
	if features[models.FraudFeatClaimToYieldRatio] > 1000 {
		penalty += 0.5
	}
	perHa := features[models.FraudFeatYieldPerHectare]
	if perHa < 10 || perHa > 100 {
		penalty += 0.3
	}
	if features[models.FraudFeatClaimPerHectare] > 50000 {
		penalty += 0.4
	}
	if features[models.FraudFeatHistoricalClaims] > 5 {
		penalty += 0.3
	}

	raw := clamp(0.5-penalty, -1, 1)
	label := 1
	if raw < 0 {
		label = -1
	}
	return label, raw, nil
}

func (m *BaselineAnomalyModel) Readiness() Readiness {
	return ReadinessFallbackDefault
}

// SatelliteClasses is the fixed label set for satellite verification.
var SatelliteClasses = []string{"healthy", "damaged", "cloud_cover", "no_crop"}

// BaselineSatelliteModel classifies satellite tiles from brightness and
// vegetation color: very bright tiles read as cloud cover, green tiles
// as healthy crop, the remainder as damaged or bare ground.
type BaselineSatelliteModel struct{}

func NewBaselineSatelliteModel() *BaselineSatelliteModel {
	return &BaselineSatelliteModel{}
}

func (m *BaselineSatelliteModel) Predict(img image.Image) ([]float64, error) {
	green := greenFraction(img)
	bright := brightness(img)

	cloud := clamp((bright-0.75)*4, 0, 1)
	healthy := clamp(green*(1-cloud), 0, 1)
	noCrop := clamp((0.2-green)*2, 0, 1) * (1 - cloud)
	damaged := clamp(1-healthy-cloud-noCrop, 0, 1)

	probs := []float64{healthy, damaged, cloud, noCrop}
	var total float64
	for _, p := range probs {
		total += p
	}
	if total == 0 {
		return []float64{0.25, 0.25, 0.25, 0.25}, nil
	}
	for i := range probs {
		probs[i] /= total
	}
	return probs, nil
}

func (m *BaselineSatelliteModel) Classes() []string {
	return SatelliteClasses
}

func (m *BaselineSatelliteModel) Readiness() Readiness {
	return ReadinessFallbackDefault
}

// greenFraction is the share of pixels whose green channel dominates
// both red and blue. Sampled on a stride for large images.
func greenFraction(img image.Image) float64 {
	bounds := img.Bounds()
	if bounds.Empty() {
		return 0
	}

	step := 1
	if bounds.Dx() > 256 || bounds.Dy() > 256 {
		step = bounds.Dx() / 128
		if step < 1 {
			step = 1
		}
	}

	var total, green int
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, _ := img.At(x, y).RGBA()
			total++
			if g > r && g > b {
				green++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(green) / float64(total)
}

// brightness is the mean luminance in [0,1], sampled like greenFraction.
func brightness(img image.Image) float64 {
	bounds := img.Bounds()
	if bounds.Empty() {
		return 0
	}

	step := 1
	if bounds.Dx() > 256 || bounds.Dy() > 256 {
		step = bounds.Dx() / 128
		if step < 1 {
			step = 1
		}
	}

	var total int
	var sum float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, _ := img.At(x, y).RGBA()
			sum += (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 65535.0
			total++
		}
	}
	if total == 0 {
		return 0
	}
	return sum / float64(total)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
