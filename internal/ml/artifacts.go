package ml

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Trained models are exported from the training pipeline as JSON
// coefficient files so this service stays free of any ML runtime.
// LoadYieldModel and LoadAnomalyModel read those artifacts; when the
// file is absent the caller gets the baseline fallback instead, which
// keeps the service starting on a fresh deployment.

const (
	yieldArtifact   = "yield_model.json"
	anomalyArtifact = "fraud_model.json"
)

// LinearYieldModel is a fitted linear regression over the 13-element
// yield vector.
type LinearYieldModel struct {
	Intercept float64   `json:"intercept"`
	Weights   []float64 `json:"weights"`
}

func (m *LinearYieldModel) Predict(features []float64) (float64, error) {
	if len(features) != len(m.Weights) {
		return 0, fmt.Errorf("expected %d yield features, got %d", len(m.Weights), len(features))
	}
	y := m.Intercept
	for i, w := range m.Weights {
		y += w * features[i]
	}
	return y, nil
}

func (m *LinearYieldModel) Readiness() Readiness {
	return ReadinessLoaded
}

// GaussianAnomalyModel scores fraud vectors by normalized distance from
// the fitted feature means, exported from the training pipeline.
type GaussianAnomalyModel struct {
	Means     []float64 `json:"means"`
	Stds      []float64 `json:"stds"`
	Threshold float64   `json:"threshold"`
}

func (m *GaussianAnomalyModel) Score(features []float64) (int, float64, error) {
	if len(features) != len(m.Means) {
		return 0, 0, fmt.Errorf("expected %d fraud features, got %d", len(m.Means), len(features))
	}

	var dist float64
	for i, v := range features {
		std := m.Stds[i]
		if std <= 0 {
			std = 1
		}
		d := (v - m.Means[i]) / std
		if d < 0 {
			d = -d
		}
		dist += d
	}
	dist /= float64(len(features))

	// Map mean deviation onto the IsolationForest raw-score scale:
	// zero deviation scores +0.5, the fitted threshold scores 0.
	raw := 0.5 * (1 - dist/m.Threshold)
	if raw < -1 {
		raw = -1
	}
	if raw > 1 {
		raw = 1
	}
	label := 1
	if raw < 0 {
		label = -1
	}
	return label, raw, nil
}

func (m *GaussianAnomalyModel) Readiness() Readiness {
	return ReadinessLoaded
}

// LoadYieldModel returns the fitted yield model from modelDir, or the
// baseline when no artifact is present.
func LoadYieldModel(modelDir string) YieldModel {
	path := filepath.Join(modelDir, yieldArtifact)
	var model LinearYieldModel
	if err := loadArtifact(path, &model); err != nil {
		slog.Warn("yield model artifact not loaded, using baseline model", "path", path, "error", err)
		return NewBaselineYieldModel()
	}
	slog.Info("loaded yield model artifact", "path", path)
	return &model
}

// LoadAnomalyModel returns the fitted anomaly model from modelDir, or
// the baseline when no artifact is present.
func LoadAnomalyModel(modelDir string) AnomalyModel {
	path := filepath.Join(modelDir, anomalyArtifact)
	var model GaussianAnomalyModel
	if err := loadArtifact(path, &model); err != nil {
		slog.Warn("fraud model artifact not loaded, using baseline model", "path", path, "error", err)
		return NewBaselineAnomalyModel()
	}
	if model.Threshold <= 0 {
		slog.Warn("fraud model artifact has invalid threshold, using baseline model", "path", path)
		return NewBaselineAnomalyModel()
	}
	slog.Info("loaded fraud model artifact", "path", path)
	return &model
}

func loadArtifact(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse model artifact %s: %w", path, err)
	}
	return nil
}
