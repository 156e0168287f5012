// Package ml defines the narrow prediction contracts the evaluation
// core consumes. The core treats every model as a numeric function and
// never inspects internals, so trained artifacts and the built-in
// baselines are interchangeable.
package ml

import "image"

// Readiness is the tagged model state. Call sites can distinguish
// "degraded but functional" (fallback baseline) from "not ready".
type Readiness int

const (
	ReadinessUninitialized Readiness = iota
	ReadinessLoaded
	ReadinessFallbackDefault
)

func (r Readiness) String() string {
	switch r {
	case ReadinessLoaded:
		return "loaded"
	case ReadinessFallbackDefault:
		return "fallback_default"
	default:
		return "uninitialized"
	}
}

// Ready reports whether the model can serve predictions at all.
func (r Readiness) Ready() bool {
	return r != ReadinessUninitialized
}

// DamageModel estimates the probability, in [0,1], that an image shows
// crop damage.
type DamageModel interface {
	Predict(img image.Image) (float64, error)
	Readiness() Readiness
}

// YieldModel predicts yield in quintals from the 13-element yield
// feature vector. Feature order is part of the contract.
type YieldModel interface {
	Predict(features []float64) (float64, error)
	Readiness() Readiness
}

// AnomalyModel scores the 12-element fraud feature vector using the
// IsolationForest convention: label -1 means anomalous, +1 normal, and
// the raw score is roughly in [-1,1] with lower meaning more anomalous.
type AnomalyModel interface {
	Score(features []float64) (label int, raw float64, err error)
	Readiness() Readiness
}

// SatelliteModel classifies a satellite crop image into the classes it
// reports via Classes, returning one probability per class.
type SatelliteModel interface {
	Predict(img image.Image) ([]float64, error)
	Classes() []string
	Readiness() Readiness
}
